package clock

import "time"

// Clock provides time to the application. Operation records are timestamped
// through it so tests can pin the clock.
type Clock interface {
	Now() time.Time
}
