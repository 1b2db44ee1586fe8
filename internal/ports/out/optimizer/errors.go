package optimizer

import "errors"

// ErrUnavailable indicates the optimization service could not be reached or
// returned a non-success status.
var ErrUnavailable = errors.New("route optimization service unavailable")
