package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tripdraft/itinerary-api/internal/domain"
)

// Queue holds user-facing notifications in FIFO insertion order.
// It is safe for concurrent use.
type Queue struct {
	mu     sync.Mutex
	items  []domain.Notification
	timers map[domain.NotificationID]*time.Timer

	newID     func() domain.NotificationID
	afterFunc func(d time.Duration, fn func()) *time.Timer
}

func NewQueue() *Queue {
	return &Queue{
		timers: make(map[domain.NotificationID]*time.Timer),
		newID: func() domain.NotificationID {
			return domain.NotificationID(uuid.NewString())
		},
		afterFunc: time.AfterFunc,
	}
}

// SetNewIDForTest overrides notification ID generation for deterministic tests.
// It should not be used in production code.
func (q *Queue) SetNewIDForTest(fn func() domain.NotificationID) {
	if fn != nil {
		q.newID = fn
	}
}

// SetAfterFuncForTest overrides the auto-dismiss timer source so tests can
// fire expirations deterministically.
func (q *Queue) SetAfterFuncForTest(fn func(d time.Duration, f func()) *time.Timer) {
	if fn != nil {
		q.afterFunc = fn
	}
}

// Enqueue assigns a fresh id to n, appends it to the queue, and arms the
// auto-dismiss timer when n.Duration is set. Any id already on n is ignored.
func (q *Queue) Enqueue(n domain.Notification) domain.NotificationID {
	q.mu.Lock()
	defer q.mu.Unlock()

	n.ID = q.newID()
	q.items = append(q.items, n)

	if n.Duration > 0 {
		id := n.ID
		q.timers[id] = q.afterFunc(n.Duration, func() { q.Dismiss(id) })
	}
	return n.ID
}

// Dismiss removes the notification with the given id. It is idempotent:
// dismissing an absent id is a no-op.
func (q *Queue) Dismiss(id domain.NotificationID) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if t, ok := q.timers[id]; ok {
		t.Stop()
		delete(q.timers, id)
	}
	for i, n := range q.items {
		if n.ID == id {
			q.items = append(q.items[:i], q.items[i+1:]...)
			return
		}
	}
}

// Get returns the notification with the given id, if present.
func (q *Queue) Get(id domain.NotificationID) (domain.Notification, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for _, n := range q.items {
		if n.ID == id {
			return n, true
		}
	}
	return domain.Notification{}, false
}

// List returns a snapshot of the queue in insertion order.
func (q *Queue) List() []domain.Notification {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]domain.Notification(nil), q.items...)
}

// Len returns the number of queued notifications.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
