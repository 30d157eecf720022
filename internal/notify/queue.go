// Package notify implements the single-slot, self-expiring advisory message
// shown to the user.
package notify

import (
	"time"

	"github.com/benbjohnson/clock"

	"github.com/vovakirdan/tui-tictac/internal/schedule"
)

// DefaultTTL is how long a notification stays visible.
const DefaultTTL = 5 * time.Second

// Kind classifies a notification for display.
type Kind string

const (
	KindInfo  Kind = "info"
	KindError Kind = "error"
)

// Notification is one advisory message.
type Notification struct {
	Kind    Kind
	Message string
	Expires time.Time
}

// IsError reports whether this is an error notification.
func (n Notification) IsError() bool {
	return n.Kind == KindError
}

// Queue owns the notification slot and its expiry timer.
// It is not safe for concurrent use; the client loop is its only caller.
type Queue struct {
	clock    clock.Clock
	ttl      time.Duration
	slot     *schedule.Slot
	onExpire func(gen uint64)
	current  *Notification
}

// NewQueue creates an empty queue. onExpire is invoked from the clock's
// goroutine when the slot's timer fires; the receiver passes the generation
// back to Expire.
func NewQueue(c clock.Clock, ttl time.Duration, onExpire func(gen uint64)) *Queue {
	if c == nil {
		c = clock.New()
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if onExpire == nil {
		onExpire = func(uint64) {}
	}
	return &Queue{
		clock:    c,
		ttl:      ttl,
		slot:     schedule.NewSlot(c),
		onExpire: onExpire,
	}
}

// Set replaces the current notification and restarts the expiry timer.
func (q *Queue) Set(kind Kind, message string) Notification {
	n := Notification{
		Kind:    kind,
		Message: message,
		Expires: q.clock.Now().Add(q.ttl),
	}
	q.current = &n
	q.slot.Arm(q.ttl, q.onExpire)
	return n
}

// Clear empties the slot and cancels its timer. Idempotent.
func (q *Queue) Clear() {
	q.slot.Cancel()
	q.current = nil
}

// Expire handles a timer fire. It returns true if gen was the live timer and
// the slot was emptied.
func (q *Queue) Expire(gen uint64) bool {
	if !q.slot.Claim(gen) {
		return false
	}
	q.current = nil
	return true
}

// Current returns the visible notification, if any.
func (q *Queue) Current() (Notification, bool) {
	if q.current == nil {
		return Notification{}, false
	}
	return *q.current, true
}
