// Package schedule provides single-slot cancellable timers on top of an
// injectable clock, so timer driven state transitions can be tested with a
// mock clock.
package schedule

import (
	"sync"
	"time"

	"github.com/benbjohnson/clock"
)

// Slot holds at most one pending timer. Arming a slot replaces whatever was
// pending; timers never stack.
//
// A fired timer only calls back with its generation. The owner confirms the
// fire with Claim, which rejects generations that were replaced or cancelled
// after the callback was already on its way.
type Slot struct {
	clock clock.Clock

	mu    sync.Mutex
	timer *clock.Timer
	gen   uint64
	armed bool
}

// NewSlot creates an empty slot driven by c.
func NewSlot(c clock.Clock) *Slot {
	if c == nil {
		c = clock.New()
	}
	return &Slot{clock: c}
}

// Arm cancels any pending timer and starts a new one. fire runs on the
// clock's goroutine after d with the generation returned here.
func (s *Slot) Arm(d time.Duration, fire func(gen uint64)) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.gen++
	s.armed = true

	gen := s.gen
	s.timer = s.clock.AfterFunc(d, func() { fire(gen) })
	return gen
}

// Cancel stops the pending timer, if any. Safe to call on an empty slot.
func (s *Slot) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
	s.armed = false
}

// Claim reports whether gen is the live arm of this slot and, if so, empties
// the slot. Stale generations return false.
func (s *Slot) Claim(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.armed || gen != s.gen {
		return false
	}
	s.armed = false
	s.timer = nil
	return true
}

// Pending reports whether a timer is armed.
func (s *Slot) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.armed
}

func (s *Slot) stopLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
