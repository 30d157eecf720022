package client

import (
	"sync"

	"github.com/vovakirdan/tui-tictac/internal/session"
)

// Subscription receives state snapshots from a Client. Slow readers miss
// intermediate snapshots, never the latest one.
type Subscription struct {
	updates  chan session.State
	done     chan struct{}
	doneOnce sync.Once
}

func newSubscription(bufferSize int) *Subscription {
	if bufferSize < 1 {
		bufferSize = 8
	}
	return &Subscription{
		updates: make(chan session.State, bufferSize),
		done:    make(chan struct{}),
	}
}

// deliver queues st, dropping the oldest snapshot when the buffer is full.
func (s *Subscription) deliver(st session.State) {
	select {
	case <-s.done:
		return
	default:
	}

	select {
	case s.updates <- st:
	default:
		select {
		case <-s.updates:
		default:
		}
		select {
		case s.updates <- st:
		default:
		}
	}
}

// Updates returns the snapshot channel.
func (s *Subscription) Updates() <-chan session.State {
	return s.updates
}

// Done closes when the subscription or its client ends.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

// Close stops delivery. Safe to call multiple times.
func (s *Subscription) Close() {
	s.doneOnce.Do(func() {
		close(s.done)
	})
}

func (s *Subscription) closed() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// subscribers is the set of live subscriptions.
type subscribers struct {
	mu   sync.Mutex
	subs []*Subscription
}

func (r *subscribers) add(s *Subscription) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs = append(r.subs, s)
}

func (r *subscribers) publish(st session.State) {
	r.mu.Lock()
	defer r.mu.Unlock()

	live := r.subs[:0]
	for _, s := range r.subs {
		if s.closed() {
			continue
		}
		s.deliver(st)
		live = append(live, s)
	}
	for i := len(live); i < len(r.subs); i++ {
		r.subs[i] = nil
	}
	r.subs = live
}

func (r *subscribers) closeAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, s := range r.subs {
		s.Close()
	}
	r.subs = nil
}
