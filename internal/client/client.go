// Package client runs the single-threaded session loop: it owns the
// SessionState, feeds it transport events and user commands, runs the two
// display timers and publishes every new state to subscribers.
package client

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/vovakirdan/tui-tictac/internal/notify"
	"github.com/vovakirdan/tui-tictac/internal/protocol"
	"github.com/vovakirdan/tui-tictac/internal/schedule"
	"github.com/vovakirdan/tui-tictac/internal/session"
	"github.com/vovakirdan/tui-tictac/internal/transport"
)

// ConnectionErrorMessage is shown when the connection closes with an error.
const ConnectionErrorMessage = "Connection error occurred"

// ErrStopped is returned by Connect once the client is stopped.
var ErrStopped = errors.New("client: stopped")

// Connection is the transport the client drives. *transport.Manager
// implements it.
type Connection interface {
	Connect(ctx context.Context, username string) error
	Send(msg protocol.Outbound) bool
	Disconnect()
	Events() <-chan transport.Event
}

// Options configures a Client.
type Options struct {
	NotificationTTL time.Duration
	TeardownDelay   time.Duration
	// Clock drives both timers. Defaults to the wall clock.
	Clock  clock.Clock
	Logger *log.Logger
	// SubscriberBuffer is the snapshot buffer of each subscription.
	SubscriberBuffer int
}

// DefaultTeardownDelay is how long a concluded game stays on screen after
// the server ends the session.
const DefaultTeardownDelay = 2 * time.Second

// Client is one player's session with the game server.
type Client struct {
	id     string
	conn   Connection
	logger *log.Logger

	teardownDelay time.Duration
	subBuffer     int

	inbox     chan clientMessage
	done      chan struct{}
	stopOnce  sync.Once
	stopped   chan struct{}
	startOnce sync.Once

	snapshot atomic.Pointer[session.State]
	subs     subscribers

	// Owned by the loop goroutine.
	cur      session.State
	notices  *notify.Queue
	teardown *schedule.Slot
}

// New creates a client around conn. Call Start before issuing commands.
func New(conn Connection, opts Options) *Client {
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.TeardownDelay <= 0 {
		opts.TeardownDelay = DefaultTeardownDelay
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.Default()
	}

	c := &Client{
		id:            uuid.NewString(),
		conn:          conn,
		teardownDelay: opts.TeardownDelay,
		subBuffer:     opts.SubscriberBuffer,
		inbox:         make(chan clientMessage),
		done:          make(chan struct{}),
		stopped:       make(chan struct{}),
		teardown:      schedule.NewSlot(opts.Clock),
	}
	c.logger = logger.With("client", c.id)
	c.notices = notify.NewQueue(opts.Clock, opts.NotificationTTL, func(gen uint64) {
		c.post(noticeExpiredMsg{gen: gen})
	})
	initial := session.State{}
	c.snapshot.Store(&initial)
	return c
}

// ID returns the client's instance id, used in logs.
func (c *Client) ID() string {
	return c.id
}

// Start begins the client's background loop.
func (c *Client) Start() {
	c.startOnce.Do(func() {
		go c.run()
	})
}

// Stop disconnects, ends the loop and closes every subscription.
// Safe to call multiple times.
func (c *Client) Stop() {
	c.stopOnce.Do(func() {
		c.conn.Disconnect()
		close(c.done)
	})
	c.startOnce.Do(func() { close(c.stopped) })
	<-c.stopped
}

// State returns the latest published state.
func (c *Client) State() session.State {
	return *c.snapshot.Load()
}

// Subscribe registers for state snapshots. The current state is delivered
// immediately.
func (c *Client) Subscribe() *Subscription {
	s := newSubscription(c.subBuffer)
	c.subs.add(s)
	s.deliver(c.State())
	return s
}

// Connect opens the connection as username. Rejections from the transport
// are returned; the connection outcome arrives as state updates.
func (c *Client) Connect(ctx context.Context, username string) error {
	reply := make(chan error, 1)
	if !c.post(connectMsg{ctx: ctx, username: username, reply: reply}) {
		return ErrStopped
	}
	return c.await(reply, ErrStopped)
}

// RequestInvite invites the player with id target. It reports whether an
// invitation was sent; guard failures are silent.
func (c *Client) RequestInvite(target string) bool {
	reply := make(chan bool, 1)
	if !c.post(inviteMsg{target: target, reply: reply}) {
		return false
	}
	return awaitBool(c, reply)
}

// RespondToInvitation answers the pending invitation.
func (c *Client) RespondToInvitation(accept bool) bool {
	reply := make(chan bool, 1)
	if !c.post(respondMsg{accept: accept, reply: reply}) {
		return false
	}
	return awaitBool(c, reply)
}

// SubmitMove places this player's mark at position 0..8.
func (c *Client) SubmitMove(position int) bool {
	reply := make(chan bool, 1)
	if !c.post(moveMsg{position: position, reply: reply}) {
		return false
	}
	return awaitBool(c, reply)
}

// Quit tells the server the player is leaving and closes the connection.
// It reports whether the leave notice was queued.
func (c *Client) Quit() bool {
	reply := make(chan bool, 1)
	if !c.post(quitMsg{reply: reply}) {
		return false
	}
	return awaitBool(c, reply)
}

func (c *Client) post(msg clientMessage) bool {
	select {
	case c.inbox <- msg:
		return true
	case <-c.done:
		return false
	}
}

func (c *Client) await(reply chan error, otherwise error) error {
	select {
	case err := <-reply:
		return err
	case <-c.done:
		return otherwise
	}
}

func awaitBool(c *Client, reply chan bool) bool {
	select {
	case ok := <-reply:
		return ok
	case <-c.done:
		return false
	}
}

func (c *Client) run() {
	defer close(c.stopped)
	defer c.subs.closeAll()
	defer c.teardown.Cancel()
	defer c.notices.Clear()

	c.logger.Debug("client loop started")
	events := c.conn.Events()
	for {
		select {
		case <-c.done:
			c.logger.Debug("client loop stopped")
			return
		case ev := <-events:
			c.handleEvent(ev)
		case msg := <-c.inbox:
			c.handleMessage(msg)
		}
		c.publish()
	}
}

func (c *Client) publish() {
	if n, ok := c.notices.Current(); ok {
		c.cur = c.cur.WithNotification(&n)
	} else {
		c.cur = c.cur.WithNotification(nil)
	}
	st := c.cur
	c.snapshot.Store(&st)
	c.subs.publish(st)
}

func (c *Client) handleEvent(ev transport.Event) {
	switch e := ev.(type) {
	case transport.Opened:
		c.logger.Info("connected", "username", e.Username)
		c.cur = c.cur.Opened(e.Username)

	case transport.Message:
		msg, err := protocol.Decode(e.Data)
		if err != nil {
			if errors.Is(err, protocol.ErrUnknownType) {
				c.logger.Debug("dropping envelope", "err", err)
			} else {
				c.logger.Warn("dropping envelope", "err", err)
			}
			return
		}
		c.logger.Debug("received", "type", msg.MessageType())
		next, ins := session.Dispatch(c.cur, msg)
		c.cur = next
		c.apply(ins)

	case transport.Closed:
		c.teardown.Cancel()
		c.notices.Clear()
		c.cur = c.cur.Disconnected()
		if e.Err != nil {
			c.logger.Warn("connection lost", "err", e.Err)
			c.notices.Set(notify.KindError, ConnectionErrorMessage)
		} else {
			c.logger.Info("disconnected")
		}
	}
}

func (c *Client) handleMessage(msg clientMessage) {
	switch m := msg.(type) {
	case connectMsg:
		ctx := m.ctx
		if ctx == nil {
			ctx = context.Background()
		}
		err := c.conn.Connect(ctx, m.username)
		if err != nil {
			c.logger.Debug("connect rejected", "err", err)
		}
		m.reply <- err

	case inviteMsg:
		next, out, ok := session.RequestInvite(c.cur, m.target)
		if ok && c.send(out) {
			c.cur = next
			m.reply <- true
			return
		}
		m.reply <- false

	case respondMsg:
		next, out, ok := session.RespondToInvitation(c.cur, m.accept)
		if ok && c.send(out) {
			c.cur = next
			m.reply <- true
			return
		}
		m.reply <- false

	case moveMsg:
		out, ok := session.SubmitMove(c.cur, m.position)
		m.reply <- ok && c.send(out)

	case quitMsg:
		sent := false
		if out, ok := session.Quit(c.cur); ok {
			sent = c.send(out)
		}
		c.conn.Disconnect()
		m.reply <- sent

	case noticeExpiredMsg:
		c.notices.Expire(m.gen)

	case teardownMsg:
		if !c.teardown.Claim(m.gen) {
			return
		}
		next, ins := session.Teardown(c.cur, m.message)
		c.cur = next
		c.apply(ins)
	}
}

func (c *Client) send(msg protocol.Outbound) bool {
	if !c.conn.Send(msg) {
		c.logger.Debug("send skipped", "type", msg.MessageType())
		return false
	}
	c.logger.Debug("sent", "type", msg.MessageType())
	return true
}

func (c *Client) apply(ins []session.Instruction) {
	for _, in := range ins {
		switch i := in.(type) {
		case session.Notify:
			c.notices.Set(i.Kind, i.Message)
		case session.ScheduleTeardown:
			message := i.Message
			c.teardown.Arm(c.teardownDelay, func(gen uint64) {
				c.post(teardownMsg{gen: gen, message: message})
			})
		case session.CancelTeardown:
			c.teardown.Cancel()
		}
	}
}
