package client

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-tictac/internal/notify"
	"github.com/vovakirdan/tui-tictac/internal/protocol"
	"github.com/vovakirdan/tui-tictac/internal/session"
	"github.com/vovakirdan/tui-tictac/internal/transport"
)

// fakeConn behaves like transport.Manager without a socket: Connect opens
// immediately and Disconnect closes cleanly.
type fakeConn struct {
	events chan transport.Event

	mu          sync.Mutex
	open        bool
	sent        []protocol.Outbound
	connectErr  error
	disconnects int
}

func newFakeConn() *fakeConn {
	return &fakeConn{events: make(chan transport.Event, 64)}
}

func (f *fakeConn) Connect(_ context.Context, username string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.connectErr != nil {
		return f.connectErr
	}
	if f.open {
		return transport.ErrAlreadyConnected
	}
	f.open = true
	f.events <- transport.Opened{Username: username}
	return nil
}

func (f *fakeConn) Send(msg protocol.Outbound) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return false
	}
	f.sent = append(f.sent, msg)
	return true
}

func (f *fakeConn) Disconnect() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.disconnects++
	if f.open {
		f.open = false
		f.events <- transport.Closed{}
	}
}

func (f *fakeConn) Events() <-chan transport.Event {
	return f.events
}

func (f *fakeConn) serverSends(raw string) {
	f.events <- transport.Message{Data: []byte(raw)}
}

func (f *fakeConn) drop(err error) {
	f.mu.Lock()
	f.open = false
	f.mu.Unlock()
	f.events <- transport.Closed{Err: err}
}

func (f *fakeConn) sentMessages() []protocol.Outbound {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]protocol.Outbound(nil), f.sent...)
}

type harness struct {
	client *Client
	conn   *fakeConn
	clock  *clock.Mock
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{conn: newFakeConn(), clock: clock.NewMock()}
	h.client = New(h.conn, Options{
		NotificationTTL: 5 * time.Second,
		TeardownDelay:   2 * time.Second,
		Clock:           h.clock,
		Logger:          log.New(io.Discard),
	})
	h.client.Start()
	t.Cleanup(h.client.Stop)
	return h
}

func (h *harness) waitFor(t *testing.T, what string, cond func(session.State) bool) session.State {
	t.Helper()
	require.Eventually(t, func() bool { return cond(h.client.State()) }, 2*time.Second, 5*time.Millisecond, what)
	return h.client.State()
}

// barrier pushes a roster update through the event stream and waits for it,
// so every event queued before it has been handled.
func (h *harness) barrier(t *testing.T, marker string) {
	t.Helper()
	h.conn.serverSends(`{"type":"player_list","players":[{"user_id":"u1","username":"alice"},{"user_id":"u2","username":"Bob"},{"user_id":"` + marker + `","username":"marker"}]}`)
	h.waitFor(t, "barrier "+marker, func(s session.State) bool { return s.Roster.Contains(marker) })
}

func (h *harness) lobby(t *testing.T) {
	t.Helper()
	require.NoError(t, h.client.Connect(context.Background(), "alice"))
	h.waitFor(t, "connected", func(s session.State) bool { return s.Connected })
	h.conn.serverSends(`{"type":"welcome","your_id":"u1"}`)
	h.conn.serverSends(`{"type":"player_list","players":[{"user_id":"u1","username":"alice"},{"user_id":"u2","username":"Bob"}]}`)
	h.waitFor(t, "lobby", func(s session.State) bool { return s.Identity != nil && len(s.Roster) == 2 })
}

func notification(s session.State) string {
	if s.Notification == nil {
		return ""
	}
	return s.Notification.Message
}

func TestExampleScenario(t *testing.T) {
	h := newHarness(t)
	h.lobby(t)

	h.conn.serverSends(`{"type":"invitation","from_user_id":"u2","from_username":"Bob"}`)
	s := h.waitFor(t, "invitation", func(s session.State) bool { return s.Invitation != nil })
	assert.Equal(t, "Bob has invited you to play!", notification(s))

	require.True(t, h.client.RespondToInvitation(true))
	s = h.client.State()
	require.NotNil(t, s.Game)
	assert.Nil(t, s.Invitation)
	assert.Equal(t, "", s.Game.SessionID)
	assert.False(t, s.Game.IsYourTurn)

	h.conn.serverSends(`{"type":"your_turn","session_id":"s1","board":[null,null,null,null,null,null,null,null,null],"your_symbol":"X"}`)
	h.waitFor(t, "my turn", func(s session.State) bool { return s.Game != nil && s.Game.IsYourTurn })

	require.True(t, h.client.SubmitMove(4))
	assert.False(t, h.client.SubmitMove(9))

	h.conn.serverSends(`{"type":"game_over","board":[null,null,null,null,"X",null,null,null,null],"result":"loss"}`)
	s = h.waitFor(t, "game over", func(s session.State) bool { return s.Game != nil && s.Game.Concluded() })
	assert.Equal(t, "You won! 🎉", notification(s))

	h.conn.serverSends(`{"type":"game_ended","message":"Match complete"}`)
	h.barrier(t, "m1")
	require.NotNil(t, h.client.State().Game, "game stays until the teardown delay elapses")

	h.clock.Add(2 * time.Second)
	s = h.waitFor(t, "teardown", func(s session.State) bool { return s.Game == nil })
	assert.Nil(t, s.Invitation)
	assert.Equal(t, "Match complete", notification(s))
	assert.NotEmpty(t, s.Lobby())

	assert.Equal(t, []protocol.Outbound{
		protocol.NewInvitationAnswer("u2", true),
		protocol.NewGameMove("s1", 4),
	}, h.conn.sentMessages())
}

func TestNotificationExpires(t *testing.T) {
	h := newHarness(t)
	h.lobby(t)

	h.conn.serverSends(`{"type":"error","message":"Player not found"}`)
	s := h.waitFor(t, "error notification", func(s session.State) bool { return s.Notification != nil })
	assert.True(t, s.Notification.IsError())

	h.clock.Add(4 * time.Second)
	h.barrier(t, "m1")
	assert.Equal(t, "Player not found", notification(h.client.State()))

	h.clock.Add(time.Second)
	h.waitFor(t, "expired", func(s session.State) bool { return s.Notification == nil })
}

func TestConnectionErrorResetsEverything(t *testing.T) {
	h := newHarness(t)
	h.lobby(t)

	h.conn.serverSends(`{"type":"wait_for_turn","session_id":"s1","board":["X",null,null,null,null,null,null,null,null],"your_symbol":"O"}`)
	h.conn.serverSends(`{"type":"game_over","result":"timeout"}`)
	h.conn.serverSends(`{"type":"game_ended","message":"Match complete"}`)
	h.barrier(t, "m1")

	h.conn.drop(errors.New("connection reset by peer"))
	s := h.waitFor(t, "disconnected", func(s session.State) bool { return !s.Connected })
	assert.Nil(t, s.Identity)
	assert.Empty(t, s.Roster)
	assert.Nil(t, s.Invitation)
	assert.Nil(t, s.Game)
	require.NotNil(t, s.Notification)
	assert.Equal(t, notify.KindError, s.Notification.Kind)
	assert.Equal(t, ConnectionErrorMessage, s.Notification.Message)

	// The cancelled teardown must not fire into the fresh state.
	h.clock.Add(2 * time.Second)
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, ConnectionErrorMessage, notification(h.client.State()))
}

func TestQuitSendsLeaveAndResets(t *testing.T) {
	h := newHarness(t)
	h.lobby(t)
	h.conn.serverSends(`{"type":"invitation","from_user_id":"u2","from_username":"Bob"}`)
	h.waitFor(t, "invitation", func(s session.State) bool { return s.Invitation != nil })

	require.True(t, h.client.Quit())
	s := h.waitFor(t, "closed", func(s session.State) bool { return !s.Connected })
	assert.Nil(t, s.Invitation)
	assert.Nil(t, s.Notification, "a clean close clears the notification")
	assert.Equal(t, []protocol.Outbound{protocol.NewLeave()}, h.conn.sentMessages())

	assert.False(t, h.client.Quit(), "nothing to leave once disconnected")
	require.NoError(t, h.client.Connect(context.Background(), "alice"))
	h.waitFor(t, "reconnected", func(s session.State) bool { return s.Connected })
}

func TestGuardedCommandsSendNothing(t *testing.T) {
	h := newHarness(t)
	assert.False(t, h.client.RequestInvite("u2"), "not connected")

	h.lobby(t)
	assert.False(t, h.client.RequestInvite("u1"), "self")
	assert.False(t, h.client.RequestInvite("u9"), "absent")
	assert.False(t, h.client.RespondToInvitation(true), "nothing pending")
	assert.False(t, h.client.SubmitMove(0), "no game")
	assert.Empty(t, h.conn.sentMessages())

	require.True(t, h.client.RequestInvite("u2"))
	assert.Equal(t, []protocol.Outbound{protocol.NewSendInvite("u2")}, h.conn.sentMessages())
	require.NotNil(t, h.client.State().Outgoing)
}

func TestBadEnvelopesAreDropped(t *testing.T) {
	h := newHarness(t)
	h.lobby(t)
	before := h.client.State()

	h.conn.serverSends(`not json`)
	h.conn.serverSends(`{"type":"chat","text":"hi"}`)
	h.conn.serverSends(`{"type":"your_turn","session_id":"s1","board":[null,null]}`)
	h.barrier(t, "m1")

	s := h.client.State()
	assert.True(t, s.Connected)
	assert.Nil(t, s.Game)
	assert.Equal(t, before.Identity, s.Identity)
}

func TestConnectErrorsPassThrough(t *testing.T) {
	h := newHarness(t)
	h.conn.connectErr = transport.ErrEmptyUsername
	assert.ErrorIs(t, h.client.Connect(context.Background(), ""), transport.ErrEmptyUsername)
}

func TestSubscriptionLifecycle(t *testing.T) {
	h := newHarness(t)
	sub := h.client.Subscribe()

	select {
	case s := <-sub.Updates():
		assert.False(t, s.Connected)
	case <-time.After(time.Second):
		t.Fatal("no initial snapshot")
	}

	require.NoError(t, h.client.Connect(context.Background(), "alice"))
	got := false
	deadline := time.After(2 * time.Second)
	for !got {
		select {
		case s := <-sub.Updates():
			got = s.Connected
		case <-deadline:
			t.Fatal("no connected snapshot")
		}
	}

	h.client.Stop()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("subscription not closed on stop")
	}
	assert.ErrorIs(t, h.client.Connect(context.Background(), "alice"), ErrStopped)
}

func TestSubscriptionDropsOldest(t *testing.T) {
	sub := newSubscription(2)
	sub.deliver(session.State{Username: "a"})
	sub.deliver(session.State{Username: "b"})
	sub.deliver(session.State{Username: "c"})

	assert.Equal(t, "b", (<-sub.Updates()).Username)
	assert.Equal(t, "c", (<-sub.Updates()).Username)

	sub.Close()
	sub.Close()
	sub.deliver(session.State{Username: "d"})
	assert.Len(t, sub.Updates(), 0)
}
