package tui

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/tui-tictac/internal/notify"
	"github.com/vovakirdan/tui-tictac/internal/protocol"
	"github.com/vovakirdan/tui-tictac/internal/session"
	"github.com/vovakirdan/tui-tictac/internal/transport"
)

type fakeController struct {
	connected  []string
	connectErr error
	invites    []string
	answers    []bool
	moves      []int
	quits      int
}

func (f *fakeController) Connect(_ context.Context, username string) error {
	f.connected = append(f.connected, username)
	return f.connectErr
}

func (f *fakeController) RequestInvite(target string) bool {
	f.invites = append(f.invites, target)
	return true
}

func (f *fakeController) RespondToInvitation(accept bool) bool {
	f.answers = append(f.answers, accept)
	return true
}

func (f *fakeController) SubmitMove(position int) bool {
	f.moves = append(f.moves, position)
	return true
}

func (f *fakeController) Quit() bool {
	f.quits++
	return true
}

type fakeFeed struct {
	updates chan session.State
	done    chan struct{}
}

func newFakeFeed() *fakeFeed {
	return &fakeFeed{updates: make(chan session.State, 4), done: make(chan struct{})}
}

func (f *fakeFeed) Updates() <-chan session.State { return f.updates }
func (f *fakeFeed) Done() <-chan struct{}         { return f.done }

func keyRune(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func keyType(t tea.KeyType) tea.KeyMsg {
	return tea.KeyMsg{Type: t}
}

func update(t *testing.T, m Model, msg tea.Msg) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(msg)
	nm, ok := next.(Model)
	require.True(t, ok)
	return nm, cmd
}

func lobbyState() session.State {
	return session.State{
		Connected: true,
		Username:  "alice",
		Identity:  &session.Identity{UserID: "u1", Username: "alice"},
		Roster: session.NewRoster([]session.Player{
			{UserID: "u1", Username: "alice"},
			{UserID: "u2", Username: "Bob"},
		}),
	}
}

func gameState(mine bool) session.State {
	st := lobbyState()
	st.Game = &session.Game{
		SessionID:  "s1",
		YourSymbol: protocol.MarkX,
		IsYourTurn: mine,
		Opponent:   session.Player{UserID: "u2", Username: "Bob"},
	}
	return st
}

func newTestModel() (Model, *fakeController, *fakeFeed) {
	ctrl := &fakeController{}
	feed := newFakeFeed()
	return NewModel(ctrl, feed, "alice"), ctrl, feed
}

func TestLoginConnects(t *testing.T) {
	m, ctrl, _ := newTestModel()
	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Contains(t, m.View(), "Choose a name")

	m, cmd := update(t, m, keyType(tea.KeyEnter))
	require.NotNil(t, cmd)
	assert.Contains(t, m.View(), "Connecting...")

	// A second enter while connecting is ignored.
	_, again := update(t, m, keyType(tea.KeyEnter))
	assert.Nil(t, again)

	msg := cmd()
	assert.Equal(t, connectResultMsg{}, msg)
	assert.Equal(t, []string{"alice"}, ctrl.connected)

	m, _ = update(t, m, StateMsg(lobbyState()))
	assert.Equal(t, ScreenLobby, m.Screen())
	assert.NotContains(t, m.View(), "Connecting...")
}

func TestLoginRejectsBlankName(t *testing.T) {
	ctrl := &fakeController{}
	m := NewModel(ctrl, newFakeFeed(), "")

	m, cmd := update(t, m, keyType(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Contains(t, m.View(), "Enter a name to play.")
	assert.Empty(t, ctrl.connected)
}

func TestLoginShowsConnectError(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = update(t, m, keyType(tea.KeyEnter))
	m, _ = update(t, m, connectResultMsg{err: transport.ErrAlreadyConnected})
	assert.Contains(t, m.View(), "Already connecting...")
	assert.NotContains(t, m.View(), "Connecting...")
}

func TestLobbyInvitesSelectedPlayer(t *testing.T) {
	m, ctrl, _ := newTestModel()
	m, _ = update(t, m, StateMsg(lobbyState()))

	view := m.View()
	assert.Contains(t, view, "Logged in as alice")
	assert.Contains(t, view, "Bob")

	_, cmd := update(t, m, keyType(tea.KeyEnter))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []string{"u2"}, ctrl.invites)
}

func TestLobbyEmpty(t *testing.T) {
	m, ctrl, _ := newTestModel()
	st := lobbyState()
	st.Roster = session.NewRoster([]session.Player{{UserID: "u1", Username: "alice"}})
	m, _ = update(t, m, StateMsg(st))

	assert.Contains(t, m.View(), "No other players online yet.")
	_, cmd := update(t, m, keyType(tea.KeyEnter))
	assert.Nil(t, cmd)
	assert.Empty(t, ctrl.invites)
}

func TestLobbyAnswersInvitation(t *testing.T) {
	m, ctrl, _ := newTestModel()

	// Without an invitation y and n do nothing.
	m, _ = update(t, m, StateMsg(lobbyState()))
	_, cmd := update(t, m, keyRune('y'))
	if cmd != nil {
		cmd()
	}
	assert.Empty(t, ctrl.answers)

	st := lobbyState()
	st.Invitation = &session.Invitation{FromUserID: "u2", FromUsername: "Bob"}
	m, _ = update(t, m, StateMsg(st))
	assert.Contains(t, m.View(), "Bob wants to play")

	_, cmd = update(t, m, keyRune('y'))
	require.NotNil(t, cmd)
	cmd()
	_, cmd = update(t, m, keyRune('n'))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, []bool{true, false}, ctrl.answers)
}

func TestGameCursorAndMoves(t *testing.T) {
	m, ctrl, _ := newTestModel()
	m, _ = update(t, m, StateMsg(gameState(true)))
	assert.Equal(t, ScreenGame, m.Screen())

	view := m.View()
	assert.Contains(t, view, "You are X, playing against Bob")
	assert.Contains(t, view, "Your turn")

	m, _ = update(t, m, keyType(tea.KeyRight))
	m, _ = update(t, m, keyType(tea.KeyRight))
	m, _ = update(t, m, keyType(tea.KeyUp))
	assert.Equal(t, 2, m.cursor)

	_, cmd := update(t, m, keyType(tea.KeyEnter))
	require.NotNil(t, cmd)
	cmd()

	m, cmd = update(t, m, keyRune('7'))
	require.NotNil(t, cmd)
	cmd()
	assert.Equal(t, 6, m.cursor)

	assert.Equal(t, []int{2, 6}, ctrl.moves)
}

func TestGameCursorResetsOnNewSession(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = update(t, m, StateMsg(gameState(true)))
	m, _ = update(t, m, keyType(tea.KeyLeft))
	assert.Equal(t, 3, m.cursor)

	// Same session keeps the cursor.
	m, _ = update(t, m, StateMsg(gameState(false)))
	assert.Equal(t, 3, m.cursor)
	assert.Contains(t, m.View(), "Waiting for Bob...")

	next := gameState(true)
	next.Game.SessionID = "s2"
	m, _ = update(t, m, StateMsg(next))
	assert.Equal(t, 4, m.cursor)
}

func TestQuitLeavesAndExits(t *testing.T) {
	m, ctrl, _ := newTestModel()
	m, _ = update(t, m, StateMsg(gameState(false)))

	m, cmd := update(t, m, keyRune('q'))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Equal(t, 1, ctrl.quits)
	assert.Empty(t, m.View())
}

func TestQuitFromLoginDoesNotLeave(t *testing.T) {
	m, ctrl, _ := newTestModel()
	_, cmd := update(t, m, keyType(tea.KeyCtrlC))
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Zero(t, ctrl.quits)
}

func TestDisconnectReturnsToLogin(t *testing.T) {
	m, _, _ := newTestModel()
	m, _ = update(t, m, StateMsg(gameState(true)))

	st := session.State{Notification: &notify.Notification{Kind: notify.KindError, Message: "Connection error occurred"}}
	m, _ = update(t, m, StateMsg(st))
	assert.Equal(t, ScreenLogin, m.Screen())
	assert.Contains(t, m.View(), "Connection error occurred")
}

func TestWaitForState(t *testing.T) {
	feed := newFakeFeed()
	feed.updates <- lobbyState()
	msg := waitForState(feed)()
	st, ok := msg.(StateMsg)
	require.True(t, ok)
	assert.True(t, st.Connected)

	close(feed.done)
	assert.Equal(t, feedClosedMsg{}, waitForState(feed)())
}

func TestFeedClosedQuits(t *testing.T) {
	m, _, _ := newTestModel()
	m, cmd := update(t, m, feedClosedMsg{})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
	assert.Empty(t, m.View())
}

func TestStateMsgRearmsFeed(t *testing.T) {
	m, _, feed := newTestModel()
	_, cmd := update(t, m, StateMsg(lobbyState()))
	require.NotNil(t, cmd)

	got := make(chan tea.Msg, 1)
	go func() { got <- cmd() }()
	feed.updates <- gameState(true)

	select {
	case msg := <-got:
		st, ok := msg.(StateMsg)
		require.True(t, ok)
		assert.NotNil(t, st.Game)
	case <-time.After(time.Second):
		t.Fatal("feed not re-armed")
	}
}
