// Package session holds the client-side protocol state machine: the
// immutable SessionState aggregate, the pure handlers that turn inbound
// envelopes into the next state, and the guarded outbound commands.
//
// Nothing in this package performs I/O or starts timers. Handlers return
// instructions that the caller applies.
package session

import (
	"github.com/vovakirdan/tui-tictac/internal/notify"
	"github.com/vovakirdan/tui-tictac/internal/protocol"
)

// Player is a roster entry.
type Player = protocol.Player

// Identity is the server-assigned identity of this connection.
type Identity struct {
	UserID   string
	Username string
}

// Invitation is an unanswered proposal from another player.
type Invitation struct {
	FromUserID   string
	FromUsername string
}

// Roster is the set of connected players, keyed by user id and kept in the
// order the server listed them.
type Roster []Player

// NewRoster builds a roster from a player list, dropping duplicate ids.
func NewRoster(players []protocol.Player) Roster {
	seen := make(map[string]bool, len(players))
	r := make(Roster, 0, len(players))
	for _, p := range players {
		if p.UserID == "" || seen[p.UserID] {
			continue
		}
		seen[p.UserID] = true
		r = append(r, p)
	}
	return r
}

// Lookup finds a player by id.
func (r Roster) Lookup(userID string) (Player, bool) {
	for _, p := range r {
		if p.UserID == userID {
			return p, true
		}
	}
	return Player{}, false
}

// Contains reports whether userID is in the roster.
func (r Roster) Contains(userID string) bool {
	_, ok := r.Lookup(userID)
	return ok
}

// Others returns the roster without selfID. Presentation uses this; the
// full roster stays in state.
func (r Roster) Others(selfID string) Roster {
	out := make(Roster, 0, len(r))
	for _, p := range r {
		if p.UserID != selfID {
			out = append(out, p)
		}
	}
	return out
}

// Game is the single active game session.
type Game struct {
	// SessionID is empty between a local accept and the first turn message.
	SessionID  string
	Board      protocol.Board
	YourSymbol protocol.Mark
	IsYourTurn bool
	Opponent   Player
	Result     protocol.Result
}

// Concluded reports whether the server has reported a result.
func (g Game) Concluded() bool {
	return g.Result != protocol.ResultNone
}

// Provisional reports whether the game was created locally and not yet
// confirmed by a turn message.
func (g Game) Provisional() bool {
	return g.SessionID == ""
}

// State is the aggregate root observed by the presentation layer. Values are
// never mutated after they are published; every transition builds a new one.
type State struct {
	Connected bool

	// Username is the name announced when the socket opened. Identity is
	// built from it when the server's welcome arrives.
	Username string
	Identity *Identity

	Roster     Roster
	Invitation *Invitation

	// Outgoing is the last invitation this client sent, used to name the
	// opponent when the inviter's game starts.
	Outgoing *Player

	Game         *Game
	Notification *notify.Notification
}

// SelfID returns the established user id, or "" before welcome.
func (s State) SelfID() string {
	if s.Identity == nil {
		return ""
	}
	return s.Identity.UserID
}

// Lobby returns the inviteable players: the roster without this client.
func (s State) Lobby() Roster {
	return s.Roster.Others(s.SelfID())
}

// WithNotification returns a copy of s showing n (or nothing when nil).
func (s State) WithNotification(n *notify.Notification) State {
	s.Notification = n
	return s
}

// Opened returns the state for a freshly opened connection.
func (s State) Opened(username string) State {
	return State{
		Connected:    true,
		Username:     username,
		Notification: s.Notification,
	}
}

// Disconnected returns the state after the connection is gone: every piece
// of server-negotiated state is dropped. The notification slot is kept; the
// caller decides what to show.
func (s State) Disconnected() State {
	return State{Notification: s.Notification}
}

// TornDown returns the lobby state after a concluded game's display delay.
func (s State) TornDown() State {
	s.Game = nil
	s.Invitation = nil
	s.Outgoing = nil
	return s
}
