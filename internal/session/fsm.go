package session

import "github.com/vovakirdan/tui-tictac/internal/protocol"

// Phase is the game session lifecycle stage, derived from State.
type Phase int

const (
	PhaseNoGame Phase = iota
	PhaseInvitationPending
	PhaseActiveMine
	PhaseActiveTheirs
	PhaseConcluded
)

func (p Phase) String() string {
	switch p {
	case PhaseNoGame:
		return "no-game"
	case PhaseInvitationPending:
		return "invitation-pending"
	case PhaseActiveMine:
		return "active-mine"
	case PhaseActiveTheirs:
		return "active-theirs"
	case PhaseConcluded:
		return "concluded"
	default:
		return "unknown"
	}
}

// Active reports whether a game is in progress, regardless of whose turn.
func (p Phase) Active() bool {
	return p == PhaseActiveMine || p == PhaseActiveTheirs
}

// Phase derives the lifecycle stage. A game always wins over an invitation;
// the handlers never let both exist.
func (s State) Phase() Phase {
	switch {
	case s.Game != nil && s.Game.Concluded():
		return PhaseConcluded
	case s.Game != nil && s.Game.IsYourTurn:
		return PhaseActiveMine
	case s.Game != nil:
		return PhaseActiveTheirs
	case s.Invitation != nil:
		return PhaseInvitationPending
	default:
		return PhaseNoGame
	}
}

// fallbackOpponent names an opponent the client has no record of.
const fallbackOpponent = "Opponent"

// opponentHint picks who the next game is against: the invitation being
// answered, then the invite this client sent, then a placeholder.
func (s State) opponentHint() Player {
	switch {
	case s.Invitation != nil:
		return Player{UserID: s.Invitation.FromUserID, Username: s.Invitation.FromUsername}
	case s.Outgoing != nil:
		return *s.Outgoing
	default:
		return Player{Username: fallbackOpponent}
	}
}

// provisionalGame is the speculative game created by a local accept: the
// inviter is assumed to move first until the server says otherwise.
func provisionalGame(inv Invitation) Game {
	return Game{
		YourSymbol: protocol.MarkO,
		IsYourTurn: false,
		Opponent:   Player{UserID: inv.FromUserID, Username: inv.FromUsername},
	}
}

// startGame installs g as the current game. Invitation and Outgoing are
// consumed by it.
func (s State) startGame(g Game) State {
	s.Game = &g
	s.Invitation = nil
	s.Outgoing = nil
	return s
}

// sameSession reports whether a turn message continues prev. A provisional
// game adopts the first session id it sees.
func sameSession(prev *Game, sessionID string) bool {
	if prev == nil || prev.Concluded() {
		return false
	}
	return prev.Provisional() || sessionID == "" || prev.SessionID == sessionID
}

// mergeBoard overlays next onto prev without clearing cells prev already has
// set. The server's snapshot otherwise wins.
func mergeBoard(prev, next protocol.Board) protocol.Board {
	out := next
	for i, m := range prev {
		if m != protocol.MarkEmpty && out[i] == protocol.MarkEmpty {
			out[i] = m
		}
	}
	return out
}
