package session

import (
	"github.com/vovakirdan/tui-tictac/internal/protocol"
)

// The command builders below check their guard against s and return the
// envelope to transmit together with the next state. ok is false when the
// guard fails; the caller then sends nothing and keeps s.

// RequestInvite invites target, who must be on the roster and not this
// client.
func RequestInvite(s State, target string) (next State, msg protocol.Outbound, ok bool) {
	if !s.Connected || target == "" || target == s.SelfID() {
		return s, nil, false
	}
	p, found := s.Roster.Lookup(target)
	if !found {
		return s, nil, false
	}
	s.Outgoing = &p
	return s, protocol.NewSendInvite(target), true
}

// RespondToInvitation answers the pending invitation. Accepting starts a
// provisional game that the next turn message confirms.
func RespondToInvitation(s State, accept bool) (next State, msg protocol.Outbound, ok bool) {
	if !s.Connected || s.Invitation == nil {
		return s, nil, false
	}
	inv := *s.Invitation
	msg = protocol.NewInvitationAnswer(inv.FromUserID, accept)
	if accept {
		return s.startGame(provisionalGame(inv)), msg, true
	}
	s.Invitation = nil
	return s, msg, true
}

// SubmitMove places a mark at pos. It only succeeds on this client's turn,
// on an empty cell, before a result is known. The board is not updated
// locally; the server's next turn message carries the move.
func SubmitMove(s State, pos int) (msg protocol.Outbound, ok bool) {
	if !s.Connected || s.Phase() != PhaseActiveMine {
		return nil, false
	}
	if !s.Game.Board.IsEmpty(pos) {
		return nil, false
	}
	return protocol.NewGameMove(s.Game.SessionID, pos), true
}

// Quit builds the leave notice sent before disconnecting. It is only
// meaningful on an open connection.
func Quit(s State) (msg protocol.Outbound, ok bool) {
	if !s.Connected {
		return nil, false
	}
	return protocol.NewLeave(), true
}
