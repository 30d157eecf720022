package session

import (
	"fmt"

	"github.com/vovakirdan/tui-tictac/internal/notify"
	"github.com/vovakirdan/tui-tictac/internal/protocol"
)

// Instruction is a side effect requested by a handler. The client loop
// carries them out after storing the new state.
type Instruction interface {
	isInstruction()
}

// Notify raises a notification.
type Notify struct {
	Kind    notify.Kind
	Message string
}

// ScheduleTeardown arms the post-game teardown timer. When it fires the
// caller applies Teardown with Message.
type ScheduleTeardown struct {
	Message string
}

// CancelTeardown drops a pending teardown because a new game replaced the
// concluded one.
type CancelTeardown struct{}

func (Notify) isInstruction()           {}
func (ScheduleTeardown) isInstruction() {}
func (CancelTeardown) isInstruction()   {}

// ResultMessage is the notification text for a game result. The server
// reports results from the opposite seat, so win and loss read inverted.
func ResultMessage(r protocol.Result) string {
	switch r {
	case protocol.ResultLoss:
		return "You won! 🎉"
	case protocol.ResultWin:
		return "You lost! 😔"
	case protocol.ResultDraw:
		return "Game ended in a draw! 🤝"
	default:
		return "Game timed out! ⏰"
	}
}

const defaultEndedMessage = "Game ended"

// Dispatch applies one inbound envelope to s. It never fails: envelopes that
// do not fit the current state leave it unchanged.
func Dispatch(s State, msg protocol.Inbound) (State, []Instruction) {
	switch m := msg.(type) {
	case protocol.Welcome:
		return applyWelcome(s, m), nil
	case protocol.PlayerList:
		s.Roster = NewRoster(m.Players)
		return s, nil
	case protocol.Invitation:
		return applyInvitation(s, m)
	case protocol.InvitationResponse:
		return applyInvitationResponse(s, m)
	case protocol.TurnUpdate:
		return applyTurn(s, m)
	case protocol.GameOver:
		return applyGameOver(s, m)
	case protocol.GameEnded:
		return s, []Instruction{ScheduleTeardown{Message: m.Message}}
	case protocol.ServerError:
		return s, []Instruction{Notify{Kind: notify.KindError, Message: m.Message}}
	default:
		return s, nil
	}
}

// Teardown returns to the lobby after a concluded game and announces the
// server's closing message.
func Teardown(s State, message string) (State, []Instruction) {
	if message == "" {
		message = defaultEndedMessage
	}
	return s.TornDown(), []Instruction{Notify{Kind: notify.KindInfo, Message: message}}
}

func applyWelcome(s State, m protocol.Welcome) State {
	// Identity is fixed for the life of the connection.
	if s.Identity != nil {
		return s
	}
	s.Identity = &Identity{UserID: m.YourID, Username: s.Username}
	return s
}

func applyInvitation(s State, m protocol.Invitation) (State, []Instruction) {
	if s.Game != nil {
		return s, nil
	}
	name := m.FromUsername
	if name == "" {
		if p, ok := s.Roster.Lookup(m.FromUserID); ok {
			name = p.Username
		} else {
			name = m.FromUserID
		}
	}
	s.Invitation = &Invitation{FromUserID: m.FromUserID, FromUsername: name}
	return s, []Instruction{Notify{
		Kind:    notify.KindInfo,
		Message: fmt.Sprintf("%s has invited you to play!", name),
	}}
}

func applyInvitationResponse(s State, m protocol.InvitationResponse) (State, []Instruction) {
	if m.Accepted {
		return s, nil
	}
	name := m.FromUserID
	if s.Outgoing != nil && s.Outgoing.UserID == m.FromUserID {
		name = s.Outgoing.Username
		s.Outgoing = nil
	} else if p, ok := s.Roster.Lookup(m.FromUserID); ok {
		name = p.Username
	}
	return s, []Instruction{Notify{
		Kind:    notify.KindInfo,
		Message: fmt.Sprintf("%s declined your invitation", name),
	}}
}

func applyTurn(s State, m protocol.TurnUpdate) (State, []Instruction) {
	prev := s.Game
	if sameSession(prev, m.SessionID) {
		g := *prev
		if m.SessionID != "" {
			g.SessionID = m.SessionID
		}
		if m.Board != nil {
			g.Board = mergeBoard(g.Board, *m.Board)
		}
		if m.YourSymbol != protocol.MarkEmpty {
			g.YourSymbol = m.YourSymbol
		}
		g.IsYourTurn = m.YourTurn
		if g.Opponent.Username == "" {
			g.Opponent = s.opponentHint()
		}
		return s.startGame(g), nil
	}

	g := Game{
		SessionID:  m.SessionID,
		YourSymbol: m.YourSymbol,
		IsYourTurn: m.YourTurn,
		Opponent:   s.opponentHint(),
	}
	if m.Board != nil {
		g.Board = *m.Board
	}
	var ins []Instruction
	if prev != nil {
		ins = append(ins, CancelTeardown{})
	}
	return s.startGame(g), ins
}

func applyGameOver(s State, m protocol.GameOver) (State, []Instruction) {
	var g Game
	if s.Game != nil {
		g = *s.Game
	} else {
		g = Game{Opponent: s.opponentHint()}
	}
	if m.Board != nil {
		g.Board = mergeBoard(g.Board, *m.Board)
	}
	if m.YourSymbol != protocol.MarkEmpty {
		g.YourSymbol = m.YourSymbol
	}
	g.Result = m.Result
	if g.Result == protocol.ResultNone {
		g.Result = protocol.ResultTimeout
	}
	g.IsYourTurn = false
	return s.startGame(g), []Instruction{Notify{Kind: notify.KindInfo, Message: ResultMessage(g.Result)}}
}
