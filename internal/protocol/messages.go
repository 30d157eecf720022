// Package protocol defines the JSON envelopes exchanged with the tic-tac-toe
// game server. Every envelope is one JSON object with a string "type" field.
package protocol

// Inbound message types (server -> client).
const (
	TypeWelcome            = "welcome"
	TypePlayerList         = "player_list"
	TypeInvitation         = "invitation"
	TypeInvitationResponse = "invitation_response"
	TypeYourTurn           = "your_turn"
	TypeWaitForTurn        = "wait_for_turn"
	TypeGameOver           = "game_over"
	TypeGameEnded          = "game_ended"
	TypeError              = "error"
)

// Outbound message types (client -> server).
const (
	TypeUsername   = "username"
	TypeSendInvite = "send_invite"
	TypeGameMove   = "game_move"
	TypeLeave      = "leave"
	// TypeInvitationResponse is shared by both directions.
)

// Result is the outcome reported by game_over, relative to the addressee as
// the server computes it.
type Result string

const (
	ResultNone    Result = ""
	ResultWin     Result = "win"
	ResultLoss    Result = "loss"
	ResultDraw    Result = "draw"
	ResultTimeout Result = "timeout"
)

// ParseResult maps a wire value to a Result. Anything unrecognised is
// treated as a timeout, which is how the server reports aborted games.
func ParseResult(s string) Result {
	switch Result(s) {
	case ResultWin, ResultLoss, ResultDraw:
		return Result(s)
	default:
		return ResultTimeout
	}
}

// Player is one entry of the server's player list.
type Player struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Inbound is a decoded server envelope.
type Inbound interface {
	MessageType() string
}

// Welcome acknowledges the username announcement and assigns the user id.
type Welcome struct {
	YourID string `json:"your_id"`
}

// PlayerList carries the complete set of connected players.
type PlayerList struct {
	Players []Player `json:"players"`
}

// Invitation is a proposal from another player to start a game.
type Invitation struct {
	FromUserID   string `json:"from_user_id"`
	FromUsername string `json:"from_username"`
}

// InvitationResponse is sent to an inviter when the invitee answers.
// The server only sends it for declined invitations.
type InvitationResponse struct {
	FromUserID string `json:"from_user_id"`
	Accepted   bool   `json:"accepted"`
}

// TurnUpdate is the body of both your_turn and wait_for_turn. YourTurn is
// derived from the envelope type and is not part of the payload.
type TurnUpdate struct {
	SessionID  string `json:"session_id"`
	Board      *Board `json:"board"`
	YourSymbol Mark   `json:"your_symbol"`
	YourTurn   bool   `json:"-"`
}

// GameOver reports the conclusion of a game. Board is nil when the server
// omits it, which it does for timeouts.
type GameOver struct {
	Board      *Board `json:"board,omitempty"`
	Result     Result `json:"result"`
	YourSymbol Mark   `json:"your_symbol,omitempty"`
}

// GameEnded tells the client the session is torn down server side.
type GameEnded struct {
	Message string `json:"message"`
}

// ServerError is an application level error reported by the server.
type ServerError struct {
	Message string `json:"message"`
}

func (Welcome) MessageType() string            { return TypeWelcome }
func (PlayerList) MessageType() string         { return TypePlayerList }
func (Invitation) MessageType() string         { return TypeInvitation }
func (InvitationResponse) MessageType() string { return TypeInvitationResponse }
func (GameOver) MessageType() string           { return TypeGameOver }
func (GameEnded) MessageType() string          { return TypeGameEnded }
func (ServerError) MessageType() string        { return TypeError }

func (t TurnUpdate) MessageType() string {
	if t.YourTurn {
		return TypeYourTurn
	}
	return TypeWaitForTurn
}

// Outbound is an envelope the client can transmit.
type Outbound interface {
	MessageType() string
}

// Username announces the chosen display name right after the socket opens.
type Username struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// SendInvite asks the server to invite another player.
type SendInvite struct {
	Type     string `json:"type"`
	InviteID string `json:"invite_id"`
}

// InvitationAnswer accepts or declines a pending invitation.
type InvitationAnswer struct {
	Type       string `json:"type"`
	FromUserID string `json:"from_user_id"`
	Accepted   bool   `json:"accepted"`
}

// GameMove places the player's mark on a cell.
type GameMove struct {
	Type      string `json:"type"`
	SessionID string `json:"session_id"`
	Position  int    `json:"position"`
}

// Leave tells the server the player is leaving before the socket closes.
type Leave struct {
	Type string `json:"type"`
}

func (Username) MessageType() string         { return TypeUsername }
func (SendInvite) MessageType() string       { return TypeSendInvite }
func (InvitationAnswer) MessageType() string { return TypeInvitationResponse }
func (GameMove) MessageType() string         { return TypeGameMove }
func (Leave) MessageType() string            { return TypeLeave }

// NewUsername builds a username announcement.
func NewUsername(name string) Username {
	return Username{Type: TypeUsername, Username: name}
}

// NewSendInvite builds an invite request for the given user id.
func NewSendInvite(userID string) SendInvite {
	return SendInvite{Type: TypeSendInvite, InviteID: userID}
}

// NewInvitationAnswer builds the response to an invitation from fromUserID.
func NewInvitationAnswer(fromUserID string, accepted bool) InvitationAnswer {
	return InvitationAnswer{Type: TypeInvitationResponse, FromUserID: fromUserID, Accepted: accepted}
}

// NewGameMove builds a move for the given session and cell.
func NewGameMove(sessionID string, position int) GameMove {
	return GameMove{Type: TypeGameMove, SessionID: sessionID, Position: position}
}

// NewLeave builds a leave notice.
func NewLeave() Leave {
	return Leave{Type: TypeLeave}
}
