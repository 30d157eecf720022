package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

var (
	// ErrMalformed is returned for payloads that are not a valid envelope.
	ErrMalformed = errors.New("protocol: malformed envelope")

	// ErrUnknownType is returned for envelopes with an unrecognised type tag.
	ErrUnknownType = errors.New("protocol: unknown message type")
)

type envelope struct {
	Type string `json:"type"`
}

// Decode parses one inbound envelope and returns its typed body.
func Decode(data []byte) (Inbound, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("%w: missing type", ErrMalformed)
	}

	switch env.Type {
	case TypeWelcome:
		var m Welcome
		if err := decodeBody(data, &m); err != nil {
			return nil, err
		}
		if m.YourID == "" {
			return nil, fmt.Errorf("%w: welcome without your_id", ErrMalformed)
		}
		return m, nil

	case TypePlayerList:
		var m PlayerList
		if err := decodeBody(data, &m); err != nil {
			return nil, err
		}
		return m, nil

	case TypeInvitation:
		var m Invitation
		if err := decodeBody(data, &m); err != nil {
			return nil, err
		}
		if m.FromUserID == "" {
			return nil, fmt.Errorf("%w: invitation without from_user_id", ErrMalformed)
		}
		return m, nil

	case TypeInvitationResponse:
		var m InvitationResponse
		if err := decodeBody(data, &m); err != nil {
			return nil, err
		}
		return m, nil

	case TypeYourTurn, TypeWaitForTurn:
		var m TurnUpdate
		if err := decodeBody(data, &m); err != nil {
			return nil, err
		}
		if m.Board == nil {
			return nil, fmt.Errorf("%w: %s without board", ErrMalformed, env.Type)
		}
		m.YourTurn = env.Type == TypeYourTurn
		return m, nil

	case TypeGameOver:
		var raw struct {
			Board      *Board `json:"board"`
			Result     string `json:"result"`
			YourSymbol Mark   `json:"your_symbol"`
		}
		if err := decodeBody(data, &raw); err != nil {
			return nil, err
		}
		return GameOver{Board: raw.Board, Result: ParseResult(raw.Result), YourSymbol: raw.YourSymbol}, nil

	case TypeGameEnded:
		var m GameEnded
		if err := decodeBody(data, &m); err != nil {
			return nil, err
		}
		return m, nil

	case TypeError:
		var m ServerError
		if err := decodeBody(data, &m); err != nil {
			return nil, err
		}
		return m, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
}

func decodeBody(data []byte, v any) error {
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return nil
}

// Encode serialises an outbound envelope.
func Encode(msg Outbound) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("protocol: encode %s: %w", msg.MessageType(), err)
	}
	return data, nil
}
