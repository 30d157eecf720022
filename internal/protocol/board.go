package protocol

import (
	"encoding/json"
	"fmt"
	"strings"
)

// BoardSize is the number of cells on the board.
const BoardSize = 9

// Mark is the content of one board cell.
type Mark string

const (
	MarkEmpty Mark = ""
	MarkX     Mark = "X"
	MarkO     Mark = "O"
)

// Opponent returns the other player's mark.
func (m Mark) Opponent() Mark {
	switch m {
	case MarkX:
		return MarkO
	case MarkO:
		return MarkX
	default:
		return MarkEmpty
	}
}

// Board is the 3x3 grid in row-major order. On the wire it is an array of
// exactly nine entries, each null, "X" or "O".
type Board [BoardSize]Mark

// IsEmpty reports whether pos is on the board and holds no mark.
func (b Board) IsEmpty(pos int) bool {
	if pos < 0 || pos >= BoardSize {
		return false
	}
	return b[pos] == MarkEmpty
}

// Count returns how many cells hold a mark.
func (b Board) Count() int {
	n := 0
	for _, m := range b {
		if m != MarkEmpty {
			n++
		}
	}
	return n
}

// UnmarshalJSON decodes a nine element array of null / "X" / "O".
func (b *Board) UnmarshalJSON(data []byte) error {
	var cells []*string
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("board: %w", err)
	}
	if len(cells) != BoardSize {
		return fmt.Errorf("board: want %d cells, got %d", BoardSize, len(cells))
	}

	var out Board
	for i, c := range cells {
		if c == nil {
			continue
		}
		switch m := Mark(strings.ToUpper(*c)); m {
		case MarkEmpty, MarkX, MarkO:
			out[i] = m
		default:
			return fmt.Errorf("board: invalid mark %q at %d", *c, i)
		}
	}
	*b = out
	return nil
}

// MarshalJSON encodes empty cells as null.
func (b Board) MarshalJSON() ([]byte, error) {
	cells := make([]*string, BoardSize)
	for i, m := range b {
		if m == MarkEmpty {
			continue
		}
		s := string(m)
		cells[i] = &s
	}
	return json.Marshal(cells)
}
