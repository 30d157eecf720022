package tui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
)

// KeyMap defines the key bindings for every screen.
type KeyMap struct {
	Up      key.Binding
	Down    key.Binding
	Left    key.Binding
	Right   key.Binding
	Select  key.Binding
	Accept  key.Binding
	Decline key.Binding
	Cell    key.Binding
	Leave   key.Binding
	Quit    key.Binding
	Connect key.Binding
}

// DefaultKeyMap returns default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "down"),
		),
		Left: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left/h", "left"),
		),
		Right: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right/l", "right"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "select"),
		),
		Accept: key.NewBinding(
			key.WithKeys("y"),
			key.WithHelp("y", "accept"),
		),
		Decline: key.NewBinding(
			key.WithKeys("n"),
			key.WithHelp("n", "decline"),
		),
		Cell: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "play cell"),
		),
		Leave: key.NewBinding(
			key.WithKeys("q"),
			key.WithHelp("q", "quit"),
		),
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "esc"),
			key.WithHelp("esc", "exit"),
		),
		Connect: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "connect"),
		),
	}
}

// screenKeys adapts a KeyMap to the help view for one screen.
type screenKeys struct {
	short []key.Binding
}

func (s screenKeys) ShortHelp() []key.Binding { return s.short }

func (s screenKeys) FullHelp() [][]key.Binding { return [][]key.Binding{s.short} }

func (k KeyMap) loginHelp() screenKeys {
	return screenKeys{short: []key.Binding{k.Connect, k.Quit}}
}

func (k KeyMap) lobbyHelp(invited bool) screenKeys {
	if invited {
		return screenKeys{short: []key.Binding{k.Accept, k.Decline, k.Up, k.Down, k.Leave}}
	}
	sel := k.Select
	sel.SetHelp("enter", "invite")
	return screenKeys{short: []key.Binding{k.Up, k.Down, sel, k.Leave}}
}

func (k KeyMap) gameHelp() screenKeys {
	sel := k.Select
	sel.SetHelp("enter", "place")
	return screenKeys{short: []key.Binding{k.Up, k.Down, k.Left, k.Right, sel, k.Cell, k.Leave}}
}

// cellFromKey maps the digit keys 1-9 to board positions 0-8.
func cellFromKey(msg tea.KeyMsg) (int, bool) {
	s := msg.String()
	if len(s) != 1 || s[0] < '1' || s[0] > '9' {
		return 0, false
	}
	return int(s[0] - '1'), true
}

// moveCursor moves a board cursor one step, clamped to the grid.
func moveCursor(pos, dRow, dCol int) int {
	row, col := pos/3+dRow, pos%3+dCol
	row = min(max(row, 0), 2)
	col = min(max(col, 0), 2)
	return row*3 + col
}
