package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-tictac/internal/session"
	"github.com/vovakirdan/tui-tictac/internal/transport"
)

const (
	usernameLimit = 24
	rosterHeight  = 8
)

// Screen is the view currently shown.
type Screen int

const (
	ScreenLogin Screen = iota
	ScreenLobby
	ScreenGame
)

// Model is the Bubble Tea model for one player.
type Model struct {
	ctrl  Controller
	feed  Feed
	state session.State

	keys   KeyMap
	help   help.Model
	name   textinput.Model
	roster table.Model

	cursor     int
	width      int
	height     int
	connecting bool
	loginErr   string
	quitting   bool
}

// NewModel creates the UI. username pre-fills the login field.
func NewModel(ctrl Controller, feed Feed, username string) Model {
	ti := textinput.New()
	ti.Placeholder = "your name"
	ti.CharLimit = usernameLimit
	ti.SetValue(username)
	ti.Focus()

	h := help.New()
	h.ShowAll = false

	return Model{
		ctrl:   ctrl,
		feed:   feed,
		keys:   DefaultKeyMap(),
		help:   h,
		name:   ti,
		roster: newRosterTable(rosterHeight),
		cursor: 4,
	}
}

func newRosterTable(height int) table.Model {
	t := table.New(
		table.WithColumns([]table.Column{
			{Title: "Player", Width: usernameLimit},
			{Title: "ID", Width: 12},
		}),
		table.WithFocused(true),
		table.WithHeight(height),
	)
	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)
	return t
}

// Init starts listening for state updates.
func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, waitForState(m.feed))
}

// Screen reports which view is active.
func (m Model) Screen() Screen {
	switch {
	case !m.state.Connected:
		return ScreenLogin
	case m.state.Game != nil:
		return ScreenGame
	default:
		return ScreenLobby
	}
}

// State returns the last state the model rendered.
func (m Model) State() session.State {
	return m.state
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case StateMsg:
		return m.applyState(session.State(msg)), waitForState(m.feed)

	case feedClosedMsg:
		m.quitting = true
		return m, tea.Quit

	case connectResultMsg:
		m.connecting = false
		if msg.err != nil {
			m.loginErr = describeConnectError(msg.err)
		}
		return m, nil

	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			m.quitting = true
			if m.state.Connected {
				return m, quitCmd(m.ctrl)
			}
			return m, tea.Quit
		}
		switch m.Screen() {
		case ScreenLogin:
			return m.updateLogin(msg)
		case ScreenLobby:
			return m.updateLobby(msg)
		case ScreenGame:
			return m.updateGame(msg)
		}
	}

	if m.Screen() == ScreenLogin {
		var cmd tea.Cmd
		m.name, cmd = m.name.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m Model) applyState(st session.State) Model {
	prevGame := m.state.Game
	m.state = st

	if st.Connected || (st.Notification != nil && st.Notification.IsError()) {
		m.connecting = false
	}
	if st.Connected {
		m.loginErr = ""
	}

	lobby := st.Lobby()
	rows := make([]table.Row, len(lobby))
	for i, p := range lobby {
		rows[i] = table.Row{p.Username, p.UserID}
	}
	m.roster.SetRows(rows)
	if c := m.roster.Cursor(); len(rows) > 0 && (c < 0 || c >= len(rows)) {
		m.roster.SetCursor(min(max(c, 0), len(rows)-1))
	}

	if st.Game != nil && (prevGame == nil || prevGame.SessionID != st.Game.SessionID) {
		m.cursor = 4
	}
	return m
}

func (m Model) updateLogin(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Connect) {
		if m.connecting {
			return m, nil
		}
		name := strings.TrimSpace(m.name.Value())
		if name == "" {
			m.loginErr = "Enter a name to play."
			return m, nil
		}
		m.connecting = true
		m.loginErr = ""
		return m, connectCmd(m.ctrl, name)
	}

	var cmd tea.Cmd
	m.name, cmd = m.name.Update(msg)
	return m, cmd
}

func (m Model) updateLobby(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Leave):
		m.quitting = true
		return m, quitCmd(m.ctrl)

	case m.state.Invitation != nil && key.Matches(msg, m.keys.Accept):
		return m, respondCmd(m.ctrl, true)

	case m.state.Invitation != nil && key.Matches(msg, m.keys.Decline):
		return m, respondCmd(m.ctrl, false)

	case key.Matches(msg, m.keys.Select):
		row := m.roster.SelectedRow()
		if len(row) < 2 {
			return m, nil
		}
		return m, inviteCmd(m.ctrl, row[1])
	}

	var cmd tea.Cmd
	m.roster, cmd = m.roster.Update(msg)
	return m, cmd
}

func (m Model) updateGame(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Leave):
		m.quitting = true
		return m, quitCmd(m.ctrl)
	case key.Matches(msg, m.keys.Up):
		m.cursor = moveCursor(m.cursor, -1, 0)
	case key.Matches(msg, m.keys.Down):
		m.cursor = moveCursor(m.cursor, 1, 0)
	case key.Matches(msg, m.keys.Left):
		m.cursor = moveCursor(m.cursor, 0, -1)
	case key.Matches(msg, m.keys.Right):
		m.cursor = moveCursor(m.cursor, 0, 1)
	case key.Matches(msg, m.keys.Select):
		return m, moveCmd(m.ctrl, m.cursor)
	case key.Matches(msg, m.keys.Cell):
		if pos, ok := cellFromKey(msg); ok {
			m.cursor = pos
			return m, moveCmd(m.ctrl, pos)
		}
	}
	return m, nil
}

func describeConnectError(err error) string {
	switch {
	case errors.Is(err, transport.ErrEmptyUsername):
		return "Enter a name to play."
	case errors.Is(err, transport.ErrAlreadyConnected):
		return "Already connecting..."
	case errors.Is(err, context.Canceled):
		return "Connection cancelled."
	default:
		return err.Error()
	}
}

// View renders the current screen.
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	var body string
	var keys help.KeyMap
	switch m.Screen() {
	case ScreenLogin:
		body, keys = m.viewLogin(), m.keys.loginHelp()
	case ScreenLobby:
		body, keys = m.viewLobby(), m.keys.lobbyHelp(m.state.Invitation != nil)
	case ScreenGame:
		body, keys = m.viewGame(), m.keys.gameHelp()
	}

	var b strings.Builder
	b.WriteString(centerText(titleStyle.Render("TIC-TAC-TOE"), m.width))
	b.WriteString("\n")
	b.WriteString(body)
	b.WriteString("\n\n")
	if line := RenderNotification(m.state.Notification); line != "" {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString(dimStyle.Render(m.help.View(keys)))
	return b.String()
}

func (m Model) viewLogin() string {
	var b strings.Builder
	b.WriteString("Choose a name:\n\n")
	b.WriteString(m.name.View())
	b.WriteString("\n")
	switch {
	case m.connecting:
		b.WriteString("\n" + dimStyle.Render("Connecting..."))
	case m.loginErr != "":
		b.WriteString("\n" + errorStyle.Render(m.loginErr))
	}
	return b.String()
}

func (m Model) viewLobby() string {
	var b strings.Builder
	name := m.state.Username
	if m.state.Identity != nil {
		name = m.state.Identity.Username
	}
	b.WriteString(fmt.Sprintf("Logged in as %s\n\n", name))

	if inv := m.state.Invitation; inv != nil {
		b.WriteString(bannerStyle.Render(fmt.Sprintf("%s wants to play. Accept? [y/n]", inv.FromUsername)))
		b.WriteString("\n\n")
	}
	if out := m.state.Outgoing; out != nil {
		b.WriteString(dimStyle.Render(fmt.Sprintf("Invitation sent to %s", out.Username)))
		b.WriteString("\n\n")
	}

	if len(m.roster.Rows()) == 0 {
		b.WriteString(dimStyle.Italic(true).Render("No other players online yet."))
		return b.String()
	}
	b.WriteString(panelStyle.Render(m.roster.View()))
	return b.String()
}

func (m Model) viewGame() string {
	g := *m.state.Game
	cursor := -1
	if g.IsYourTurn && !g.Concluded() {
		cursor = m.cursor
	}

	var b strings.Builder
	b.WriteString(RenderGameHeader(g))
	b.WriteString("\n\n")
	b.WriteString(panelStyle.Render(RenderBoard(g.Board, cursor)))
	b.WriteString("\n\n")
	b.WriteString(turnLine(g))
	return b.String()
}

// Run starts the Bubble Tea program in the local terminal and blocks until
// it exits.
func Run(ctx context.Context, ctrl Controller, feed Feed, username string, width, height int) error {
	model := NewModel(ctrl, feed, username)
	model.width, model.height = width, height

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
		tea.WithContext(ctx),
	)

	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
