package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tui-tictac/internal/notify"
	"github.com/vovakirdan/tui-tictac/internal/protocol"
	"github.com/vovakirdan/tui-tictac/internal/session"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			MarginBottom(1)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	xStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Bold(true)
	oStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true)
	cursorStyle = lipgloss.NewStyle().Reverse(true)
	infoStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	bannerStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("205")).
			Padding(0, 1)
	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 1)
)

// renderMark styles one cell. Empty cells show their key number.
func renderMark(m protocol.Mark, pos int) string {
	switch m {
	case protocol.MarkX:
		return xStyle.Render("X")
	case protocol.MarkO:
		return oStyle.Render("O")
	default:
		return dimStyle.Render(fmt.Sprintf("%d", pos+1))
	}
}

// RenderBoard draws the 3x3 grid. cursor < 0 hides the cursor.
func RenderBoard(b protocol.Board, cursor int) string {
	var sb strings.Builder
	for row := 0; row < 3; row++ {
		if row > 0 {
			sb.WriteString("\n───┼───┼───\n")
		}
		for col := 0; col < 3; col++ {
			pos := row*3 + col
			if col > 0 {
				sb.WriteString("│")
			}
			cell := " " + renderMark(b[pos], pos) + " "
			if pos == cursor {
				cell = cursorStyle.Render(cell)
			}
			sb.WriteString(cell)
		}
	}
	return sb.String()
}

// RenderNotification draws the notification line, or "" when there is none.
func RenderNotification(n *notify.Notification) string {
	if n == nil {
		return ""
	}
	if n.IsError() {
		return errorStyle.Render("✗ " + n.Message)
	}
	return infoStyle.Render("• " + n.Message)
}

// turnLine describes whose move it is.
func turnLine(g session.Game) string {
	switch {
	case g.Concluded():
		return session.ResultMessage(g.Result)
	case g.Provisional():
		return "Waiting for the game to start..."
	case g.IsYourTurn:
		return "Your turn"
	default:
		return fmt.Sprintf("Waiting for %s...", g.Opponent.Username)
	}
}

// RenderGameHeader is the line above the board.
func RenderGameHeader(g session.Game) string {
	symbol := string(g.YourSymbol)
	if symbol == "" {
		symbol = "?"
	}
	return fmt.Sprintf("You are %s, playing against %s", symbol, g.Opponent.Username)
}

func centerText(text string, width int) string {
	if width <= 0 {
		return text
	}
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, text)
}
