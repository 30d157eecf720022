// Package tui provides the Bubble Tea front end for the tictac client and
// hosts it over SSH via Wish.
package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vovakirdan/tui-tictac/internal/session"
)

// Controller is the command surface the UI drives. *client.Client
// implements it.
type Controller interface {
	Connect(ctx context.Context, username string) error
	RequestInvite(target string) bool
	RespondToInvitation(accept bool) bool
	SubmitMove(position int) bool
	Quit() bool
}

// Feed delivers state snapshots. *client.Subscription implements it.
type Feed interface {
	Updates() <-chan session.State
	Done() <-chan struct{}
}

// StateMsg carries a new session state into the program.
type StateMsg session.State

// feedClosedMsg is sent once the feed ends.
type feedClosedMsg struct{}

// connectResultMsg reports a rejected connect request.
type connectResultMsg struct {
	err error
}

// waitForState returns a command that waits for the next snapshot.
func waitForState(feed Feed) tea.Cmd {
	return func() tea.Msg {
		if feed == nil {
			return nil
		}
		select {
		case st := <-feed.Updates():
			return StateMsg(st)
		case <-feed.Done():
			return feedClosedMsg{}
		}
	}
}

func connectCmd(ctrl Controller, username string) tea.Cmd {
	return func() tea.Msg {
		return connectResultMsg{err: ctrl.Connect(context.Background(), username)}
	}
}

func inviteCmd(ctrl Controller, target string) tea.Cmd {
	return func() tea.Msg {
		ctrl.RequestInvite(target)
		return nil
	}
}

func respondCmd(ctrl Controller, accept bool) tea.Cmd {
	return func() tea.Msg {
		ctrl.RespondToInvitation(accept)
		return nil
	}
}

func moveCmd(ctrl Controller, pos int) tea.Cmd {
	return func() tea.Msg {
		ctrl.SubmitMove(pos)
		return nil
	}
}

// quitCmd leaves the server and then ends the program.
func quitCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.Quit()
		return tea.Quit()
	}
}
