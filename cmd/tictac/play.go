package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-tictac/internal/client"
	"github.com/vovakirdan/tui-tictac/internal/config"
	"github.com/vovakirdan/tui-tictac/internal/platform/tui"
	"github.com/vovakirdan/tui-tictac/internal/transport"
)

var flagName string

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Join the lobby and play",
	Long: `Open the lobby in this terminal. Pick a name, invite a player from the
list or wait for an invitation, then play.

Controls:
  Enter        - Connect / invite selected player / place mark
  Up/Down      - Move through the player list
  Arrows/hjkl  - Move the board cursor
  1-9          - Place a mark directly
  Y/N          - Accept or decline an invitation
  Q            - Leave the server and exit
  Esc/Ctrl+C   - Exit

Logs go to ~/.tictac/client.log unless log.file says otherwise.

Examples:
  tictac play
  tictac play --name alice
  tictac play --endpoint ws://localhost:8000 --log-level debug`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagName, "name", "", "Username to pre-fill (default: $USER)")
}

func runPlay(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	logger, closeLog, err := openLog(cfg)
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mgr := transport.New(cfg.TransportOptions(), logger)
	defer mgr.Close()

	c := client.New(mgr, client.Options{
		NotificationTTL: cfg.Session.NotificationTTL,
		TeardownDelay:   cfg.Session.TeardownDelay,
		Logger:          logger,
	})
	c.Start()
	defer c.Stop()

	sub := c.Subscribe()
	defer sub.Close()

	width, height := 80, 24 // Defaults
	if w, h, termErr := term.GetSize(int(os.Stdout.Fd())); termErr == nil {
		width = w
		height = h
	}

	name := flagName
	if name == "" {
		name = os.Getenv("USER")
	}

	logger.Info("starting", "endpoint", cfg.Server.Endpoint, "client", c.ID())
	if err := tui.Run(ctx, c, sub, name, width, height); err != nil {
		return fmt.Errorf("error running client: %w", err)
	}
	return nil
}

// openLog sends logs to a file so they don't corrupt the TUI.
func openLog(cfg config.Config) (*log.Logger, func(), error) {
	path := config.ExpandHome(cfg.Log.File)
	if path == "" {
		path = config.UserPath("client.log")
	}
	if path == "" {
		return log.New(io.Discard), func() {}, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, nil, fmt.Errorf("cannot create log directory: %w", err)
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return nil, nil, fmt.Errorf("cannot open log file: %w", err)
	}
	logger := log.NewWithOptions(f, log.Options{
		ReportTimestamp: true,
		Prefix:          "tictac",
		Level:           cfg.LogLevel(),
	})
	return logger, func() { f.Close() }, nil
}
