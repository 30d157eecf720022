package main

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tictac/internal/client"
	"github.com/vovakirdan/tui-tictac/internal/config"
	"github.com/vovakirdan/tui-tictac/internal/platform/tui"
)

var (
	flagSSHAddr     string
	flagHostKey     string
	flagIdleTimeout int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the tictac SSH server",
	Long: `Start an SSH server that hosts the tictac client for remote players.

Each SSH connection gets its own connection to the game server, named after
the SSH user.

Host key handling:
  - If --host-key is provided, uses that key file
  - Otherwise, auto-generates a key at ~/.tictac/host_key

Examples:
  tictac serve                           # Listen on :23234 with auto-generated key
  tictac serve --ssh :2222               # Listen on port 2222
  tictac serve --host-key ./my_host_key  # Use specific host key

Users can connect with:
  ssh localhost -p 23234`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagSSHAddr, "ssh", "", "SSH server address (host:port, default from config)")
	serveCmd.Flags().StringVar(&flagHostKey, "host-key", "", "Path to host key file (auto-generated if not specified)")
	serveCmd.Flags().IntVar(&flagIdleTimeout, "idle-timeout", 0, "Idle timeout in minutes before disconnecting (default from config)")
}

func runServe(_ *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagSSHAddr != "" {
		cfg.SSH.Address = flagSSHAddr
	}
	if flagHostKey != "" {
		cfg.SSH.HostKey = flagHostKey
	}
	if flagIdleTimeout > 0 {
		cfg.SSH.IdleTimeout = time.Duration(flagIdleTimeout) * time.Minute
	}

	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		Prefix:          "tictac-ssh",
		Level:           cfg.LogLevel(),
	})

	server, err := tui.NewSSHServer(tui.SSHServerConfig{
		Address:     cfg.SSH.Address,
		HostKeyPath: config.ExpandHome(cfg.SSH.HostKey),
		IdleTimeout: cfg.SSH.IdleTimeout,
		Transport:   cfg.TransportOptions(),
		Client: client.Options{
			NotificationTTL: cfg.Session.NotificationTTL,
			TeardownDelay:   cfg.Session.TeardownDelay,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("error creating server: %w", err)
	}

	fmt.Printf("Starting tictac SSH server on %s\n", server.Addr())
	fmt.Printf("Game server: %s\n", cfg.Server.Endpoint)
	fmt.Println("Press Ctrl+C to stop")

	return server.ListenAndServe()
}
