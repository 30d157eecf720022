// tictac is a terminal client for the realtime tic-tac-toe lobby server.
//
// Usage:
//
//	tictac play              - Join the lobby and play in this terminal
//	tictac serve             - Host the client over SSH for remote players
//	tictac config            - Print the effective configuration
//
// Global flags:
//
//	--config <path>     - Config YAML (default: ~/.tictac/config.yaml)
//	--endpoint <url>    - Game server base URL (default: ws://localhost:8000)
//	--log-level <level> - debug, info, warn or error
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/tui-tictac/internal/config"
)

var (
	// Global flags
	flagConfig   string
	flagEndpoint string
	flagLogLevel string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "tictac",
	Short: "Tic-tac-toe against other players in your terminal",
	Long: `tictac connects to a tic-tac-toe lobby server, shows who is online,
and lets you invite other players and play live matches.

Available commands:
  play     - Join the lobby in this terminal
  serve    - Start SSH server for remote play
  config   - Print the effective configuration

Examples:
  tictac play --name alice
  tictac play --endpoint wss://games.example.com
  tictac serve --ssh :2222
  tictac config`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "Path to config YAML")
	rootCmd.PersistentFlags().StringVar(&flagEndpoint, "endpoint", "", "Game server base URL (overrides config and environment)")
	rootCmd.PersistentFlags().StringVar(&flagLogLevel, "log-level", "", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(playCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

// loadConfig resolves the config file, environment and global flags.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(config.ExpandHome(flagConfig))
	if err != nil {
		return cfg, err
	}
	if flagEndpoint != "" {
		cfg.Server.Endpoint = flagEndpoint
	}
	if flagLogLevel != "" {
		cfg.Log.Level = flagLogLevel
	}
	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}
