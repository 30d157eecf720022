package config

import (
	_ "embed"
	"time"
)

//go:embed defaults/tictac.yaml
var defaultYAML []byte

// DefaultYAML returns the embedded default configuration file.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultYAML))
	copy(out, defaultYAML)
	return out
}

// DefaultConfig returns the hardcoded default configuration.
func DefaultConfig() Config {
	return Config{
		Server: ServerConfig{
			Endpoint: "ws://localhost:8000",
		},
		Session: SessionConfig{
			NotificationTTL: 5 * time.Second,
			TeardownDelay:   2 * time.Second,
		},
		Transport: TransportConfig{
			HandshakeTimeout: 10 * time.Second,
			WriteWait:        10 * time.Second,
			PongWait:         60 * time.Second,
			PingPeriod:       54 * time.Second,
			MaxMessageSize:   64 * 1024,
			SendBuffer:       16,
		},
		Log: LogConfig{
			Level: "info",
		},
		SSH: SSHConfig{
			Address:     ":23234",
			IdleTimeout: 30 * time.Minute,
		},
	}
}
