// Package config provides YAML-based configuration loading for the tictac
// client, with .env and environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/vovakirdan/tui-tictac/internal/transport"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("config: invalid")

// Config contains all configuration for the client and the SSH host.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Session   SessionConfig   `yaml:"session"`
	Transport TransportConfig `yaml:"transport"`
	Log       LogConfig       `yaml:"log"`
	SSH       SSHConfig       `yaml:"ssh"`
}

// ServerConfig locates the game server.
type ServerConfig struct {
	// Endpoint is the base URL; the socket lives at <endpoint>/ws.
	Endpoint string `yaml:"endpoint"`
}

// SessionConfig holds the client's display timers.
type SessionConfig struct {
	NotificationTTL time.Duration `yaml:"notification_ttl"`
	TeardownDelay   time.Duration `yaml:"teardown_delay"`
}

// TransportConfig tunes the WebSocket connection.
type TransportConfig struct {
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
	WriteWait        time.Duration `yaml:"write_wait"`
	PongWait         time.Duration `yaml:"pong_wait"`
	PingPeriod       time.Duration `yaml:"ping_period"`
	MaxMessageSize   int64         `yaml:"max_message_size"`
	SendBuffer       int           `yaml:"send_buffer"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level string `yaml:"level"`
	// File receives logs in play mode. Empty means ~/.tictac/client.log.
	File string `yaml:"file"`
}

// SSHConfig configures `tictac serve`.
type SSHConfig struct {
	Address string `yaml:"address"`
	// HostKey is generated on first start when missing. Empty means
	// ~/.tictac/host_key.
	HostKey     string        `yaml:"host_key"`
	IdleTimeout time.Duration `yaml:"idle_timeout"`
}

// TransportOptions maps the config onto transport options.
func (c Config) TransportOptions() transport.Options {
	return transport.Options{
		Endpoint:         c.Server.Endpoint,
		HandshakeTimeout: c.Transport.HandshakeTimeout,
		WriteWait:        c.Transport.WriteWait,
		PongWait:         c.Transport.PongWait,
		PingPeriod:       c.Transport.PingPeriod,
		MaxMessageSize:   c.Transport.MaxMessageSize,
		SendBuffer:       c.Transport.SendBuffer,
	}
}

// LogLevel parses Log.Level, defaulting to info.
func (c Config) LogLevel() log.Level {
	lvl, err := log.ParseLevel(strings.ToLower(strings.TrimSpace(c.Log.Level)))
	if err != nil {
		return log.InfoLevel
	}
	return lvl
}

// Validate checks the config and normalises the endpoint.
func (c *Config) Validate() error {
	endpoint, err := transport.NormalizeEndpoint(c.Server.Endpoint)
	if err != nil {
		return fmt.Errorf("%w: server.endpoint: %v", ErrInvalid, err)
	}
	c.Server.Endpoint = endpoint

	durations := []struct {
		name string
		d    time.Duration
	}{
		{"session.notification_ttl", c.Session.NotificationTTL},
		{"session.teardown_delay", c.Session.TeardownDelay},
		{"transport.handshake_timeout", c.Transport.HandshakeTimeout},
		{"transport.write_wait", c.Transport.WriteWait},
		{"transport.pong_wait", c.Transport.PongWait},
		{"transport.ping_period", c.Transport.PingPeriod},
	}
	for _, d := range durations {
		if d.d <= 0 {
			return fmt.Errorf("%w: %s must be positive, got %s", ErrInvalid, d.name, d.d)
		}
	}
	if c.Transport.PingPeriod >= c.Transport.PongWait {
		return fmt.Errorf("%w: transport.ping_period (%s) must be shorter than transport.pong_wait (%s)",
			ErrInvalid, c.Transport.PingPeriod, c.Transport.PongWait)
	}
	if c.Transport.MaxMessageSize <= 0 {
		return fmt.Errorf("%w: transport.max_message_size must be positive", ErrInvalid)
	}
	if c.Transport.SendBuffer < 1 {
		return fmt.Errorf("%w: transport.send_buffer must be at least 1", ErrInvalid)
	}
	if lvl := strings.TrimSpace(c.Log.Level); lvl != "" {
		if _, err := log.ParseLevel(strings.ToLower(lvl)); err != nil {
			return fmt.Errorf("%w: log.level: %v", ErrInvalid, err)
		}
	}
	return nil
}
