package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvEndpoint, EnvBackendURL, EnvLogLevel, EnvLogFile, EnvSSHAddress, EnvSSHHostKey} {
		t.Setenv(k, "")
	}
}

func TestEmbeddedDefaultsMatchHardcoded(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, yaml.Unmarshal(DefaultYAML(), &cfg))
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestDefaultsValidate(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, "ws://localhost:8000", cfg.Server.Endpoint)
	assert.Equal(t, 5*time.Second, cfg.Session.NotificationTTL)
	assert.Equal(t, 2*time.Second, cfg.Session.TeardownDelay)
}

func TestLoadCustomPathKeepsUnsetDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "tictac.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  endpoint: https://games.example.com\nsession:\n  teardown_delay: 3s\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "https://games.example.com", cfg.Server.Endpoint)
	assert.Equal(t, 3*time.Second, cfg.Session.TeardownDelay)
	assert.Equal(t, 5*time.Second, cfg.Session.NotificationTTL)

	require.NoError(t, cfg.Validate())
	assert.Equal(t, "wss://games.example.com", cfg.Server.Endpoint)
}

func TestLoadCustomPathErrors(t *testing.T) {
	clearEnv(t)
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("session: [oops"), 0o600))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvBackendURL, "http://backend:9000")
	t.Setenv(EnvLogLevel, "debug")

	cfg := DefaultConfig()
	ApplyEnv(&cfg)
	assert.Equal(t, "http://backend:9000", cfg.Server.Endpoint)
	assert.Equal(t, log.DebugLevel, cfg.LogLevel())

	t.Setenv(EnvEndpoint, "ws://primary:8000")
	ApplyEnv(&cfg)
	assert.Equal(t, "ws://primary:8000", cfg.Server.Endpoint, "TICTAC_ENDPOINT wins over BACKEND_URL")
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"bad scheme":        func(c *Config) { c.Server.Endpoint = "ftp://x" },
		"no host":           func(c *Config) { c.Server.Endpoint = "ws://" },
		"zero ttl":          func(c *Config) { c.Session.NotificationTTL = 0 },
		"negative teardown": func(c *Config) { c.Session.TeardownDelay = -time.Second },
		"ping after pong":   func(c *Config) { c.Transport.PingPeriod = c.Transport.PongWait },
		"no send buffer":    func(c *Config) { c.Transport.SendBuffer = 0 },
		"no read limit":     func(c *Config) { c.Transport.MaxMessageSize = 0 },
		"unknown log level": func(c *Config) { c.Log.Level = "loud" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := DefaultConfig()
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), ErrInvalid)
		})
	}
}

func TestMarshalRoundTripsDurations(t *testing.T) {
	data, err := Marshal(DefaultConfig())
	require.NoError(t, err)
	assert.Contains(t, string(data), "notification_ttl: 5s")

	var back Config
	require.NoError(t, yaml.Unmarshal(data, &back))
	assert.Equal(t, DefaultConfig(), back)
}

func TestTransportOptions(t *testing.T) {
	opts := DefaultConfig().TransportOptions()
	assert.Equal(t, "ws://localhost:8000", opts.Endpoint)
	assert.Equal(t, 54*time.Second, opts.PingPeriod)
	assert.Equal(t, int64(64*1024), opts.MaxMessageSize)
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "x.log"), ExpandHome("~/x.log"))
	assert.Equal(t, "/tmp/x.log", ExpandHome("/tmp/x.log"))
}
