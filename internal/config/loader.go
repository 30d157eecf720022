package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Environment variables consulted after the config file.
const (
	EnvEndpoint    = "TICTAC_ENDPOINT"
	EnvBackendURL  = "BACKEND_URL"
	EnvLogLevel    = "TICTAC_LOG_LEVEL"
	EnvLogFile     = "TICTAC_LOG_FILE"
	EnvSSHAddress  = "TICTAC_SSH_ADDRESS"
	EnvSSHHostKey  = "TICTAC_SSH_HOST_KEY"
	localConfig    = "configs/tictac.yaml"
	userConfigFile = "config.yaml"
)

// Load loads the configuration.
// Search order: customPath -> ~/.tictac/config.yaml -> ./configs/tictac.yaml -> embedded default.
// Values missing from the file keep their hardcoded defaults. A .env file in
// the working directory is loaded next, then environment overrides apply.
func Load(customPath string) (Config, error) {
	cfg, err := loadFile(customPath)
	if err != nil {
		return cfg, err
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return cfg, fmt.Errorf("failed to load .env: %w", err)
	}
	ApplyEnv(&cfg)
	return cfg, nil
}

func loadFile(customPath string) (Config, error) {
	cfg := DefaultConfig()

	// Try custom path first
	if customPath != "" {
		data, err := os.ReadFile(customPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config %s: %w", customPath, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config %s: %w", customPath, err)
		}
		return cfg, nil
	}

	// Try user config directory, then local configs directory
	for _, path := range []string{UserPath(userConfigFile), localConfig} {
		if path == "" {
			continue
		}
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		parsed := DefaultConfig()
		if err := yaml.Unmarshal(data, &parsed); err == nil {
			return parsed, nil
		}
	}

	// Use embedded default YAML
	parsed := DefaultConfig()
	if err := yaml.Unmarshal(defaultYAML, &parsed); err != nil {
		return cfg, nil // Fallback to hardcoded if embed fails
	}
	return parsed, nil
}

// ApplyEnv overrides cfg from the process environment.
func ApplyEnv(cfg *Config) {
	if v := firstEnv(EnvEndpoint, EnvBackendURL); v != "" {
		cfg.Server.Endpoint = v
	}
	if v := firstEnv(EnvLogLevel); v != "" {
		cfg.Log.Level = v
	}
	if v := firstEnv(EnvLogFile); v != "" {
		cfg.Log.File = v
	}
	if v := firstEnv(EnvSSHAddress); v != "" {
		cfg.SSH.Address = v
	}
	if v := firstEnv(EnvSSHHostKey); v != "" {
		cfg.SSH.HostKey = v
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}

// UserPath returns a path under ~/.tictac, or empty if home is unavailable.
func UserPath(name string) string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".tictac", name)
}

// ExpandHome replaces a leading ~/ with the home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, strings.TrimPrefix(path[1:], "/"))
	}
	return path
}

// Marshal renders cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to encode config: %w", err)
	}
	return data, nil
}
