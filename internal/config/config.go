// Package config loads nmctl's TOML configuration file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/shazow/nmctl/network/nmcli"
)

// Secret sources selectable with secret_source.
const (
	SecretsDBusSend = "dbus-send"
	SecretsDBus     = "dbus"
)

// Config holds the settings of the command line host.
type Config struct {
	// NMCLI and DBusSend are the programs to run.
	NMCLI    string `toml:"nmcli"`
	DBusSend string `toml:"dbus_send"`

	// CommandTimeout bounds every command. Zero disables it.
	CommandTimeout time.Duration `toml:"command_timeout"`
	ResetDelay     time.Duration `toml:"reset_delay"`
	MinVersion     string        `toml:"min_version"`
	SecretSource   string        `toml:"secret_source"`

	LogLevel string `toml:"log_level"`
	Theme    string `toml:"theme"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		NMCLI:          "nmcli",
		DBusSend:       "dbus-send",
		CommandTimeout: 10 * time.Second,
		ResetDelay:     nmcli.DefaultResetDelay,
		MinVersion:     nmcli.MinVersion,
		SecretSource:   SecretsDBusSend,
		LogLevel:       "warn",
	}
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "nmctl", "config.toml")
}

// Load reads the config file at path over the defaults. With an empty path
// the file at DefaultPath is used if it exists.
func Load(path string) (Config, error) {
	cfg := Default()
	explicit := path != ""
	if !explicit {
		path = DefaultPath()
		if path == "" {
			return cfg, nil
		}
	}

	md, err := toml.DecodeFile(path, &cfg)
	if errors.Is(err, fs.ErrNotExist) && !explicit {
		return Default(), nil
	}
	if err != nil {
		return cfg, fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return cfg, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}
	return cfg, cfg.Validate()
}

// Validate checks values that cannot be checked by decoding alone.
func (c Config) Validate() error {
	switch c.SecretSource {
	case SecretsDBusSend, SecretsDBus:
	default:
		return fmt.Errorf("invalid secret_source %q: want %q or %q", c.SecretSource, SecretsDBusSend, SecretsDBus)
	}
	if c.CommandTimeout < 0 || c.ResetDelay < 0 {
		return fmt.Errorf("durations must not be negative")
	}
	if c.NMCLI == "" {
		return fmt.Errorf("nmcli must not be empty")
	}
	if c.SecretSource == SecretsDBusSend && c.DBusSend == "" {
		return fmt.Errorf("dbus_send must not be empty when secret_source is %q", SecretsDBusSend)
	}
	return nil
}
