// Package config loads configuration for the bsos command.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/firecraftgaming/binary-structured-objects/codec"
)

// Config is the root configuration of the bsos command.
type Config struct {
	Log         Log         `mapstructure:"log"`
	Codec       Codec       `mapstructure:"codec"`
	Interchange Interchange `mapstructure:"interchange"`
}

// Log defines logger settings.
type Log struct {
	// Level: debug, info, warn, error
	Level string `mapstructure:"level"`
	// Format: console or json
	Format      string `mapstructure:"format"`
	Development bool   `mapstructure:"development"`
}

// Codec selects wire options applied to every registry the command builds.
type Codec struct {
	// Strings: utf8 or latin1
	Strings        string `mapstructure:"strings"`
	LegacyPresence bool   `mapstructure:"legacy_presence"`
}

// Interchange selects the default text or binary format values are
// converted from and to.
type Interchange struct {
	Format string `mapstructure:"format"`
}

// Default returns a Config populated with defaults.
func Default() *Config {
	return &Config{
		Log: Log{
			Level:  "warn",
			Format: "console",
		},
		Codec: Codec{
			Strings: "utf8",
		},
		Interchange: Interchange{
			Format: "json",
		},
	}
}

// Load reads configuration from path when it is non-empty, otherwise from
// bsos.yaml in the usual locations. Environment variables use the prefix
// BSOS with `.` and `-` replaced by `_`, e.g. BSOS_LOG_LEVEL=debug.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("BSOS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("log.format", cfg.Log.Format)
	v.SetDefault("log.development", cfg.Log.Development)
	v.SetDefault("codec.strings", cfg.Codec.Strings)
	v.SetDefault("codec.legacy_presence", cfg.Codec.LegacyPresence)
	v.SetDefault("interchange.format", cfg.Interchange.Format)

	if path == "" {
		path = os.Getenv("BSOS_CONFIG")
	}
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("bsos")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		if home, err := os.UserHomeDir(); err == nil {
			v.AddConfigPath(filepath.Join(home, ".bsos"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch c.Log.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}

	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	switch c.Log.Format {
	case "":
		c.Log.Format = "console"
	case "console", "json":
	default:
		return fmt.Errorf("invalid log.format: %q", c.Log.Format)
	}

	if _, err := codec.ParseStringMode(c.Codec.Strings); err != nil {
		return fmt.Errorf("invalid codec.strings: %q", c.Codec.Strings)
	}

	c.Interchange.Format = strings.ToLower(strings.TrimSpace(c.Interchange.Format))
	if c.Interchange.Format == "" {
		c.Interchange.Format = "json"
	}
	return nil
}

// StringMode returns the parsed codec.strings setting.
func (c *Config) StringMode() codec.StringMode {
	m, _ := codec.ParseStringMode(c.Codec.Strings)
	return m
}
