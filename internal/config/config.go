// Package config loads steadfast settings from the config file, the
// environment and command-line flags
package config

import (
	"fmt"
	"io"
	"os"
	"os/user"
	"strings"
	"time"
)

type (
	// Config holds all configuration settings
	Config struct {
		CLI     CLIConfig     `mapstructure:"-"`
		Store   StoreConfig   `mapstructure:"store"`
		Log     LogConfig     `mapstructure:"log"`
		User    UserConfig    `mapstructure:"user"`
		Pause   PauseConfig   `mapstructure:"pause"`
		Goal    GoalConfig    `mapstructure:"goal"`
		Display DisplayConfig `mapstructure:"display"`
	}

	// PauseConfig holds pause-related settings
	PauseConfig struct {
		// Cooldown is the minimum interval between two pauses.
		Cooldown time.Duration `mapstructure:"cooldown"`
	}

	// StoreConfig selects the storage backend
	StoreConfig struct {
		Backend string `mapstructure:"backend"`
		// Path overrides the default database location.
		Path string `mapstructure:"path"`
	}

	// LogConfig holds log file settings
	LogConfig struct {
		Level string `mapstructure:"level"`
		// Path overrides the default log file location.
		Path       string `mapstructure:"path"`
		MaxSizeMB  int    `mapstructure:"max_size_mb"`
		MaxBackups int    `mapstructure:"max_backups"`
		MaxAgeDays int    `mapstructure:"max_age_days"`
	}

	// UserConfig identifies the owner of the sessions
	UserConfig struct {
		ID string `mapstructure:"id"`
	}

	// GoalConfig holds the session goal
	GoalConfig struct {
		// Target is the effective time goal. Zero disables goal tracking.
		Target time.Duration `mapstructure:"target"`
	}

	// DisplayConfig holds display-related settings
	DisplayConfig struct {
		DarkTheme      bool `mapstructure:"dark_theme"`
		TwentyFourHour bool `mapstructure:"24hr_clock"`
	}

	// CLIConfig holds per-invocation settings taken from flags
	CLIConfig struct {
		StartTime  time.Time
		Reason     string
		Note       string
		JSON       bool
		Hardcore   bool
		Keyholder  bool
		Goal       bool
		ConfigPath string
	}

	// Option is a function that modifies Config
	Option func(*Config) error
)

const Version = "v0.3.0"

var (
	Stdin  io.Reader = os.Stdin
	Stdout io.Writer = os.Stdout
	Stderr io.Writer = os.Stderr
)

// New creates a new Config with default values and applies options
func New(opts ...Option) (*Config, error) {
	cfg := &Config{}

	for _, opt := range opts {
		if err := opt(cfg); err != nil {
			return nil, errConfigOption.Wrap(err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, errConfigValidation.Wrap(err)
	}

	return cfg, nil
}

// TimeFormat returns the clock layout chosen by the user.
func (c *Config) TimeFormat() string {
	if c.Display.TwentyFourHour {
		return "Jan 02, 2006 15:04"
	}

	return "Jan 02, 2006 03:04 PM"
}

// defaultUserID names the local account, which owns sessions unless the
// config says otherwise.
func defaultUserID() string {
	u, err := user.Current()
	if err != nil || strings.TrimSpace(u.Username) == "" {
		return "default"
	}

	return u.Username
}

func (c *Config) String() string {
	return fmt.Sprintf(
		"user=%s backend=%s cooldown=%s goal=%s",
		c.User.ID,
		c.Store.Backend,
		c.Pause.Cooldown,
		c.Goal.Target,
	)
}
