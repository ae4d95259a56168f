package config

import (
	"log/slog"
	"slices"
	"strings"
	"time"
)

var (
	// A configured cooldown may lengthen the 4h default but never shorten it.
	minCooldown = 4 * time.Hour
	maxCooldown = 7 * 24 * time.Hour

	backends = []string{"bolt", "sqlite", "memory"}
)

// Validate performs validation checks on the Config struct and its fields.
func (c *Config) Validate() error {
	if c.Pause.Cooldown < minCooldown || c.Pause.Cooldown > maxCooldown {
		return errInvalidCooldown.Fmt(minCooldown, maxCooldown, c.Pause.Cooldown)
	}

	if c.Goal.Target < 0 {
		return errInvalidGoal.Fmt(c.Goal.Target)
	}

	if !slices.Contains(backends, c.Store.Backend) {
		return errUnknownBackend.Fmt(c.Store.Backend)
	}

	if strings.TrimSpace(c.User.ID) == "" {
		return errEmptyUser
	}

	if _, err := c.LogLevel(); err != nil {
		return err
	}

	if c.Log.MaxSizeMB < 0 || c.Log.MaxBackups < 0 || c.Log.MaxAgeDays < 0 {
		return errInvalidLogLimit
	}

	return nil
}

// LogLevel parses the configured log level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level

	if err := level.UnmarshalText([]byte(c.Log.Level)); err != nil {
		return level, errInvalidLogLevel.Fmt(c.Log.Level)
	}

	return level, nil
}
