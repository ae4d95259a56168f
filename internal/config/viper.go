package config

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// envPrefix namespaces environment overrides, e.g. STEADFAST_PAUSE_COOLDOWN.
const envPrefix = "STEADFAST"

// viperKeys defines the mapping between config keys and their Viper counterparts.
const (
	keyPauseCooldown  = "pause.cooldown"
	keyStoreBackend   = "store.backend"
	keyStorePath      = "store.path"
	keyLogLevel       = "log.level"
	keyLogPath        = "log.path"
	keyLogMaxSize     = "log.max_size_mb"
	keyLogMaxBackups  = "log.max_backups"
	keyLogMaxAge      = "log.max_age_days"
	keyUserID         = "user.id"
	keyGoalTarget     = "goal.target"
	keyDarkTheme      = "display.dark_theme"
	keyTwentyFourHour = "display.24hr_clock"
)

// WithViperConfig returns an Option that loads configuration from Viper.
// A missing config file is created with the default values.
func WithViperConfig(configPath string) Option {
	return func(c *Config) error {
		v := viper.New()

		v.SetConfigFile(configPath)
		v.SetConfigType("yaml")

		setupViper(v, c)

		err := v.ReadInConfig()
		if err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return errReadConfig.Wrap(err)
			}

			if err := v.WriteConfig(); err != nil {
				return errWriteConfig.Wrap(err)
			}
		}

		// the cooldown is read from the file only, so a one-off environment
		// variable cannot shorten it
		fileCooldown := v.GetString(keyPauseCooldown)

		// environment overrides apply after the file is written so that they
		// are never persisted
		v.SetEnvPrefix(envPrefix)
		v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		v.AutomaticEnv()
		v.Set(keyPauseCooldown, fileCooldown)

		return loadViperConfig(v, c)
	}
}

// setupViper configures Viper with defaults. Values already set on c, such
// as answers to the first-run prompt, take precedence over the built-in
// defaults.
func setupViper(v *viper.Viper, c *Config) {
	v.SetDefault(keyPauseCooldown, "4h")
	v.SetDefault(keyStoreBackend, "bolt")
	v.SetDefault(keyStorePath, "")
	v.SetDefault(keyLogLevel, "info")
	v.SetDefault(keyLogPath, "")
	v.SetDefault(keyLogMaxSize, 10)
	v.SetDefault(keyLogMaxBackups, 3)
	v.SetDefault(keyLogMaxAge, 28)
	v.SetDefault(keyUserID, defaultUserID())
	v.SetDefault(keyGoalTarget, "0s")
	v.SetDefault(keyDarkTheme, true)
	v.SetDefault(keyTwentyFourHour, false)

	if c.Store.Backend != "" {
		v.SetDefault(keyStoreBackend, c.Store.Backend)
	}

	if c.Goal.Target > 0 {
		v.SetDefault(keyGoalTarget, c.Goal.Target.String())
	}
}

// loadViperConfig loads configuration from Viper into the Config struct.
func loadViperConfig(v *viper.Viper, c *Config) error {
	if err := v.Unmarshal(c); err != nil {
		return errReadConfig.Wrap(err)
	}

	return nil
}
