package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/pterm/pterm"
	"github.com/pterm/pterm/putils"
)

// PromptOptions holds the user's responses to the configuration prompts.
type PromptOptions struct {
	Backend string
	Goal    time.Duration
}

// WithPromptConfig returns an Option that configures settings via
// interactive prompts. It only runs when the config file does not exist yet.
func WithPromptConfig(configPath string) Option {
	return func(c *Config) error {
		_, err := os.Stat(configPath)
		if err == nil || !errors.Is(err, os.ErrNotExist) {
			return err
		}

		opts, err := promptUser()
		if err != nil {
			return fmt.Errorf("user prompt failed: %w", err)
		}

		applyPromptOptions(c, opts)

		return nil
	}
}

// promptUser handles the interactive configuration process.
func promptUser() (PromptOptions, error) {
	var opts PromptOptions

	pterm.DefaultHeader.WithFullWidth(false).Println("steadfast")

	_ = putils.BulletListFromString(`Follow the prompts below to configure steadfast for the first time.
Select your preferred value, or press ENTER to accept the defaults.
Edit the config file with 'steadfast edit-config' to change any settings.`, " ").
		Render()

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Where should sessions be stored?").
				Options(
					huh.NewOption("Embedded key/value file (bolt)", "bolt").
						Selected(true),
					huh.NewOption("SQLite database", "sqlite"),
				).
				Value(&opts.Backend),
		),
		huh.NewGroup(
			huh.NewSelect[time.Duration]().
				Title("Session goal").
				Options(
					huh.NewOption("No goal", time.Duration(0)).Selected(true),
					huh.NewOption("1 day", 24*time.Hour),
					huh.NewOption("3 days", 72*time.Hour),
					huh.NewOption("1 week", 7*24*time.Hour),
					huh.NewOption("30 days", 30*24*time.Hour),
				).
				Value(&opts.Goal),
		),
	)

	err := form.Run()
	if err != nil {
		return opts, fmt.Errorf("form interaction failed: %w", err)
	}

	return opts, nil
}

// applyPromptOptions applies the user's prompt responses to the configuration.
func applyPromptOptions(c *Config, opts PromptOptions) {
	c.Store.Backend = opts.Backend
	c.Goal.Target = opts.Goal
}
