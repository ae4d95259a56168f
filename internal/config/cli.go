package config

import (
	"strings"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/steadfast/internal/timeutil"
)

// CLIOptions represents command-line configuration options.
type CLIOptions struct {
	Since     string
	User      string
	Backend   string
	DBPath    string
	Reason    string
	Note      string
	LogLevel  string
	Goal      time.Duration
	JSON      bool
	Hardcore  bool
	Keyholder bool
	ShowGoal  bool
}

// WithCLIConfig returns an Option that loads configuration from CLI flags.
// Flags that were not set leave the file and environment values untouched.
func WithCLIConfig(ctx *cli.Context, now time.Time) Option {
	return func(c *Config) error {
		opts := CLIOptions{
			Since:     ctx.String("since"),
			User:      ctx.String("user"),
			Backend:   ctx.String("backend"),
			DBPath:    ctx.String("db"),
			Reason:    ctx.String("reason"),
			Note:      ctx.String("note"),
			LogLevel:  ctx.String("log-level"),
			Goal:      ctx.Duration("target"),
			JSON:      ctx.Bool("json"),
			Hardcore:  ctx.Bool("hardcore"),
			Keyholder: ctx.Bool("keyholder"),
			ShowGoal:  ctx.Bool("goal") || ctx.IsSet("target"),
		}

		return applyCLIOptions(c, opts, now)
	}
}

// applyCLIOptions applies CLI options to the config.
func applyCLIOptions(c *Config, opts CLIOptions, now time.Time) error {
	if u := strings.TrimSpace(opts.User); u != "" {
		c.User.ID = u
	}

	if opts.Backend != "" {
		c.Store.Backend = strings.ToLower(strings.TrimSpace(opts.Backend))
	}

	if opts.DBPath != "" {
		c.Store.Path = opts.DBPath
	}

	if opts.LogLevel != "" {
		c.Log.Level = opts.LogLevel
	}

	if opts.Goal != 0 {
		c.Goal.Target = opts.Goal
	}

	c.CLI.Reason = strings.TrimSpace(opts.Reason)
	c.CLI.Note = strings.TrimSpace(opts.Note)
	c.CLI.JSON = opts.JSON
	c.CLI.Hardcore = opts.Hardcore
	c.CLI.Keyholder = opts.Keyholder
	c.CLI.Goal = opts.ShowGoal

	c.CLI.StartTime = now

	if opts.Since != "" {
		startTime, err := timeutil.FromStr(opts.Since, now)
		if err != nil {
			return errInvalidSince.Wrap(err)
		}

		c.CLI.StartTime = startTime
	}

	return nil
}
