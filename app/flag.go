package app

import "github.com/urfave/cli/v2"

var (
	configFlag = &cli.StringFlag{
		Name:    "config",
		Usage:   "Path to the config file",
		EnvVars: []string{"STEADFAST_CONFIG"},
	}

	userFlag = &cli.StringFlag{
		Name:    "user",
		Aliases: []string{"u"},
		Usage:   "Act on behalf of this user id (defaults to user.id in the config file)",
	}

	backendFlag = &cli.StringFlag{
		Name:  "backend",
		Usage: "Storage backend: bolt, sqlite, or memory",
	}

	dbFlag = &cli.StringFlag{
		Name:  "db",
		Usage: "Path to the session database",
	}

	logLevelFlag = &cli.StringFlag{
		Name:  "log-level",
		Usage: "Log level: debug, info, warn, or error",
	}

	noColorFlag = &cli.BoolFlag{
		Name:  "no-color",
		Usage: "Disable coloured output",
	}

	sinceFlag = &cli.StringFlag{
		Name:  "since",
		Usage: "Start the session in the past (e.g. '20 mins ago'). Must not be in the future",
	}

	hardcoreFlag = &cli.BoolFlag{
		Name:  "hardcore",
		Usage: "Mark the session as hardcore",
	}

	keyholderFlag = &cli.BoolFlag{
		Name:  "keyholder",
		Usage: "Require keyholder approval for the session",
	}

	reasonFlag = &cli.StringFlag{
		Name:    "reason",
		Aliases: []string{"r"},
		Usage:   "Pause reason: 'Bathroom Break', 'Emergency', 'Medical', 'Work/Social', or 'Other'",
	}

	noteFlag = &cli.StringFlag{
		Name:    "note",
		Aliases: []string{"n"},
		Usage:   "Custom reason text, required when the reason is 'Other'",
	}

	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "Print the output as JSON",
	}

	goalFlag = &cli.BoolFlag{
		Name:  "goal",
		Usage: "Show progress towards the configured goal",
	}

	targetFlag = &cli.DurationFlag{
		Name:  "target",
		Usage: "Goal target for this invocation (e.g. 72h). Implies --goal",
	}
)
