package app

import (
	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/steadfast/internal/config"
)

// disableStyling disables all styling provided by pterm.
func disableStyling() {
	pterm.DisableColor()
	pterm.DisableStyling()
	pterm.Debug.Prefix.Text = ""
	pterm.Info.Prefix.Text = ""
	pterm.Success.Prefix.Text = ""
	pterm.Warning.Prefix.Text = ""
	pterm.Error.Prefix.Text = ""
	pterm.Fatal.Prefix.Text = ""
}

// Get retrieves the steadfast app instance.
func Get() *cli.App {
	return &cli.App{
		Name: "steadfast",
		Authors: []*cli.Author{
			{
				Name:  "Ayooluwa Isaiah",
				Email: "ayo@freshman.tech",
			},
		},
		Usage: `
		steadfast tracks long-running sessions from the command-line. Paused
		time never counts toward a goal, and a cooldown between pauses keeps
		breaks honest.`,
		UsageText:            "[COMMAND] [OPTIONS]",
		Version:              config.Version,
		EnableBashCompletion: true,
		Commands: []*cli.Command{
			{
				Name:   "start",
				Usage:  "Start a new session",
				Flags:  []cli.Flag{sinceFlag, hardcoreFlag, keyholderFlag},
				Action: startAction,
			},
			{
				Name:   "pause",
				Usage:  "Pause the active session",
				Flags:  []cli.Flag{reasonFlag, noteFlag},
				Action: pauseAction,
			},
			{
				Name:   "resume",
				Usage:  "Resume the active session",
				Action: resumeAction,
			},
			{
				Name:   "status",
				Usage:  "Print the status of the active session",
				Flags:  []cli.Flag{goalFlag, targetFlag, jsonFlag},
				Action: statusAction,
			},
			{
				Name:   "history",
				Usage:  "Print the pause history of the active session",
				Flags:  []cli.Flag{jsonFlag},
				Action: historyAction,
			},
			{
				Name:   "end",
				Usage:  "End the active session",
				Action: endAction,
			},
			{
				Name:   "list",
				Usage:  "List all sessions, newest first",
				Flags:  []cli.Flag{jsonFlag},
				Action: listAction,
			},
			{
				Name:   "stats",
				Usage:  "Summarise sessions and pauses",
				Flags:  []cli.Flag{jsonFlag},
				Action: statsAction,
			},
			{
				Name:   "edit-config",
				Usage:  "Edit the configuration file",
				Action: editConfigAction,
			},
		},
		Flags: []cli.Flag{
			configFlag,
			userFlag,
			backendFlag,
			dbFlag,
			logLevelFlag,
			noColorFlag,
		},
		Before: beforeAction,
		After:  afterAction,
	}
}
