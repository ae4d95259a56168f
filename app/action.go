package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"

	"github.com/pterm/pterm"
	"github.com/urfave/cli/v2"

	"github.com/ayoisaiah/steadfast/internal/config"
	"github.com/ayoisaiah/steadfast/internal/osutil"
	"github.com/ayoisaiah/steadfast/internal/session"
	"github.com/ayoisaiah/steadfast/internal/timeutil"
	"github.com/ayoisaiah/steadfast/pause"
	"github.com/ayoisaiah/steadfast/stats"
)

const (
	envNoColor          = "NO_COLOR"
	envSteadfastNoColor = "STEADFAST_NO_COLOR"
)

var errNoActiveSession = errors.New(
	"no active session: start one with 'steadfast start'",
)

// firstNonEmptyString returns its first non-empty argument, or "" if all
// arguments are empty.
func firstNonEmptyString(ss ...string) string {
	for _, s := range ss {
		if s != "" {
			return s
		}
	}

	return ""
}

func success(format string, a ...any) {
	pterm.Success.WithWriter(config.Stdout).Printfln(format, a...)
}

// withRuntime runs fn with a fully wired runtime and releases it afterwards.
func withRuntime(ctx *cli.Context, fn func(rt *runtime) error) (err error) {
	rt, err := setup(ctx)
	if err != nil {
		return err
	}

	defer func() {
		err = errors.Join(err, rt.Close())
	}()

	return fn(rt)
}

// activeSession returns the active session of the configured user.
func (rt *runtime) activeSession(ctx *cli.Context) (*session.Session, error) {
	sess, err := rt.orch.ActiveSession(ctx.Context, rt.cfg.User.ID)
	if errors.Is(err, pause.ErrNotFound) {
		return nil, errNoActiveSession
	}

	return sess, err
}

// startAction handles the start command which begins a new session, in the
// past if --since is set.
func startAction(ctx *cli.Context) error {
	return withRuntime(ctx, func(rt *runtime) error {
		sess, err := rt.orch.Start(ctx.Context, pause.StartOptions{
			UserID:                    rt.cfg.User.ID,
			StartTime:                 rt.cfg.CLI.StartTime,
			IsHardcoreMode:            rt.cfg.CLI.Hardcore,
			KeyholderApprovalRequired: rt.cfg.CLI.Keyholder,
		})
		if err != nil {
			return err
		}

		success("Session started at %s", formatTime(&sess.StartTime, rt.cfg.TimeFormat()))

		return nil
	})
}

// pauseAction handles the pause command.
func pauseAction(ctx *cli.Context) error {
	return withRuntime(ctx, func(rt *runtime) error {
		sess, err := rt.activeSession(ctx)
		if err != nil {
			return err
		}

		choice, err := pauseReason(rt.cfg.CLI.Reason, rt.cfg.CLI.Note, isInteractive())
		if err != nil {
			return err
		}

		_, err = rt.orch.Pause(ctx.Context, sess.ID, choice.reason, choice.note)
		if err != nil {
			return err
		}

		success("Session paused. Run 'steadfast resume' when you are back")

		return nil
	})
}

// resumeAction handles the resume command.
func resumeAction(ctx *cli.Context) error {
	return withRuntime(ctx, func(rt *runtime) error {
		sess, err := rt.activeSession(ctx)
		if err != nil {
			return err
		}

		updated, err := rt.orch.Resume(ctx.Context, sess.ID)
		if err != nil {
			return err
		}

		success(
			"Session resumed after %s",
			timeutil.FormatSeconds(
				updated.AccumulatedPauseTime-sess.AccumulatedPauseTime,
			),
		)

		return nil
	})
}

// endAction handles the end command.
func endAction(ctx *cli.Context) error {
	return withRuntime(ctx, func(rt *runtime) error {
		sess, err := rt.activeSession(ctx)
		if err != nil {
			return err
		}

		ended, err := rt.orch.End(ctx.Context, sess.ID)
		if err != nil {
			return err
		}

		success(
			"Session ended with %s of effective time",
			timeutil.FormatSeconds(session.EffectiveTime(ended, now())),
		)

		return nil
	})
}

// statusAction handles the status command and prints the state of the
// active session.
func statusAction(ctx *cli.Context) error {
	return withRuntime(ctx, func(rt *runtime) error {
		sess, err := rt.activeSession(ctx)
		if err != nil {
			return err
		}

		st, err := rt.orch.PauseStatus(ctx.Context, sess.ID)
		if err != nil {
			return err
		}

		out := statusOutput{Status: st}

		target := int64(rt.cfg.Goal.Target.Seconds())
		if rt.cfg.CLI.Goal && target > 0 {
			t := now()
			out.Goal = &goalOutput{
				Goal:      session.GoalFor(st.Session, target, t),
				Progress:  session.GoalProgressPercent(st.Session, target, t),
				Remaining: session.RemainingGoalTime(st.Session, target, t),
			}
		}

		if rt.cfg.CLI.JSON {
			return printJSON(config.Stdout, out)
		}

		return printStatus(config.Stdout, st, out.Goal, rt.cfg)
	})
}

// historyAction prints the pause history of the active session.
func historyAction(ctx *cli.Context) error {
	return withRuntime(ctx, func(rt *runtime) error {
		sess, err := rt.activeSession(ctx)
		if err != nil {
			return err
		}

		events, err := rt.orch.PauseHistory(ctx.Context, sess.ID)
		if err != nil {
			return err
		}

		if rt.cfg.CLI.JSON {
			return printJSON(config.Stdout, events)
		}

		if len(events) == 0 {
			pterm.Info.WithWriter(config.Stdout).Println(noPausesMsg)
			return nil
		}

		return printHistoryTable(config.Stdout, events, rt.cfg.TimeFormat())
	})
}

// listAction handles the list command and prints a table of all the user's
// sessions.
func listAction(ctx *cli.Context) error {
	return withRuntime(ctx, func(rt *runtime) error {
		sessions, err := rt.orch.Sessions(ctx.Context, rt.cfg.User.ID)
		if err != nil {
			return err
		}

		if rt.cfg.CLI.JSON {
			return printJSON(config.Stdout, sessions)
		}

		if len(sessions) == 0 {
			pterm.Info.WithWriter(config.Stdout).Println(noSessionsMsg)
			return nil
		}

		return printSessionsTable(config.Stdout, sessions, rt.cfg.TimeFormat(), now())
	})
}

// statsAction computes pause analytics across all of the user's sessions.
func statsAction(ctx *cli.Context) error {
	return withRuntime(ctx, func(rt *runtime) error {
		sessions, err := rt.orch.Sessions(ctx.Context, rt.cfg.User.ID)
		if err != nil {
			return err
		}

		var events []session.Event

		for _, sess := range sessions {
			evs, err := rt.orch.Events(ctx.Context, sess.ID)
			if err != nil {
				return err
			}

			events = append(events, evs...)
		}

		report := stats.Compute(
			sessions,
			events,
			now(),
			stats.WithBaseCooldown(rt.cfg.Pause.Cooldown),
		)

		if rt.cfg.CLI.JSON {
			return printJSON(config.Stdout, report)
		}

		return stats.Render(config.Stdout, &report)
	})
}

// editConfigAction handles the edit-config command which opens the config
// file in the user's default text editor.
func editConfigAction(ctx *cli.Context) error {
	path, err := configPath(ctx)
	if err != nil {
		return err
	}

	editor := firstNonEmptyString(
		os.Getenv("VISUAL"),
		os.Getenv("EDITOR"),
		osutil.DefaultEditor(),
	)

	cmd := exec.Command(editor, path)

	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("running %s: %w", editor, err)
	}

	return nil
}

func beforeAction(ctx *cli.Context) error {
	// Override the default help template
	cli.AppHelpTemplate = helpText()

	pterm.Error.MessageStyle = pterm.NewStyle(pterm.FgRed)
	pterm.Error.Prefix = pterm.Prefix{
		Text:  "ERROR",
		Style: pterm.NewStyle(pterm.BgRed, pterm.FgBlack),
	}

	// Disable colour output if NO_COLOR is set
	if _, exists := os.LookupEnv(envNoColor); exists {
		disableStyling()
	}

	// Disable colour output if STEADFAST_NO_COLOR is set
	if _, exists := os.LookupEnv(envSteadfastNoColor); exists {
		disableStyling()
	}

	if ctx.Bool("no-color") {
		disableStyling()
	}

	return nil
}

func afterAction(ctx *cli.Context) error {
	slog.DebugContext(ctx.Context, "exiting steadfast")

	return nil
}
