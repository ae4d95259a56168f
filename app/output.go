package app

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/ayoisaiah/steadfast/internal/config"
	"github.com/ayoisaiah/steadfast/internal/session"
	"github.com/ayoisaiah/steadfast/internal/timeutil"
	"github.com/ayoisaiah/steadfast/internal/ui"
	"github.com/ayoisaiah/steadfast/pause"
)

const (
	noSessionsMsg = "No sessions found"
	noPausesMsg   = "This session has not been paused yet"
)

func printJSON(w io.Writer, v any) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	_, err = fmt.Fprintln(w, string(b))

	return err
}

func formatTime(t *time.Time, layout string) string {
	if t == nil || t.IsZero() {
		return ""
	}

	return t.Local().Format(layout)
}

// printSessionsTable prints a session table to the command-line.
func printSessionsTable(
	w io.Writer,
	sessions []*session.Session,
	layout string,
	now time.Time,
) error {
	tableBody := make([][]string, len(sessions))

	for i := range sessions {
		sess := sessions[i]
		st := session.SessionStats(sess, now)

		tableBody[i] = []string{
			fmt.Sprintf("%d", i+1),
			formatTime(&sess.StartTime, layout),
			formatTime(sess.EndTime, layout),
			timeutil.FormatSeconds(st.EffectiveTime),
			timeutil.FormatSeconds(st.TotalPauseTime),
			ui.State(sess.State()),
		}
	}

	tableBody = append([][]string{
		{"#", "START DATE", "END DATE", "EFFECTIVE", "PAUSED", "STATE"},
	}, tableBody...)

	return ui.PrintTable(tableBody, w)
}

// printHistoryTable prints the pause and resume events of a session.
func printHistoryTable(w io.Writer, events []session.Event, layout string) error {
	tableBody := make([][]string, len(events))

	for i := range events {
		e := events[i]

		detail := e.Reason
		if e.Type == session.EventResume {
			detail = "paused for " + timeutil.FormatSeconds(e.PauseDuration)
		}

		tableBody[i] = []string{
			fmt.Sprintf("%d", i+1),
			string(e.Type),
			formatTime(&e.Timestamp, layout),
			detail,
		}
	}

	tableBody = append([][]string{
		{"#", "EVENT", "TIME", "DETAIL"},
	}, tableBody...)

	return ui.PrintTable(tableBody, w)
}

// statusOutput is the JSON form of the status command.
type statusOutput struct {
	*pause.Status
	Goal *goalOutput `json:"goal,omitempty"`
}

type goalOutput struct {
	session.Goal
	Progress float64 `json:"progress_percent"`
	// Remaining is the effective time still needed, in seconds.
	Remaining int64 `json:"remaining"`
}

func printStatus(
	w io.Writer,
	st *pause.Status,
	goal *goalOutput,
	cfg *config.Config,
) error {
	layout := cfg.TimeFormat()
	sess := st.Session

	rows := [][]string{
		{"State", ui.State(st.State)},
		{"Started", formatTime(&sess.StartTime, layout)},
		{"Effective time", ui.Green(timeutil.FormatSeconds(st.EffectiveTime))},
		{"Total paused", timeutil.FormatSeconds(
			st.AccumulatedPauseTime + st.CurrentPauseDuration,
		)},
	}

	if st.State == session.Paused {
		rows = append(rows, []string{
			"Paused for",
			ui.Magenta(timeutil.FormatSeconds(st.CurrentPauseDuration)),
		})
	}

	switch {
	case st.State != session.Active:
	case st.Pause.CanPause:
		rows = append(rows, []string{"Next pause", ui.Green("available now")})
	default:
		rows = append(rows, []string{
			"Next pause",
			fmt.Sprintf("%s (%s remaining)",
				formatTime(st.Pause.NextPauseAvailable, layout),
				ui.Red(timeutil.FormatSeconds(st.Pause.CooldownRemaining)),
			),
		})
	}

	if sess.IsHardcoreMode {
		rows = append(rows, []string{"Mode", ui.Red("hardcore")})
	}

	if sess.KeyholderApprovalRequired {
		rows = append(rows, []string{"Keyholder", "approval required"})
	}

	if goal != nil {
		text := fmt.Sprintf("%.0f%% of %s (%s to go)",
			goal.Progress,
			timeutil.FormatSeconds(goal.TargetValue),
			timeutil.FormatSeconds(goal.Remaining),
		)
		if goal.IsCompleted {
			text = ui.Green(text + " (completed)")
		}

		rows = append(rows, []string{"Goal", text})
	}

	return ui.PrintFields(rows, w)
}
