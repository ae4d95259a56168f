package stats

import (
	"cmp"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/pterm/pterm"

	"github.com/ayoisaiah/steadfast/internal/timeutil"
	"github.com/ayoisaiah/steadfast/internal/ui"
)

const barChartChar = "▇"

func summary(r *Report) string {
	header := fmt.Sprintf("%s\n", ui.Blue("Summary"))

	return header + fmt.Sprintf("Sessions: %s (%d active)\n",
		ui.Green(r.Sessions), r.ActiveSessions) +
		fmt.Sprintf("Effective time: %s\n",
			ui.Green(timeutil.FormatSeconds(r.TotalEffectiveTime))) +
		fmt.Sprintf("Time paused: %s\n",
			ui.Green(timeutil.FormatSeconds(r.TotalPauseTime)))
}

func pauses(r *Report) string {
	header := fmt.Sprintf("\n%s\n", ui.Blue("Pauses"))

	return header + fmt.Sprintln("Count:", ui.Green(r.PauseCount)) +
		fmt.Sprintf("Average: %s\n",
			ui.Green(timeutil.FormatSeconds(r.AveragePause))) +
		fmt.Sprintf("Longest: %s\n",
			ui.Green(timeutil.FormatSeconds(r.LongestPause))) +
		fmt.Sprintf("Suggested cooldown: %s\n",
			ui.Green(timeutil.FormatSeconds(r.SuggestedCooldown)))
}

// reasons lists the pause reasons, most frequent first.
func reasons(r *Report) string {
	if len(r.PausesByReason) == 0 {
		return ""
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("\n%s\n", ui.Blue("Reasons")))

	type keyValue struct {
		key   string
		value int
	}

	kv := make([]keyValue, 0, len(r.PausesByReason))
	for k, v := range r.PausesByReason {
		kv = append(kv, keyValue{k, v})
	}

	slices.SortStableFunc(kv, func(a, b keyValue) int {
		if c := cmp.Compare(b.value, a.value); c != 0 {
			return c
		}

		return cmp.Compare(a.key, b.key)
	})

	for _, v := range kv {
		builder.WriteString(fmt.Sprintf("%s: %s\n", v.key, ui.Green(v.value)))
	}

	return builder.String()
}

func dailyChart(r *Report) (string, error) {
	days := r.Days()
	if len(days) == 0 {
		return "", nil
	}

	header := ui.Blue("\nPauses per day")

	bars := make(pterm.Bars, 0, len(days))

	for _, d := range days {
		label := d
		if date, err := time.Parse(dayLayout, d); err == nil {
			label = date.Format("Jan 02, 2006")
		}

		bars = append(bars, pterm.Bar{
			Value: r.PausesByDay[d],
			Label: label,
		})
	}

	chart, err := pterm.DefaultBarChart.WithHorizontalBarCharacter(barChartChar).
		WithHorizontal().
		WithShowValue().
		WithBars(bars).
		Srender()
	if err != nil {
		return "", err
	}

	return header + chart, nil
}

// Render writes a human readable version of the report to w.
func Render(w io.Writer, r *Report) error {
	chart, err := dailyChart(r)
	if err != nil {
		return err
	}

	output := fmt.Sprint(
		summary(r),
		pauses(r),
		reasons(r),
		chart,
	)

	_, err = fmt.Fprintln(w, strings.TrimSpace(output))

	return err
}
