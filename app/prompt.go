package app

import (
	"errors"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/ayoisaiah/steadfast/internal/session"
)

var errReasonRequired = errors.New(
	"a pause reason is required: pass --reason or run in a terminal",
)

// reasonChoice is the outcome of the pause reason picker.
type reasonChoice struct {
	reason session.PauseReason
	note   string
}

// promptReason asks the user to choose a pause reason, and for a custom
// reason when they pick Other.
func promptReason() (reasonChoice, error) {
	var choice reasonChoice

	options := make([]huh.Option[session.PauseReason], 0, len(session.Reasons()))
	for _, r := range session.Reasons() {
		options = append(options, huh.NewOption(string(r), r))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[session.PauseReason]().
				Title("Why are you pausing?").
				Options(options...).
				Value(&choice.reason),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Describe the reason").
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("a reason is required")
					}

					return nil
				}).
				Value(&choice.note),
		).WithHideFunc(func() bool {
			return choice.reason != session.ReasonOther
		}),
	)

	if err := form.Run(); err != nil {
		return choice, err
	}

	return choice, nil
}

// pauseReason resolves the reason from the flags, falling back to the
// interactive picker.
func pauseReason(
	flagReason, flagNote string,
	interactive bool,
) (reasonChoice, error) {
	if flagReason == "" {
		if !interactive {
			return reasonChoice{}, errReasonRequired
		}

		return promptReason()
	}

	// unknown reasons are passed through and rejected by the orchestrator
	reason, _ := session.ParseReason(flagReason)

	return reasonChoice{reason: reason, note: flagNote}, nil
}
