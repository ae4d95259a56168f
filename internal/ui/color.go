package ui

import (
	"github.com/pterm/pterm"

	"github.com/ayoisaiah/steadfast/internal/session"
)

// DarkTheme selects the light variant of each colour so text stays readable
// on dark terminal backgrounds.
var DarkTheme bool

type colour struct {
	light, normal func(a ...any) string
}

func (c colour) paint(a any) string {
	if DarkTheme {
		return c.light(a)
	}

	return c.normal(a)
}

var (
	green   = colour{pterm.LightGreen, pterm.Green}
	magenta = colour{pterm.LightMagenta, pterm.Magenta}
	blue    = colour{pterm.LightBlue, pterm.Blue}
	red     = colour{pterm.LightRed, pterm.Red}
)

func Green(a any) string {
	return green.paint(a)
}

func Magenta(a any) string {
	return magenta.paint(a)
}

func Blue(a any) string {
	return blue.paint(a)
}

func Red(a any) string {
	return red.paint(a)
}

// State colours a session state: green while running, magenta while paused
// and red once ended.
func State(s session.State) string {
	switch s {
	case session.Active:
		return Green(string(s))
	case session.Paused:
		return Magenta(string(s))
	default:
		return Red(string(s))
	}
}
