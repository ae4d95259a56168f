package app

import (
	"fmt"
	"strings"

	"github.com/pterm/pterm"
)

// section renders a titled block of the help template.
func section(title, body string) string {
	return fmt.Sprintf("%s\n%s\n\n", pterm.Yellow(title), body)
}

func helpText() string {
	flagNames := pterm.Green("-{{$element}}")
	flagName := pterm.Green("--{{.Name}} {{.DefaultText}}")

	sections := []string{
		section("DESCRIPTION", "\t\t{{.Usage}}"),
		section(
			"USAGE",
			"\t\t{{.HelpName}} {{if .UsageText}}{{ .UsageText }}{{end}}",
		),
		"{{if len .Authors}}" + pterm.Yellow("AUTHOR") +
			"\n\t\t{{range .Authors}}{{ . }}{{end}}{{end}}\n\n",
		"{{if .Version}}" + pterm.Yellow("VERSION") +
			"\n\t\t{{.Version}}{{end}}\n\n",
		section(
			"COMMANDS",
			"{{range .Commands}}{{if not .HideHelp}}   "+
				pterm.Green("{{join .Names `, `}}")+
				"{{ `\t`}}{{.Usage}}{{ `\n` }}{{end}}{{end}}",
		),
		pterm.Yellow("OPTIONS") + "\n{{range .VisibleFlags}}\t\t" +
			"{{if .Aliases}}{{range $element := .Aliases}}" + flagNames +
			",{{end}}{{end}} " + flagName + "\n\t\t\t\t{{.Usage}}\n\n{{end}}",
		section("ENVIRONMENTAL VARIABLES", "\t\t"+envHelp()),
		section("WEBSITE", "\t\thttps://github.com/ayoisaiah/steadfast"),
	}

	return strings.TrimSuffix(strings.Join(sections, ""), "\n")
}

func envHelp() string {
	return `
STEADFAST_NO_COLOR, NO_COLOR: set to any value to avoid printing ANSI escape sequences for color output.

STEADFAST_CONFIG: path to the config file.

STEADFAST_ENV: use a separate config file, database, and log file named after its value, e.g. STEADFAST_ENV=dev.

STEADFAST_<SECTION>_<KEY>: override a config file setting for one invocation, e.g. STEADFAST_LOG_LEVEL=debug or STEADFAST_STORE_BACKEND=sqlite. pause.cooldown is read from the config file only.`
}
