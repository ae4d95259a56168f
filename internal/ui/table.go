package ui

import (
	"fmt"
	"io"

	"github.com/pterm/pterm"
)

// PrintTable prints data as a boxed table whose first row is the header.
func PrintTable(data [][]string, writer io.Writer) error {
	table := pterm.DefaultTable
	table.Boxed = true

	str, err := table.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}

	_, err = fmt.Fprintln(writer, str)

	return err
}

// PrintFields prints label and value pairs without a header.
func PrintFields(rows [][]string, writer io.Writer) error {
	str, err := pterm.DefaultTable.WithData(rows).Srender()
	if err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}

	_, err = fmt.Fprintln(writer, str)

	return err
}
