package main

import (
	"encoding/json"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

const (
	formatTable = "table"
	formatJSON  = "json"
)

func outputJSON(cmd *cobra.Command, v any) error {
	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func getTerminalWidth() int {
	if width, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && width > 0 {
		return width
	}
	return 80
}

// outputTable renders rows, truncating the column at flex so the table fits
// the terminal. Other columns keep their full width.
func outputTable(cmd *cobra.Command, header table.Row, rows []table.Row, flex int) {
	t := table.NewWriter()
	t.SetOutputMirror(cmd.OutOrStdout())
	t.SetStyle(table.StyleLight)
	t.AppendHeader(header)

	limit := flexWidth(getTerminalWidth(), header, rows, flex)
	for _, row := range rows {
		if flex >= 0 && flex < len(row) {
			if s, ok := row[flex].(string); ok {
				row[flex] = runewidth.Truncate(s, limit, "...")
			}
		}
		t.AppendRow(row)
	}
	t.Render()
}

// flexWidth is the space left for the flex column once every other column
// shows in full. It never drops below 15 cells.
func flexWidth(termWidth int, header table.Row, rows []table.Row, flex int) int {
	widths := make([]int, len(header))
	measure := func(row table.Row) {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			s, ok := cell.(string)
			if !ok {
				s = "0000"
			}
			if w := runewidth.StringWidth(s); w > widths[i] {
				widths[i] = w
			}
		}
	}
	measure(header)
	for _, row := range rows {
		measure(row)
	}

	// Borders and padding take about three cells per column.
	used := len(header)*3 + 1
	for i, w := range widths {
		if i != flex {
			used += w
		}
	}
	if left := termWidth - used; left > 15 {
		return left
	}
	return 15
}
