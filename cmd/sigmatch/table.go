package main

import (
	"io"
	"os"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/mattn/go-isatty"
)

// renderTable prints a result table, using box drawing only when stdout
// is a terminal so piped output stays parseable.
func renderTable(out io.Writer, headers []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(out)

	headerRow := make(table.Row, len(headers))
	for i, header := range headers {
		headerRow[i] = header
	}
	t.AppendHeader(headerRow)

	for _, row := range rows {
		tableRow := make(table.Row, len(row))
		for i, cell := range row {
			tableRow[i] = cell
		}
		t.AppendRow(tableRow)
	}

	if isatty.IsTerminal(os.Stdout.Fd()) {
		t.SetStyle(table.StyleLight)
	} else {
		t.SetStyle(table.StyleDefault)
	}
	t.Render()
}
