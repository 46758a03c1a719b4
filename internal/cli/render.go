package cli

import (
	"fmt"

	prettytable "github.com/jedib0t/go-pretty/v6/table"

	"psidpanel/internal/export"
	"psidpanel/internal/table"
)

const outputTable = "table"

func parseOutput(raw string) (string, error) {
	if raw == outputTable || raw == "" {
		return outputTable, nil
	}
	f, err := export.ParseFormat(raw)
	if err != nil {
		return "", fmt.Errorf("unknown output %q (want table, csv, json or html)", raw)
	}
	return string(f), nil
}

// render writes t to stdout in the selected output format.
func (a *app) render(t *table.Table) error {
	out, err := parseOutput(a.output)
	if err != nil {
		return err
	}
	if out != outputTable {
		return export.Write(a.stdout, export.Format(out), t)
	}
	w := prettytable.NewWriter()
	w.SetOutputMirror(a.stdout)
	w.SetTitle(t.Name)
	header := make(prettytable.Row, len(t.Columns))
	for i, c := range t.Columns {
		header[i] = c
	}
	w.AppendHeader(header)
	for _, row := range t.Strings() {
		r := make(prettytable.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		w.AppendRow(r)
	}
	w.SetStyle(prettytable.StyleLight)
	w.Render()
	return nil
}
