package cmd

import (
	"io"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/techchallenge/vitibrasil-etl/pipeline"
)

func renderSanitizeSummary(w io.Writer, results []pipeline.Result) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Dataset", "Rows", "CSV", "JSON", "Duration", "Status"})
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		t.AppendRow(table.Row{r.Kind, r.Rows, r.CSVPath, r.JSONPath, r.Duration.Round(time.Millisecond), status})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderImportSummary(w io.Writer, results []pipeline.ImportResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Dataset", "Entities", "Values", "Status"})
	for _, r := range results {
		status := "ok"
		if r.Err != nil {
			status = r.Err.Error()
		}
		t.AppendRow(table.Row{r.Kind, r.Stats.Entities, r.Stats.Facts, status})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
