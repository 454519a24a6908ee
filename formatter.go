package harness

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/openrobotics/ikos-harness/diag"
)

// ResultFormatter is responsible for formatting and displaying analysis results.
type ResultFormatter interface {
	FormatResults(docs []*diag.ReportDocument) error
}

// ConsoleResultFormatter implements the ResultFormatter interface.
type ConsoleResultFormatter struct {
	out io.Writer
}

// NewConsoleResultFormatter creates a new ConsoleResultFormatter writing to
// stdout. Tests substitute another writer.
func NewConsoleResultFormatter(out io.Writer) *ConsoleResultFormatter {
	if out == nil {
		out = os.Stdout
	}
	return &ConsoleResultFormatter{out: out}
}

// FormatResults renders one table row per analysis with its diagnostics
// nested beneath it, and a summary footer.
func (f *ConsoleResultFormatter) FormatResults(docs []*diag.ReportDocument) error {
	t := table.NewWriter()
	t.SetOutputMirror(f.out)
	t.SetTitle(fmt.Sprintf("Static Analysis Results (%s)", formatDuration(totalDuration(docs))))

	t.AppendHeader(table.Row{
		"Type", "ID", "Duration", "Diagnostics", "Errors", "Warnings", "Notes", "Status",
	})

	t.SetColumnConfigs([]table.ColumnConfig{
		{Name: "ID", WidthMax: 70, WidthMaxEnforcer: text.WrapSoft},
		{Name: "Duration", Align: text.AlignRight},
		{Name: "Diagnostics", Align: text.AlignRight},
		{Name: "Errors", Align: text.AlignRight},
		{Name: "Warnings", Align: text.AlignRight},
		{Name: "Notes", Align: text.AlignRight},
	})

	stats := diag.Stats{}
	overall := diag.RunStatusPass

	for _, doc := range docs {
		t.AppendRow(table.Row{
			"Analysis",
			fmt.Sprintf("%s/%s", doc.Project, doc.TestName),
			formatDuration(doc.Duration),
			doc.Stats.Total,
			doc.Stats.Errors,
			doc.Stats.Warnings,
			doc.Stats.Notes,
			getResultString(doc.Status()),
		})

		for i, d := range doc.Diagnostics {
			prefix := "├──"
			if i == len(doc.Diagnostics)-1 {
				prefix = "└──"
			}
			t.AppendRow(table.Row{
				"",
				fmt.Sprintf("%s %s: %s", prefix, d.Location(), d.Message),
				"",
				"",
				boolToInt(d.Severity == diag.SeverityError),
				boolToInt(d.Severity == diag.SeverityWarning),
				boolToInt(d.Severity == diag.SeverityNote),
				string(d.Severity),
			})
		}

		stats.Total += doc.Stats.Total
		stats.Errors += doc.Stats.Errors
		stats.Warnings += doc.Stats.Warnings
		stats.Notes += doc.Stats.Notes
		if doc.Status() == diag.RunStatusFail {
			overall = diag.RunStatusFail
		}
		t.AppendSeparator()
	}

	if overall == diag.RunStatusPass {
		t.SetStyle(table.StyleColoredBlackOnGreenWhite)
	} else {
		t.SetStyle(table.StyleColoredBlackOnRedWhite)
	}

	t.AppendFooter(table.Row{
		"TOTAL",
		"",
		formatDuration(totalDuration(docs)),
		stats.Total,
		stats.Errors,
		stats.Warnings,
		stats.Notes,
		getResultString(overall),
	})

	t.Render()
	return nil
}

func totalDuration(docs []*diag.ReportDocument) time.Duration {
	var total time.Duration
	for _, doc := range docs {
		total += doc.Duration
	}
	return total
}
