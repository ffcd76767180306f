package export

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/user/rental-crawler/internal/entity"
)

// RenderSummary prints one row per keyword run.
func RenderSummary(w io.Writer, results []entity.KeywordResult) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"Keyword", "Records", "Failures", "Sections", "Pages", "Average occupancy", "Stopped"})

	var records, failures int
	for _, r := range results {
		stopped := r.StopReason
		if stopped == "" {
			stopped = "-"
		}
		t.AppendRow(table.Row{r.Keyword, len(r.Records), len(r.Failures), r.Sections, r.Pages, FormatRate(r.AverageRate()), stopped})
		records += len(r.Records)
		failures += len(r.Failures)
	}
	t.AppendFooter(table.Row{"Total", records, failures, "", "", "", ""})

	t.SetStyle(table.StyleRounded)
	t.Render()
}
