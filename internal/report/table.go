package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WriteTable renders the disruption metrics table.
func WriteTable(w io.Writer, rows []Row) error {
	tbl := metricsTable(rows)
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.Render()
	return nil
}

// MarkdownTable renders the disruption metrics table as Markdown.
func MarkdownTable(rows []Row) string {
	return metricsTable(rows).RenderMarkdown()
}

func metricsTable(rows []Row) table.Writer {
	tbl := table.NewWriter()
	tbl.AppendHeader(table.Row{"Sprint", "Initially planned", "Completed", "Pulled in", "Blocked days", "Moved out", "Spillover"})
	tbl.SetColumnConfigs([]table.ColumnConfig{
		{Number: 2, Align: text.AlignRight},
		{Number: 3, Align: text.AlignRight},
		{Number: 4, Align: text.AlignRight},
		{Number: 5, Align: text.AlignRight},
		{Number: 6, Align: text.AlignRight},
		{Number: 7, Align: text.AlignRight},
	})

	for _, r := range rows {
		tbl.AppendRow(table.Row{
			r.Label,
			formatPoints(r.InitiallyPlanned),
			formatPoints(r.Completed),
			r.PulledInCount,
			fmt.Sprintf("%.1f (%d)", r.BlockedDays, r.BlockedCount),
			r.MovedOutCount,
			r.SpilloverCount,
		})
	}
	tbl.AppendFooter(table.Row{fmt.Sprintf("Total: %d sprints", len(rows))})
	return tbl
}

// WriteDetails lists the issue keys behind every row.
func WriteDetails(w io.Writer, rows []Row) error {
	for _, r := range rows {
		sections := []struct {
			name string
			keys []string
		}{
			{"Initially planned", r.InitiallyPlannedIssues},
			{"Completed", r.CompletedIssues},
			{"PI completed", r.PICompleted},
			{"PI not completed", r.PINotCompleted},
			{"Other completed", r.OtherCompleted},
			{"Other not completed", r.OtherNotCompleted},
			{"Pulled in", r.Metrics.PulledInIssues},
			{"Blocked", r.Metrics.BlockedIssues},
			{"Moved out", r.Metrics.MovedOutIssues},
			{"Spillover", r.Metrics.SpilloverIssues},
		}
		if _, err := fmt.Fprintf(w, "%s\n", r.Label); err != nil {
			return err
		}
		for _, s := range sections {
			if len(s.keys) == 0 {
				continue
			}
			if _, err := fmt.Fprintf(w, "  %-20s %s\n", s.name+":", strings.Join(s.keys, ", ")); err != nil {
				return err
			}
		}
	}
	return nil
}

// WriteVelocity renders the throughput and cycle time summary.
func WriteVelocity(w io.Writer, v Velocity) error {
	tbl := table.NewWriter()
	tbl.SetOutputMirror(w)
	tbl.SetStyle(table.StyleLight)
	tbl.SetTitle("Throughput & Cycle Time")
	cycle := "n/a"
	if v.MeanCycleTime != nil {
		cycle = fmt.Sprintf("%.1f days (%d issues)", *v.MeanCycleTime, v.CycleTimeSamples)
	}
	tbl.AppendRows([]table.Row{
		{"Sprints", v.SprintCount},
		{"Completed issues", v.TotalCompleted},
		{"Throughput per sprint", fmt.Sprintf("%.2f", v.Throughput)},
		{"Mean cycle time", cycle},
	})
	tbl.Render()
	return nil
}

func formatPoints(v float64) string {
	if v == float64(int64(v)) {
		return fmt.Sprintf("%d", int64(v))
	}
	return fmt.Sprintf("%.1f", v)
}
