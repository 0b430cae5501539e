package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sprint-kpi/internal/pipeline"
	"sprint-kpi/internal/report"

	"github.com/pkg/browser"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

const chartsTitle = "Sprint Disruption Metrics"

type reportFlags struct {
	mock    bool
	from    string
	asJSON  bool
	html    string
	open    bool
	details bool
	save    string
}

func newReportCmd() *cobra.Command {
	var f reportFlags
	cmd := &cobra.Command{
		Use:   "report [board-or-group...]",
		Short: "Print the disruption metrics of boards or board groups",
		Long: `Loads the closed sprints of the given boards or groups and prints the disruption
table and the throughput summary. Without arguments the default selection is used.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReport(cmd, args, f)
		},
	}
	cmd.Flags().BoolVar(&f.mock, "mock", false, "use generated mock sprints instead of Jira")
	cmd.Flags().StringVar(&f.from, "from", "", "read sprints from a snapshot file written by --save or mockgen")
	cmd.Flags().BoolVar(&f.asJSON, "json", false, "print the report document as JSON")
	cmd.Flags().StringVar(&f.html, "html", "", "write the chart page to this file")
	cmd.Flags().BoolVar(&f.open, "open", false, "open the chart page in the browser (implies --html)")
	cmd.Flags().BoolVar(&f.details, "details", false, "list the issue keys behind every sprint")
	cmd.Flags().StringVar(&f.save, "save", "", "write the loaded sprints to a snapshot file")
	return cmd
}

func runReport(cmd *cobra.Command, args []string, f reportFlags) error {
	ctx := cmd.Context()
	src, err := pickSource(ctx, f.mock, f.from)
	if err != nil {
		return err
	}
	selection := args
	if len(selection) == 0 && !f.mock && f.from == "" {
		selection = defaultBoards()
	}

	res, err := src.Load(ctx, selection)
	if err != nil {
		return err
	}
	if f.save != "" {
		if err := pipeline.SaveSnapshot(f.save, pipeline.SnapshotOf(res)); err != nil {
			return err
		}
	}

	doc := report.Build(res, seriesOptions())
	if len(doc.Rows) == 0 {
		log.Warn().Strs("selection", res.Selection).Msg("No closed sprints found")
	}

	out := cmd.OutOrStdout()
	if f.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(doc); err != nil {
			return fmt.Errorf("failed to encode report: %w", err)
		}
	} else if err := printReport(out, doc, f.details); err != nil {
		return err
	}

	if f.open && f.html == "" {
		f.html = filepath.Join(os.TempDir(), "sprint-kpi-charts.html")
	}
	if f.html == "" {
		return nil
	}
	if err := writeChartFile(f.html, doc.Boards); err != nil {
		return err
	}
	log.Info().Str("path", f.html).Msg("Chart page written")
	if f.open {
		return browser.OpenFile(f.html)
	}
	return nil
}

func printReport(w io.Writer, doc report.Document, details bool) error {
	if err := report.WriteTable(w, doc.Rows); err != nil {
		return err
	}
	fmt.Fprintln(w)
	if err := report.WriteVelocity(w, doc.Velocity); err != nil {
		return err
	}
	if details {
		fmt.Fprintln(w)
		return report.WriteDetails(w, doc.Rows)
	}
	return nil
}

func writeChartFile(path string, boards []report.BoardSeries) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create chart page: %w", err)
	}
	if err := report.WriteCharts(file, chartsTitle, boards); err != nil {
		file.Close()
		return fmt.Errorf("failed to render charts: %w", err)
	}
	return file.Close()
}
