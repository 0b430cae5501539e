package commands

import (
	"context"
	"fmt"

	"sprint-kpi/internal/jira"
	"sprint-kpi/internal/mock"
	"sprint-kpi/internal/pipeline"
	"sprint-kpi/internal/report"
)

func pipelineOptions() pipeline.Options {
	return pipeline.Options{
		Groups:             cfg.Report.Groups,
		KeyPrefixes:        cfg.Report.KeyPrefixes,
		DisplaySprintCount: cfg.Report.DisplaySprintCount,
		RatingWindow:       cfg.Report.RatingWindow,
		PILabel:            cfg.Report.PILabel,
	}
}

func seriesOptions() report.SeriesOptions {
	return report.SeriesOptions{
		RatingWindow:   cfg.Report.RatingWindow,
		CycleTimeStart: cfg.Report.CycleTimeStart,
	}
}

// jiraSource builds the live loader. The epic memo lives as long as the
// process, so a long-running server reuses epic lookups across reloads.
func jiraSource(ctx context.Context) (pipeline.Source, error) {
	client, err := jira.NewClient(ctx, cfg.Jira)
	if err != nil {
		return nil, fmt.Errorf("failed to create Jira client: %w", err)
	}
	return pipeline.NewLoader(client, cfg.Jira.PointsField, pipelineOptions(), pipeline.NewMapMemo()), nil
}

func mockSource() pipeline.Source {
	return pipeline.NewMockSource(mock.Config{}, pipelineOptions())
}

// pickSource resolves the --mock and --from flags shared by the commands.
func pickSource(ctx context.Context, useMock bool, from string) (pipeline.Source, error) {
	switch {
	case useMock && from != "":
		return nil, fmt.Errorf("--mock and --from are mutually exclusive")
	case useMock:
		return mockSource(), nil
	case from != "":
		return pipeline.NewFileSource(from, pipelineOptions()), nil
	default:
		return jiraSource(ctx)
	}
}

// defaultBoards is DEFAULT_BOARDS, or every configured group when unset.
func defaultBoards() []string {
	if len(cfg.Report.DefaultBoards) > 0 {
		return cfg.Report.DefaultBoards
	}
	out := make([]string, 0, len(cfg.Report.Groups))
	for _, g := range cfg.Report.Groups {
		out = append(out, g.Name)
	}
	return out
}
