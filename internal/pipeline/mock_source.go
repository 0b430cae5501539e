package pipeline

import (
	"context"
	"slices"
	"strings"
	"time"

	"sprint-kpi/internal/mock"
	"sprint-kpi/internal/rollup"
	"sprint-kpi/internal/sprint"
)

// MockSource serves generated sprints. Groups do not apply to mock boards.
type MockSource struct {
	Config mock.Config
	Opts   Options
}

// NewMockSource creates a MockSource with the given generator settings.
func NewMockSource(cfg mock.Config, opts Options) *MockSource {
	return &MockSource{Config: cfg, Opts: opts.withDefaults()}
}

func (m *MockSource) generate() ([]sprint.Sprint, map[string]string) {
	cfg := m.Config
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	return mock.Generate(cfg)
}

func (m *MockSource) Boards(context.Context) ([]Board, error) {
	_, labels := m.generate()
	out := make([]Board, 0, len(labels))
	for id, name := range labels {
		out = append(out, Board{ID: id, Name: name})
	}
	slices.SortFunc(out, func(a, b Board) int { return strings.Compare(a.ID, b.ID) })
	return out, nil
}

// Load returns the generated sprints of the selected boards, or of every mock
// board when the selection is empty.
func (m *MockSource) Load(ctx context.Context, selection []string) (*Result, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	all, labels := m.generate()
	if len(selection) == 0 {
		selection = m.Config.Boards
		if len(selection) == 0 {
			selection = mock.DefaultBoards
		}
	}

	var picked []sprint.Sprint
	for _, s := range all {
		if slices.Contains(selection, s.Board) {
			picked = append(picked, s)
		}
	}
	return finish(selection, picked, rollup.Expansion{}, labels, m.Opts, time.Now()), nil
}
