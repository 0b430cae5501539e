// Package pipeline loads board sprints from Jira (or a stand-in) and turns them
// into the series a report renders.
package pipeline

import (
	"context"
	"regexp"
	"time"

	"sprint-kpi/internal/rollup"
	"sprint-kpi/internal/sprint"
)

// Board is one selectable entry: a Jira board or a configured group.
type Board struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Group bool   `json:"group,omitempty"`
}

// Result is one load of a selection.
type Result struct {
	Selection []string `json:"selection"`
	// Sprints are the fetched board sprints ordered by start date.
	Sprints       []sprint.Sprint     `json:"sprints"`
	BoardToGroups map[string][]string `json:"boardToGroups"`
	// Labels maps board ids and group names to display names.
	Labels   map[string]string `json:"labels"`
	LoadedAt time.Time         `json:"loadedAt"`

	Series rollup.Series `json:"-"`
}

// Label returns the display name of a selection entry.
func (r *Result) Label(id string) string {
	if l, ok := r.Labels[id]; ok && l != "" {
		return l
	}
	return id
}

// Source produces sprint data for a selection.
type Source interface {
	Boards(ctx context.Context) ([]Board, error)
	Load(ctx context.Context, selection []string) (*Result, error)
}

// Options are the loader settings shared by every source.
type Options struct {
	Groups             []rollup.Group
	KeyPrefixes        map[string]string
	DisplaySprintCount int
	RatingWindow       int
	PILabel            *regexp.Regexp
}

func (o Options) withDefaults() Options {
	if o.DisplaySprintCount <= 0 {
		o.DisplaySprintCount = 6
	}
	if o.RatingWindow < 0 {
		o.RatingWindow = 0
	}
	return o
}

// groupBoards lists the configured groups as selectable entries.
func (o Options) groupBoards() []Board {
	out := make([]Board, 0, len(o.Groups))
	for _, g := range o.Groups {
		out = append(out, Board{ID: g.Name, Name: g.Name, Group: true})
	}
	return out
}

// finish sorts the board sprints and derives the series of the selection.
func finish(selection []string, sprints []sprint.Sprint, exp rollup.Expansion, labels map[string]string, opts Options, now time.Time) *Result {
	sorted := sprint.SortByStart(sprints)
	for _, g := range exp.Groups {
		if _, ok := labels[g.Name]; !ok {
			labels[g.Name] = g.Name
		}
	}
	return &Result{
		Selection:     selection,
		Sprints:       sorted,
		BoardToGroups: exp.BoardToGroups,
		Labels:        labels,
		LoadedAt:      now,
		Series:        rollup.BuildSeries(selection, sorted, exp, opts.DisplaySprintCount),
	}
}
