package report

import (
	"slices"
	"time"

	"sprint-kpi/internal/sprint"
	"sprint-kpi/internal/stats"
)

// Row is one sprint line of the metrics table.
type Row struct {
	Board string    `json:"board"`
	ID    string    `json:"id"`
	Label string    `json:"label"`
	Start time.Time `json:"start,omitzero"`

	InitiallyPlanned       float64 `json:"initiallyPlanned"`
	InitiallyPlannedSource string  `json:"initiallyPlannedSource,omitempty"`
	Completed              float64 `json:"completed"`
	CompletedSource        string  `json:"completedSource,omitempty"`

	PulledInCount  int     `json:"pulledInCount"`
	BlockedCount   int     `json:"blockedCount"`
	BlockedDays    float64 `json:"blockedDays"`
	MovedOutCount  int     `json:"movedOutCount"`
	SpilloverCount int     `json:"spilloverCount"`

	PICompleted       []string `json:"piCompleted"`
	PINotCompleted    []string `json:"piNotCompleted"`
	OtherCompleted    []string `json:"otherCompleted"`
	OtherNotCompleted []string `json:"otherNotCompleted"`

	InitiallyPlannedIssues []string       `json:"initiallyPlannedIssues"`
	CompletedIssues        []string       `json:"completedIssues"`
	Metrics                sprint.Metrics `json:"metrics"`
}

// Rows builds table rows, newest sprint first. label maps a board id to its
// display name; nil keeps the id.
func Rows(sprints []sprint.Sprint, label func(string) string) []Row {
	sorted := slices.Clone(sprints)
	slices.SortStableFunc(sorted, func(a, b sprint.Sprint) int {
		return b.StartDate.Compare(a.StartDate)
	})

	rows := make([]Row, 0, len(sorted))
	for _, s := range sorted {
		board := s.Board
		if label != nil {
			board = label(s.Board)
		}
		r := Row{
			Board:                  s.Board,
			ID:                     s.ID,
			Label:                  "[" + board + "] " + s.Name,
			Start:                  s.StartDate,
			InitiallyPlanned:       s.InitiallyPlanned,
			InitiallyPlannedSource: s.InitiallyPlannedSource,
			Completed:              s.Completed,
			CompletedSource:        s.CompletedSource,
			PulledInCount:          s.Metrics.PulledInCount,
			BlockedCount:           s.Metrics.BlockedCount,
			BlockedDays:            stats.RoundTenth(float64(s.Metrics.BlockedDays)),
			MovedOutCount:          s.Metrics.MovedOutCount,
			SpilloverCount:         s.Metrics.SpilloverCount,
			Metrics:                s.Metrics,
		}

		var piDone, piOpen, otherDone, otherOpen, planned, done distinct
		for _, ev := range s.Events {
			switch {
			case ev.PIRelevant && ev.Completed:
				piDone.add(ev.Key)
			case ev.PIRelevant && !ev.MovedOut:
				piOpen.add(ev.Key)
			case !ev.PIRelevant && ev.Completed:
				otherDone.add(ev.Key)
			case !ev.PIRelevant && !ev.MovedOut:
				otherOpen.add(ev.Key)
			}
			if ev.InInitialPlan() {
				planned.add(ev.Key)
			}
			if ev.Completed && !ev.MovedOut {
				done.add(ev.Key)
			}
		}
		r.PICompleted, r.PINotCompleted = piDone.list(), piOpen.list()
		r.OtherCompleted, r.OtherNotCompleted = otherDone.list(), otherOpen.list()
		r.InitiallyPlannedIssues, r.CompletedIssues = planned.list(), done.list()
		rows = append(rows, r)
	}
	return rows
}

// distinct collects non-empty keys once, in first-seen order.
type distinct struct {
	seen map[string]bool
	keys []string
}

func (d *distinct) add(key string) {
	if key == "" || d.seen[key] {
		return
	}
	if d.seen == nil {
		d.seen = make(map[string]bool)
	}
	d.seen[key] = true
	d.keys = append(d.keys, key)
}

func (d *distinct) list() []string {
	if d.keys == nil {
		return []string{}
	}
	return d.keys
}
