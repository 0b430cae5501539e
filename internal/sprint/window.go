package sprint

import (
	"slices"
	"strconv"
	"strings"
	"time"

	"sprint-kpi/internal/jira"
)

// Meta is a sprint descriptor as listed by the tracker, before any events exist.
type Meta struct {
	ID            int
	Name          string
	State         string
	OriginBoardID int
	StartDate     time.Time
	EndDate       time.Time
	CompleteDate  time.Time
}

// MetaFromDTO converts a sprint DTO. Malformed dates become zero.
func MetaFromDTO(dto jira.SprintDTO) Meta {
	parse := func(s string) time.Time {
		if t := jira.ParseOptionalTime(s); t != nil {
			return *t
		}
		return time.Time{}
	}
	return Meta{
		ID:            dto.ID,
		Name:          dto.Name,
		State:         dto.State,
		OriginBoardID: dto.OriginBoardID,
		StartDate:     parse(dto.StartDate),
		EndDate:       parse(dto.EndDate),
		CompleteDate:  parse(dto.CompleteDate),
	}
}

// Recency is EndDate, then CompleteDate, then StartDate; zero when none is known.
func (m Meta) Recency() time.Time {
	return Header{EndDate: m.EndDate, CompleteDate: m.CompleteDate, StartDate: m.StartDate}.Recency()
}

// Identity returns the sprint id used for exclusion lists.
func (m Meta) Identity() string { return strconv.Itoa(m.ID) }

// ClosedEnd is the instant the sprint window closes: CompleteDate, then EndDate.
func (m Meta) ClosedEnd() time.Time {
	if !m.CompleteDate.IsZero() {
		return m.CompleteDate
	}
	return m.EndDate
}

// ClosedOnBoard keeps closed sprints with a start date that originate on board.
func ClosedOnBoard(metas []Meta, board int) []Meta {
	var out []Meta
	for _, m := range metas {
		if strings.EqualFold(m.State, "closed") && !m.StartDate.IsZero() && m.OriginBoardID == board {
			out = append(out, m)
		}
	}
	return out
}

// Ranked is anything that can be ordered by recency and excluded by id.
type Ranked interface {
	Recency() time.Time
	Identity() string
}

// SelectRecent orders items most recent first, keeps the first count and then
// drops excluded ids. Items without any date rank last in their input order.
func SelectRecent[T Ranked](items []T, exclude []string, count int) []T {
	sorted := slices.Clone(items)
	slices.SortStableFunc(sorted, func(a, b T) int {
		return b.Recency().Compare(a.Recency())
	})
	if count >= 0 && count < len(sorted) {
		sorted = sorted[:count]
	}
	if len(exclude) == 0 {
		return sorted
	}

	skip := make(map[string]bool, len(exclude))
	for _, id := range exclude {
		skip[id] = true
	}
	out := make([]T, 0, len(sorted))
	for _, it := range sorted {
		if !skip[it.Identity()] {
			out = append(out, it)
		}
	}
	return out
}

// SortByStart returns the sprints ordered by start date ascending. Sprints
// without a start date come first, in their input order.
func SortByStart(sprints []Sprint) []Sprint {
	sorted := slices.Clone(sprints)
	slices.SortStableFunc(sorted, func(a, b Sprint) int {
		return a.StartDate.Compare(b.StartDate)
	})
	return sorted
}
