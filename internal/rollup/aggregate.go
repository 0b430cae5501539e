package rollup

import (
	"strconv"

	"sprint-kpi/internal/sprint"
)

// Aggregate builds the synthetic sprints of a board group. Offset i takes the
// i-th most recent sprint of every member board that has one; the walk stops
// at the first offset no member board reaches. byBoard series must be sorted
// by start date. The result is sorted by start date.
func Aggregate(g Group, byBoard map[string][]sprint.Sprint, displayCount int) []sprint.Sprint {
	var out []sprint.Sprint
	for i := 0; i < displayCount; i++ {
		var (
			contributors []sprint.Sprint
			events       []sprint.Event
		)
		for _, b := range g.Boards {
			series := byBoard[b]
			idx := len(series) - 1 - i
			if idx < 0 {
				continue
			}
			contributors = append(contributors, series[idx])
			events = append(events, series[idx].Events...)
		}
		if len(contributors) == 0 {
			break
		}
		out = append(out, combine(g.Name, i, contributors, events))
	}
	return sprint.SortByStart(out)
}

func combine(group string, offset int, contributors []sprint.Sprint, events []sprint.Event) sprint.Sprint {
	name := group + " " + strconv.Itoa(offset+1)
	s := sprint.Sprint{
		Header: sprint.Header{Board: group, ID: name, Name: name},
		Events: events,
	}
	for _, c := range contributors {
		if !c.StartDate.IsZero() && (s.StartDate.IsZero() || c.StartDate.Before(s.StartDate)) {
			s.StartDate = c.StartDate
		}
		if c.EndDate.After(s.EndDate) {
			s.EndDate = c.EndDate
		}
		if c.CompleteDate.After(s.CompleteDate) {
			s.CompleteDate = c.CompleteDate
		}
		s.InitiallyPlanned += c.InitiallyPlanned
		s.Completed += c.Completed
	}
	if s.Events == nil {
		s.Events = []sprint.Event{}
	}
	s.InitiallyPlannedSource = contributors[0].InitiallyPlannedSource
	s.CompletedSource = contributors[0].CompletedSource
	s.Metrics = sprint.CalculateDistinct(s.Events)
	return s
}
