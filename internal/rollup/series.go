package rollup

import "sprint-kpi/internal/sprint"

// Series is what a report shows for one selection.
type Series struct {
	// Display holds the last displayCount sprints of every selected entry.
	Display []sprint.Sprint
	// History holds every sprint of every selected entry.
	History []sprint.Sprint
}

// ByBoard groups sprints by board and sorts each series by start date.
func ByBoard(sprints []sprint.Sprint) map[string][]sprint.Sprint {
	out := make(map[string][]sprint.Sprint)
	for _, s := range sprints {
		out[s.Board] = append(out[s.Board], s)
	}
	for b, series := range out {
		out[b] = sprint.SortByStart(series)
	}
	return out
}

// BuildSeries turns fetched board sprints into the series of a selection.
// Group entries are replaced by their aggregated series; entries without any
// sprint contribute nothing.
func BuildSeries(selection []string, sprints []sprint.Sprint, exp Expansion, displayCount int) Series {
	byBoard := ByBoard(sprints)
	for _, g := range exp.Groups {
		byBoard[g.Name] = Aggregate(g, byBoard, displayCount)
	}

	var s Series
	seen := make(map[string]bool, len(selection))
	for _, sel := range selection {
		if seen[sel] {
			continue
		}
		seen[sel] = true
		series := byBoard[sel]
		if len(series) == 0 {
			continue
		}
		s.History = append(s.History, series...)
		s.Display = append(s.Display, series[max(len(series)-displayCount, 0):]...)
	}
	return s
}
