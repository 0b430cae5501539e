package timeline

import (
	"strings"

	"sprint-kpi/internal/jira"
)

// pointsAtStart returns the estimate the sprint was planned with.
// Candidates, in order:
//  1. the from-value of the first estimate change after the sprint started
//  2. the to-value of the last estimate change at or before the start
//  3. the current estimate
func pointsAtStart(history []jira.Change, w Window, current float64) float64 {
	if !w.HasStart() {
		return current
	}

	result := current
	for _, ch := range history {
		for _, it := range ch.Items {
			if it.Kind != jira.FieldStoryPoints {
				continue
			}
			if !ch.At.After(w.Start) {
				if v, ok := parsePoints(strings.TrimSpace(it.ToValue())); ok {
					result = v
				}
				continue
			}
			v, _ := parsePoints(strings.TrimSpace(it.FromValue()))
			return v
		}
	}
	return result
}

// pointsAtClose returns the estimate in effect when the sprint ended.
// Candidates, in order:
//  1. the to-value of the last parseable estimate change at or before the end
//  2. the current estimate
func pointsAtClose(history []jira.Change, w Window, current float64) float64 {
	if !w.HasEnd() {
		return current
	}

	result := current
	for _, ch := range history {
		if ch.At.After(w.End) {
			break
		}
		for _, it := range ch.Items {
			if it.Kind != jira.FieldStoryPoints {
				continue
			}
			if v, ok := parsePoints(strings.TrimSpace(it.ToValue())); ok {
				result = v
			}
		}
	}
	return result
}
