package timeline

import (
	"strings"
	"time"

	"sprint-kpi/internal/jira"
	"sprint-kpi/internal/stats"
)

const developmentStatus = "in development"

// IsBlockedStatus reports whether a status name denotes a blocked state.
func IsBlockedStatus(name string) bool {
	return strings.Contains(strings.ToLower(name), "block")
}

// statusAt walks the history backwards from the current status to find the
// status in effect at t.
func statusAt(history []jira.Change, t time.Time, current string) string {
	status := current
	for i := len(history) - 1; i >= 0; i-- {
		ch := history[i]
		if !ch.At.After(t) {
			break
		}
		if it, ok := statusItem(ch); ok {
			if from := it.FromValue(); from != "" {
				status = from
			}
		}
	}
	return status
}

func statusItem(ch jira.Change) (jira.ChangeItem, bool) {
	for _, it := range ch.Items {
		if it.Kind == jira.FieldStatus {
			return it, true
		}
	}
	return jira.ChangeItem{}, false
}

// statusTimeline walks the status changes inside the window, returning the
// raw blocked intervals and the first move into development.
func statusTimeline(in Input) ([]Interval, *time.Time) {
	w := in.Window
	startStatus := in.Issue.Status
	if w.HasStart() {
		startStatus = statusAt(in.Issue.History, w.Start, in.Issue.Status)
	}

	blocked := IsBlockedStatus(startStatus)
	var blockStart time.Time
	if blocked {
		blockStart = w.Start
	}

	var (
		periods  []Interval
		devStart *time.Time
	)
	for _, ch := range in.Issue.History {
		if w.HasStart() && ch.At.Before(w.Start) {
			continue
		}
		if w.HasEnd() && ch.At.After(w.End) {
			break
		}
		it, ok := statusItem(ch)
		if !ok {
			continue
		}

		to := it.ToValue()
		if devStart == nil && strings.EqualFold(strings.TrimSpace(to), developmentStatus) {
			at := ch.At
			devStart = &at
		}

		toBlocked := IsBlockedStatus(to)
		switch {
		case blocked && !toBlocked:
			periods = append(periods, Interval{Start: blockStart, End: ch.At})
			blocked = false
			blockStart = time.Time{}
		case !blocked && toBlocked:
			blocked = true
			blockStart = ch.At
		}
	}
	if blocked {
		periods = append(periods, Interval{Start: blockStart, End: w.endOr(in.Now)})
	}

	// Approximation: a flag without any blocked status counts the whole sprint.
	if len(periods) == 0 && in.Flagged {
		periods = append(periods, Interval{Start: w.Start, End: w.endOr(in.Now)})
	}
	return periods, devStart
}

// clampPeriods clips every interval to the window and sums their business days.
func clampPeriods(periods []Interval, w Window) ([]Interval, int) {
	clamped := make([]Interval, 0, len(periods))
	total := 0
	for _, p := range periods {
		start, end := p.Start, p.End
		if w.HasStart() && start.Before(w.Start) {
			start = w.Start
		}
		if w.HasEnd() && end.After(w.End) {
			end = w.End
		}
		if !end.After(start) {
			continue
		}
		clamped = append(clamped, Interval{Start: start, End: end})
		total += stats.BusinessDaysBetween(start, end)
	}
	return clamped, total
}
