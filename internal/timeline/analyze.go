// Package timeline reconstructs what happened to one issue during one sprint
// from its changelog.
package timeline

import (
	"strconv"
	"time"

	"sprint-kpi/internal/jira"
	"sprint-kpi/internal/stats"
)

// Window is the sprint an issue history is read against.
// A zero Start or End means the bound is unknown.
type Window struct {
	ID    string
	Name  string
	Start time.Time
	End   time.Time
}

// NewWindow builds a Window, discarding a start that lies after the end.
func NewWindow(id int, name string, start, end time.Time) Window {
	if !start.IsZero() && !end.IsZero() && start.After(end) {
		start = time.Time{}
	}
	w := Window{Name: name, Start: start, End: end}
	if id != 0 {
		w.ID = strconv.Itoa(id)
	}
	return w
}

// HasStart reports whether the sprint start is known.
func (w Window) HasStart() bool { return !w.Start.IsZero() }

// HasEnd reports whether the sprint end is known.
func (w Window) HasEnd() bool { return !w.End.IsZero() }

// endOr returns the sprint end, or now when the end is unknown.
func (w Window) endOr(now time.Time) time.Time {
	if w.HasEnd() {
		return w.End
	}
	return now
}

// Input is everything Analyze needs for one issue in one sprint.
type Input struct {
	Issue jira.Issue
	// Points is the current estimate chosen by the caller.
	Points float64
	// Flagged marks issues known to be blocked without a blocked status in history.
	Flagged bool
	Window  Window
	Now     time.Time
}

// Interval is a closed time range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Facts are the per-issue values derived from the history.
type Facts struct {
	InitialPoints   float64
	CompletedPoints float64

	Blocked        bool
	BlockedDays    int
	BlockedPeriods []Interval

	DevStart  *time.Time
	CycleTime *int

	AddedAfterStart    bool
	AddedAt            *time.Time
	RemovedBeforeStart bool
	MovedOut           bool
}

// Analyze derives the sprint facts of one issue. It is deterministic for a
// given input and never fails; missing data disables the affected fact.
func Analyze(in Input) Facts {
	if in.Now.IsZero() {
		in.Now = time.Now()
	}

	f := Facts{
		InitialPoints:   pointsAtStart(in.Issue.History, in.Window, in.Points),
		CompletedPoints: pointsAtClose(in.Issue.History, in.Window, in.Points),
	}

	periods, devStart := statusTimeline(in)
	f.BlockedPeriods, f.BlockedDays = clampPeriods(periods, in.Window)
	f.Blocked = in.Flagged || len(periods) > 0

	f.DevStart = devStart
	if devStart != nil && in.Issue.Resolved != nil {
		days := stats.BusinessDaysBetween(*devStart, *in.Issue.Resolved)
		f.CycleTime = &days
	}

	m := membership(in.Issue, in.Window)
	f.AddedAt = m.addedAt
	f.AddedAfterStart = m.addedAfterStart
	f.RemovedBeforeStart = m.removedBeforeStart
	f.MovedOut = m.movedOut
	return f
}

// parsePoints reads a changelog point value. Empty values count as zero.
func parsePoints(s string) (float64, bool) {
	if s == "" {
		return 0, true
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
