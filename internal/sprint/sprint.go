// Package sprint turns sprint reports and issue timelines into sprint events
// and their disruption metrics.
package sprint

import "time"

// Event is one issue's participation in one sprint.
type Event struct {
	Key    string  `json:"key"`
	Points float64 `json:"points"`
	// Nil when the issue's history was not available.
	InitialPoints   *float64 `json:"initialPoints,omitempty"`
	CompletedPoints *float64 `json:"completedPoints,omitempty"`

	AddedAfterStart    bool `json:"addedAfterStart"`
	RemovedBeforeStart bool `json:"removedBeforeStart"`
	Blocked            bool `json:"blocked"`
	BlockedDays        int  `json:"blockedDays"`
	MovedOut           bool `json:"movedOut"`
	Completed          bool `json:"completed"`
	PIRelevant         bool `json:"piRelevant"`

	CycleTime  *int       `json:"cycleTime,omitempty"`
	ResolvedAt *time.Time `json:"resolvedAt,omitempty"`
}

// PlannedPoints is the estimate counted toward the initial plan:
// InitialPoints when known, otherwise Points.
func (e Event) PlannedPoints() float64 {
	if e.InitialPoints != nil {
		return *e.InitialPoints
	}
	return e.Points
}

// DeliveredPoints is the estimate counted as delivered:
// CompletedPoints when known, otherwise Points.
func (e Event) DeliveredPoints() float64 {
	if e.CompletedPoints != nil {
		return *e.CompletedPoints
	}
	return e.Points
}

// InInitialPlan reports whether the issue was part of the sprint when it started.
func (e Event) InInitialPlan() bool {
	return !e.AddedAfterStart && !e.RemovedBeforeStart
}

// Header identifies a sprint on a board or a synthetic group sprint.
type Header struct {
	Board        string    `json:"board"`
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	StartDate    time.Time `json:"startDate,omitzero"`
	EndDate      time.Time `json:"endDate,omitzero"`
	CompleteDate time.Time `json:"completeDate,omitzero"`
}

// Recency is the date a sprint is ranked by:
// EndDate, then CompleteDate, then StartDate; zero when none is known.
func (h Header) Recency() time.Time {
	switch {
	case !h.EndDate.IsZero():
		return h.EndDate
	case !h.CompleteDate.IsZero():
		return h.CompleteDate
	default:
		return h.StartDate
	}
}

// Identity returns the sprint id used for exclusion lists.
func (h Header) Identity() string { return h.ID }

// Sprint is an immutable snapshot of one sprint's events and derived totals.
type Sprint struct {
	Header

	Events []Event `json:"events"`

	InitiallyPlanned       float64 `json:"initiallyPlanned"`
	Completed              float64 `json:"completed"`
	InitiallyPlannedSource string  `json:"initiallyPlannedSource,omitempty"`
	CompletedSource        string  `json:"completedSource,omitempty"`

	Metrics Metrics `json:"metrics"`
}

const (
	plannedSource   = "sum of events not added after start"
	completedSource = "sum of completed events"
)

// New computes the sprint totals and metrics once.
func New(h Header, events []Event) Sprint {
	if events == nil {
		events = []Event{}
	}
	return Sprint{
		Header:                 h,
		Events:                 events,
		InitiallyPlanned:       InitiallyPlanned(events),
		Completed:              CompletedPoints(events),
		InitiallyPlannedSource: plannedSource,
		CompletedSource:        completedSource,
		Metrics:                Calculate(events),
	}
}

// InitiallyPlanned sums PlannedPoints over events that were in the initial plan.
func InitiallyPlanned(events []Event) float64 {
	total := 0.0
	for _, ev := range events {
		if ev.InInitialPlan() {
			total += ev.PlannedPoints()
		}
	}
	return total
}

// CompletedPoints sums DeliveredPoints over completed events.
func CompletedPoints(events []Event) float64 {
	total := 0.0
	for _, ev := range events {
		if ev.Completed {
			total += ev.DeliveredPoints()
		}
	}
	return total
}
