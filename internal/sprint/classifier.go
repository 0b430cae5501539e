package sprint

import (
	"strings"
	"time"

	"sprint-kpi/internal/jira"
	"sprint-kpi/internal/timeline"
)

// ReportIssue is one issue listed in a sprint report bucket.
type ReportIssue struct {
	Key     string
	Points  float64
	Flagged bool
}

// Report is the sprint report reduced to what classification needs.
type Report struct {
	Completed    []ReportIssue
	NotCompleted []ReportIssue
	Punted       []ReportIssue
	RemovedKeys  []string
}

// ReportFromDTO converts a greenhopper sprint report.
func ReportFromDTO(dto *jira.SprintReportDTO) Report {
	conv := func(in []jira.SprintReportIssueDTO) []ReportIssue {
		out := make([]ReportIssue, 0, len(in))
		for _, it := range in {
			out = append(out, ReportIssue{Key: it.Key, Points: it.Estimate(), Flagged: it.Flagged})
		}
		return out
	}
	return Report{
		Completed:    conv(dto.Contents.CompletedIssues),
		NotCompleted: conv(dto.Contents.IssuesNotCompletedInCurrentSprint),
		Punted:       conv(dto.Contents.PuntedIssues),
		RemovedKeys:  dto.Contents.IssueKeysRemovedFromSprint,
	}
}

// BaseEvents builds one event per reported issue before any history is read.
// Removed keys mark existing events as moved out or add placeholder events.
// A non-empty keyPrefix drops events whose key does not start with it.
func BaseEvents(r Report, keyPrefix string) []Event {
	var events []Event
	index := make(map[string]int)

	collect := func(issues []ReportIssue, completed bool) {
		for _, it := range issues {
			if _, dup := index[it.Key]; dup && it.Key != "" {
				continue
			}
			index[it.Key] = len(events)
			events = append(events, Event{
				Key:       it.Key,
				Points:    max(it.Points, 0),
				Blocked:   it.Flagged,
				Completed: completed,
			})
		}
	}
	collect(r.Completed, true)
	collect(r.NotCompleted, false)
	collect(r.Punted, false)

	for _, key := range r.RemovedKeys {
		if key == "" {
			continue
		}
		if i, ok := index[key]; ok {
			events[i].MovedOut = true
			events[i].Completed = false
			continue
		}
		index[key] = len(events)
		events = append(events, Event{Key: key, MovedOut: true})
	}

	if keyPrefix == "" {
		return events
	}
	filtered := events[:0]
	for _, ev := range events {
		if strings.HasPrefix(ev.Key, keyPrefix) {
			filtered = append(filtered, ev)
		}
	}
	return filtered
}

// Detail is the fetched history of one event's issue.
type Detail struct {
	Issue      jira.Issue
	PIRelevant bool
}

// Classify enriches base events with the facts read from their issue history.
// Events without a detail keep their report defaults.
func Classify(base []Event, details map[string]Detail, w timeline.Window, now time.Time) []Event {
	out := make([]Event, len(base))
	for i, ev := range base {
		d, ok := details[ev.Key]
		if !ok {
			out[i] = ev
			continue
		}
		out[i] = applyDetail(ev, d, w, now)
	}
	return out
}

func applyDetail(ev Event, d Detail, w timeline.Window, now time.Time) Event {
	if ev.Points == 0 {
		ev.Points = max(d.Issue.Points, 0)
	}
	flagged := ev.Blocked || d.Issue.Flagged || timeline.IsBlockedStatus(d.Issue.Status)

	f := timeline.Analyze(timeline.Input{
		Issue:   d.Issue,
		Points:  ev.Points,
		Flagged: flagged,
		Window:  w,
		Now:     now,
	})

	initial, completed := f.InitialPoints, f.CompletedPoints
	ev.InitialPoints = &initial
	ev.CompletedPoints = &completed
	ev.Blocked = f.Blocked
	ev.BlockedDays = f.BlockedDays
	ev.CycleTime = f.CycleTime
	ev.ResolvedAt = d.Issue.Resolved
	ev.AddedAfterStart = f.AddedAfterStart
	ev.RemovedBeforeStart = f.RemovedBeforeStart
	ev.PIRelevant = d.PIRelevant

	ev.MovedOut = ev.MovedOut || f.MovedOut
	if ev.MovedOut {
		ev.Completed = false
	}
	return ev
}
