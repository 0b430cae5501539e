package sprint

import (
	"reflect"
	"testing"
	"time"

	"sprint-kpi/internal/jira"
	"sprint-kpi/internal/timeline"
)

func keys(events []Event) []string {
	out := make([]string, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Key)
	}
	return out
}

func TestBaseEvents(t *testing.T) {
	r := Report{
		Completed:    []ReportIssue{{Key: "SCO-1", Points: 5}, {Key: "SCO-2", Points: -1}},
		NotCompleted: []ReportIssue{{Key: "SCO-3", Points: 3, Flagged: true}, {Key: "SCO-1", Points: 8}},
		Punted:       []ReportIssue{{Key: "OTHER-4", Points: 2}},
		RemovedKeys:  []string{"SCO-3", "SCO-9", ""},
	}

	events := BaseEvents(r, "")
	if got, want := keys(events), []string{"SCO-1", "SCO-2", "SCO-3", "OTHER-4", "SCO-9"}; !reflect.DeepEqual(got, want) {
		t.Fatalf("BaseEvents() keys = %v, want %v", got, want)
	}

	tests := []struct {
		idx       int
		points    float64
		completed bool
		movedOut  bool
		blocked   bool
	}{
		{0, 5, true, false, false},
		{1, 0, true, false, false},
		{2, 3, false, true, true},
		{3, 2, false, false, false},
		{4, 0, false, true, false},
	}
	for _, tt := range tests {
		ev := events[tt.idx]
		if ev.Points != tt.points || ev.Completed != tt.completed || ev.MovedOut != tt.movedOut || ev.Blocked != tt.blocked {
			t.Errorf("event %s = %+v, want points=%v completed=%v movedOut=%v blocked=%v",
				ev.Key, ev, tt.points, tt.completed, tt.movedOut, tt.blocked)
		}
	}
}

func TestBaseEvents_KeyPrefix(t *testing.T) {
	r := Report{
		Completed:   []ReportIssue{{Key: "BF-1"}, {Key: "SCO-1"}},
		RemovedKeys: []string{"BF-2", "SCO-2"},
	}
	got := keys(BaseEvents(r, "BF-"))
	if want := []string{"BF-1", "BF-2"}; !reflect.DeepEqual(got, want) {
		t.Errorf("BaseEvents(BF-) = %v, want %v", got, want)
	}
}

func day(d int) time.Time {
	return time.Date(2025, 1, d, 9, 0, 0, 0, time.UTC)
}

func TestClassify_MovedOutForcesNotCompleted(t *testing.T) {
	w := timeline.NewWindow(10, "SCO Sprint 1", day(6), day(17))
	base := []Event{{Key: "SCO-1", Points: 3, Completed: true}}
	details := map[string]Detail{
		"SCO-1": {Issue: jira.Issue{
			Key:    "SCO-1",
			Status: "Done",
			History: []jira.Change{
				{At: day(2), Items: []jira.ChangeItem{{Kind: jira.FieldSprint, To: "10", ToString: "SCO Sprint 1"}}},
				{At: day(8), Items: []jira.ChangeItem{{Kind: jira.FieldSprint, From: "10", FromString: "SCO Sprint 1", To: "11", ToString: "SCO Sprint 2"}}},
			},
		}},
	}

	got := Classify(base, details, w, day(20))[0]
	if !got.MovedOut || got.Completed {
		t.Errorf("Classify() movedOut=%v completed=%v, want true false", got.MovedOut, got.Completed)
	}
	if got.InitialPoints == nil || *got.InitialPoints != 3 {
		t.Errorf("InitialPoints = %v, want 3", got.InitialPoints)
	}
}

func TestClassify_Enrichment(t *testing.T) {
	w := timeline.NewWindow(10, "SCO Sprint 1", day(6), day(17))
	resolved := day(15)
	base := []Event{
		{Key: "SCO-1", Completed: true},
		{Key: "SCO-2", Points: 2},
	}
	details := map[string]Detail{
		"SCO-1": {
			PIRelevant: true,
			Issue: jira.Issue{
				Key:      "SCO-1",
				Status:   "Done",
				Points:   5,
				Resolved: &resolved,
				History: []jira.Change{
					{At: day(8), Items: []jira.ChangeItem{{Kind: jira.FieldStatus, FromString: "To Do", ToString: "In Development"}}},
					{At: day(15), Items: []jira.ChangeItem{{Kind: jira.FieldStatus, FromString: "In Development", ToString: "Done"}}},
				},
			},
		},
	}

	got := Classify(base, details, w, day(20))

	first := got[0]
	if first.Points != 5 {
		t.Errorf("Points = %v, want fallback to issue estimate 5", first.Points)
	}
	if !first.PIRelevant || !first.Completed {
		t.Errorf("PIRelevant=%v Completed=%v, want true true", first.PIRelevant, first.Completed)
	}
	if first.CycleTime == nil || *first.CycleTime != 5 {
		t.Errorf("CycleTime = %v, want 5", first.CycleTime)
	}
	if first.ResolvedAt == nil || !first.ResolvedAt.Equal(resolved) {
		t.Errorf("ResolvedAt = %v, want %v", first.ResolvedAt, resolved)
	}

	if !reflect.DeepEqual(got[1], base[1]) {
		t.Errorf("event without detail changed: %+v", got[1])
	}
}

func TestClassify_BlockedStatusFlags(t *testing.T) {
	w := timeline.NewWindow(10, "SCO Sprint 1", day(6), day(10))
	base := []Event{{Key: "SCO-1", Points: 1}}
	details := map[string]Detail{
		"SCO-1": {Issue: jira.Issue{Key: "SCO-1", Status: "Blocked"}},
	}

	got := Classify(base, details, w, day(20))[0]
	if !got.Blocked || got.BlockedDays != 4 {
		t.Errorf("Blocked=%v BlockedDays=%d, want true 4", got.Blocked, got.BlockedDays)
	}
}
