package rollup

import (
	"reflect"
	"testing"
	"time"

	"sprint-kpi/internal/sprint"
)

func day(d int) time.Time {
	return time.Date(2025, 3, d, 9, 0, 0, 0, time.UTC)
}

func boardSprint(board, id string, start int, events ...sprint.Event) sprint.Sprint {
	return sprint.New(sprint.Header{Board: board, ID: id, Name: board + " " + id, StartDate: day(start)}, events)
}

func TestExpand(t *testing.T) {
	groups := []Group{
		{Name: "SCO", Boards: []string{"4133", "4132"}},
		{Name: "ACOSS", Boards: []string{"4133", "2796"}},
	}
	exp := Expand([]string{"SCO", "2796", "ACOSS", "SCO", "9999"}, groups)

	if want := []string{"4133", "4132", "2796", "9999"}; !reflect.DeepEqual(exp.Boards, want) {
		t.Errorf("Boards = %v, want %v", exp.Boards, want)
	}
	if len(exp.Groups) != 2 {
		t.Errorf("Groups = %v, want SCO and ACOSS once", exp.Groups)
	}
	if got := exp.BoardToGroups["4133"]; !reflect.DeepEqual(got, []string{"SCO", "ACOSS"}) {
		t.Errorf("BoardToGroups[4133] = %v", got)
	}
	if _, ok := exp.BoardToGroups["9999"]; ok {
		t.Error("plain board should not map to a group")
	}
	if !exp.IsGroup("ACOSS") || exp.IsGroup("2796") {
		t.Error("IsGroup() mismatch")
	}
}

func TestAggregate_MostRecentCompletedSums(t *testing.T) {
	byBoard := map[string][]sprint.Sprint{
		"A": {
			boardSprint("A", "a1", 1, sprint.Event{Key: "A-1", Points: 2, Completed: true}),
			boardSprint("A", "a2", 15, sprint.Event{Key: "A-2", Points: 5, Completed: true}),
		},
		"B": {
			boardSprint("B", "b1", 16, sprint.Event{Key: "B-1", Points: 3, Completed: true}),
		},
	}
	got := Aggregate(Group{Name: "G", Boards: []string{"A", "B"}}, byBoard, 6)

	if len(got) != 2 {
		t.Fatalf("Aggregate() returned %d sprints, want 2", len(got))
	}
	latest := got[len(got)-1]
	if latest.Completed != 8 {
		t.Errorf("latest Completed = %v, want 8", latest.Completed)
	}
	if latest.Name != "G 1" || latest.ID != "G 1" || latest.Board != "G" {
		t.Errorf("latest header = %+v", latest.Header)
	}
	if !latest.StartDate.Equal(day(15)) {
		t.Errorf("latest StartDate = %v, want earliest contributor %v", latest.StartDate, day(15))
	}
	if len(latest.Events) != 2 {
		t.Errorf("latest Events = %d, want concatenation of 2", len(latest.Events))
	}
	if got[0].Name != "G 2" || got[0].Completed != 2 {
		t.Errorf("older = %s completed %v, want G 2 completed 2", got[0].Name, got[0].Completed)
	}
}

func TestAggregate_StopsAtFirstEmptyOffset(t *testing.T) {
	byBoard := map[string][]sprint.Sprint{
		"A": {boardSprint("A", "a1", 1), boardSprint("A", "a2", 15), boardSprint("A", "a3", 29)},
	}
	tests := []struct {
		name    string
		display int
		want    int
	}{
		{"limited by display", 2, 2},
		{"limited by history", 6, 3},
		{"none", 0, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Aggregate(Group{Name: "G", Boards: []string{"A", "missing"}}, byBoard, tt.display)
			if len(got) != tt.want {
				t.Errorf("Aggregate() = %d sprints, want %d", len(got), tt.want)
			}
		})
	}
}

func TestAggregate_DistinctIssueCounts(t *testing.T) {
	shared := sprint.Event{Key: "X-1", Points: 3, AddedAfterStart: true}
	byBoard := map[string][]sprint.Sprint{
		"A": {boardSprint("A", "a1", 1, shared)},
		"B": {boardSprint("B", "b1", 1, shared)},
	}
	got := Aggregate(Group{Name: "G", Boards: []string{"A", "B"}}, byBoard, 6)[0]

	if got.Metrics.PulledIn != 6 || got.Metrics.PulledInCount != 1 {
		t.Errorf("PulledIn = %v (%d), want 6 (1)", got.Metrics.PulledIn, got.Metrics.PulledInCount)
	}
	if got.Metrics.SpilloverPulledInCount != 1 {
		t.Errorf("SpilloverPulledInCount = %d, want 1", got.Metrics.SpilloverPulledInCount)
	}
}

func TestBuildSeries(t *testing.T) {
	var sprints []sprint.Sprint
	for i := 0; i < 8; i++ {
		sprints = append(sprints, boardSprint("A", string(rune('a'+i)), 1+i*2))
	}
	sprints = append(sprints, boardSprint("B", "b1", 3), boardSprint("C", "c1", 5))
	exp := Expand([]string{"A", "G"}, []Group{{Name: "G", Boards: []string{"B", "C"}}})

	s := BuildSeries([]string{"A", "G", "A", "empty"}, sprints, exp, 6)

	if len(s.History) != 9 {
		t.Errorf("History = %d sprints, want 8 + 1", len(s.History))
	}
	if len(s.Display) != 7 {
		t.Fatalf("Display = %d sprints, want 6 + 1", len(s.Display))
	}
	if s.Display[0].ID != "c" {
		t.Errorf("Display starts at %s, want c", s.Display[0].ID)
	}
	if last := s.Display[6]; last.Board != "G" || last.Name != "G 1" {
		t.Errorf("group sprint = %+v", last.Header)
	}
}
