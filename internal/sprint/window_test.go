package sprint

import (
	"reflect"
	"testing"
	"time"

	"sprint-kpi/internal/jira"
)

func ids[T Ranked](items []T) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Identity())
	}
	return out
}

func TestSelectRecent(t *testing.T) {
	metas := []Meta{
		{ID: 1, EndDate: day(1)},
		{ID: 2, EndDate: day(15)},
		{ID: 3},
		{ID: 4, CompleteDate: day(20)},
		{ID: 5, StartDate: day(8)},
		{ID: 6},
	}

	tests := []struct {
		name    string
		exclude []string
		count   int
		want    []string
	}{
		{"all", nil, 10, []string{"4", "2", "5", "1", "3", "6"}},
		{"take three", nil, 3, []string{"4", "2", "5"}},
		{"exclude after take", []string{"2"}, 3, []string{"4", "5"}},
		{"unknown exclude", []string{"99"}, 2, []string{"4", "2"}},
		{"zero", nil, 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(SelectRecent(metas, tt.exclude, tt.count))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("SelectRecent() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSelectRecent_Idempotent(t *testing.T) {
	metas := []Meta{{ID: 1, EndDate: day(1)}, {ID: 2, EndDate: day(9)}, {ID: 3}, {ID: 4, EndDate: day(5)}}
	once := SelectRecent(metas, []string{"4"}, 3)
	twice := SelectRecent(once, []string{"4"}, 3)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("SelectRecent() not idempotent: %v then %v", ids(once), ids(twice))
	}
}

func TestSelectRecent_DoesNotMutateInput(t *testing.T) {
	metas := []Meta{{ID: 1, EndDate: day(1)}, {ID: 2, EndDate: day(9)}}
	SelectRecent(metas, nil, 1)
	if metas[0].ID != 1 || metas[1].ID != 2 {
		t.Errorf("input reordered: %v", ids(metas))
	}
}

func TestSortByStart(t *testing.T) {
	in := []Sprint{
		{Header: Header{ID: "b", StartDate: day(14)}},
		{Header: Header{ID: "none"}},
		{Header: Header{ID: "a", StartDate: day(1)}},
	}
	got := ids(SortByStart(in))
	if want := []string{"none", "a", "b"}; !reflect.DeepEqual(got, want) {
		t.Errorf("SortByStart() = %v, want %v", got, want)
	}
}

func TestClosedOnBoard(t *testing.T) {
	metas := []Meta{
		{ID: 1, State: "closed", OriginBoardID: 7, StartDate: day(1)},
		{ID: 2, State: "CLOSED", OriginBoardID: 8, StartDate: day(1)},
		{ID: 3, State: "active", OriginBoardID: 7, StartDate: day(1)},
		{ID: 4, State: "closed", OriginBoardID: 7},
		{ID: 5, State: "Closed", OriginBoardID: 7, StartDate: day(3)},
	}
	got := ids(ClosedOnBoard(metas, 7))
	if want := []string{"1", "5"}; !reflect.DeepEqual(got, want) {
		t.Errorf("ClosedOnBoard() = %v, want %v", got, want)
	}
}

func TestMetaFromDTO(t *testing.T) {
	m := MetaFromDTO(jira.SprintDTO{
		ID:           42,
		Name:         "SCO Sprint 7",
		State:        "closed",
		StartDate:    "2025-01-06T09:00:00.000Z",
		EndDate:      "garbage",
		CompleteDate: "2025-01-17T16:30:00.000Z",
	})
	if !m.StartDate.Equal(time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)) {
		t.Errorf("StartDate = %v", m.StartDate)
	}
	if !m.EndDate.IsZero() {
		t.Errorf("EndDate = %v, want zero for a malformed date", m.EndDate)
	}
	if got, want := m.ClosedEnd(), time.Date(2025, 1, 17, 16, 30, 0, 0, time.UTC); !got.Equal(want) {
		t.Errorf("ClosedEnd() = %v, want %v", got, want)
	}
	if m.Identity() != "42" {
		t.Errorf("Identity() = %q, want 42", m.Identity())
	}
}
