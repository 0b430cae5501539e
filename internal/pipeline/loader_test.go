package pipeline

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"testing"
	"time"

	"sprint-kpi/internal/jira"
	"sprint-kpi/internal/rollup"
	"sprint-kpi/internal/sprint"
)

var errFake = errors.New("boom")

// fakeClient serves canned Jira responses and counts issue lookups.
type fakeClient struct {
	boards    []jira.BoardDTO
	velocity  map[int]*jira.VelocityDTO
	sprints   map[int][]jira.SprintDTO
	reports   map[int]*jira.SprintReportDTO
	issues    map[string]string
	epics     map[string]string
	failIssue map[string]bool

	mu         sync.Mutex
	issueCalls map[string]int
	epicCalls  map[string]int
}

func (f *fakeClient) ListBoards(context.Context) ([]jira.BoardDTO, error) { return f.boards, nil }

func (f *fakeClient) GetVelocity(_ context.Context, board int) (*jira.VelocityDTO, error) {
	if v, ok := f.velocity[board]; ok {
		return v, nil
	}
	return nil, jira.ErrNotFound
}

func (f *fakeClient) ListSprints(_ context.Context, board int) ([]jira.SprintDTO, error) {
	return f.sprints[board], nil
}

func (f *fakeClient) GetSprintReport(_ context.Context, _, sprintID int) (*jira.SprintReportDTO, error) {
	if r, ok := f.reports[sprintID]; ok {
		return r, nil
	}
	return nil, errFake
}

func (f *fakeClient) GetIssue(_ context.Context, key string) (*jira.IssueDTO, error) {
	f.mu.Lock()
	f.issueCalls[key]++
	f.mu.Unlock()
	if f.failIssue[key] {
		return nil, errFake
	}
	return decodeIssue(f.issues[key], key)
}

func (f *fakeClient) GetEpic(_ context.Context, key string) (*jira.IssueDTO, error) {
	f.mu.Lock()
	f.epicCalls[key]++
	f.mu.Unlock()
	body, ok := f.epics[key]
	if !ok {
		return nil, jira.ErrNotFound
	}
	return decodeIssue(body, key)
}

func decodeIssue(body, key string) (*jira.IssueDTO, error) {
	if body == "" {
		body = fmt.Sprintf(`{"key":%q,"fields":{"status":{"name":"Done"}}}`, key)
	}
	var dto jira.IssueDTO
	if err := json.Unmarshal([]byte(body), &dto); err != nil {
		return nil, err
	}
	return &dto, nil
}

func reportIssue(key string, points float64) jira.SprintReportIssueDTO {
	var it jira.SprintReportIssueDTO
	it.Key = key
	raw := fmt.Sprintf(`{"key":%q,"estimateStatistic":{"statFieldValue":{"value":%v}}}`, key, points)
	_ = json.Unmarshal([]byte(raw), &it)
	return it
}

func closed(id, board int, start string) jira.SprintDTO {
	return jira.SprintDTO{
		ID: id, Name: fmt.Sprintf("Sprint %d", id), State: "closed", OriginBoardID: board,
		StartDate: start + "T09:00:00.000Z", CompleteDate: start[:8] + "28T17:00:00.000Z",
	}
}

func newFake() *fakeClient {
	return &fakeClient{
		boards: []jira.BoardDTO{{ID: 100, Name: "Alpha"}, {ID: 200, Name: "Beta"}},
		velocity: map[int]*jira.VelocityDTO{
			100: {Sprints: []jira.SprintDTO{
				closed(1, 100, "2025-01-01"),
				closed(2, 100, "2025-02-01"),
				{ID: 3, State: "active", OriginBoardID: 100, StartDate: "2025-03-01T09:00:00.000Z"},
				closed(4, 999, "2025-02-01"),
			}},
		},
		sprints: map[int][]jira.SprintDTO{
			200: {closed(5, 200, "2025-02-03")},
		},
		reports: map[int]*jira.SprintReportDTO{
			1: {Contents: jira.SprintReportContentsDTO{
				CompletedIssues: []jira.SprintReportIssueDTO{reportIssue("A-1", 3)},
			}},
			2: {Contents: jira.SprintReportContentsDTO{
				CompletedIssues:                   []jira.SprintReportIssueDTO{reportIssue("A-2", 5)},
				IssuesNotCompletedInCurrentSprint: []jira.SprintReportIssueDTO{reportIssue("SHARED-1", 2), reportIssue("A-BROKEN", 1)},
			}},
			5: {Contents: jira.SprintReportContentsDTO{
				CompletedIssues:                   []jira.SprintReportIssueDTO{reportIssue("B-1", 3)},
				IssuesNotCompletedInCurrentSprint: []jira.SprintReportIssueDTO{reportIssue("SHARED-1", 2)},
			}},
		},
		issues: map[string]string{
			"A-2": `{"key":"A-2","fields":{"status":{"name":"Done"},"parent":{"key":"EPIC-1"}}}`,
			"B-1": `{"key":"B-1","fields":{"status":{"name":"Done"},"parent":{"key":"EPIC-1"}}}`,
		},
		epics: map[string]string{
			"EPIC-1": `{"key":"EPIC-1","fields":{"issuetype":{"name":"Epic"},"labels":["2025_PI3_committed"]}}`,
		},
		failIssue:  map[string]bool{"A-BROKEN": true},
		issueCalls: make(map[string]int),
		epicCalls:  make(map[string]int),
	}
}

func testOptions() Options {
	return Options{
		Groups:             []rollup.Group{{Name: "G", Boards: []string{"100", "200"}}},
		DisplaySprintCount: 6,
		RatingWindow:       4,
		PILabel:            regexp.MustCompile(`(?i)\b(?:BF_)?\d{4}_PI\d+_committ?ed\b`),
	}
}

func findSprint(t *testing.T, sprints []sprint.Sprint, id string) sprint.Sprint {
	t.Helper()
	for _, s := range sprints {
		if s.ID == id {
			return s
		}
	}
	t.Fatalf("sprint %s not loaded", id)
	return sprint.Sprint{}
}

func TestLoader_Load(t *testing.T) {
	fc := newFake()
	memo := NewMapMemo()
	l := NewLoader(fc, "", testOptions(), memo)

	res, err := l.Load(context.Background(), []string{"G"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if len(res.Sprints) != 3 {
		t.Fatalf("Load() = %d sprints, want 3 closed sprints on their origin boards", len(res.Sprints))
	}
	for i, want := range []string{"1", "2", "5"} {
		if res.Sprints[i].ID != want {
			t.Errorf("Sprints[%d] = %s, want %s (start order)", i, res.Sprints[i].ID, want)
		}
	}

	s2 := findSprint(t, res.Sprints, "2")
	if len(s2.Events) != 3 {
		t.Errorf("sprint 2 events = %d, want 3 including the failed lookup", len(s2.Events))
	}
	for _, ev := range s2.Events {
		switch ev.Key {
		case "A-2":
			if !ev.PIRelevant {
				t.Error("A-2 should be PI relevant through its epic")
			}
		case "A-BROKEN":
			if ev.InitialPoints != nil || ev.Points != 1 {
				t.Errorf("A-BROKEN should keep report defaults, got %+v", ev)
			}
		}
	}

	if n := fc.issueCalls["SHARED-1"]; n != 1 {
		t.Errorf("SHARED-1 fetched %d times, want 1", n)
	}
	if n := fc.epicCalls["EPIC-1"]; n != 1 {
		t.Errorf("EPIC-1 fetched %d times, want 1", n)
	}
	if memo.Len() != 1 {
		t.Errorf("memo size = %d, want 1", memo.Len())
	}

	if res.Label("100") != "Alpha" || res.Label("G") != "G" {
		t.Errorf("Labels = %v", res.Labels)
	}
	if got := res.BoardToGroups["200"]; len(got) != 1 || got[0] != "G" {
		t.Errorf("BoardToGroups = %v", res.BoardToGroups)
	}

	if len(res.Series.Display) != 2 {
		t.Fatalf("group display = %d sprints, want 2", len(res.Series.Display))
	}
	latest := res.Series.Display[1]
	if latest.Name != "G 1" || latest.Completed != 8 {
		t.Errorf("latest group sprint = %s completed %v, want G 1 completed 8", latest.Name, latest.Completed)
	}
	if latest.Metrics.SpilloverCount != 2 {
		t.Errorf("SpilloverCount = %d, want SHARED-1 once plus A-BROKEN", latest.Metrics.SpilloverCount)
	}
}

func TestLoader_SprintReportFailureSkipsSprint(t *testing.T) {
	fc := newFake()
	delete(fc.reports, 1)
	res, err := NewLoader(fc, "", testOptions(), nil).Load(context.Background(), []string{"100"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(res.Sprints) != 1 || res.Sprints[0].ID != "2" {
		t.Errorf("Load() sprints = %v, want only sprint 2", res.Sprints)
	}
}

func TestLoader_KeyPrefix(t *testing.T) {
	fc := newFake()
	opts := testOptions()
	opts.KeyPrefixes = map[string]string{"200": "B-"}

	res, err := NewLoader(fc, "", opts, nil).Load(context.Background(), []string{"200"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	s := findSprint(t, res.Sprints, "5")
	if len(s.Events) != 1 || s.Events[0].Key != "B-1" {
		t.Errorf("events = %v, want only B-1", s.Events)
	}
}

func TestLoader_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewLoader(newFake(), "", testOptions(), nil).Load(ctx, []string{"G"}); !errors.Is(err, context.Canceled) {
		t.Errorf("Load() error = %v, want context.Canceled", err)
	}
}

func TestLoader_Boards(t *testing.T) {
	boards, err := NewLoader(newFake(), "", testOptions(), nil).Boards(context.Background())
	if err != nil {
		t.Fatalf("Boards() error = %v", err)
	}
	if len(boards) != 3 || boards[0].Name != "Alpha" || !boards[2].Group {
		t.Errorf("Boards() = %v", boards)
	}
}

func TestEpicInfo_PIRelevant(t *testing.T) {
	re := testOptions().PILabel
	tests := []struct {
		name string
		info EpicInfo
		want bool
	}{
		{"committed epic", EpicInfo{IsEpic: true, Labels: []string{"x", "BF_2025_PI2_COMMITED"}}, true},
		{"story with label", EpicInfo{IsEpic: false, Labels: []string{"2025_PI2_committed"}}, false},
		{"epic without label", EpicInfo{IsEpic: true, Labels: []string{"2025_PI2_planned"}}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.info.PIRelevant(re); got != tt.want {
				t.Errorf("PIRelevant() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMockSource_Load(t *testing.T) {
	src := NewMockSource(mockConfig(), testOptions())
	res, err := src.Load(context.Background(), nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(res.Sprints) != 12 || len(res.Series.Display) != 12 || len(res.Series.History) != 12 {
		t.Errorf("mock load = %d sprints, %d displayed", len(res.Sprints), len(res.Series.Display))
	}

	res, err = src.Load(context.Background(), []string{"MCO"})
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	for _, s := range res.Sprints {
		if s.Board != "MCO" {
			t.Errorf("unexpected board %s", s.Board)
		}
	}
}

func TestLoader_CancelDuringLoadStopsWaiting(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	<-ctx.Done()
	if _, err := NewLoader(newFake(), "", testOptions(), nil).Load(ctx, []string{"100"}); err == nil {
		t.Error("Load() after deadline should fail")
	}
}
