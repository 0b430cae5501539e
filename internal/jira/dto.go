package jira

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// IssueDTO represents a single issue as returned by /rest/api/3/issue.
type IssueDTO struct {
	Key       string        `json:"key"`
	Fields    FieldsDTO     `json:"fields"`
	Changelog *ChangelogDTO `json:"changelog,omitempty"`
}

// FieldsDTO contains the specific fields we care about.
// Custom fields are kept raw because the story point field id is configurable.
type FieldsDTO struct {
	IssueType struct {
		Name string `json:"name"`
	} `json:"issuetype"`
	Status struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"status"`
	Created        string          `json:"created"`
	ResolutionDate string          `json:"resolutiondate"`
	Labels         []string        `json:"labels"`
	Parent         *ParentDTO      `json:"parent,omitempty"`
	Flagged        json.RawMessage `json:"flagged,omitempty"`

	Custom map[string]json.RawMessage `json:"-"`
}

// ParentDTO is the parent link of an issue (usually its epic).
type ParentDTO struct {
	Key string `json:"key"`
}

// UnmarshalJSON decodes the known fields and collects every customfield_* value.
func (f *FieldsDTO) UnmarshalJSON(data []byte) error {
	type plain FieldsDTO
	var known plain
	if err := json.Unmarshal(data, &known); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}

	*f = FieldsDTO(known)
	for k, v := range all {
		if strings.HasPrefix(k, "customfield_") {
			if f.Custom == nil {
				f.Custom = make(map[string]json.RawMessage)
			}
			f.Custom[k] = v
		}
	}
	return nil
}

// Number reads a custom field as a number. Strings holding a number are accepted.
func (f FieldsDTO) Number(field string) (float64, bool) {
	raw, ok := f.Custom[field]
	if !ok || string(bytes.TrimSpace(raw)) == "null" {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if n, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			return n, true
		}
	}
	return 0, false
}

// IsFlagged reports whether the flagged field carries a non-empty value.
func (f FieldsDTO) IsFlagged() bool {
	raw := bytes.TrimSpace(f.Flagged)
	switch string(raw) {
	case "", "null", "[]", "false", `""`, "{}":
		return false
	}
	return true
}

// ChangelogDTO contains historical transitions.
type ChangelogDTO struct {
	Histories []HistoryDTO `json:"histories"`
}

// HistoryDTO is a single entry in the changelog.
type HistoryDTO struct {
	Created string    `json:"created"`
	Items   []ItemDTO `json:"items"`
}

// ItemDTO is a single field change within a history entry.
type ItemDTO struct {
	Field      string `json:"field"`
	FieldID    string `json:"fieldId,omitempty"`
	ToString   string `json:"toString"`
	FromString string `json:"fromString"`
	To         string `json:"to"`   // ID
	From       string `json:"from"` // ID
}

// SprintDTO is a sprint as returned by the agile and greenhopper APIs.
type SprintDTO struct {
	ID            int    `json:"id"`
	Name          string `json:"name"`
	State         string `json:"state"`
	StartDate     string `json:"startDate,omitempty"`
	EndDate       string `json:"endDate,omitempty"`
	CompleteDate  string `json:"completeDate,omitempty"`
	OriginBoardID int    `json:"originBoardId,omitempty"`
}

// SprintListDTO is one page of /rest/agile/1.0/board/{id}/sprint.
type SprintListDTO struct {
	MaxResults int         `json:"maxResults"`
	StartAt    int         `json:"startAt"`
	IsLast     bool        `json:"isLast"`
	Values     []SprintDTO `json:"values"`
}

// BoardDTO is a board as returned by /rest/agile/1.0/board.
type BoardDTO struct {
	ID       int    `json:"id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Location struct {
		ProjectKey string `json:"projectKey,omitempty"`
		Name       string `json:"name,omitempty"`
	} `json:"location"`
}

// BoardListDTO is one page of /rest/agile/1.0/board.
type BoardListDTO struct {
	MaxResults int        `json:"maxResults"`
	StartAt    int        `json:"startAt"`
	IsLast     bool       `json:"isLast"`
	Values     []BoardDTO `json:"values"`
}

// ValueDTO wraps the {"value": n} objects used throughout greenhopper reports.
type ValueDTO struct {
	Value float64 `json:"value"`
}

// VelocityDTO is the greenhopper velocity chart payload.
type VelocityDTO struct {
	Sprints             []SprintDTO                 `json:"sprints"`
	VelocityStatEntries map[string]VelocityEntryDTO `json:"velocityStatEntries"`
}

// VelocityEntryDTO holds the committed and completed estimate of one sprint.
type VelocityEntryDTO struct {
	Estimated ValueDTO `json:"estimated"`
	Completed ValueDTO `json:"completed"`
}

// SprintReportDTO is the greenhopper sprint report payload.
type SprintReportDTO struct {
	Contents SprintReportContentsDTO `json:"contents"`
	Sprint   SprintDTO               `json:"sprint"`
}

// SprintReportContentsDTO holds the issue buckets of a sprint report.
type SprintReportContentsDTO struct {
	CompletedIssues                   []SprintReportIssueDTO `json:"completedIssues"`
	IssuesNotCompletedInCurrentSprint []SprintReportIssueDTO `json:"issuesNotCompletedInCurrentSprint"`
	PuntedIssues                      []SprintReportIssueDTO `json:"puntedIssues"`
	IssueKeysRemovedFromSprint        []string               `json:"issueKeysRemovedFromSprint"`
	CompletedIssuesEstimateSum        ValueDTO               `json:"completedIssuesEstimateSum"`
}

// SprintReportIssueDTO is one issue inside a sprint report bucket.
type SprintReportIssueDTO struct {
	ID                int    `json:"id"`
	Key               string `json:"key"`
	Flagged           bool   `json:"flagged"`
	EstimateStatistic *struct {
		StatFieldID    string   `json:"statFieldId"`
		StatFieldValue ValueDTO `json:"statFieldValue"`
	} `json:"estimateStatistic,omitempty"`
}

// Estimate returns the issue's estimate in the report, or 0 when absent.
func (i SprintReportIssueDTO) Estimate() float64 {
	if i.EstimateStatistic == nil {
		return 0
	}
	return i.EstimateStatistic.StatFieldValue.Value
}

// AccessibleResourceDTO is one site returned by the OAuth accessible-resources endpoint.
type AccessibleResourceDTO struct {
	ID   string `json:"id"`
	URL  string `json:"url"`
	Name string `json:"name"`
}

var timeLayouts = []string{
	"2006-01-02T15:04:05.000-0700",
	time.RFC3339Nano,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05.000Z07:00",
	"02/Jan/06 3:04 PM",
	time.DateOnly,
}

// ParseTime parses the timestamp formats Jira Cloud emits across its APIs.
func ParseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	var firstErr error
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return time.Time{}, firstErr
}

// ParseOptionalTime returns nil for empty or malformed timestamps.
func ParseOptionalTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := ParseTime(s)
	if err != nil {
		return nil
	}
	return &t
}
