package pipeline

import (
	"regexp"
	"strings"
	"sync"

	"sprint-kpi/internal/jira"
)

// EpicInfo is what a parent lookup contributes to an issue.
type EpicInfo struct {
	IsEpic bool
	Labels []string
}

// EpicInfoFromDTO reads an epic lookup response.
func EpicInfoFromDTO(dto *jira.IssueDTO) EpicInfo {
	return EpicInfo{
		IsEpic: strings.EqualFold(dto.Fields.IssueType.Name, "epic"),
		Labels: dto.Fields.Labels,
	}
}

// PIRelevant reports whether the info describes an epic with a program
// increment commitment label.
func (e EpicInfo) PIRelevant(re *regexp.Regexp) bool {
	if !e.IsEpic || re == nil {
		return false
	}
	for _, l := range e.Labels {
		if re.MatchString(l) {
			return true
		}
	}
	return false
}

// EpicMemo remembers epic lookups across loads. Lookups that failed are never stored.
type EpicMemo interface {
	Get(key string) (EpicInfo, bool)
	Put(key string, info EpicInfo)
}

// MapMemo is an in-memory EpicMemo safe for concurrent use.
type MapMemo struct {
	mu    sync.RWMutex
	items map[string]EpicInfo
}

func NewMapMemo() *MapMemo {
	return &MapMemo{items: make(map[string]EpicInfo)}
}

func (m *MapMemo) Get(key string) (EpicInfo, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	info, ok := m.items[key]
	return info, ok
}

func (m *MapMemo) Put(key string, info EpicInfo) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = info
}

// Len returns the number of remembered epics.
func (m *MapMemo) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// noMemo disables memoization.
type noMemo struct{}

func (noMemo) Get(string) (EpicInfo, bool) { return EpicInfo{}, false }
func (noMemo) Put(string, EpicInfo)        {}
