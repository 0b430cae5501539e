package sprint

// Metrics are the disruption figures of one sprint.
type Metrics struct {
	PulledIn       float64  `json:"pulledIn"`
	PulledInCount  int      `json:"pulledInCount"`
	PulledInIssues []string `json:"pulledInIssues"`

	BlockedDays   int      `json:"blockedDays"`
	BlockedCount  int      `json:"blockedCount"`
	BlockedIssues []string `json:"blockedIssues"`

	MovedOut       float64  `json:"movedOut"`
	MovedOutCount  int      `json:"movedOutCount"`
	MovedOutIssues []string `json:"movedOutIssues"`

	Spillover       float64  `json:"spillover"`
	SpilloverCount  int      `json:"spilloverCount"`
	SpilloverIssues []string `json:"spilloverIssues"`

	SpilloverPulledInCount  int      `json:"spilloverPulledInCount"`
	SpilloverPulledInIssues []string `json:"spilloverPulledInIssues"`
}

func isPulledIn(ev Event) bool  { return ev.AddedAfterStart && !ev.MovedOut }
func isSpillover(ev Event) bool { return !ev.Completed && !ev.MovedOut }

// Calculate reduces a board sprint's events to its metrics. Counts are event
// counts; issue lists skip empty keys.
func Calculate(events []Event) Metrics {
	m := emptyMetrics()
	for _, ev := range events {
		if isPulledIn(ev) {
			m.PulledIn += ev.Points
			m.PulledInCount++
			m.PulledInIssues = appendKey(m.PulledInIssues, ev.Key)
		}
		if ev.Blocked {
			m.BlockedDays += ev.BlockedDays
			m.BlockedCount++
			m.BlockedIssues = appendKey(m.BlockedIssues, ev.Key)
		}
		if ev.MovedOut {
			m.MovedOut += ev.Points
			m.MovedOutCount++
			m.MovedOutIssues = appendKey(m.MovedOutIssues, ev.Key)
		}
		if isSpillover(ev) {
			m.Spillover += ev.Points
			m.SpilloverCount++
			m.SpilloverIssues = appendKey(m.SpilloverIssues, ev.Key)
		}
	}
	m.SpilloverPulledInIssues = intersect(m.SpilloverIssues, m.PulledInIssues)
	m.SpilloverPulledInCount = len(m.SpilloverPulledInIssues)
	return m
}

// CalculateDistinct is Calculate for events concatenated from several boards.
// Point and day sums stay per event; issue lists and counts collapse by key.
func CalculateDistinct(events []Event) Metrics {
	m := emptyMetrics()
	var pulled, blocked, moved, spill keySet
	for _, ev := range events {
		if isPulledIn(ev) {
			m.PulledIn += ev.Points
			pulled.add(ev.Key)
		}
		if ev.Blocked {
			m.BlockedDays += ev.BlockedDays
			blocked.add(ev.Key)
		}
		if ev.MovedOut {
			m.MovedOut += ev.Points
			moved.add(ev.Key)
		}
		if isSpillover(ev) {
			m.Spillover += ev.Points
			spill.add(ev.Key)
		}
	}

	m.PulledInIssues, m.PulledInCount = pulled.keys(), len(pulled.order)
	m.BlockedIssues, m.BlockedCount = blocked.keys(), len(blocked.order)
	m.MovedOutIssues, m.MovedOutCount = moved.keys(), len(moved.order)
	m.SpilloverIssues, m.SpilloverCount = spill.keys(), len(spill.order)
	m.SpilloverPulledInIssues = intersect(m.SpilloverIssues, m.PulledInIssues)
	m.SpilloverPulledInCount = len(m.SpilloverPulledInIssues)
	return m
}

func emptyMetrics() Metrics {
	return Metrics{
		PulledInIssues:          []string{},
		BlockedIssues:           []string{},
		MovedOutIssues:          []string{},
		SpilloverIssues:         []string{},
		SpilloverPulledInIssues: []string{},
	}
}

func appendKey(keys []string, key string) []string {
	if key == "" {
		return keys
	}
	return append(keys, key)
}

// intersect returns the distinct keys of a that also occur in b, in a's order.
func intersect(a, b []string) []string {
	in := make(map[string]bool, len(b))
	for _, k := range b {
		in[k] = true
	}
	var out keySet
	for _, k := range a {
		if in[k] {
			out.add(k)
		}
	}
	return out.keys()
}

// keySet is an insertion-ordered set of non-empty issue keys.
type keySet struct {
	seen  map[string]bool
	order []string
}

func (s *keySet) add(key string) {
	if key == "" || s.seen[key] {
		return
	}
	if s.seen == nil {
		s.seen = make(map[string]bool)
	}
	s.seen[key] = true
	s.order = append(s.order, key)
}

func (s *keySet) keys() []string {
	if s.order == nil {
		return []string{}
	}
	return s.order
}
