package timeline

import (
	"strings"
	"time"

	"sprint-kpi/internal/jira"
)

type membershipFacts struct {
	addedAt            *time.Time
	addedAfterStart    bool
	removedBeforeStart bool
	movedOut           bool
}

// references reports whether a Sprint field value names the window's sprint.
// Values are comma separated lists of ids (raw side) or names (display side).
func (w Window) references(values ...string) bool {
	for _, v := range values {
		for _, tok := range strings.Split(v, ",") {
			tok = strings.TrimSpace(tok)
			if tok == "" {
				continue
			}
			if (w.ID != "" && tok == w.ID) || (w.Name != "" && tok == w.Name) {
				return true
			}
		}
	}
	return false
}

// membership follows Sprint field changes to find when the issue joined or
// left the window's sprint.
func membership(issue jira.Issue, w Window) membershipFacts {
	var m membershipFacts
	inSprint, inAtStart := false, false
	beforeStart := func(t time.Time) bool { return w.HasStart() && t.Before(w.Start) }

	for _, ch := range issue.History {
		for _, it := range ch.Items {
			if it.Kind != jira.FieldSprint {
				continue
			}
			fromHas := w.references(it.From, it.FromString)
			toHas := w.references(it.To, it.ToString)

			switch {
			case fromHas && !toHas:
				if beforeStart(ch.At) {
					m.removedBeforeStart = true
				} else {
					m.movedOut = true
				}
				inSprint = false
			case !fromHas && toHas:
				if beforeStart(ch.At) {
					m.removedBeforeStart = false
					inSprint = true
				} else if !inSprint {
					inSprint = true
					at := ch.At
					m.addedAt = &at
				}
			}
		}
		if w.HasStart() && !ch.At.After(w.Start) {
			inAtStart = inSprint
		}
	}

	// Issues created straight into a running sprint carry no Sprint change.
	if m.addedAt == nil && w.HasStart() && issue.Created != nil && !inSprint && !issue.Created.Before(w.Start) {
		created := *issue.Created
		m.addedAt = &created
	}

	m.addedAfterStart = m.addedAt != nil && w.HasStart() && !m.addedAt.Before(w.Start) && !inAtStart
	return m
}
