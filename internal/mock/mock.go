// Package mock generates sprint data for demos and tests without a Jira instance.
package mock

import (
	"fmt"
	"math"
	"math/rand"
	"time"

	"sprint-kpi/internal/sprint"
)

const (
	ScenarioFixed = "fixed"
	ScenarioNoisy = "noisy"

	// Source marks the totals of generated sprints.
	Source = "mock data"
)

// Config controls the generator.
type Config struct {
	// Scenario is ScenarioFixed (the same seven issues every sprint) or
	// ScenarioNoisy (randomized estimates and disruptions).
	Scenario string
	Boards   []string
	Sprints  int
	Now      time.Time
	Seed     int64
}

// DefaultBoards are the boards generated when none are given.
var DefaultBoards = []string{"SCO", "MCO"}

// Generate returns the mock sprints and the board labels. Sprint i of board b
// starts b*60+i*14 days before Now and is numbered from the most recent down.
func Generate(cfg Config) ([]sprint.Sprint, map[string]string) {
	if cfg.Now.IsZero() {
		cfg.Now = time.Now()
	}
	if len(cfg.Boards) == 0 {
		cfg.Boards = DefaultBoards
	}
	if cfg.Sprints <= 0 {
		cfg.Sprints = 6
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	labels := make(map[string]string, len(cfg.Boards))
	var out []sprint.Sprint
	for bi, board := range cfg.Boards {
		labels[board] = board
		for i := 0; i < cfg.Sprints; i++ {
			number := cfg.Sprints - i
			start := cfg.Now.AddDate(0, 0, -(bi*60 + i*14))

			var events []sprint.Event
			if cfg.Scenario == ScenarioNoisy {
				events = noisyEvents(rng, board, number)
			} else {
				events = fixedEvents(board, number)
			}

			name := fmt.Sprintf("%s Sprint %d", board, number)
			s := sprint.New(sprint.Header{
				Board:     board,
				ID:        board + "-" + name,
				Name:      name,
				StartDate: start,
			}, events)
			s.InitiallyPlannedSource = Source
			s.CompletedSource = Source
			out = append(out, s)
		}
	}
	return out, labels
}

type eventOpts struct {
	addedAfterStart bool
	blocked         bool
	blockedDays     int
	movedOut        bool
	completed       bool
	piRelevant      bool
	cycleTime       int
}

func makeEvent(key string, points float64, o eventOpts) sprint.Event {
	initial, completed := points, points
	ev := sprint.Event{
		Key:             key,
		Points:          points,
		InitialPoints:   &initial,
		CompletedPoints: &completed,
		AddedAfterStart: o.addedAfterStart,
		Blocked:         o.blocked,
		BlockedDays:     o.blockedDays,
		MovedOut:        o.movedOut,
		Completed:       o.completed && !o.movedOut,
		PIRelevant:      o.piRelevant,
	}
	if o.cycleTime > 0 {
		ct := o.cycleTime
		ev.CycleTime = &ct
	}
	return ev
}

func fixedEvents(board string, number int) []sprint.Event {
	key := func(s string) string { return fmt.Sprintf("%s-%d-%s", board, number, s) }
	return []sprint.Event{
		makeEvent(key("A"), 5, eventOpts{completed: true, piRelevant: true, cycleTime: 4}),
		makeEvent(key("B"), 8, eventOpts{completed: true, cycleTime: 6}),
		makeEvent(key("C"), 3, eventOpts{blocked: true, blockedDays: 2}),
		makeEvent(key("D"), 5, eventOpts{completed: true, addedAfterStart: true}),
		makeEvent(key("E"), 2, eventOpts{movedOut: true}),
		makeEvent(key("F"), 8, eventOpts{completed: true, piRelevant: true}),
		makeEvent(key("G"), 3, eventOpts{}),
	}
}

var fibonacci = []float64{1, 2, 3, 5, 8, 13}

func noisyEvents(rng *rand.Rand, board string, number int) []sprint.Event {
	count := 6 + rng.Intn(6)
	events := make([]sprint.Event, 0, count)
	for j := 0; j < count; j++ {
		o := eventOpts{
			addedAfterStart: rng.Float64() < 0.2,
			movedOut:        rng.Float64() < 0.1,
			completed:       rng.Float64() < 0.75,
			piRelevant:      rng.Float64() < 0.4,
		}
		if rng.Float64() < 0.15 {
			o.blocked = true
			o.blockedDays = 1 + rng.Intn(5)
		}
		if o.completed {
			// Weibull distributed cycle time, roughly 5 business days at the mode.
			o.cycleTime = max(1, int(math.Round(weibullSample(rng, 2.0, 6.0))))
		}
		key := fmt.Sprintf("%s-%d-%d", board, number, j+1)
		events = append(events, makeEvent(key, fibonacci[rng.Intn(len(fibonacci))], o))
	}
	return events
}

func weibullSample(rng *rand.Rand, k, lambda float64) float64 {
	u := rng.Float64()
	if u == 0 {
		u = 0.0001
	}
	return lambda * math.Pow(-math.Log(1.0-u), 1.0/k)
}
