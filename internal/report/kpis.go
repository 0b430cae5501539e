// Package report derives chart series, table rows and velocity figures from
// sprint snapshots and renders them as text or HTML.
package report

import (
	"math"
	"time"

	"sprint-kpi/internal/rollup"
	"sprint-kpi/internal/sprint"
	"sprint-kpi/internal/stats"
)

// DefaultCycleTimeWindow is the number of sprints in the rolling median.
const DefaultCycleTimeWindow = 5

// SeriesOptions tune the derived chart series.
type SeriesOptions struct {
	RatingWindow    int
	CycleTimeStart  time.Time
	CycleTimeWindow int
}

func (o SeriesOptions) withDefaults() SeriesOptions {
	if o.RatingWindow <= 0 {
		o.RatingWindow = 4
	}
	if o.CycleTimeWindow <= 0 {
		o.CycleTimeWindow = DefaultCycleTimeWindow
	}
	return o
}

// BoardSeries holds the chart series of one board or group, one entry per
// displayed sprint.
type BoardSeries struct {
	Board  string   `json:"board"`
	Label  string   `json:"label"`
	Labels []string `json:"labels"`

	CompletedSP      []float64 `json:"completedSP"`
	PlannedPI        []float64 `json:"plannedPI"`
	PlannedOther     []float64 `json:"plannedOther"`
	CompletedPI      []float64 `json:"completedPI"`
	CompletedOther   []float64 `json:"completedOther"`
	InitialCompleted []float64 `json:"initialCompleted"`

	Throughput []int `json:"throughput"`
	// CycleTime is nil where the sprint is not eligible or has no samples.
	CycleTime []*float64 `json:"cycleTime"`

	PulledIn          []int     `json:"pulledIn"`
	Blocked           []int     `json:"blocked"`
	BlockedDays       []float64 `json:"blockedDays"`
	MovedOut          []int     `json:"movedOut"`
	Spillover         []int     `json:"spillover"`
	SpilloverPulledIn []int     `json:"spilloverPulledIn"`
	SpilloverOnly     []int     `json:"spilloverOnly"`

	Zones       [][]stats.Zone `json:"zones"`
	AvgVelocity []float64      `json:"avgVelocity"`
	MaxY        float64        `json:"maxY"`
}

// Len is the number of displayed sprints.
func (b BoardSeries) Len() int { return len(b.Labels) }

// BuildBoardSeries derives the series of one board. display is the tail of
// all that is shown; rating zones use the full history.
func BuildBoardSeries(display, all []sprint.Sprint, opts SeriesOptions) BoardSeries {
	opts = opts.withDefaults()
	n := len(display)
	out := BoardSeries{
		Labels:            make([]string, n),
		PlannedPI:         make([]float64, n),
		PlannedOther:      make([]float64, n),
		CompletedPI:       make([]float64, n),
		CompletedOther:    make([]float64, n),
		InitialCompleted:  make([]float64, n),
		Throughput:        make([]int, n),
		CycleTime:         make([]*float64, n),
		PulledIn:          make([]int, n),
		Blocked:           make([]int, n),
		BlockedDays:       make([]float64, n),
		MovedOut:          make([]int, n),
		Spillover:         make([]int, n),
		SpilloverPulledIn: make([]int, n),
		SpilloverOnly:     make([]int, n),
	}
	if n > 0 {
		out.Board = display[0].Board
	}

	for i, s := range display {
		out.Labels[i] = s.Name
		m := s.Metrics
		out.PulledIn[i] = m.PulledInCount
		out.Blocked[i] = m.BlockedCount
		out.BlockedDays[i] = stats.CeilTenth(float64(m.BlockedDays))
		out.MovedOut[i] = m.MovedOutCount
		out.Spillover[i] = m.SpilloverCount
		out.SpilloverPulledIn[i] = m.SpilloverPulledInCount
		out.SpilloverOnly[i] = m.SpilloverCount - m.SpilloverPulledInCount

		for _, ev := range s.Events {
			if ev.InInitialPlan() {
				if ev.PIRelevant {
					out.PlannedPI[i] += ev.PlannedPoints()
				} else {
					out.PlannedOther[i] += ev.PlannedPoints()
				}
				if !ev.MovedOut && ev.Completed {
					out.InitialCompleted[i] += ev.DeliveredPoints()
				}
			}
			if ev.Completed {
				out.Throughput[i]++
				if ev.PIRelevant {
					out.CompletedPI[i] += ev.DeliveredPoints()
				}
			}
		}
		out.CompletedOther[i] = max(0, s.Completed-out.CompletedPI[i])
		out.CycleTime[i] = rollingCycleTime(display, i, opts)
	}

	completedAll := make([]float64, len(all))
	for i, s := range all {
		completedAll[i] = s.Completed
	}
	zones, avgs := stats.TrailingZones(completedAll, opts.RatingWindow)
	tail := max(len(all)-n, 0)
	out.CompletedSP = completedAll[tail:]
	out.Zones = zones[tail:]
	out.AvgVelocity = avgs[tail:]
	out.MaxY = stretchTopBands(out.CompletedSP, out.Zones, out.AvgVelocity)
	return out
}

// rollingCycleTime is the median cycle time over sprint idx and the previous
// window-1 displayed sprints that start after the cycle-time start.
func rollingCycleTime(display []sprint.Sprint, idx int, opts SeriesOptions) *float64 {
	start := display[idx].StartDate
	if start.IsZero() || !start.After(opts.CycleTimeStart) {
		return nil
	}
	var samples []int
	for _, s := range display[max(0, idx-opts.CycleTimeWindow+1) : idx+1] {
		if !s.StartDate.After(opts.CycleTimeStart) {
			continue
		}
		for _, ev := range s.Events {
			if ev.CycleTime != nil {
				samples = append(samples, *ev.CycleTime)
			}
		}
	}
	if len(samples) == 0 {
		return nil
	}
	median := stats.RoundTenth(stats.MedianDiscrete(samples))
	return &median
}

// stretchTopBands returns the chart maximum and extends every top band to it.
func stretchTopBands(completed []float64, zones [][]stats.Zone, avgs []float64) float64 {
	maxY := 0.0
	for _, v := range completed {
		maxY = max(maxY, v)
	}
	for _, v := range avgs {
		maxY = max(maxY, v)
	}
	for _, z := range zones {
		if len(z) > 0 {
			maxY = max(maxY, z[len(z)-1].Max)
		}
	}
	for _, z := range zones {
		if len(z) > 0 {
			z[len(z)-1].Max = maxY
		}
	}
	return maxY
}

// BuildAll derives one BoardSeries per entry of the series, in the order the
// entries first appear in the display series.
func BuildAll(series rollup.Series, label func(string) string, opts SeriesOptions) []BoardSeries {
	display := rollup.ByBoard(series.Display)
	history := rollup.ByBoard(series.History)

	var out []BoardSeries
	seen := make(map[string]bool)
	for _, s := range series.Display {
		if seen[s.Board] {
			continue
		}
		seen[s.Board] = true
		all := history[s.Board]
		if len(all) == 0 {
			all = display[s.Board]
		}
		b := BuildBoardSeries(display[s.Board], all, opts)
		b.Label = s.Board
		if label != nil {
			b.Label = label(s.Board)
		}
		out = append(out, b)
	}
	return out
}

// Velocity summarizes delivery over a set of sprints.
type Velocity struct {
	SprintCount    int     `json:"sprintCount"`
	TotalCompleted int     `json:"totalCompleted"`
	Throughput     float64 `json:"throughput"`
	// MeanCycleTime is nil when no completed event has a cycle time.
	MeanCycleTime    *float64 `json:"meanCycleTime,omitempty"`
	CycleTimeSamples int      `json:"cycleTimeSamples"`
}

// VelocityStats counts completed events per sprint and averages the cycle
// time of completed events in sprints starting after cycleTimeStart.
func VelocityStats(all []sprint.Sprint, cycleTimeStart time.Time) Velocity {
	v := Velocity{SprintCount: len(all)}
	var cycle []float64
	for _, s := range all {
		eligible := !s.StartDate.IsZero() && s.StartDate.After(cycleTimeStart)
		for _, ev := range s.Events {
			if !ev.Completed {
				continue
			}
			v.TotalCompleted++
			if eligible && ev.CycleTime != nil {
				cycle = append(cycle, float64(*ev.CycleTime))
			}
		}
	}
	if v.SprintCount > 0 {
		v.Throughput = math.Round(float64(v.TotalCompleted)/float64(v.SprintCount)*100) / 100
	}
	if len(cycle) > 0 {
		mean := stats.CeilTenth(stats.Mean(cycle))
		v.MeanCycleTime = &mean
		v.CycleTimeSamples = len(cycle)
	}
	return v
}
