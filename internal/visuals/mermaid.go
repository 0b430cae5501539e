// Package visuals renders report series as Mermaid xychart blocks for chat
// clients that cannot display HTML.
package visuals

import (
	"fmt"
	"math"
	"strings"

	"sprint-kpi/internal/report"
)

// xychart writes one fenced xychart-beta block.
type xychart struct {
	sb strings.Builder
}

func newXYChart(title string, labels []string, yLabel string, maxY float64) *xychart {
	c := &xychart{}
	quoted := make([]string, len(labels))
	for i, l := range labels {
		quoted[i] = fmt.Sprintf("%q", strings.ReplaceAll(l, `"`, "'"))
	}
	c.sb.WriteString("```mermaid\n")
	c.sb.WriteString("xychart-beta\n")
	c.sb.WriteString(fmt.Sprintf("    title %q\n", title))
	c.sb.WriteString(fmt.Sprintf("    x-axis [%s]\n", strings.Join(quoted, ", ")))
	c.sb.WriteString(fmt.Sprintf("    y-axis %q 0 --> %d\n", yLabel, axisMax(maxY)))
	return c
}

func (c *xychart) series(kind string, values []string) {
	c.sb.WriteString(fmt.Sprintf("    %s [%s]\n", kind, strings.Join(values, ", ")))
}

func (c *xychart) String() string {
	return c.sb.String() + "```"
}

// axisMax leaves 20% headroom and never collapses to zero.
func axisMax(v float64) int {
	return max(1, int(math.Ceil(v*1.2)))
}

func format[T int | float64](values []T) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = fmt.Sprintf("%.1f", float64(v))
	}
	return out
}

// VelocityChart plots completed points against the trailing average velocity.
func VelocityChart(b report.BoardSeries) string {
	if b.Len() == 0 {
		return ""
	}
	c := newXYChart(b.Label+": Completed SP vs Average Velocity", b.Labels, "Story Points", b.MaxY)
	c.series("bar", format(b.CompletedSP))
	c.series("line", format(b.AvgVelocity))
	return c.String()
}

// DisruptionChart plots pulled-in, moved-out and spillover counts per sprint.
func DisruptionChart(b report.BoardSeries) string {
	if b.Len() == 0 {
		return ""
	}
	maxY := 0
	for i := range b.Labels {
		maxY = max(maxY, b.PulledIn[i], b.MovedOut[i], b.Spillover[i])
	}
	c := newXYChart(b.Label+": Disruption (pulled in, moved out, spillover)", b.Labels, "Issues", float64(maxY))
	c.series("bar", format(b.PulledIn))
	c.series("line", format(b.MovedOut))
	c.series("line", format(b.Spillover))
	return c.String()
}

// ThroughputChart plots completed issues per sprint.
func ThroughputChart(b report.BoardSeries) string {
	if b.Len() == 0 {
		return ""
	}
	maxY := 0
	for _, v := range b.Throughput {
		maxY = max(maxY, v)
	}
	c := newXYChart(b.Label+": Throughput per Sprint", b.Labels, "Issues Completed", float64(maxY))
	c.series("bar", format(b.Throughput))
	return c.String()
}

// Charts joins every chart of every board, separated by blank lines.
func Charts(boards []report.BoardSeries) string {
	var blocks []string
	for _, b := range boards {
		for _, chart := range []string{VelocityChart(b), DisruptionChart(b), ThroughputChart(b)} {
			if chart != "" {
				blocks = append(blocks, chart)
			}
		}
	}
	return strings.Join(blocks, "\n\n")
}
