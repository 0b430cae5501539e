package report

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"

	"sprint-kpi/internal/stats"
)

const (
	chartWidth  = "100%"
	chartHeight = "420px"
	lineWidth   = 2
	zoneOpacity = 0.25
)

// Series colors follow the dashboard palette.
const (
	colorPI        = "#1f77b4"
	colorOther     = "#aec7e8"
	colorInitial   = "#2ca02c"
	colorCompleted = "#ff7f0e"
	colorAverage   = "#7f7f7f"
	colorPulledIn  = "#9467bd"
	colorBlocked   = "#d62728"
	colorMovedOut  = "#8c564b"
	colorSpillover = "#e377c2"
	colorBoth      = "#bcbd22"
)

var zoneColors = map[string]string{
	stats.ZoneCritical:    "#d9534f",
	stats.ZoneLow:         "#f0ad4e",
	stats.ZoneBelowTarget: "#ffe08a",
	stats.ZoneAboveTarget: "#b5e48c",
	stats.ZoneHigh:        "#52b788",
	stats.ZoneOutlier:     "#6fa8dc",
}

var zoneOrder = []string{
	stats.ZoneCritical, stats.ZoneLow, stats.ZoneBelowTarget,
	stats.ZoneAboveTarget, stats.ZoneHigh, stats.ZoneOutlier,
}

// WriteCharts renders an HTML page with the five charts of every board.
func WriteCharts(w io.Writer, title string, boards []BoardSeries) error {
	page := components.NewPage()
	page.PageTitle = title
	for _, b := range boards {
		page.AddCharts(
			plannedChart(b),
			ratingChart(b),
			throughputChart(b),
			cycleTimeChart(b),
			disruptionChart(b),
		)
	}
	if err := page.Render(w); err != nil {
		return fmt.Errorf("render charts: %w", err)
	}
	return nil
}

func globalOpts(b BoardSeries, title string) []charts.GlobalOpts {
	return []charts.GlobalOpts{
		charts.WithInitializationOpts(opts.Initialization{Width: chartWidth, Height: chartHeight}),
		charts.WithTitleOpts(opts.Title{Title: b.Label + ": " + title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true), Type: "scroll", Top: "30px"}),
		charts.WithGridOpts(opts.Grid{Top: "80", ContainLabel: opts.Bool(true)}),
	}
}

func barData[T int | float64](values []T) []opts.BarData {
	out := make([]opts.BarData, len(values))
	for i, v := range values {
		out[i] = opts.BarData{Value: v}
	}
	return out
}

func lineData(values []float64) []opts.LineData {
	out := make([]opts.LineData, len(values))
	for i, v := range values {
		out[i] = opts.LineData{Value: v}
	}
	return out
}

func barColor(color string) charts.SeriesOpts {
	return charts.WithItemStyleOpts(opts.ItemStyle{Color: color})
}

func stack(name string) charts.SeriesOpts {
	return charts.WithBarChartOpts(opts.BarChart{Stack: name})
}

func plannedChart(b BoardSeries) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(b, "Initially planned & completed")...)
	bar.SetXAxis(b.Labels)
	bar.AddSeries("Initially Planned PI contributions", barData(b.PlannedPI), stack("planned"), barColor(colorPI)).
		AddSeries("Initially Planned other", barData(b.PlannedOther), stack("planned"), barColor(colorOther)).
		AddSeries("Initial Plan completed", barData(b.InitialCompleted), barColor(colorInitial)).
		AddSeries("Completed PI contributions", barData(b.CompletedPI), stack("completed"), barColor(colorPI)).
		AddSeries("Completed other", barData(b.CompletedOther), stack("completed"), barColor(colorOther))
	return bar
}

// ratingChart stacks the zone bands as filled areas under the velocity lines.
func ratingChart(b BoardSeries) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(append(globalOpts(b, "Rating Zone Chart"),
		charts.WithYAxisOpts(opts.YAxis{Name: "SP", Min: 0, Max: b.MaxY}),
	)...)
	line.SetXAxis(b.Labels)

	for zi, name := range zoneOrder {
		data := make([]opts.LineData, b.Len())
		for i, zones := range b.Zones {
			if len(zones) != len(zoneOrder) {
				data[i] = opts.LineData{Value: "-"}
				continue
			}
			data[i] = opts.LineData{Value: max(0, zones[zi].Max-zones[zi].Min)}
		}
		line.AddSeries(name, data,
			charts.WithLineChartOpts(opts.LineChart{Stack: "zones", ShowSymbol: opts.Bool(false)}),
			charts.WithAreaStyleOpts(opts.AreaStyle{Color: zoneColors[name], Opacity: opts.Float(zoneOpacity)}),
			charts.WithLineStyleOpts(opts.LineStyle{Width: 0, Opacity: opts.Float(0)}),
			charts.WithItemStyleOpts(opts.ItemStyle{Color: zoneColors[name]}),
		)
	}

	line.AddSeries("Completed SP", lineData(b.CompletedSP),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorCompleted}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	line.AddSeries("Average Velocity", lineData(b.AvgVelocity),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorAverage}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth, Type: "dashed"}),
	)
	return line
}

func throughputChart(b BoardSeries) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(b, "Throughput per Sprint")...)
	bar.SetXAxis(b.Labels)
	bar.AddSeries("Throughput", barData(b.Throughput), barColor(colorInitial))
	return bar
}

func cycleTimeChart(b BoardSeries) *charts.Line {
	line := charts.NewLine()
	line.SetGlobalOptions(append(globalOpts(b, "Cycle Time (5-sprint median)"),
		charts.WithYAxisOpts(opts.YAxis{Name: "days"}),
	)...)
	line.SetXAxis(b.Labels)

	data := make([]opts.LineData, len(b.CycleTime))
	for i, v := range b.CycleTime {
		if v == nil {
			data[i] = opts.LineData{Value: "-"}
			continue
		}
		data[i] = opts.LineData{Value: *v}
	}
	line.AddSeries("Cycle Time", data,
		charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true), ConnectNulls: opts.Bool(true)}),
		charts.WithItemStyleOpts(opts.ItemStyle{Color: colorPI}),
		charts.WithLineStyleOpts(opts.LineStyle{Width: lineWidth}),
	)
	return line
}

func disruptionChart(b BoardSeries) *charts.Bar {
	bar := charts.NewBar()
	bar.SetGlobalOptions(globalOpts(b, "Disruption Metrics")...)
	bar.SetXAxis(b.Labels)
	bar.AddSeries("Pulled In Issues", barData(b.PulledIn), barColor(colorPulledIn)).
		AddSeries("Blocked Days", barData(b.BlockedDays), barColor(colorBlocked)).
		AddSeries("Moved Out Issues", barData(b.MovedOut), barColor(colorMovedOut)).
		AddSeries("Spillover Issues", barData(b.SpilloverOnly), stack("spillover"), barColor(colorSpillover)).
		AddSeries("Spillover & Pulled In Issues", barData(b.SpilloverPulledIn), stack("spillover"), barColor(colorBoth))
	return bar
}
