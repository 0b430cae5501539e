package stats

import "slices"

// Zone is one horizontal band of the velocity rating chart.
type Zone struct {
	Name string  `json:"name"`
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
}

// Zone names from the bottom band up.
const (
	ZoneCritical    = "critical"
	ZoneLow         = "low"
	ZoneBelowTarget = "below-target"
	ZoneAboveTarget = "above-target"
	ZoneHigh        = "high"
	ZoneOutlier     = "outlier"
)

// RatingZones derives the six bands from a trailing window of completed points.
// It returns nil when the window is empty.
func RatingZones(window []float64) (zones []Zone, avg float64) {
	if len(window) == 0 {
		return nil, 0
	}
	avg = Mean(window)
	sd := StdDev(window, avg)
	floor := max(avg-2*sd, 0)
	top := max(slices.Max(window), avg+3*sd)

	return []Zone{
		{Name: ZoneCritical, Min: 0, Max: floor},
		{Name: ZoneLow, Min: floor, Max: avg - sd},
		{Name: ZoneBelowTarget, Min: avg - sd, Max: avg},
		{Name: ZoneAboveTarget, Min: avg, Max: avg + sd},
		{Name: ZoneHigh, Min: avg + sd, Max: avg + 2*sd},
		{Name: ZoneOutlier, Min: avg + 2*sd, Max: top},
	}, avg
}

// TrailingZones computes rating zones for every position of series, using the
// previous size values as the window for each one.
func TrailingZones(series []float64, size int) (zones [][]Zone, averages []float64) {
	zones = make([][]Zone, len(series))
	averages = make([]float64, len(series))
	for i := range series {
		start := max(0, i-size)
		zones[i], averages[i] = RatingZones(series[start:i])
	}
	return zones, averages
}
