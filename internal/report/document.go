package report

import (
	"time"

	"sprint-kpi/internal/pipeline"
)

// Document is everything one report shows for a loaded selection.
type Document struct {
	Selection     []string            `json:"selection"`
	LoadedAt      time.Time           `json:"loadedAt"`
	Labels        map[string]string   `json:"labels"`
	BoardToGroups map[string][]string `json:"boardToGroups"`
	Boards        []BoardSeries       `json:"boards"`
	Rows          []Row               `json:"rows"`
	Velocity      Velocity            `json:"velocity"`
}

// Build derives the charts, rows and velocity of a load result. Rows cover
// the displayed sprints; velocity covers the full history.
func Build(res *pipeline.Result, opts SeriesOptions) Document {
	return Document{
		Selection:     res.Selection,
		LoadedAt:      res.LoadedAt,
		Labels:        res.Labels,
		BoardToGroups: res.BoardToGroups,
		Boards:        BuildAll(res.Series, res.Label, opts),
		Rows:          Rows(res.Series.Display, res.Label),
		Velocity:      VelocityStats(res.Series.History, opts.CycleTimeStart),
	}
}
