package pipeline

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"

	"sprint-kpi/internal/jira"
	"sprint-kpi/internal/rollup"
	"sprint-kpi/internal/sprint"
	"sprint-kpi/internal/timeline"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

// In-flight request limits per fan-out level.
const (
	boardConcurrency  = 3
	sprintConcurrency = 2
	issueConcurrency  = 10
)

// Loader fetches board sprints from Jira and classifies their issues.
type Loader struct {
	client      jira.Client
	pointsField string
	opts        Options
	epics       EpicMemo
	epicFlight  singleflight.Group
	now         func() time.Time
}

// NewLoader creates a Loader. A nil memo disables epic memoization.
func NewLoader(client jira.Client, pointsField string, opts Options, epics EpicMemo) *Loader {
	if epics == nil {
		epics = noMemo{}
	}
	if pointsField == "" {
		pointsField = jira.DefaultPointsField
	}
	return &Loader{
		client:      client,
		pointsField: pointsField,
		opts:        opts.withDefaults(),
		epics:       epics,
		now:         time.Now,
	}
}

// Boards lists the Jira boards followed by the configured groups.
func (l *Loader) Boards(ctx context.Context) ([]Board, error) {
	dtos, err := l.client.ListBoards(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list boards: %w", err)
	}
	out := make([]Board, 0, len(dtos)+len(l.opts.Groups))
	for _, b := range dtos {
		out = append(out, Board{ID: strconv.Itoa(b.ID), Name: b.Name})
	}
	return append(out, l.opts.groupBoards()...), nil
}

// Load fetches every board of the selection. Failures of single boards,
// sprints or issues are logged and skipped; only cancellation fails the load.
func (l *Loader) Load(ctx context.Context, selection []string) (*Result, error) {
	exp := rollup.Expand(selection, l.opts.Groups)
	log.Info().Strs("selection", selection).Strs("boards", exp.Boards).Msg("Loading sprint data")

	run := &loadRun{Loader: l, now: l.now(), issues: make(map[string]issueDetail)}

	var (
		mu      sync.Mutex
		sprints []sprint.Sprint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(boardConcurrency)
	for _, board := range exp.Boards {
		g.Go(func() error {
			got := run.board(gctx, board)
			mu.Lock()
			sprints = append(sprints, got...)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	labels := l.labels(ctx, exp.Boards)
	log.Info().Int("sprints", len(sprints)).Int("issues", len(run.issues)).Msg("Sprint data loaded")
	return finish(selection, sprints, exp, labels, l.opts, run.now), nil
}

// labels resolves board names. A failed lookup leaves the ids as labels.
func (l *Loader) labels(ctx context.Context, boards []string) map[string]string {
	labels := make(map[string]string, len(boards))
	dtos, err := l.client.ListBoards(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("Board names unavailable")
		return labels
	}
	wanted := make(map[string]bool, len(boards))
	for _, b := range boards {
		wanted[b] = true
	}
	for _, b := range dtos {
		if id := strconv.Itoa(b.ID); wanted[id] {
			labels[id] = b.Name
		}
	}
	return labels
}

// issueDetail is one cached issue lookup.
type issueDetail struct {
	detail sprint.Detail
	err    error
}

// loadRun holds the per-load issue cache.
type loadRun struct {
	*Loader
	now time.Time

	mu     sync.Mutex
	issues map[string]issueDetail
	flight singleflight.Group
}

func (r *loadRun) board(ctx context.Context, board string) []sprint.Sprint {
	id, err := strconv.Atoi(board)
	if err != nil {
		log.Warn().Str("board", board).Msg("Skipping non-numeric board id")
		return nil
	}

	metas, err := r.closedSprints(ctx, id)
	if err != nil {
		log.Error().Err(err).Str("board", board).Msg("Failed to list sprints")
		return nil
	}
	metas = sprint.SelectRecent(metas, nil, r.opts.DisplaySprintCount+r.opts.RatingWindow)
	log.Debug().Str("board", board).Int("sprints", len(metas)).Msg("Selected closed sprints")

	var (
		mu  sync.Mutex
		out []sprint.Sprint
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(sprintConcurrency)
	for _, m := range metas {
		g.Go(func() error {
			s, err := r.sprint(gctx, board, id, m)
			if err != nil {
				log.Error().Err(err).Str("board", board).Int("sprint", m.ID).Msg("Sprint fetch failed")
				return nil
			}
			mu.Lock()
			out = append(out, s)
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	return out
}

// closedSprints prefers the velocity report and falls back to the sprint list.
func (r *loadRun) closedSprints(ctx context.Context, board int) ([]sprint.Meta, error) {
	if v, err := r.client.GetVelocity(ctx, board); err != nil {
		log.Warn().Err(err).Int("board", board).Msg("Velocity report unavailable, falling back to sprint list")
	} else if closed := sprint.ClosedOnBoard(metas(v.Sprints), board); len(closed) > 0 {
		return closed, nil
	}

	list, err := r.client.ListSprints(ctx, board)
	if err != nil {
		return nil, err
	}
	return sprint.ClosedOnBoard(metas(list), board), nil
}

func metas(dtos []jira.SprintDTO) []sprint.Meta {
	out := make([]sprint.Meta, 0, len(dtos))
	for _, d := range dtos {
		out = append(out, sprint.MetaFromDTO(d))
	}
	return out
}

func (r *loadRun) sprint(ctx context.Context, board string, boardID int, m sprint.Meta) (sprint.Sprint, error) {
	dto, err := r.client.GetSprintReport(ctx, boardID, m.ID)
	if err != nil {
		return sprint.Sprint{}, err
	}
	base := sprint.BaseEvents(sprint.ReportFromDTO(dto), r.opts.KeyPrefixes[board])
	window := timeline.NewWindow(m.ID, m.Name, m.StartDate, m.ClosedEnd())

	details := make(map[string]sprint.Detail, len(base))
	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(issueConcurrency)
	for _, ev := range base {
		if ev.Key == "" {
			continue
		}
		g.Go(func() error {
			d, err := r.issue(gctx, ev.Key)
			if err != nil {
				log.Warn().Err(err).Str("issue", ev.Key).Str("board", board).Msg("Issue detail unavailable")
				return nil
			}
			mu.Lock()
			details[ev.Key] = d
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return sprint.Sprint{}, err
	}

	events := sprint.Classify(base, details, window, r.now)
	return sprint.New(sprint.Header{
		Board:        board,
		ID:           strconv.Itoa(m.ID),
		Name:         m.Name,
		StartDate:    m.StartDate,
		EndDate:      m.EndDate,
		CompleteDate: m.CompleteDate,
	}, events), nil
}

// issue returns the history of one issue, fetching it at most once per load.
func (r *loadRun) issue(ctx context.Context, key string) (sprint.Detail, error) {
	r.mu.Lock()
	cached, ok := r.issues[key]
	r.mu.Unlock()
	if ok {
		return cached.detail, cached.err
	}

	v, _, _ := r.flight.Do(key, func() (any, error) {
		r.mu.Lock()
		d, ok := r.issues[key]
		r.mu.Unlock()
		if ok {
			return d, nil
		}
		dto, err := r.client.GetIssue(ctx, key)
		if err != nil {
			d.err = err
		} else {
			issue := jira.MapIssue(*dto, r.pointsField)
			d.detail = sprint.Detail{Issue: issue, PIRelevant: r.piRelevant(ctx, issue.ParentKey)}
		}
		if ctx.Err() == nil {
			r.mu.Lock()
			r.issues[key] = d
			r.mu.Unlock()
		}
		return d, nil
	})
	d := v.(issueDetail)
	return d.detail, d.err
}

// piRelevant reports whether parent is an epic carrying a PI commitment label.
func (r *loadRun) piRelevant(ctx context.Context, parent string) bool {
	if parent == "" {
		return false
	}
	info, ok := r.epics.Get(parent)
	if !ok {
		v, err, _ := r.epicFlight.Do(parent, func() (any, error) {
			if info, ok := r.epics.Get(parent); ok {
				return info, nil
			}
			dto, err := r.client.GetEpic(ctx, parent)
			if err != nil {
				return EpicInfo{}, err
			}
			info := EpicInfoFromDTO(dto)
			r.epics.Put(parent, info)
			return info, nil
		})
		if err != nil {
			log.Debug().Err(err).Str("issue", parent).Msg("Epic lookup failed")
			return false
		}
		info = v.(EpicInfo)
	}
	return info.PIRelevant(r.opts.PILabel)
}
