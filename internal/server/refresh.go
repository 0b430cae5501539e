package server

import (
	"context"
	"fmt"

	"sprint-kpi/internal/pipeline"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Refresh reloads the default selection and swaps the snapshot.
func (s *Server) Refresh(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	res, err := s.source.Load(ctx, s.opts.DefaultBoards)
	if err != nil {
		return fmt.Errorf("failed to refresh sprint data: %w", err)
	}
	s.mu.Lock()
	s.snapshot = res
	s.mu.Unlock()
	log.Info().Int("sprints", len(res.Sprints)).Msg("Snapshot refreshed")
	return nil
}

// Snapshot returns the last refreshed result, or nil before the first refresh.
func (s *Server) Snapshot() *pipeline.Result {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot
}

func (s *Server) startRefresh() (*cron.Cron, error) {
	if s.opts.RefreshCron == "" {
		return nil, nil
	}
	c := cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)))
	if _, err := c.AddFunc(s.opts.RefreshCron, s.scheduledRefresh); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", s.opts.RefreshCron, err)
	}
	c.Start()
	log.Info().Str("schedule", s.opts.RefreshCron).Msg("Scheduled snapshot refresh")
	return c, nil
}

func (s *Server) scheduledRefresh() {
	ctx, cancel := context.WithTimeout(context.Background(), loadTimeout)
	defer cancel()
	if err := s.Refresh(ctx); err != nil {
		log.Error().Err(err).Msg("cron: refresh failed")
	}
}
