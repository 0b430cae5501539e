// Package server serves the sprint dashboard over HTTP.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"sprint-kpi/internal/pipeline"
	"sprint-kpi/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const (
	pageTitle       = "Sprint Disruption Metrics"
	loadTimeout     = 10 * time.Minute
	boardsTimeout   = 30 * time.Second
	shutdownTimeout = 5 * time.Second
)

// Options configure the dashboard server.
type Options struct {
	Addr          string
	DefaultBoards []string
	// RefreshCron is a five-field cron spec; empty disables scheduled reloads.
	RefreshCron string
	Series      report.SeriesOptions
	// Mock serves requests carrying mock=1; nil rejects them.
	Mock pipeline.Source
}

// Server serves reports from a source and keeps a snapshot of the default
// selection for requests that do not name boards.
type Server struct {
	source pipeline.Source
	opts   Options
	assets *assets
	engine *gin.Engine

	mu       sync.RWMutex
	snapshot *pipeline.Result

	refreshMu sync.Mutex
}

// New prepares the assets and routes of a server.
func New(source pipeline.Source, opts Options) (*Server, error) {
	a, err := loadAssets()
	if err != nil {
		return nil, err
	}
	s := &Server{source: source, opts: opts, assets: a}
	s.engine = s.routes()
	return s, nil
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) routes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Dur("elapsed", time.Since(start)).
			Msg("http")
	})

	r.GET("/", s.index)
	r.GET("/static/dashboard.js", s.script)
	r.GET("/charts", s.charts)
	r.GET("/api/report", s.report)
	r.GET("/api/boards", s.boards)
	r.GET("/healthz", s.healthz)
	return r
}

// Run serves until ctx is cancelled, reloading the snapshot on schedule.
func (s *Server) Run(ctx context.Context) error {
	sched, err := s.startRefresh()
	if err != nil {
		return err
	}
	if sched != nil {
		defer sched.Stop()
	}

	srv := &http.Server{Addr: s.opts.Addr, Handler: s.engine, ReadHeaderTimeout: 10 * time.Second}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.opts.Addr).Msg("Dashboard listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("dashboard server failed: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info().Msg("Shutting down dashboard")
		return srv.Shutdown(shutdownCtx)
	}
}

// selection reads the boards query parameter, which may repeat or hold a
// comma separated list.
func selection(c *gin.Context) []string {
	var out []string
	for _, v := range c.QueryArray("boards") {
		for _, b := range strings.Split(v, ",") {
			if b = strings.TrimSpace(b); b != "" && !slices.Contains(out, b) {
				out = append(out, b)
			}
		}
	}
	return out
}

// load resolves the request to a result: mock data, an explicit selection,
// or the default snapshot.
func (s *Server) load(c *gin.Context) (*pipeline.Result, error) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), loadTimeout)
	defer cancel()

	sel := selection(c)
	if c.Query("mock") == "1" {
		if s.opts.Mock == nil {
			return nil, errMockDisabled
		}
		return s.opts.Mock.Load(ctx, sel)
	}
	if len(sel) > 0 {
		return s.source.Load(ctx, sel)
	}
	if snap := s.Snapshot(); snap != nil {
		return snap, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return s.Snapshot(), nil
}

var errMockDisabled = errors.New("mock data is not enabled")

func (s *Server) fail(c *gin.Context, err error) {
	status := http.StatusBadGateway
	if errors.Is(err, errMockDisabled) {
		status = http.StatusBadRequest
	}
	log.Error().Err(err).Str("path", c.FullPath()).Msg("Request failed")
	c.JSON(status, gin.H{"error": err.Error()})
}
