package server

import (
	"context"
	"net/http"
	"slices"

	"sprint-kpi/internal/report"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

type indexBoard struct {
	ID       string
	Name     string
	Group    bool
	Selected bool
}

type indexData struct {
	Title  string
	Boards []indexBoard
	Mock   bool
}

func (s *Server) index(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), boardsTimeout)
	defer cancel()

	data := indexData{Title: pageTitle, Mock: c.Query("mock") == "1"}
	src := s.source
	if data.Mock && s.opts.Mock != nil {
		src = s.opts.Mock
	}
	boards, err := src.Boards(ctx)
	if err != nil {
		// The page still works with an explicit selection.
		log.Warn().Err(err).Msg("Board list unavailable")
	}
	for _, b := range boards {
		data.Boards = append(data.Boards, indexBoard{
			ID: b.ID, Name: b.Name, Group: b.Group,
			Selected: slices.Contains(s.opts.DefaultBoards, b.ID),
		})
	}

	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := s.assets.index.Execute(c.Writer, data); err != nil {
		log.Error().Err(err).Msg("Failed to render index")
	}
}

func (s *Server) script(c *gin.Context) {
	c.Header("Cache-Control", "no-cache")
	c.Data(http.StatusOK, "application/javascript; charset=utf-8", s.assets.script)
}

func (s *Server) charts(c *gin.Context) {
	res, err := s.load(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	boards := report.BuildAll(res.Series, res.Label, s.opts.Series)
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := report.WriteCharts(c.Writer, pageTitle, boards); err != nil {
		log.Error().Err(err).Msg("Failed to render charts")
	}
}

func (s *Server) report(c *gin.Context) {
	res, err := s.load(c)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, report.Build(res, s.opts.Series))
}

func (s *Server) boards(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), boardsTimeout)
	defer cancel()

	src := s.source
	if c.Query("mock") == "1" && s.opts.Mock != nil {
		src = s.opts.Mock
	}
	boards, err := src.Boards(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"boards": boards, "defaults": s.opts.DefaultBoards})
}

func (s *Server) healthz(c *gin.Context) {
	body := gin.H{"ok": true}
	if snap := s.Snapshot(); snap != nil {
		body["loadedAt"] = snap.LoadedAt
	}
	c.JSON(http.StatusOK, body)
}
