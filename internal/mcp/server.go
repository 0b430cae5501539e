// Package mcp exposes the sprint disruption report as Model Context Protocol
// tools over stdio.
package mcp

import (
	"context"
	"fmt"

	"sprint-kpi/internal/pipeline"
	"sprint-kpi/internal/report"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

const serverName = "sprint-kpi"

// Options configure the tool server.
type Options struct {
	Version       string
	DefaultBoards []string
	Series        report.SeriesOptions
	// Mermaid appends xychart blocks to report results.
	Mermaid bool
	// Mock answers calls with mock=true; nil rejects them.
	Mock pipeline.Source
}

// Server wraps the SDK server with the report tools registered.
type Server struct {
	inner  *mcpsdk.Server
	source pipeline.Source
	opts   Options
}

// NewServer registers the tools against source.
func NewServer(source pipeline.Source, opts Options) (*Server, error) {
	if opts.Version == "" {
		opts.Version = "dev"
	}
	s := &Server{
		inner:  mcpsdk.NewServer(&mcpsdk.Implementation{Name: serverName, Version: opts.Version}, &mcpsdk.ServerOptions{}),
		source: source,
		opts:   opts,
	}
	if err := s.registerTools(); err != nil {
		return nil, err
	}
	return s, nil
}

// Run serves on stdio until the context is cancelled or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.RunWithTransport(ctx, &mcpsdk.StdioTransport{})
}

// RunWithTransport serves on the given transport.
func (s *Server) RunWithTransport(ctx context.Context, transport mcpsdk.Transport) error {
	log.Info().Str("version", s.opts.Version).Msg("MCP server starting")
	if err := s.inner.Run(ctx, transport); err != nil {
		return fmt.Errorf("mcp server: %w", err)
	}
	return nil
}

func (s *Server) registerTools() error {
	boardsSchema, err := inputSchema[ListBoardsInput]()
	if err != nil {
		return err
	}
	reportSchema, err := inputSchema[ReportInput]()
	if err != nil {
		return err
	}

	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolListBoards,
		Description: listBoardsDescription,
		InputSchema: boardsSchema,
	}, s.handleListBoards)
	mcpsdk.AddTool(s.inner, &mcpsdk.Tool{
		Name:        ToolReport,
		Description: reportDescription,
		InputSchema: reportSchema,
	}, s.handleReport)
	return nil
}

func (s *Server) sourceFor(mock bool) (pipeline.Source, error) {
	if !mock {
		return s.source, nil
	}
	if s.opts.Mock == nil {
		return nil, ErrMockDisabled
	}
	return s.opts.Mock, nil
}

const (
	listBoardsDescription = "List the Jira boards and configured board groups that can be reported on. " +
		"Guidance: pass the returned ids (or group names) to 'sprint_disruption_report'."

	reportDescription = "Build the sprint disruption report for boards or board groups: initially planned vs completed points, " +
		"pulled-in, blocked, moved-out and spillover issues per sprint, throughput and cycle time. " +
		"Group entries aggregate their member boards sprint by sprint. " +
		"Omitting 'boards' reports on the configured default selection."
)
