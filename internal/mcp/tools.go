package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"sprint-kpi/internal/pipeline"
	"sprint-kpi/internal/report"
	"sprint-kpi/internal/visuals"

	"github.com/google/jsonschema-go/jsonschema"
	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog/log"
)

// Tool names.
const (
	ToolListBoards = "list_boards"
	ToolReport     = "sprint_disruption_report"
)

// ErrMockDisabled is returned for mock requests when no mock source is set.
var ErrMockDisabled = errors.New("mock data is not enabled on this server")

// ListBoardsInput is the input of list_boards.
type ListBoardsInput struct {
	NameFilter string `json:"name_filter,omitempty" jsonschema:"case-insensitive substring of the board name"`
	Mock       bool   `json:"mock,omitempty"        jsonschema:"list the mock boards instead of Jira"`
}

// ReportInput is the input of sprint_disruption_report.
type ReportInput struct {
	Boards  []string `json:"boards,omitempty"  jsonschema:"board ids or board group names; empty uses the default selection"`
	Mock    bool     `json:"mock,omitempty"    jsonschema:"report on generated mock sprints"`
	Details bool     `json:"details,omitempty" jsonschema:"list the issue keys behind every sprint"`
}

// ToolOutput is the structured output of every tool.
type ToolOutput struct {
	Data any `json:"data"`
}

func inputSchema[T any]() (*jsonschema.Schema, error) {
	schema, err := jsonschema.For[T](nil)
	if err != nil {
		return nil, fmt.Errorf("failed to derive tool schema: %w", err)
	}
	return schema, nil
}

func errorResult(err error) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: err.Error()}},
		IsError: true,
	}, ToolOutput{}, nil
}

func textResult(text string, data any) (*mcpsdk.CallToolResult, ToolOutput, error) {
	return &mcpsdk.CallToolResult{
		Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: text}},
	}, ToolOutput{Data: data}, nil
}

func (s *Server) handleListBoards(ctx context.Context, _ *mcpsdk.CallToolRequest, in ListBoardsInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	src, err := s.sourceFor(in.Mock)
	if err != nil {
		return errorResult(err)
	}
	boards, err := src.Boards(ctx)
	if err != nil {
		log.Error().Err(err).Msg("list_boards failed")
		return errorResult(fmt.Errorf("failed to list boards: %w", err))
	}

	filter := strings.ToLower(strings.TrimSpace(in.NameFilter))
	out := make([]pipeline.Board, 0, len(boards))
	for _, b := range boards {
		if filter == "" || strings.Contains(strings.ToLower(b.Name), filter) {
			out = append(out, b)
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return errorResult(fmt.Errorf("encode result: %w", err))
	}
	return textResult(string(data), out)
}

func (s *Server) handleReport(ctx context.Context, _ *mcpsdk.CallToolRequest, in ReportInput) (*mcpsdk.CallToolResult, ToolOutput, error) {
	src, err := s.sourceFor(in.Mock)
	if err != nil {
		return errorResult(err)
	}
	selection := in.Boards
	if len(selection) == 0 && !in.Mock {
		selection = s.opts.DefaultBoards
	}
	if len(selection) == 0 && !in.Mock {
		return errorResult(errors.New("no boards given and no default selection configured; call 'list_boards' first"))
	}

	res, err := src.Load(ctx, selection)
	if err != nil {
		log.Error().Err(err).Strs("boards", selection).Msg("sprint_disruption_report failed")
		return errorResult(fmt.Errorf("failed to load sprint data: %w", err))
	}
	doc := report.Build(res, s.opts.Series)
	if len(doc.Rows) == 0 {
		return errorResult(fmt.Errorf("no closed sprints found for %s", strings.Join(selection, ", ")))
	}
	return textResult(s.render(doc, in.Details), doc)
}

// render formats a report as Markdown for chat clients.
func (s *Server) render(doc report.Document, details bool) string {
	var sb strings.Builder
	sb.WriteString("## Sprint Disruption Metrics\n\n")
	sb.WriteString(report.MarkdownTable(doc.Rows))
	sb.WriteString("\n\n## Throughput & Cycle Time\n\n")

	v := doc.Velocity
	sb.WriteString(fmt.Sprintf("- Throughput: %.2f completed issues per sprint over %d sprints\n", v.Throughput, v.SprintCount))
	if v.MeanCycleTime != nil {
		sb.WriteString(fmt.Sprintf("- Mean cycle time: %.1f business days (%d issues)\n", *v.MeanCycleTime, v.CycleTimeSamples))
	} else {
		sb.WriteString("- Mean cycle time: not available\n")
	}

	if details {
		sb.WriteString("\n## Issues\n\n```\n")
		_ = report.WriteDetails(&sb, doc.Rows)
		sb.WriteString("```\n")
	}
	if s.opts.Mermaid {
		if charts := visuals.Charts(doc.Boards); charts != "" {
			sb.WriteString("\n## Charts\n\n")
			sb.WriteString(charts)
			sb.WriteString("\n")
		}
	}
	return sb.String()
}
