package commands

import (
	"context"

	"sprint-kpi/internal/mcp"

	"github.com/spf13/cobra"
)

func newMCPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP server on stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMCP(cmd.Context())
		},
	}
}

func runMCP(ctx context.Context) error {
	src, err := jiraSource(ctx)
	if err != nil {
		return err
	}
	srv, err := mcp.NewServer(src, mcp.Options{
		Version:       Version,
		DefaultBoards: defaultBoards(),
		Series:        seriesOptions(),
		Mermaid:       cfg.EnableMermaidCharts,
		Mock:          mockSource(),
	})
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}
