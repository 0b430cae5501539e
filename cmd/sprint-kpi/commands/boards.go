package commands

import (
	"slices"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

func newBoardsCmd() *cobra.Command {
	var (
		useMock bool
		from    string
	)
	cmd := &cobra.Command{
		Use:   "boards",
		Short: "List the boards and board groups that can be reported on",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := pickSource(cmd.Context(), useMock, from)
			if err != nil {
				return err
			}
			boards, err := src.Boards(cmd.Context())
			if err != nil {
				return err
			}

			defaults := defaultBoards()
			tbl := table.NewWriter()
			tbl.SetOutputMirror(cmd.OutOrStdout())
			tbl.SetStyle(table.StyleLight)
			tbl.AppendHeader(table.Row{"ID", "Name", "Kind", "Default"})
			for _, b := range boards {
				kind := "board"
				if b.Group {
					kind = "group"
				}
				mark := ""
				if slices.Contains(defaults, b.ID) {
					mark = "yes"
				}
				tbl.AppendRow(table.Row{b.ID, b.Name, kind, mark})
			}
			tbl.Render()
			return nil
		},
	}
	cmd.Flags().BoolVar(&useMock, "mock", false, "list the mock boards")
	cmd.Flags().StringVar(&from, "from", "", "list the boards of a snapshot file")
	return cmd
}
