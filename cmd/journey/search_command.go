package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"journey/internal/journey"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <text>",
		Short: "Find players whose name contains the given text",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.Join(args, " ")
			result, err := ctx.ingest(cmd.Context())
			if err != nil {
				return err
			}

			matches := journey.Search(result.registry, query)
			rows := make([]journey.Row, 0, len(matches))
			for _, p := range matches {
				rows = append(rows, journey.NewRow(p))
			}
			if jsonOutput {
				return writeJSON(cmd, rows)
			}

			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintf(out, "No players match %q\n", query)
				return nil
			}
			table := make([][]string, 0, len(rows))
			for _, row := range rows {
				table = append(table, []string{
					row.Name,
					row.Key,
					joinOrDash(row.Levels),
					strconv.Itoa(row.Total),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Name", "Key", "Levels", "Games"},
				table,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")
	return cmd
}
