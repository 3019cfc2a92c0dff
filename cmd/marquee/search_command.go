package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/api"
	"marquee/internal/services/tmdb"
)

func newSearchCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search TMDB for movies, shows, people, and companies",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			results, err := api.SearchContent(cmd.Context(), cfg, ctx.logger(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, results)
			}

			out := cmd.OutOrStdout()
			printKind(out, "Movies", results.Movies)
			printKind(out, "Shows", results.Shows)
			printKind(out, "People", results.People)
			printKind(out, "Companies", results.Companies)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of tables")
	return cmd
}

func printKind(out io.Writer, label string, entries []tmdb.Entry) {
	if len(entries) == 0 {
		return
	}
	rows := make([][]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Title
		if name == "" {
			name = entry.Name
		}
		date := entry.ReleaseDate
		if date == "" {
			date = entry.FirstAirDate
		}
		rows = append(rows, []string{fmt.Sprintf("%d", entry.ID), name, date})
	}
	fmt.Fprintf(out, "%s\n%s\n", label, renderTable([]string{"TMDB ID", "Name", "Date"}, rows))
}
