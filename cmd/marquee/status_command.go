package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/api"
)

const (
	ansiBlue  = "\x1b[34m"
	ansiReset = "\x1b[0m"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show request counts and configured acquisition targets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			status, err := api.Status(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, status)
			}

			out := cmd.OutOrStdout()
			heading := "Marquee Status"
			if isTerminal(out) {
				heading = ansiBlue + heading + ansiReset
			}
			fmt.Fprintln(out, heading)
			fmt.Fprintln(out, renderTable(
				[]string{"Active", "Approved", "Archived", "Targets"},
				[][]string{{
					fmt.Sprintf("%d", status.Active),
					fmt.Sprintf("%d", status.Approved),
					fmt.Sprintf("%d", status.Archived),
					strings.Join(status.Targets, ", "),
				}},
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
