package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"marquee/internal/api"
)

func newRequestCommand(ctx *commandContext) *cobra.Command {
	requestCmd := &cobra.Command{
		Use:   "request",
		Short: "Manage content requests",
	}

	requestCmd.AddCommand(newRequestAddCommand(ctx))
	requestCmd.AddCommand(newRequestListCommand(ctx))
	requestCmd.AddCommand(newRequestApproveCommand(ctx))
	requestCmd.AddCommand(newRequestRetractCommand(ctx))
	requestCmd.AddCommand(newRequestCompleteCommand(ctx))
	requestCmd.AddCommand(newRequestArchiveCommand(ctx))

	return requestCmd
}

func newRequestAddCommand(ctx *commandContext) *cobra.Command {
	var (
		class  string
		title  string
		thumb  string
		imdbID string
		tmdbID string
		tvdbID string
		userID string
	)

	cmd := &cobra.Command{
		Use:   "add <content-id>",
		Short: "Submit a content request",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			outcome, err := api.SubmitRequest(cmd.Context(), api.SubmitRequestInput{
				Config:    cfg,
				Logger:    ctx.logger(),
				ContentID: args[0],
				Class:     class,
				Title:     title,
				Thumb:     thumb,
				IMDBID:    imdbID,
				TMDBID:    tmdbID,
				TVDBID:    tvdbID,
				UserID:    userID,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outcome.Error {
				return fmt.Errorf("%s", outcome.Message)
			}
			fmt.Fprintln(out, outcome.Message)
			if outcome.Quota != nil {
				fmt.Fprintf(out, "Quota used: %d\n", *outcome.Quota)
			}
			if outcome.Request != nil && outcome.Request.Approved {
				fmt.Fprintln(out, "Approved and dispatched to acquisition targets.")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&class, "class", "movie", "Content class (movie or series)")
	cmd.Flags().StringVar(&title, "title", "", "Content title")
	cmd.Flags().StringVar(&thumb, "thumb", "", "Poster path")
	cmd.Flags().StringVar(&imdbID, "imdb", "", "IMDB id")
	cmd.Flags().StringVar(&tmdbID, "tmdb", "", "TMDB id")
	cmd.Flags().StringVar(&tvdbID, "tvdb", "", "TVDB id")
	cmd.Flags().StringVar(&userID, "user", "", "Requesting user id")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newRequestListCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List active requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			requests, err := api.ListRequests(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, requests)
			}

			out := cmd.OutOrStdout()
			if len(requests) == 0 {
				fmt.Fprintln(out, "No active requests.")
				return nil
			}
			rows := make([][]string, 0, len(requests))
			for _, req := range requests {
				rows = append(rows, []string{
					req.ContentID,
					req.Class,
					req.Title,
					yesNo(req.Approved),
					fmt.Sprintf("%d", len(req.Requesters)),
					strings.Join(req.Requesters, ", "),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Class", "Title", "Approved", "Count", "Requesters"},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}

func newRequestApproveCommand(ctx *commandContext) *cobra.Command {
	var userID string

	cmd := &cobra.Command{
		Use:   "approve <content-id>",
		Short: "Approve a pending request and dispatch it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			req, err := api.ApproveRequest(cmd.Context(), cfg, ctx.logger(), args[0], userID)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Approved %s (%s)\n", req.Title, req.ContentID)
			return nil
		},
	}

	cmd.Flags().StringVar(&userID, "user", "", "Approving identity id")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

func newRequestRetractCommand(ctx *commandContext) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "retract <content-id>",
		Short: "Remove a request from acquisition targets and archive it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			archived, err := api.RetractRequest(cmd.Context(), cfg, ctx.logger(), args[0], reason)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Retracted %s (%s)\n", archived.Title, archived.ContentID)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "Reason recorded in the archive")
	return cmd
}

func newRequestCompleteCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <content-id>",
		Short: "Archive a request as fulfilled",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			archived, err := api.CompleteRequest(cmd.Context(), cfg, ctx.logger(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Completed %s (%s)\n", archived.Title, archived.ContentID)
			return nil
		},
	}
}

func newRequestArchiveCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "archive",
		Short: "List archived requests",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			archive, err := api.ListArchive(cmd.Context(), cfg)
			if err != nil {
				return err
			}
			if asJSON {
				return writeJSON(cmd, archive)
			}

			out := cmd.OutOrStdout()
			if len(archive) == 0 {
				fmt.Fprintln(out, "Archive is empty.")
				return nil
			}
			rows := make([][]string, 0, len(archive))
			for _, archived := range archive {
				disposition := "removed"
				if archived.Complete {
					disposition = "complete"
				}
				rows = append(rows, []string{
					archived.ContentID,
					archived.Class,
					archived.Title,
					disposition,
					archived.RemovedReason,
					archived.ArchivedAt,
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"ID", "Class", "Title", "Disposition", "Reason", "Archived"},
				rows,
			))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Emit JSON instead of a table")
	return cmd
}
