package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"marquee/internal/api"
	"marquee/internal/request"
)

func newUserCommand(ctx *commandContext) *cobra.Command {
	userCmd := &cobra.Command{
		Use:   "user",
		Short: "Manage identities and profiles",
	}

	userCmd.AddCommand(newUserAddCommand(ctx))
	userCmd.AddCommand(newAdminAddCommand(ctx))
	userCmd.AddCommand(newProfileAddCommand(ctx))

	return userCmd
}

func newUserAddCommand(ctx *commandContext) *cobra.Command {
	var (
		name      string
		email     string
		profileID string
	)

	cmd := &cobra.Command{
		Use:   "add <user-id>",
		Short: "Create or update a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := api.AddUser(cmd.Context(), api.AddUserInput{
				Config:    cfg,
				ID:        args[0],
				Name:      name,
				Email:     email,
				ProfileID: profileID,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "User %s saved\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Contact email")
	cmd.Flags().StringVar(&profileID, "profile", "", "Profile id applied to the user")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newAdminAddCommand(ctx *commandContext) *cobra.Command {
	var (
		name  string
		email string
	)

	cmd := &cobra.Command{
		Use:   "admin <admin-id>",
		Short: "Create or update an admin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := api.AddAdmin(cmd.Context(), cfg, args[0], name, email); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Admin %s saved\n", args[0])
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Contact email")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newProfileAddCommand(ctx *commandContext) *cobra.Command {
	var (
		name        string
		quotaCap    int
		autoApprove bool
		movieIDs    []string
		seriesIDs   []string
	)

	cmd := &cobra.Command{
		Use:   "profile <profile-id>",
		Short: "Create or update a profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			targets := map[request.ContentClass]map[string]bool{}
			if len(movieIDs) > 0 {
				targets[request.ClassMovie] = map[string]bool{}
				for _, id := range movieIDs {
					targets[request.ClassMovie][id] = true
				}
			}
			if len(seriesIDs) > 0 {
				targets[request.ClassSeries] = map[string]bool{}
				for _, id := range seriesIDs {
					targets[request.ClassSeries][id] = true
				}
			}
			if err := api.AddProfile(cmd.Context(), api.AddProfileInput{
				Config:         cfg,
				ID:             args[0],
				Name:           name,
				QuotaCap:       quotaCap,
				AutoApprove:    autoApprove,
				EnabledTargets: targets,
			}); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Profile %s saved (quota cap %d, auto-approve %s)\n",
				args[0], quotaCap, yesNo(autoApprove))
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().IntVar(&quotaCap, "quota", 0, "Quota cap (0 means unlimited)")
	cmd.Flags().BoolVar(&autoApprove, "auto-approve", false, "Approve requests automatically")
	cmd.Flags().StringSliceVar(&movieIDs, "movie-target", nil, "Movie target id enabled for this profile")
	cmd.Flags().StringSliceVar(&seriesIDs, "series-target", nil, "Series target id enabled for this profile")
	return cmd
}
