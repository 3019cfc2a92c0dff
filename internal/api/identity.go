package api

import (
	"context"
	"fmt"

	"marquee/internal/config"
	"marquee/internal/orchestrator"
	"marquee/internal/request"
)

// AddUserInput describes a user record to create or replace.
type AddUserInput struct {
	Config    *config.Config
	ID        string
	Name      string
	Email     string
	ProfileID string
}

// AddUser creates or replaces a user record. A referenced profile must
// already exist.
func AddUser(ctx context.Context, in AddUserInput) error {
	store, err := request.Open(in.Config)
	if err != nil {
		return fmt.Errorf("open request store: %w", err)
	}
	defer store.Close()

	if in.ProfileID != "" {
		profile, err := store.FindProfile(ctx, in.ProfileID)
		if err != nil {
			return fmt.Errorf("look up profile: %w", err)
		}
		if profile == nil {
			return fmt.Errorf("profile %q does not exist", in.ProfileID)
		}
	}
	return store.UpsertUser(ctx, &request.User{
		ID:        in.ID,
		Name:      in.Name,
		Email:     in.Email,
		ProfileID: in.ProfileID,
	})
}

// AddAdmin creates or replaces an admin record.
func AddAdmin(ctx context.Context, cfg *config.Config, id, name, email string) error {
	store, err := request.Open(cfg)
	if err != nil {
		return fmt.Errorf("open request store: %w", err)
	}
	defer store.Close()
	return store.UpsertAdmin(ctx, &request.Admin{ID: id, Name: name, Email: email})
}

// AddProfileInput describes a profile record to create or replace.
type AddProfileInput struct {
	Config         *config.Config
	ID             string
	Name           string
	QuotaCap       int
	AutoApprove    bool
	EnabledTargets map[request.ContentClass]map[string]bool
}

// AddProfile creates or replaces a profile after validating every enabled
// target id against the configured servers.
func AddProfile(ctx context.Context, in AddProfileInput) error {
	registry, err := orchestrator.NewRegistry(in.Config)
	if err != nil {
		return fmt.Errorf("build target registry: %w", err)
	}
	profile := &request.Profile{
		ID:             in.ID,
		Name:           in.Name,
		QuotaCap:       in.QuotaCap,
		AutoApprove:    in.AutoApprove,
		EnabledTargets: in.EnabledTargets,
	}
	if err := registry.ValidateProfile(profile); err != nil {
		return err
	}

	store, err := request.Open(in.Config)
	if err != nil {
		return fmt.Errorf("open request store: %w", err)
	}
	defer store.Close()
	return store.UpsertProfile(ctx, profile)
}
