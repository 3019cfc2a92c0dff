package api

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/notifications"
	"marquee/internal/orchestrator"
	"marquee/internal/request"
	"marquee/internal/services/tmdb"
)

// engine bundles the store and orchestrator wiring a workflow call needs.
type engine struct {
	store      *request.Store
	orch       *orchestrator.Orchestrator
	dispatcher *notifications.Dispatcher
	registry   *orchestrator.Registry
}

func openEngine(cfg *config.Config, logger *slog.Logger) (*engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	store, err := request.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open request store: %w", err)
	}
	registry, err := orchestrator.NewRegistry(cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build target registry: %w", err)
	}
	dispatcher := notifications.NewDispatcher(
		notifications.NewService(cfg),
		logger,
		time.Duration(cfg.Workflow.NotifyTimeout)*time.Second,
	)
	return &engine{
		store:      store,
		orch:       orchestrator.New(store, registry, dispatcher, cfg, logger),
		dispatcher: dispatcher,
		registry:   registry,
	}, nil
}

func (e *engine) close() {
	e.dispatcher.Wait()
	e.store.Close()
}

// SubmitRequestInput carries one user action into the orchestrator.
type SubmitRequestInput struct {
	Config    *config.Config
	Logger    *slog.Logger
	ContentID string
	Class     string
	Title     string
	Thumb     string
	IMDBID    string
	TMDBID    string
	TVDBID    string
	UserID    string
}

// SubmitRequest runs the full intake path and returns the outcome view.
func SubmitRequest(ctx context.Context, in SubmitRequestInput) (*OutcomeView, error) {
	class, ok := request.ParseContentClass(in.Class)
	if !ok {
		return nil, fmt.Errorf("unknown content class %q", in.Class)
	}
	eng, err := openEngine(in.Config, in.Logger)
	if err != nil {
		return nil, err
	}
	defer eng.close()

	outcome := eng.orch.Submit(ctx, orchestrator.Submission{
		ContentID: in.ContentID,
		Class:     class,
		Title:     in.Title,
		Thumb:     in.Thumb,
		IMDBID:    in.IMDBID,
		TMDBID:    in.TMDBID,
		TVDBID:    in.TVDBID,
		UserID:    in.UserID,
	})
	return FromOutcome(outcome), nil
}

// ListRequests returns every active request.
func ListRequests(ctx context.Context, cfg *config.Config) ([]*RequestView, error) {
	store, err := request.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open request store: %w", err)
	}
	defer store.Close()

	requests, err := store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	views := make([]*RequestView, 0, len(requests))
	for _, req := range requests {
		views = append(views, FromRequest(req))
	}
	return views, nil
}

// ListArchive returns archived snapshots, newest first.
func ListArchive(ctx context.Context, cfg *config.Config) ([]*ArchivedView, error) {
	store, err := request.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open request store: %w", err)
	}
	defer store.Close()

	archive, err := store.ListArchive(ctx)
	if err != nil {
		return nil, fmt.Errorf("list archive: %w", err)
	}
	views := make([]*ArchivedView, 0, len(archive))
	for _, archived := range archive {
		views = append(views, FromArchived(archived))
	}
	return views, nil
}

// ApproveRequest approves a pending request on behalf of an identity and
// dispatches it.
func ApproveRequest(ctx context.Context, cfg *config.Config, logger *slog.Logger, contentID, approverID string) (*RequestView, error) {
	eng, err := openEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer eng.close()

	req, err := eng.orch.Approve(ctx, contentID, approverID)
	if err != nil {
		return nil, err
	}
	return FromRequest(req), nil
}

// RetractRequest removes a request from its acquisition targets and archives
// it as removed.
func RetractRequest(ctx context.Context, cfg *config.Config, logger *slog.Logger, contentID, reason string) (*ArchivedView, error) {
	eng, err := openEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer eng.close()

	archived, err := eng.orch.Retract(ctx, contentID, reason)
	if err != nil {
		return nil, err
	}
	return FromArchived(archived), nil
}

// CompleteRequest archives a request as fulfilled.
func CompleteRequest(ctx context.Context, cfg *config.Config, logger *slog.Logger, contentID string) (*ArchivedView, error) {
	eng, err := openEngine(cfg, logger)
	if err != nil {
		return nil, err
	}
	defer eng.close()

	archived, err := eng.orch.Complete(ctx, contentID)
	if err != nil {
		return nil, err
	}
	return FromArchived(archived), nil
}

// SearchContent queries TMDB across every search kind.
func SearchContent(ctx context.Context, cfg *config.Config, logger *slog.Logger, term string) (*tmdb.Results, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration is required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return tmdb.New(cfg, logger).Search(ctx, term)
}

// Status reports request counts and the configured acquisition targets.
func Status(ctx context.Context, cfg *config.Config) (*StatusView, error) {
	store, err := request.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open request store: %w", err)
	}
	defer store.Close()

	stats, err := store.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("request stats: %w", err)
	}
	registry, err := orchestrator.NewRegistry(cfg)
	if err != nil {
		return nil, fmt.Errorf("build target registry: %w", err)
	}
	return &StatusView{
		Active:   stats.Active,
		Approved: stats.Approved,
		Archived: stats.Archived,
		Targets:  registry.IDs(),
	}, nil
}
