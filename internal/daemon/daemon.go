package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"marquee/internal/config"
	"marquee/internal/logging"
	"marquee/internal/notifications"
	"marquee/internal/orchestrator"
	"marquee/internal/request"
	"marquee/internal/services/plex"
	"marquee/internal/services/tmdb"
)

// Daemon owns the long-running request service: the store, the
// orchestrator, and the HTTP API. A lock file enforces single-instance
// execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *request.Store
	orch       *orchestrator.Orchestrator
	registry   *orchestrator.Registry
	dispatcher *notifications.Dispatcher
	search     *tmdb.Client
	plex       *plex.Client

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	server  *apiServer
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || logger == nil {
		return nil, errors.New("daemon requires config and logger")
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

	lockPath := filepath.Join(cfg.Paths.LogDir, "marqueed.lock")
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.WithComponent(logger, "daemon"),
		store:      store,
		orch:       orchestrator.New(store, registry, dispatcher, cfg, logger),
		registry:   registry,
		dispatcher: dispatcher,
		search:     tmdb.New(cfg, logger),
		plex:       plex.New(cfg),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}
	d.server = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the instance lock, heals interrupted archive transitions,
// and brings up the HTTP API. The API shuts down when ctx is cancelled.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another marquee daemon instance is already running")
	}

	healed, err := d.store.ReconcileArchives(ctx)
	if err != nil {
		_ = d.lock.Unlock()
		return fmt.Errorf("reconcile archives: %w", err)
	}
	if healed > 0 {
		d.logger.Warn("healed interrupted archive transitions", logging.Int64("requests", healed))
	}

	if err := d.server.start(ctx); err != nil {
		_ = d.lock.Unlock()
		return err
	}

	d.running.Store(true)
	d.logger.Info("marquee daemon started",
		logging.String("lock", d.lockPath),
		logging.String("db", d.store.Path()))
	return nil
}

// Stop shuts down the API, waits for in-flight notifications, and releases
// the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.server.stop()
	d.dispatcher.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("marquee daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Addr reports the bound API address, empty until Start succeeds.
func (d *Daemon) Addr() string {
	return d.server.addr()
}

// Running reports whether the daemon has started.
func (d *Daemon) Running() bool {
	return d.running.Load()
}
