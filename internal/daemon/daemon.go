package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"podbench/internal/api"
	"podbench/internal/catalog"
	"podbench/internal/config"
	"podbench/internal/events"
	"podbench/internal/layout"
	"podbench/internal/logging"
	"podbench/internal/pipeline"
)

// Daemon coordinates the long-running podbench process and enforces
// single-instance execution through a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *catalog.Store
	layout *layout.Manager
	pipe   *pipeline.Pipeline
	hub    *events.Hub
	api    *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a daemon around initialized collaborators and builds the
// HTTP API server on top of it. The daemon itself serves as the API's
// ingestor and status provider.
func New(cfg *config.Config, store *catalog.Store, manager *layout.Manager, pipe *pipeline.Pipeline, hub *events.Hub, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || manager == nil || pipe == nil {
		return nil, errors.New("daemon requires config, store, layout manager, and pipeline")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "podbenchd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		layout:   manager,
		pipe:     pipe,
		hub:      hub,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}

	srv, err := api.New(api.Options{
		Config:   cfg,
		Store:    store,
		Layout:   manager,
		Pipeline: pipe,
		Hub:      hub,
		Ingestor: d,
		Status:   d,
		Logger:   logger,
	})
	if err != nil {
		return nil, fmt.Errorf("build api server: %w", err)
	}
	d.api = srv
	return d, nil
}

// Start acquires the daemon lock and brings the event hub and API online.
// The pipeline accepts stage triggers as soon as this returns.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another podbench daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if d.hub != nil {
		go d.hub.Run(d.ctx)
	}
	if err := d.api.Start(d.ctx); err != nil {
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("podbench daemon started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.Addr()),
	)
	return nil
}

// Stop shuts the API down, drains in-flight stage jobs, and releases the
// daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.Stop()
	d.pipe.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("podbench daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Addr reports the API listen address, or "" before Start.
func (d *Daemon) Addr() string {
	return d.api.Addr()
}
