package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync/atomic"

	"github.com/gofrs/flock"

	"inkcap/internal/api"
	"inkcap/internal/config"
	"inkcap/internal/logging"
	"inkcap/internal/queue"
	"inkcap/internal/workflow"
)

// Daemon coordinates the workflow manager and the HTTP API under a single
// lifecycle and enforces single-instance execution with a lock file.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *queue.Store
	workflow *workflow.Manager
	api      *api.Server

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Workflow     workflow.StatusSummary
	QueueDBPath  string
	LockFilePath string
	APIAddr      string
}

// New constructs a daemon with initialized dependencies. The API server is
// optional; a nil server runs the queue without an HTTP surface.
func New(cfg *config.Config, store *queue.Store, logger *slog.Logger, wf *workflow.Manager, apiServer *api.Server) (*Daemon, error) {
	if cfg == nil || store == nil || logger == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, logger, and workflow manager")
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "inkcapd.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		workflow: wf,
		api:      apiServer,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock, then launches the workflow manager and the
// API server. A partial start is rolled back before the error returns.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another inkcapd instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start workflow: %w", err)
	}
	if d.api != nil {
		if err := d.api.Start(runCtx); err != nil {
			d.workflow.Stop()
			cancel()
			_ = d.lock.Unlock()
			return fmt.Errorf("start api server: %w", err)
		}
	}

	d.cancel = cancel
	d.running.Store(true)
	attrs := []logging.Attr{logging.String("lock", d.lockPath)}
	if d.api != nil {
		attrs = append(attrs, logging.String("api_address", d.api.Addr()))
	}
	d.logger.Info("daemon started", logging.Args(attrs...)...)
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.api != nil {
		d.api.Stop()
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		Workflow:     d.workflow.Status(ctx),
		QueueDBPath:  d.store.Path(),
		LockFilePath: d.lockPath,
	}
	if d.api != nil {
		status.APIAddr = d.api.Addr()
	}
	return status
}
