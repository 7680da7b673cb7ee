package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"

	"github.com/gofrs/flock"

	"partscope/internal/classifier"
	"partscope/internal/config"
	"partscope/internal/inventory"
	"partscope/internal/logging"
	"partscope/internal/metrics"
	"partscope/internal/preflight"
	"partscope/internal/workflow"
)

// Deps are the collaborators the daemon owns once constructed.
type Deps struct {
	Store      *inventory.Store
	Engine     *workflow.Engine
	Classifier classifier.Classifier
	// Metrics is optional; /metrics is not served without it.
	Metrics *metrics.Metrics
}

// Daemon serves the inventory API and enforces single-instance execution.
type Daemon struct {
	cfg        *config.Config
	logger     *slog.Logger
	store      *inventory.Store
	engine     *workflow.Engine
	classifier classifier.Classifier
	metrics    *metrics.Metrics
	api        *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	Address      string
	DatabasePath string
	LockFilePath string
	Checks       []preflight.Result
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || deps.Store == nil || deps.Engine == nil {
		return nil, errors.New("daemon requires config, store, and workflow engine")
	}
	d := &Daemon{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "daemon"),
		store:      deps.Store,
		engine:     deps.Engine,
		classifier: deps.Classifier,
		metrics:    deps.Metrics,
		lockPath:   cfg.LockPath(),
		lock:       flock.New(cfg.LockPath()),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Start acquires the daemon lock, runs preflight checks and starts the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another partscoped instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	for _, check := range preflight.Failed(preflight.RunAll(runCtx, d.cfg)) {
		d.logger.Warn("preflight check failed",
			logging.String("check", check.Name),
			logging.String("detail", check.Detail),
		)
	}

	if err := d.api.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}

	d.cancel = cancel
	d.running.Store(true)
	d.logger.Info("partscoped started",
		logging.String("lock", d.lockPath),
		logging.String("address", d.api.addr()),
		logging.String("database", d.store.Path()),
	)
	return nil
}

// Stop shuts the API server down and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.api.stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("partscoped stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	var errs []error
	if closer, ok := d.classifier.(classifier.Closer); ok {
		errs = append(errs, closer.Close())
	}
	if d.store != nil {
		errs = append(errs, d.store.Close())
	}
	return errors.Join(errs...)
}

// Addr returns the address the API server listens on, or "" when stopped.
func (d *Daemon) Addr() string {
	return d.api.addr()
}

// Handler exposes the API handler, mainly for tests.
func (d *Daemon) Handler() http.Handler {
	return d.api.handler
}

// Status returns the current daemon status including fresh preflight results.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		Address:      d.api.addr(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		Checks:       preflight.RunAll(ctx, d.cfg),
	}
}
