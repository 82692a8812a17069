package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/gofrs/flock"

	"collectord/internal/config"
	"collectord/internal/logging"
	"collectord/internal/notifications"
	"collectord/internal/store"
	"collectord/internal/workflow"
)

// Daemon coordinates the background processing services and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *store.Store
	workflow *workflow.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	LastBatch    *workflow.BatchResult
	LastError    string
	StorePath    string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, wf *workflow.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || wf == nil {
		return nil, errors.New("daemon requires config, store, and workflow manager")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "collectord.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		workflow: wf,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and launches the workflow manager.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another collectord instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.workflow.Start(runCtx); err != nil {
		_ = d.lock.Unlock()
		cancel()
		return fmt.Errorf("start workflow: %w", err)
	}
	d.cancel = cancel

	d.running.Store(true)
	d.logger.Info("collectord daemon started", logging.String("lock", d.lockPath))
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
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("collectord daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// ListRecords returns records in the given stage.
func (d *Daemon) ListRecords(ctx context.Context, stage store.Stage) ([]*store.Record, error) {
	if d.store == nil {
		return nil, errors.New("record store unavailable")
	}
	return d.store.List(ctx, stage)
}

// ClearRecords removes every record.
func (d *Daemon) ClearRecords(ctx context.Context) (int64, error) {
	if d.store == nil {
		return 0, errors.New("record store unavailable")
	}
	return d.store.Clear(ctx)
}

// RetryRecords returns failed or processed records to the fulfillment
// pipeline by resetting their download status.
func (d *Daemon) RetryRecords(ctx context.Context, ids []int64) (int64, error) {
	if d.store == nil {
		return 0, errors.New("record store unavailable")
	}
	return d.store.ResetDownloadStatus(ctx, ids...)
}

// StoreStats returns aggregate record counts.
func (d *Daemon) StoreStats(ctx context.Context) (store.HealthSummary, error) {
	if d.store == nil {
		return store.HealthSummary{}, errors.New("record store unavailable")
	}
	return d.store.Stats(ctx)
}

// TestNotification triggers a test notification using the current
// configuration.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	notifier := notifications.NewService(d.cfg)
	if err := notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:      d.running.Load(),
		LastBatch:    d.workflow.LastBatch(),
		StorePath:    d.store.Path(),
		LockFilePath: d.lockPath,
	}
	if err := d.workflow.LastError(); err != nil {
		status.LastError = err.Error()
	}
	return status
}
