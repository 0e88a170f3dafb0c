package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"overdub/internal/api"
	"overdub/internal/config"
	"overdub/internal/httpapi"
	"overdub/internal/jobs"
	"overdub/internal/logging"
	"overdub/internal/notifications"
	"overdub/internal/workflow"
)

// Daemon coordinates background processing and enforces single-instance
// execution through a file lock.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *jobs.Store
	workflow *workflow.Manager
	service  *api.Service
	httpSrv  *httpapi.Server
	logPath  string

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running      bool
	PID          int
	Workflow     workflow.StatusSummary
	JobDBPath    string
	LockFilePath string
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *jobs.Store, logger *slog.Logger, wf *workflow.Manager, service *api.Service) (*Daemon, error) {
	if cfg == nil || store == nil || wf == nil || service == nil {
		return nil, errors.New("daemon requires config, store, workflow manager, and api service")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.LogDir, "overdubd.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logger,
		store:    store,
		workflow: wf,
		service:  service,
		logPath:  filepath.Join(cfg.Paths.LogDir, "overdubd.log"),
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.httpSrv = httpapi.NewServer(cfg, service, d.APIStatus, logger)
	return d, nil
}

// Start acquires the daemon lock, launches the workflow manager, and brings
// up the HTTP surface when one is configured.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another overdub daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.workflow.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start workflow: %w", err)
	}

	if d.httpSrv != nil {
		go func() {
			if err := d.httpSrv.Start(); err != nil {
				d.logger.Error("http api stopped unexpectedly", logging.Error(err))
			}
		}()
	}

	d.running.Store(true)
	d.logger.Info("overdub daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.httpSrv != nil {
		if err := d.httpSrv.Shutdown(context.Background()); err != nil {
			d.logger.Warn("http api shutdown failed", logging.Error(err))
		}
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.workflow.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("overdub daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Service exposes the shared application service for IPC handlers.
func (d *Daemon) Service() *api.Service {
	return d.service
}

// ResetStuck rolls in-flight jobs back to their stage start status.
func (d *Daemon) ResetStuck(ctx context.Context) (int64, error) {
	return d.store.ResetStuckProcessing(ctx)
}

// JobHealth returns aggregate job diagnostics.
func (d *Daemon) JobHealth(ctx context.Context) (jobs.HealthSummary, error) {
	return d.store.Health(ctx)
}

// TestNotification triggers a test notification with the current settings.
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

// LogPath returns the path to the daemon log file.
func (d *Daemon) LogPath() string {
	return d.logPath
}

// Status returns the current daemon status.
func (d *Daemon) Status(ctx context.Context) Status {
	return Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		Workflow:     d.workflow.Status(ctx),
		JobDBPath:    d.store.Path(),
		LockFilePath: d.lockPath,
	}
}

// APIStatus adapts Status to the transport DTO the HTTP surface serves.
func (d *Daemon) APIStatus(ctx context.Context) api.DaemonStatus {
	status := d.Status(ctx)
	return api.DaemonStatus{
		Running:      status.Running,
		PID:          status.PID,
		JobDBPath:    status.JobDBPath,
		LockFilePath: status.LockFilePath,
		Workflow:     api.FromStatusSummary(status.Workflow),
	}
}
