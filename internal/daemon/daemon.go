package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"log/slog"

	"github.com/gofrs/flock"

	"mural/internal/config"
	"mural/internal/display"
	"mural/internal/logging"
	"mural/internal/notifications"
	"mural/internal/runstore"
	"mural/internal/workflow"
)

// Daemon owns the scheduler, the run store, and the instance lock.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *runstore.Store
	manager  *workflow.Manager
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running    bool
	PID        int
	LockPath   string
	LedgerPath string
	RunDBPath  string
	Monitors   []string
	Workflow   workflow.Status
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *runstore.Store, manager *workflow.Manager, notifier notifications.Service, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || manager == nil || logger == nil {
		return nil, errors.New("daemon requires config, store, manager, and logger")
	}
	if notifier == nil {
		notifier = notifications.NewService(cfg)
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		manager:  manager,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another murald instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)
	if err := d.manager.Start(d.ctx); err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		d.ctx = nil
		d.cancel = nil
		return fmt.Errorf("start scheduler: %w", err)
	}

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop halts scheduling and releases the instance lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.manager.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
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

// RunNow requests an immediate acquisition cycle.
func (d *Daemon) RunNow() bool {
	return d.manager.RunNow()
}

// ToggleStitch flips stitch mode and returns the new value.
func (d *Daemon) ToggleStitch() bool {
	return d.manager.ToggleStitch()
}

// History returns up to limit recorded runs, most recent first.
func (d *Daemon) History(ctx context.Context, limit int) ([]runstore.Run, error) {
	if d.store == nil {
		return nil, errors.New("run store unavailable")
	}
	return d.store.List(ctx, limit)
}

// TestNotification sends a test message through the configured notifier.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if strings.TrimSpace(d.cfg.Notifications.NtfyTopic) == "" {
		return false, "ntfy topic not configured", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, "failed to send notification", err
	}
	return true, "test notification sent", nil
}

// LogPath returns the daemon log file location.
func (d *Daemon) LogPath() string {
	return d.cfg.LogPath()
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	return Status{
		Running:    d.running.Load(),
		PID:        os.Getpid(),
		LockPath:   d.lockPath,
		LedgerPath: d.cfg.LedgerPath(),
		RunDBPath:  d.cfg.RunDBPath(),
		Monitors:   d.monitorSummaries(),
		Workflow:   d.manager.Status(),
	}
}

func (d *Daemon) monitorSummaries() []string {
	summaries := make([]string, 0, len(d.cfg.Monitors))
	for _, m := range d.cfg.Monitors {
		g := display.Geometry{X: m.X, Y: m.Y, Width: m.Width, Height: m.Height}
		desc := fmt.Sprintf("%dx%d+%d+%d", g.Width, g.Height, g.X, g.Y)
		if ratio := g.AspectRatio(); ratio != "" {
			desc += " (" + ratio + ")"
		}
		summaries = append(summaries, desc)
	}
	return summaries
}
