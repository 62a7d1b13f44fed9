package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"rostersync/internal/audit"
	"rostersync/internal/catalog"
	"rostersync/internal/config"
	"rostersync/internal/directory"
	"rostersync/internal/engine"
	"rostersync/internal/feed"
	"rostersync/internal/linker"
	"rostersync/internal/logging"
	"rostersync/internal/notifications"
	"rostersync/internal/reconcile"
	"rostersync/internal/roster"
	"rostersync/internal/scheduler"
)

// Daemon owns the reconciliation components and enforces single-instance
// execution via a file lock.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *roster.Store
	client   directory.Client
	cat      *catalog.Catalog
	cache    *reconcile.AppliedCache
	applier  *reconcile.Applier
	sched    *scheduler.Scheduler
	tailer   *feed.Tailer
	engine   *engine.Engine
	linker   *linker.Linker
	reporter *audit.Reporter
	notifier notifications.Service

	lockPath string
	lock     *flock.Flock

	mu        sync.Mutex
	running   bool
	startedAt time.Time
	cancel    context.CancelFunc
	group     *errgroup.Group
}

// Status represents daemon runtime information.
type Status struct {
	Running       bool                 `json:"running"`
	PID           int                  `json:"pid"`
	UptimeSeconds int64                `json:"uptime_seconds"`
	StorePath     string               `json:"store_path"`
	LockPath      string               `json:"lock_path"`
	Roster        roster.HealthSummary `json:"roster"`
	Scheduler     scheduler.Stats      `json:"scheduler"`
	CachedTargets int                  `json:"cached_targets"`
}

// New constructs a daemon with initialized components.
func New(cfg *config.Config, store *roster.Store, client directory.Client, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil || client == nil {
		return nil, errors.New("daemon requires config, store, and directory client")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	cat, err := catalog.New(cfg.Catalog)
	if err != nil {
		return nil, err
	}

	notifier := notifications.NewService(cfg.Notifications)
	cache := reconcile.NewAppliedCache()
	applier := reconcile.NewApplier(client, cat, cache, logger)

	sched := scheduler.New(
		time.Duration(cfg.Scheduler.DebounceMS)*time.Millisecond,
		func(ctx context.Context, rec roster.Record) error {
			_, err := applier.Apply(ctx, rec)
			return err
		},
		logger,
	)

	tailer := feed.NewTailer(store, time.Duration(cfg.Store.PollIntervalSeconds)*time.Second, logger)
	lnk := linker.New(store, client, sched.Schedule, notifier, logger)
	eng := engine.New(tailer.Events(), client.Joins(), sched.Schedule, lnk.TryLink, logger)
	reporter := audit.NewReporter(store, notifier, cfg.Audit.SampleSize, logger)

	lockPath := filepath.Join(cfg.Paths.DataDir, "rostersync.lock")
	return &Daemon{
		cfg:      cfg,
		logger:   logger.With(logging.String(logging.FieldComponent, "daemon")),
		store:    store,
		client:   client,
		cat:      cat,
		cache:    cache,
		applier:  applier,
		sched:    sched,
		tailer:   tailer,
		engine:   eng,
		linker:   lnk,
		reporter: reporter,
		notifier: notifier,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the instance lock and launches the component loops: feed
// tailer, join poller, dispatch loops, and the audit timer. The startup sweep
// runs first so a restart converges without replaying the feed.
func (d *Daemon) Start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.running {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another rostersync daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	group, groupCtx := errgroup.WithContext(runCtx)

	group.Go(func() error { return d.tailer.Run(groupCtx) })
	group.Go(func() error { return d.client.Run(groupCtx) })
	group.Go(func() error { return d.engine.Run(groupCtx) })
	group.Go(func() error { return d.engine.RunJoins(groupCtx) })
	group.Go(func() error { return d.auditLoop(groupCtx) })
	group.Go(func() error {
		d.startupSweep(groupCtx)
		return nil
	})

	d.cancel = cancel
	d.group = group
	d.running = true
	d.startedAt = time.Now()
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop cancels the component loops, drains the scheduler, and releases the
// lock.
func (d *Daemon) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	cancel := d.cancel
	group := d.group
	d.cancel = nil
	d.group = nil
	d.running = false
	d.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	if group != nil {
		if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
			d.logger.Warn("component loop exited with error", logging.Error(err))
		}
	}
	d.sched.Stop()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.logger.Info("daemon stopped")
}

// Close stops the daemon and closes the store.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// startupSweep links what it can and schedules every resolved record so the
// directory converges with the store after a restart.
func (d *Daemon) startupSweep(ctx context.Context) {
	if _, err := d.linker.Sweep(ctx); err != nil {
		d.logger.Warn("startup sweep failed", logging.Error(err))
	}
	resolved, err := d.store.ListResolved(ctx)
	if err != nil {
		d.logger.Warn("startup listing failed", logging.Error(err))
		return
	}
	for _, rec := range resolved {
		d.sched.Schedule(rec.EntityID, *rec)
	}
	if _, err := d.reporter.RunOnce(ctx); err != nil {
		d.logger.Warn("startup audit failed", logging.Error(err))
	}
}

func (d *Daemon) auditLoop(ctx context.Context) error {
	interval := time.Duration(d.cfg.Audit.IntervalMinutes) * time.Minute
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := d.reporter.RunOnce(ctx); err != nil {
				d.logger.Warn("audit run failed", logging.Error(err))
			}
		}
	}
}

// Audit runs the reporter once, optionally forcing a report.
func (d *Daemon) Audit(ctx context.Context, force bool) (audit.Report, error) {
	if force {
		d.reporter.Force()
	}
	return d.reporter.RunOnce(ctx)
}

// Sweep runs a full linking sweep.
func (d *Daemon) Sweep(ctx context.Context) (linker.SweepResult, error) {
	return d.linker.Sweep(ctx)
}

// Records lists roster records, optionally only unresolved ones.
func (d *Daemon) Records(ctx context.Context, unresolvedOnly bool) ([]*roster.Record, error) {
	if unresolvedOnly {
		return d.store.ListUnresolved(ctx)
	}
	return d.store.List(ctx)
}

// PutRecord upserts a record. The change feed picks up the write on its next
// poll; no direct scheduling here.
func (d *Daemon) PutRecord(ctx context.Context, rec *roster.Record) (*roster.Record, error) {
	return d.store.Put(ctx, rec)
}

// TestNotification sends a test notification through the configured sink.
func (d *Daemon) TestNotification(ctx context.Context) (bool, string, error) {
	if notifications.IsNoop(d.notifier) {
		return false, "notifications not configured (set notifications.ntfy_topic)", nil
	}
	if err := d.notifier.TestNotification(ctx); err != nil {
		return false, err.Error(), err
	}
	return true, "test notification sent", nil
}

// Status assembles runtime and store health information.
func (d *Daemon) Status(ctx context.Context) Status {
	d.mu.Lock()
	running := d.running
	startedAt := d.startedAt
	d.mu.Unlock()

	status := Status{
		Running:       running,
		PID:           os.Getpid(),
		StorePath:     d.store.Path(),
		LockPath:      d.lockPath,
		Scheduler:     d.sched.Stats(),
		CachedTargets: d.cache.Len(),
	}
	if running {
		status.UptimeSeconds = int64(time.Since(startedAt).Seconds())
	}
	if health, err := d.store.Health(ctx); err == nil {
		status.Roster = health
	}
	return status
}
