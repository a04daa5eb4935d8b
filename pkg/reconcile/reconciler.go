// Package reconcile repairs drift between item records and stored objects.
//
// Records and objects live in two stores that fail independently, so they
// drift apart:
//   - ghost records: file records whose object is missing (deleted out of
//     band, expired, or never written)
//   - ghost objects: stored objects no record points at (failed record
//     writes after upload, failed object deletes)
//
// A reconciliation pass deletes confirmed ghost records and only reports
// ghost objects. Ghost objects are removed by PurgeGhostObjects, which is
// never called by the periodic worker.
//
// The reconciler runs concurrently with live traffic and takes no locks.
// Records younger than MinRecordAge are never deleted (their upload may
// still be settling) and every ghost candidate is re-checked with Exists
// right before deletion.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/internal/ratelimiter"
	"github.com/marmos91/clouddrive/pkg/drive"
	"github.com/marmos91/clouddrive/pkg/store/item"
	"github.com/marmos91/clouddrive/pkg/store/object"
)

// Config contains configuration for the reconciler.
type Config struct {
	// Enabled controls whether the periodic worker runs (default: false)
	Enabled bool

	// Interval is how often the worker runs a pass (default: 24h)
	Interval time.Duration

	// PassTimeout bounds a single periodic pass (default: 30m)
	PassTimeout time.Duration

	// DryRun reports what would be deleted without deleting
	DryRun bool

	// MinRecordAge protects records created less than this long before a
	// pass started (default: 15m)
	MinRecordAge time.Duration

	// MinObjectAge is the default age threshold for PurgeGhostObjects
	// (default: 24h)
	MinObjectAge time.Duration

	// DeleteRate caps deletions per second (0 = unlimited)
	DeleteRate float64

	// DeleteBurst is the limiter burst size (default: 1)
	DeleteBurst int

	// ReportLimit caps the ids and keys kept in reports (default: 100)
	ReportLimit int

	// PruneDangling deletes items whose parent is not a folder of their
	// owner, through Deleter, at the end of each pass
	PruneDangling bool

	// Deleter removes dangling items; required when PruneDangling is set
	Deleter Deleter

	// Metrics receives pass statistics (optional)
	Metrics Metrics
}

// Deleter deletes an item record and its object. drive.Service implements it.
type Deleter interface {
	DeleteItem(ctx context.Context, id string) (*drive.DeleteResult, error)
}

// Metrics provides observability for reconciliation passes.
type Metrics interface {
	// ObservePass records the outcome of one pass.
	ObservePass(stats *Stats, err error)

	// ObservePurge records the outcome of a ghost object purge.
	ObservePurge(stats *PurgeStats, err error)
}

type noopMetrics struct{}

func (noopMetrics) ObservePass(*Stats, error)       {}
func (noopMetrics) ObservePurge(*PurgeStats, error) {}

func (c *Config) applyDefaults() {
	if c.Interval <= 0 {
		c.Interval = 24 * time.Hour
	}
	if c.PassTimeout <= 0 {
		c.PassTimeout = 30 * time.Minute
	}
	if c.MinRecordAge == 0 {
		c.MinRecordAge = 15 * time.Minute
	}
	if c.MinObjectAge == 0 {
		c.MinObjectAge = 24 * time.Hour
	}
	if c.DeleteBurst < 1 {
		c.DeleteBurst = 1
	}
	if c.ReportLimit <= 0 {
		c.ReportLimit = 100
	}
	if c.Metrics == nil {
		c.Metrics = noopMetrics{}
	}
}

// Reconciler diffs the object key set against the file records.
//
// Thread Safety: Safe for concurrent use. Passes triggered concurrently
// (RunNow while the worker runs) are serialized.
type Reconciler struct {
	items   item.Repository
	objects object.Gateway
	config  Config
	limiter *ratelimiter.RateLimiter

	passMu sync.Mutex
	now    func() time.Time

	startOnce sync.Once
	stopOnce  sync.Once
	started   atomic.Bool
	stopCh    chan struct{}
	doneCh    chan struct{}
}

// New creates a reconciler. Call Start to run it periodically.
func New(items item.Repository, objects object.Gateway, config Config) (*Reconciler, error) {
	if items == nil || objects == nil {
		return nil, errors.New("reconciler requires a repository and a gateway")
	}
	if config.PruneDangling && config.Deleter == nil {
		return nil, errors.New("dangling pruning requires a deleter")
	}
	config.applyDefaults()

	return &Reconciler{
		items:   items,
		objects: objects,
		config:  config,
		limiter: ratelimiter.New(config.DeleteRate, config.DeleteBurst),
		now:     time.Now,
		stopCh:  make(chan struct{}),
		doneCh:  make(chan struct{}),
	}, nil
}

// SetClock replaces the time source. Used by tests.
func (r *Reconciler) SetClock(now func() time.Time) {
	r.passMu.Lock()
	defer r.passMu.Unlock()
	r.now = now
}

// Start begins periodic reconciliation. Subsequent calls are no-ops.
func (r *Reconciler) Start() {
	if !r.config.Enabled {
		logger.Info("Reconciler disabled")
		return
	}

	r.startOnce.Do(func() {
		r.started.Store(true)
		logger.Info("Starting reconciler: interval=%s dry_run=%v min_record_age=%s delete_rate=%v",
			r.config.Interval, r.config.DryRun, r.config.MinRecordAge, r.config.DeleteRate)
		go r.worker()
	})
}

// Stop stops the worker and waits for an in-progress pass to finish or
// ctx to expire. Safe to call multiple times and without Start.
func (r *Reconciler) Stop(ctx context.Context) error {
	if !r.started.Load() {
		return nil
	}

	logger.Info("Stopping reconciler...")
	r.stopOnce.Do(func() { close(r.stopCh) })

	select {
	case <-r.doneCh:
		logger.Info("Reconciler stopped successfully")
		return nil
	case <-ctx.Done():
		logger.Warn("Reconciler shutdown timeout")
		return ctx.Err()
	}
}

// RunNow runs one pass immediately and blocks until it completes.
func (r *Reconciler) RunNow(ctx context.Context) (*Stats, error) {
	logger.Info("Running reconciliation (manual trigger)...")
	return r.reconcile(ctx)
}

func (r *Reconciler) worker() {
	defer close(r.doneCh)

	ticker := time.NewTicker(r.config.Interval)
	defer ticker.Stop()

	logger.Info("Reconciler worker started")

	// A pass in progress is cancelled by Stop
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-r.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	for {
		select {
		case <-ticker.C:
			passCtx, passCancel := context.WithTimeout(ctx, r.config.PassTimeout)
			stats, err := r.reconcile(passCtx)
			passCancel()

			if err != nil {
				logger.Error("Reconciliation failed: %v", err)
			} else {
				logger.Info("Reconciliation completed: %s", stats.Summary())
			}

		case <-r.stopCh:
			logger.Info("Reconciler worker stopping...")
			return
		}
	}
}

func (r *Reconciler) clock() time.Time {
	return r.now()
}

// keyOf returns the object key a file record points at.
func (r *Reconciler) keyOf(it *item.Item) (string, error) {
	if it.ObjectKey != "" {
		return it.ObjectKey, nil
	}
	if it.Locator == "" {
		return "", fmt.Errorf("%w: record has no locator", object.ErrInvalidKey)
	}
	return r.objects.KeyFromLocator(it.Locator)
}

// appendCapped appends s to list unless it already holds limit entries.
func appendCapped(list []string, s string, limit int) []string {
	if len(list) >= limit {
		return list
	}
	return append(list, s)
}
