package reconcile

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/store/item"
)

// Stats contains statistics from a reconciliation pass.
type Stats struct {
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	DryRun    bool      `json:"dryRun"`

	ObjectsScanned uint64 `json:"objectsScanned"` // Objects listed under the namespace
	RecordsScanned uint64 `json:"recordsScanned"` // File records streamed

	SkippedRecent           uint64 `json:"skippedRecent"`           // Records younger than MinRecordAge
	SkippedOutsideNamespace uint64 `json:"skippedOutsideNamespace"` // Records whose key is not under the listed namespace
	InvalidLocators         uint64 `json:"invalidLocators"`         // Records whose key could not be derived

	GhostRecords   uint64 `json:"ghostRecords"`   // Confirmed ghost records
	Reappeared     uint64 `json:"reappeared"`     // Candidates whose object showed up on re-check
	DeletedRecords uint64 `json:"deletedRecords"` // Ghost records removed
	FailedDeletes  uint64 `json:"failedDeletes"`  // Ghost records that could not be removed or re-checked

	GhostObjects uint64 `json:"ghostObjects"` // Objects with no record (reported only)
	PrunedItems  uint64 `json:"prunedItems"`  // Dangling items removed

	GhostRecordIDs  []string `json:"ghostRecordIds,omitempty"`  // Sample, capped by ReportLimit
	GhostObjectKeys []string `json:"ghostObjectKeys,omitempty"` // Sample, capped by ReportLimit
}

// Duration returns the total pass duration.
func (s *Stats) Duration() time.Duration {
	if s.EndTime.IsZero() {
		return time.Since(s.StartTime)
	}
	return s.EndTime.Sub(s.StartTime)
}

// Summary returns a human-readable summary of the pass.
func (s *Stats) Summary() string {
	return fmt.Sprintf("objects=%d records=%d ghost_records=%d deleted=%d failed=%d reappeared=%d skipped_recent=%d skipped_namespace=%d invalid=%d ghost_objects=%d pruned=%d dry_run=%v duration=%s",
		s.ObjectsScanned, s.RecordsScanned, s.GhostRecords, s.DeletedRecords, s.FailedDeletes,
		s.Reappeared, s.SkippedRecent, s.SkippedOutsideNamespace, s.InvalidLocators,
		s.GhostObjects, s.PrunedItems, s.DryRun, s.Duration())
}

// candidate is a file record whose key was absent from the listing.
type candidate struct {
	id  string
	key string
}

// reconcile performs a single pass.
//
// This is the core algorithm:
//  1. Stream every object key under the namespace into a set
//  2. Stream every file record, marking the keys it references; records
//     whose key is absent become ghost candidates
//  3. Re-check each candidate with Exists and delete confirmed ghosts
//  4. Report keys no record referenced as ghost objects
//  5. Optionally prune dangling items
//
// Cost is O(|objects| + |records|) with one set lookup per record.
func (r *Reconciler) reconcile(ctx context.Context) (stats *Stats, err error) {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	passStart := r.clock()
	stats = &Stats{StartTime: time.Now(), DryRun: r.config.DryRun}
	defer func() {
		stats.EndTime = time.Now()
		r.config.Metrics.ObservePass(stats, err)
	}()

	logger.Info("Reconcile: Phase 1 - Listing objects...")

	// Value is true once a record references the key
	keys, err := r.listObjects(ctx)
	if err != nil {
		return stats, err
	}
	stats.ObjectsScanned = uint64(len(keys))

	logger.Info("Reconcile: Found %d objects", stats.ObjectsScanned)
	logger.Info("Reconcile: Phase 2 - Scanning file records...")

	namespace := r.objects.Namespace()
	cutoff := passStart.Add(-r.config.MinRecordAge)
	var candidates []candidate

	for rec, err := range r.items.Files(ctx) {
		if err != nil {
			return stats, fmt.Errorf("failed to stream records: %w", err)
		}
		stats.RecordsScanned++

		key, err := r.keyOf(rec)
		if err != nil {
			stats.InvalidLocators++
			logger.Warn("Reconcile: record %s has an unusable locator %q: %v", rec.ID, rec.Locator, err)
			continue
		}

		if _, ok := keys[key]; ok {
			keys[key] = true
			continue
		}

		if namespace != "" && !strings.HasPrefix(key, namespace) {
			stats.SkippedOutsideNamespace++
			continue
		}
		if rec.CreatedAt.After(cutoff) {
			stats.SkippedRecent++
			continue
		}
		candidates = append(candidates, candidate{id: rec.ID, key: key})
	}

	logger.Info("Reconcile: Phase 3 - Confirming %d ghost record candidates...", len(candidates))

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return stats, err
		}
		r.repairGhostRecord(ctx, c, stats)
	}

	for key, referenced := range keys {
		if !referenced {
			stats.GhostObjects++
			stats.GhostObjectKeys = appendCapped(stats.GhostObjectKeys, key, r.config.ReportLimit)
		}
	}
	if stats.GhostObjects > 0 {
		logger.Info("Reconcile: %d ghost objects have no record (reported, not deleted)", stats.GhostObjects)
	}

	switch {
	case r.config.PruneDangling && r.config.DryRun:
		logger.Info("Reconcile: DRY RUN - skipping dangling item pruning")
	case r.config.PruneDangling:
		logger.Info("Reconcile: Phase 4 - Pruning dangling items...")
		pruned, err := r.pruneDangling(ctx, cutoff)
		stats.PrunedItems = pruned
		if err != nil {
			return stats, err
		}
	}

	logger.Info("Reconcile: Completed - %s", stats.Summary())
	return stats, nil
}

// repairGhostRecord re-checks one candidate and deletes it if its object
// is still missing.
func (r *Reconciler) repairGhostRecord(ctx context.Context, c candidate, stats *Stats) {
	exists, err := r.objects.Exists(ctx, c.key)
	if err != nil {
		stats.FailedDeletes++
		logger.Warn("Reconcile: cannot confirm object %s for record %s: %v", c.key, c.id, err)
		return
	}
	if exists {
		stats.Reappeared++
		logger.Debug("Reconcile: object %s appeared during the pass, keeping record %s", c.key, c.id)
		return
	}

	stats.GhostRecords++
	stats.GhostRecordIDs = appendCapped(stats.GhostRecordIDs, c.id, r.config.ReportLimit)

	if r.config.DryRun {
		logger.Info("Reconcile: DRY RUN - would delete record %s (missing object %s)", c.id, c.key)
		return
	}

	if err := r.limiter.Wait(ctx); err != nil {
		stats.FailedDeletes++
		return
	}

	switch err := r.items.Delete(ctx, c.id); {
	case err == nil:
		stats.DeletedRecords++
		logger.Debug("Reconcile: deleted ghost record %s (missing object %s)", c.id, c.key)
	case item.IsNotFound(err):
		// Removed concurrently; the outcome is the same
		stats.DeletedRecords++
	default:
		stats.FailedDeletes++
		logger.Warn("Reconcile: failed to delete ghost record %s: %v", c.id, err)
	}
}

// listObjects streams the namespace into a key set.
func (r *Reconciler) listObjects(ctx context.Context) (map[string]bool, error) {
	keys := make(map[string]bool)
	for info, err := range r.objects.ListAll(ctx) {
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		keys[info.Key] = false
	}
	return keys, nil
}
