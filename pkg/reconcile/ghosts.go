package reconcile

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/store/object"
)

// maxPurgeBatch matches the S3 DeleteObjects limit.
const maxPurgeBatch = 1000

// GhostReport lists stored objects that no file record references.
type GhostReport struct {
	GeneratedAt    time.Time           `json:"generatedAt"`
	ObjectsScanned uint64              `json:"objectsScanned"`
	RecordsScanned uint64              `json:"recordsScanned"`
	Count          uint64              `json:"count"`
	Bytes          int64               `json:"bytes"`
	Objects        []object.ObjectInfo `json:"objects"` // Oldest first, capped by ReportLimit
	Truncated      bool                `json:"truncated"`
}

// PurgeStats contains statistics from a ghost object purge.
type PurgeStats struct {
	StartTime     time.Time `json:"startTime"`
	EndTime       time.Time `json:"endTime"`
	DryRun        bool      `json:"dryRun"`
	MinAge        string    `json:"minAge"`
	Ghosts        uint64    `json:"ghosts"`        // Ghost objects found
	SkippedRecent uint64    `json:"skippedRecent"` // Younger than MinAge, kept
	Deleted       uint64    `json:"deleted"`
	Failed        uint64    `json:"failed"`
	BytesFreed    int64     `json:"bytesFreed"`
}

// Summary returns a human-readable summary of the purge.
func (s *PurgeStats) Summary() string {
	return fmt.Sprintf("ghosts=%d skipped_recent=%d deleted=%d failed=%d bytes_freed=%d dry_run=%v duration=%s",
		s.Ghosts, s.SkippedRecent, s.Deleted, s.Failed, s.BytesFreed, s.DryRun, s.EndTime.Sub(s.StartTime))
}

// scanGhostObjects lists the namespace and removes every key a file record
// references. What remains are ghost objects.
func (r *Reconciler) scanGhostObjects(ctx context.Context) (map[string]object.ObjectInfo, uint64, uint64, error) {
	objects := make(map[string]object.ObjectInfo)
	for info, err := range r.objects.ListAll(ctx) {
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to list objects: %w", err)
		}
		objects[info.Key] = info
	}
	scanned := uint64(len(objects))

	var records uint64
	for rec, err := range r.items.Files(ctx) {
		if err != nil {
			return nil, 0, 0, fmt.Errorf("failed to stream records: %w", err)
		}
		records++
		if key, err := r.keyOf(rec); err == nil {
			delete(objects, key)
		}
	}
	return objects, scanned, records, nil
}

func sortedGhosts(ghosts map[string]object.ObjectInfo) []object.ObjectInfo {
	out := make([]object.ObjectInfo, 0, len(ghosts))
	for _, info := range ghosts {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastModified.Equal(out[j].LastModified) {
			return out[i].LastModified.Before(out[j].LastModified)
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// GhostObjects reports objects with no record. Nothing is deleted.
func (r *Reconciler) GhostObjects(ctx context.Context) (*GhostReport, error) {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	ghosts, scanned, records, err := r.scanGhostObjects(ctx)
	if err != nil {
		return nil, err
	}

	report := &GhostReport{
		GeneratedAt:    r.clock(),
		ObjectsScanned: scanned,
		RecordsScanned: records,
		Count:          uint64(len(ghosts)),
	}
	for i, info := range sortedGhosts(ghosts) {
		report.Bytes += info.Size
		if i < r.config.ReportLimit {
			report.Objects = append(report.Objects, info)
		}
	}
	report.Truncated = report.Count > uint64(len(report.Objects))
	return report, nil
}

// PurgeGhostObjects deletes ghost objects last modified more than minAge
// ago. A non-positive minAge selects the configured MinObjectAge. Honours
// DryRun.
//
// Uploads write the object before the record, so a young ghost may be an
// upload in flight; minAge is what protects it.
func (r *Reconciler) PurgeGhostObjects(ctx context.Context, minAge time.Duration) (stats *PurgeStats, err error) {
	r.passMu.Lock()
	defer r.passMu.Unlock()

	if minAge <= 0 {
		minAge = r.config.MinObjectAge
	}
	stats = &PurgeStats{StartTime: time.Now(), DryRun: r.config.DryRun, MinAge: minAge.String()}
	defer func() {
		stats.EndTime = time.Now()
		r.config.Metrics.ObservePurge(stats, err)
	}()

	logger.Info("Purge: scanning for ghost objects older than %s...", minAge)

	ghosts, _, _, err := r.scanGhostObjects(ctx)
	if err != nil {
		return stats, err
	}
	stats.Ghosts = uint64(len(ghosts))

	cutoff := r.clock().Add(-minAge)
	var eligible []object.ObjectInfo
	for _, info := range sortedGhosts(ghosts) {
		if info.LastModified.IsZero() || info.LastModified.After(cutoff) {
			stats.SkippedRecent++
			continue
		}
		eligible = append(eligible, info)
	}

	if len(eligible) == 0 {
		logger.Info("Purge: no ghost objects eligible for deletion")
		return stats, nil
	}

	if r.config.DryRun {
		logger.Info("Purge: DRY RUN - would delete %d objects:", len(eligible))
		for i, info := range eligible {
			if i < 10 {
				logger.Info("  - %s (%d bytes)", info.Key, info.Size)
			}
		}
		if len(eligible) > 10 {
			logger.Info("  ... and %d more", len(eligible)-10)
		}
		return stats, nil
	}

	if batcher, ok := r.objects.(object.BatchDeleter); ok {
		err = r.purgeBatched(ctx, batcher, eligible, stats)
	} else {
		err = r.purgeOneByOne(ctx, eligible, stats)
	}
	if err != nil {
		return stats, err
	}

	logger.Info("Purge: Completed - %s", stats.Summary())
	return stats, nil
}

func (r *Reconciler) purgeBatched(ctx context.Context, batcher object.BatchDeleter, eligible []object.ObjectInfo, stats *PurgeStats) error {
	for i := 0; i < len(eligible); i += maxPurgeBatch {
		end := min(i+maxPurgeBatch, len(eligible))
		batch := eligible[i:end]

		if err := r.limiter.WaitN(ctx, len(batch)); err != nil {
			return err
		}

		keys := make([]string, len(batch))
		for j, info := range batch {
			keys[j] = info.Key
		}

		failures, err := batcher.DeleteBatch(ctx, keys)
		if err != nil {
			logger.Warn("Purge: batch delete failed: %v", err)
			stats.Failed += uint64(len(batch))
			continue
		}

		for _, info := range batch {
			if ferr, failed := failures[info.Key]; failed {
				stats.Failed++
				logger.Debug("Purge: failed to delete %s: %v", info.Key, ferr)
				continue
			}
			stats.Deleted++
			stats.BytesFreed += info.Size
		}

		logger.Debug("Purge: deleted batch %d-%d: %d succeeded, %d failed",
			i, end, len(batch)-len(failures), len(failures))
	}
	return nil
}

func (r *Reconciler) purgeOneByOne(ctx context.Context, eligible []object.ObjectInfo, stats *PurgeStats) error {
	for _, info := range eligible {
		if err := r.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := r.objects.Delete(ctx, info.Key); err != nil {
			stats.Failed++
			logger.Debug("Purge: failed to delete %s: %v", info.Key, err)
			continue
		}
		stats.Deleted++
		stats.BytesFreed += info.Size
	}
	return nil
}
