package reconcile

import (
	"context"
	"time"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/store/item"
)

// maxPruneRounds bounds the fixed-point loop. Each round removes one level
// of a dangling subtree.
const maxPruneRounds = 64

// pruneDangling deletes items whose parent is not one of their owner's
// folders (item.DanglingUnder), repeating until a round deletes nothing.
// Items created after cutoff are kept. Deletion goes through the Deleter,
// so file objects are removed best effort like any user delete.
func (r *Reconciler) pruneDangling(ctx context.Context, cutoff time.Time) (uint64, error) {
	var pruned uint64

	for round := 1; round <= maxPruneRounds; round++ {
		rows, err := r.items.CountByParent(ctx)
		if err != nil {
			return pruned, err
		}

		var deleted uint64
		for _, row := range rows {
			if row.ParentID == nil {
				continue
			}
			parent, err := r.items.Get(ctx, *row.ParentID)
			switch {
			case item.IsNotFound(err):
				parent = nil
			case err != nil:
				return pruned, err
			}

			children, err := r.items.ListByParent(ctx, *row.ParentID)
			if err != nil {
				return pruned, err
			}

			for _, child := range children {
				if !child.DanglingUnder(parent) || child.CreatedAt.After(cutoff) {
					continue
				}
				if err := r.limiter.Wait(ctx); err != nil {
					return pruned, err
				}

				res, err := r.config.Deleter.DeleteItem(ctx, child.ID)
				switch {
				case item.IsNotFound(err):
					continue
				case err != nil:
					logger.Warn("Reconcile: failed to prune dangling item %s: %v", child.ID, err)
					continue
				}
				if w := res.Warning(); w != "" {
					logger.Warn("Reconcile: pruned %s: %s", child.ID, w)
				}
				deleted++
			}
		}

		pruned += deleted
		logger.Debug("Reconcile: prune round %d removed %d items", round, deleted)
		if deleted == 0 {
			return pruned, nil
		}
	}

	logger.Warn("Reconcile: dangling pruning stopped after %d rounds", maxPruneRounds)
	return pruned, nil
}
