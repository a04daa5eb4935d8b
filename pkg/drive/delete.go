package drive

import (
	"context"
	"fmt"
	"time"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/store/item"
)

// DeleteResult is the outcome of a successful DeleteItem.
//
// The record is always gone when a result is returned. ObjectCleanupErr is
// set when the backing object could not be removed; the object then stays
// in storage as a ghost object.
type DeleteResult struct {
	// Item is the record as it was before deletion
	Item *item.Item

	// ObjectKey is the key the record pointed at ("" for folders)
	ObjectKey string

	// ObjectCleanupErr is the swallowed object deletion failure, if any
	ObjectCleanupErr error
}

// ObjectDeleted reports whether a backing object existed and was removed.
func (r *DeleteResult) ObjectDeleted() bool {
	return r.ObjectKey != "" && r.ObjectCleanupErr == nil
}

// Warning describes a failed object cleanup, or returns "".
func (r *DeleteResult) Warning() string {
	if r.ObjectCleanupErr == nil {
		return ""
	}
	if r.ObjectKey == "" {
		return fmt.Sprintf("record deleted, but its object could not be located: %v", r.ObjectCleanupErr)
	}
	return fmt.Sprintf("record deleted, but object %s was left in storage: %v", r.ObjectKey, r.ObjectCleanupErr)
}

// DeleteItem removes an item's record and, best effort, its object.
//
// Steps:
//  1. Fetch the record (NotFound if absent)
//  2. For files, delete the object; failures are logged and reported in
//     the result, never returned
//  3. Delete the record unconditionally
//
// Folder children are not touched; they become dangling.
func (s *Service) DeleteItem(ctx context.Context, id string) (result *DeleteResult, err error) {
	start := time.Now()
	defer func() { s.observe("delete", start, err) }()

	it, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}

	result = &DeleteResult{Item: it}

	if !it.IsFolder() && it.HasObject() {
		result.ObjectKey, result.ObjectCleanupErr = s.deleteObject(ctx, it)
		if result.ObjectCleanupErr != nil {
			s.cfg.Metrics.RecordOrphanedObject(OrphanDeleteFailed)
			logger.Warn("Drive: failed to delete object for item %s, continuing with record: %v", it.ID, result.ObjectCleanupErr)
		}
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.items.Delete(opCtx, it.ID); err != nil {
		return nil, err
	}

	logger.Debug("Drive: deleted item %s (%s)", it.ID, it.Kind)
	return result, nil
}

func (s *Service) deleteObject(ctx context.Context, it *item.Item) (string, error) {
	key, err := s.objectKeyOf(it)
	if err != nil {
		return "", fmt.Errorf("resolve object key: %w", err)
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	if err := s.objects.Delete(opCtx, key); err != nil {
		return key, err
	}
	return key, nil
}
