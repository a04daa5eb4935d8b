package drive

import (
	"context"
	"strings"
	"time"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/store/item"
)

// Child is one entry of a folder listing.
type Child struct {
	*item.Item

	// Dangling is set when the item's parent is not one of its owner's
	// folders and the item is shown at the root by the DanglingRoot policy.
	Dangling bool `json:"dangling,omitempty"`
}

// ListChildren lists the items of ownerID directly under parentID (nil for
// the root). Ordering is unspecified.
func (s *Service) ListChildren(ctx context.Context, ownerID string, parentID *string) (children []Child, err error) {
	start := time.Now()
	defer func() { s.observe("list", start, err) }()

	if ownerID == "" {
		return nil, item.NewInvalidArgumentError("owner id is required", "")
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	if parentID == nil && s.cfg.DanglingParents == DanglingRoot {
		return s.listRootWithDangling(opCtx, ownerID)
	}

	items, err := s.items.ListChildren(opCtx, ownerID, parentID)
	if err != nil {
		return nil, err
	}

	children = make([]Child, len(items))
	for i, it := range items {
		children[i] = Child{Item: it}
	}
	return children, nil
}

// listRootWithDangling returns root items plus every item whose parent is
// not one of the owner's folders.
func (s *Service) listRootWithDangling(ctx context.Context, ownerID string) ([]Child, error) {
	all, err := s.items.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]*item.Item, len(all))
	for _, it := range all {
		byID[it.ID] = it
	}

	var children []Child
	for _, it := range all {
		switch {
		case it.AtRoot():
			children = append(children, Child{Item: it})
		case it.DanglingUnder(byID[*it.ParentID]):
			children = append(children, Child{Item: it, Dangling: true})
		}
	}
	return children, nil
}

// CreateFolder persists a new folder. Parent references are not checked
// and sibling names may repeat.
func (s *Service) CreateFolder(ctx context.Context, ownerID string, parentID *string, name string) (created *item.Item, err error) {
	start := time.Now()
	defer func() { s.observe("create_folder", start, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, item.NewInvalidArgumentError("folder name is required", "")
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	created, err = s.items.Create(opCtx, &item.Item{
		Name:     name,
		Kind:     item.KindFolder,
		ParentID: parentID,
		OwnerID:  ownerID,
	})
	if err != nil {
		return nil, err
	}

	logger.Debug("Drive: created folder %q (id=%s, owner=%s)", created.Name, created.ID, ownerID)
	return created, nil
}

// UploadedFile describes an object already accepted by the gateway.
type UploadedFile struct {
	OwnerID     string
	ParentID    *string
	Name        string
	ContentType string
	Size        int64

	// Locator is what the gateway's Put returned
	Locator string

	// ObjectKey is the key written; derived from Locator when empty
	ObjectKey string
}

// CompleteUpload records a file whose bytes are already stored.
//
// If the record cannot be written the error is returned as is and the
// object stays in storage without a record until a ghost object purge.
func (s *Service) CompleteUpload(ctx context.Context, f UploadedFile) (created *item.Item, err error) {
	start := time.Now()
	defer func() { s.observe("complete_upload", start, err) }()

	if f.Locator == "" && f.ObjectKey == "" {
		return nil, item.NewInvalidArgumentError("uploaded file has no locator", "")
	}

	key := f.ObjectKey
	if key == "" {
		key, err = s.objects.KeyFromLocator(f.Locator)
		if err != nil {
			return nil, err
		}
	}
	locator := f.Locator
	if locator == "" {
		locator = key
	}

	opCtx, cancel := s.opContext(ctx)
	defer cancel()

	created, err = s.items.Create(opCtx, &item.Item{
		Name:        f.Name,
		Kind:        item.ClassifyContentType(f.ContentType),
		ParentID:    f.ParentID,
		OwnerID:     f.OwnerID,
		Size:        f.Size,
		ContentType: f.ContentType,
		Locator:     locator,
		ObjectKey:   key,
	})
	if err != nil {
		s.cfg.Metrics.RecordOrphanedObject(OrphanRecordFailed)
		logger.Warn("Drive: object %s stored but record creation failed, object is orphaned: %v", key, err)
		return nil, err
	}

	logger.Debug("Drive: recorded file %q (id=%s, key=%s, size=%d)", created.Name, created.ID, key, created.Size)
	return created, nil
}

// Rename changes an item's display name.
func (s *Service) Rename(ctx context.Context, id, name string) (updated *item.Item, err error) {
	start := time.Now()
	defer func() { s.observe("rename", start, err) }()

	name = strings.TrimSpace(name)
	if name == "" {
		return nil, item.NewInvalidArgumentError("name is required", id)
	}

	it, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	it.Name = name

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	return s.items.Update(opCtx, it)
}

// Move re-parents an item. A non-root target must be an existing folder of
// the same owner. Cycles are not detected.
func (s *Service) Move(ctx context.Context, id string, parentID *string) (updated *item.Item, err error) {
	start := time.Now()
	defer func() { s.observe("move", start, err) }()

	it, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}

	if parentID != nil {
		if *parentID == id {
			return nil, item.NewInvalidStateError("an item cannot contain itself", id)
		}
		target, err := s.getItem(ctx, *parentID)
		if item.IsNotFound(err) {
			return nil, item.NewInvalidStateError("move target does not exist", *parentID)
		}
		if err != nil {
			return nil, err
		}
		if !target.IsFolder() {
			return nil, item.NewInvalidStateError("move target is not a folder", target.ID)
		}
		if target.OwnerID != it.OwnerID {
			return nil, item.NewInvalidStateError("move target belongs to another owner", target.ID)
		}
	}
	it.ParentID = parentID

	opCtx, cancel := s.opContext(ctx)
	defer cancel()
	return s.items.Update(opCtx, it)
}
