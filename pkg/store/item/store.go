// Package item defines the item record model and the repository contract
// implemented by every record store backend.
package item

import (
	"context"
	"iter"
)

// Repository provides CRUD and hierarchical query access over item records.
//
// Implementations must be safe for concurrent use. Every method honours ctx
// cancellation and deadlines; store connectivity problems are reported as
// ErrUnavailable.
//
// The repository never touches object storage. Removing a record leaves its
// object in place; coordinating both sides is the job of the drive service.
type Repository interface {
	// ListChildren returns the items of ownerID whose parent equals parentID.
	// A nil parentID matches root-level items. Ordering is unspecified.
	ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*Item, error)

	// ListByOwner returns every item of ownerID regardless of parent.
	ListByOwner(ctx context.Context, ownerID string) ([]*Item, error)

	// ListByParent returns every item whose parent is parentID, across
	// owners. It exists for maintenance passes that repair dangling parent
	// references and may be a full scan on some backends.
	ListByParent(ctx context.Context, parentID string) ([]*Item, error)

	// Create persists a new item, assigning ID, CreatedAt and UpdatedAt.
	// The passed item is not modified; the stored copy is returned.
	//
	// Returns:
	//   - ErrInvalidArgument if the item fails Validate
	//   - ErrDuplicateKey if a uniqueness constraint is violated
	Create(ctx context.Context, it *Item) (*Item, error)

	// Get returns the item with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*Item, error)

	// Update replaces the mutable fields (name, parent) of an existing item
	// and bumps UpdatedAt. Returns ErrNotFound if the item is gone.
	Update(ctx context.Context, it *Item) (*Item, error)

	// Delete removes the record unconditionally. Returns ErrNotFound if
	// there is nothing to delete.
	Delete(ctx context.Context, id string) error

	// Files streams every file-kind record (kind != folder) across all
	// owners. Iteration stops at the first error, which is yielded once.
	// Records created or removed while iterating may or may not be seen.
	Files(ctx context.Context) iter.Seq2[*Item, error]

	// CountFiles returns the number of file-kind records.
	CountFiles(ctx context.Context) (int64, error)

	// CountByParent groups all records by parent and counts them.
	CountByParent(ctx context.Context) ([]ParentCount, error)

	// Healthcheck verifies that the store is reachable.
	Healthcheck(ctx context.Context) error

	// Close releases the underlying connection or database handle.
	Close() error
}
