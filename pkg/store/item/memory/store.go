// Package memory implements an in-process item repository.
//
// It is used in tests and for single-process development setups. Records
// are lost when the process exits.
package memory

import (
	"context"
	"iter"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marmos91/clouddrive/pkg/store/item"
)

// MemoryItemStore keeps item records in a map guarded by a RWMutex.
//
// Thread Safety:
// All methods are safe for concurrent use. Returned items are copies.
type MemoryItemStore struct {
	mu    sync.RWMutex
	items map[string]*item.Item

	// now is the clock used for timestamps; overridable in tests
	now func() time.Time

	closed bool
}

// NewMemoryItemStore creates an empty store.
func NewMemoryItemStore() *MemoryItemStore {
	return &MemoryItemStore{
		items: make(map[string]*item.Item),
		now:   time.Now,
	}
}

// SetClock replaces the timestamp source.
func (s *MemoryItemStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

// Insert stores a record verbatim, keeping its ID and timestamps. It exists
// so tests can seed records that the normal Create path would reject or
// stamp differently.
func (s *MemoryItemStore) Insert(it *item.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := it.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	s.items[c.ID] = c
}

func (s *MemoryItemStore) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := item.ValidateScope(ownerID, parentID); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*item.Item
	for _, it := range s.items {
		if it.OwnerID == ownerID && it.InParent(parentID) {
			out = append(out, it.Clone())
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *MemoryItemStore) ListByOwner(ctx context.Context, ownerID string) ([]*item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := item.ValidateScope(ownerID, nil); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*item.Item
	for _, it := range s.items {
		if it.OwnerID == ownerID {
			out = append(out, it.Clone())
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *MemoryItemStore) ListByParent(ctx context.Context, parentID string) ([]*item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*item.Item
	for _, it := range s.items {
		if it.ParentID != nil && *it.ParentID == parentID {
			out = append(out, it.Clone())
		}
	}
	sortByCreation(out)
	return out, nil
}

func (s *MemoryItemStore) Create(ctx context.Context, it *item.Item) (*item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := item.Validate(it); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	c := it.Clone()
	if c.ID == "" {
		c.ID = uuid.NewString()
	} else if _, exists := s.items[c.ID]; exists {
		return nil, item.NewDuplicateKeyError(c.ID, nil)
	}
	now := s.now()
	c.CreatedAt = now
	c.UpdatedAt = now
	s.items[c.ID] = c

	return c.Clone(), nil
}

func (s *MemoryItemStore) Get(ctx context.Context, id string) (*item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	it, ok := s.items[id]
	if !ok {
		return nil, item.NewNotFoundError(id)
	}
	return it.Clone(), nil
}

func (s *MemoryItemStore) Update(ctx context.Context, it *item.Item) (*item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := item.Validate(it); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.items[it.ID]
	if !ok {
		return nil, item.NewNotFoundError(it.ID)
	}

	updated := existing.Clone()
	updated.Name = it.Name
	updated.ParentID = it.Clone().ParentID
	updated.UpdatedAt = s.now()
	s.items[it.ID] = updated

	return updated.Clone(), nil
}

func (s *MemoryItemStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[id]; !ok {
		return item.NewNotFoundError(id)
	}
	delete(s.items, id)
	return nil
}

// Files iterates over a snapshot of the file records taken when iteration
// starts, so callers may delete records while ranging.
func (s *MemoryItemStore) Files(ctx context.Context) iter.Seq2[*item.Item, error] {
	return func(yield func(*item.Item, error) bool) {
		if err := ctx.Err(); err != nil {
			yield(nil, err)
			return
		}

		s.mu.RLock()
		files := make([]*item.Item, 0, len(s.items))
		for _, it := range s.items {
			if !it.IsFolder() {
				files = append(files, it.Clone())
			}
		}
		s.mu.RUnlock()

		for _, f := range files {
			if err := ctx.Err(); err != nil {
				yield(nil, err)
				return
			}
			if !yield(f, nil) {
				return
			}
		}
	}
}

func (s *MemoryItemStore) CountFiles(ctx context.Context) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, it := range s.items {
		if !it.IsFolder() {
			n++
		}
	}
	return n, nil
}

func (s *MemoryItemStore) CountByParent(ctx context.Context) ([]item.ParentCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var root int64
	counts := make(map[string]int64)
	for _, it := range s.items {
		if it.ParentID == nil {
			root++
			continue
		}
		counts[*it.ParentID]++
	}

	out := make([]item.ParentCount, 0, len(counts)+1)
	if root > 0 {
		out = append(out, item.ParentCount{Count: root})
	}
	for parent, n := range counts {
		p := parent
		out = append(out, item.ParentCount{ParentID: &p, Count: n})
	}
	item.SortParentCounts(out)
	return out, nil
}

// Healthcheck always succeeds unless ctx is done or the store was closed.
func (s *MemoryItemStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return item.NewUnavailableError("memory store closed", nil)
	}
	return nil
}

func (s *MemoryItemStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func sortByCreation(items []*item.Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
}
