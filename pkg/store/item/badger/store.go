// Package badger implements an embedded item repository on BadgerDB.
package badger

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"time"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"github.com/google/uuid"

	"github.com/marmos91/clouddrive/pkg/store/item"
)

// BadgerItemStore persists item records in a local BadgerDB instance.
//
// Each record is stored once under its id plus one children index entry
// keyed by owner and parent, which makes ListChildren a single prefix scan.
// Both keys are always written in the same transaction.
//
// Thread Safety:
// BadgerDB provides serializable snapshot isolation per transaction; the
// store adds no locking of its own.
type BadgerItemStore struct {
	db  *badger.DB
	now func() time.Time
}

// BadgerItemStoreConfig configures the BadgerDB instance.
type BadgerItemStoreConfig struct {
	// DBPath is the directory holding the database files
	DBPath string `mapstructure:"db_path"`

	// InMemory keeps everything in RAM (DBPath is ignored)
	InMemory bool `mapstructure:"in_memory"`

	// BlockCacheSizeMB is the block cache size (default 64)
	BlockCacheSizeMB int64 `mapstructure:"block_cache_size_mb"`

	// IndexCacheSizeMB is the index cache size (default 32)
	IndexCacheSizeMB int64 `mapstructure:"index_cache_size_mb"`
}

// NewBadgerItemStore opens (or creates) the database.
func NewBadgerItemStore(ctx context.Context, config BadgerItemStoreConfig) (*BadgerItemStore, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !config.InMemory && config.DBPath == "" {
		return nil, errors.New("badger db_path is required unless in_memory is set")
	}

	var opts badger.Options
	if config.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		opts = badger.DefaultOptions(config.DBPath)
	}

	opts = opts.WithLoggingLevel(badger.WARNING)
	opts = opts.WithCompression(options.None) // records are small JSON blobs

	blockCacheMB := config.BlockCacheSizeMB
	if blockCacheMB == 0 {
		blockCacheMB = 64
	}
	indexCacheMB := config.IndexCacheSizeMB
	if indexCacheMB == 0 {
		indexCacheMB = 32
	}
	opts = opts.WithBlockCacheSize(blockCacheMB << 20)
	opts = opts.WithIndexCacheSize(indexCacheMB << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open BadgerDB at %s: %w", config.DBPath, err)
	}

	return &BadgerItemStore{db: db, now: time.Now}, nil
}

// mapError converts badger errors to repository errors.
func mapError(id string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, badger.ErrKeyNotFound):
		return item.NewNotFoundError(id)
	case errors.Is(err, badger.ErrDBClosed):
		return item.NewUnavailableError("badger database closed", err)
	default:
		return err
	}
}

func getItem(txn *badger.Txn, id string) (*item.Item, error) {
	entry, err := txn.Get(keyItem(id))
	if err != nil {
		return nil, mapError(id, err)
	}

	var it *item.Item
	err = entry.Value(func(val []byte) error {
		it, err = decodeItem(id, val)
		return err
	})
	return it, err
}

func putItem(txn *badger.Txn, it *item.Item) error {
	bytes, err := encodeItem(it)
	if err != nil {
		return err
	}
	if err := txn.Set(keyItem(it.ID), bytes); err != nil {
		return fmt.Errorf("failed to store item: %w", err)
	}
	if err := txn.Set(keyChild(it.OwnerID, it.ParentID, it.ID), nil); err != nil {
		return fmt.Errorf("failed to index item: %w", err)
	}
	return nil
}

// listIndexed resolves every id found under a children index prefix and
// keeps the records accepted by keep. The prefix only narrows the scan;
// keep is what enforces owner and parent scoping.
func (s *BadgerItemStore) listIndexed(ctx context.Context, prefix []byte, keep func(*item.Item) bool) ([]*item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var out []*item.Item
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			id := idFromChildKey(it.Item().Key())
			rec, err := getItem(txn, id)
			if item.IsNotFound(err) {
				continue
			}
			if err != nil {
				return err
			}
			if keep(rec) {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapError("", err)
	}
	return out, nil
}

func (s *BadgerItemStore) ListChildren(ctx context.Context, ownerID string, parentID *string) ([]*item.Item, error) {
	if err := item.ValidateScope(ownerID, parentID); err != nil {
		return nil, err
	}
	return s.listIndexed(ctx, keyChildPrefix(ownerID, parentID), func(rec *item.Item) bool {
		return rec.OwnerID == ownerID && rec.InParent(parentID)
	})
}

func (s *BadgerItemStore) ListByOwner(ctx context.Context, ownerID string) ([]*item.Item, error) {
	if err := item.ValidateScope(ownerID, nil); err != nil {
		return nil, err
	}
	return s.listIndexed(ctx, keyOwnerPrefix(ownerID), func(rec *item.Item) bool {
		return rec.OwnerID == ownerID
	})
}

// ListByParent scans every record; the child index is keyed by owner first.
func (s *BadgerItemStore) ListByParent(ctx context.Context, parentID string) ([]*item.Item, error) {
	var out []*item.Item
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixItem)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			entry := it.Item()
			id := string(entry.Key()[len(prefixItem):])

			var rec *item.Item
			if err := entry.Value(func(val []byte) error {
				var err error
				rec, err = decodeItem(id, val)
				return err
			}); err != nil {
				return err
			}
			if rec.ParentID != nil && *rec.ParentID == parentID {
				out = append(out, rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapError("", err)
	}
	return out, nil
}

func (s *BadgerItemStore) Create(ctx context.Context, it *item.Item) (*item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := item.Validate(it); err != nil {
		return nil, err
	}

	rec := it.Clone()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	now := s.now()
	rec.CreatedAt = now
	rec.UpdatedAt = now

	err := s.db.Update(func(txn *badger.Txn) error {
		_, err := txn.Get(keyItem(rec.ID))
		if err == nil {
			return item.NewDuplicateKeyError(rec.ID, nil)
		}
		if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("failed to check item: %w", err)
		}
		return putItem(txn, rec)
	})
	if err != nil {
		return nil, mapError(rec.ID, err)
	}
	return rec.Clone(), nil
}

func (s *BadgerItemStore) Get(ctx context.Context, id string) (*item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var rec *item.Item
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		rec, err = getItem(txn, id)
		return err
	})
	if err != nil {
		return nil, mapError(id, err)
	}
	return rec, nil
}

func (s *BadgerItemStore) Update(ctx context.Context, it *item.Item) (*item.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := item.Validate(it); err != nil {
		return nil, err
	}

	var updated *item.Item
	err := s.db.Update(func(txn *badger.Txn) error {
		existing, err := getItem(txn, it.ID)
		if err != nil {
			return err
		}
		if err := txn.Delete(keyChild(existing.OwnerID, existing.ParentID, existing.ID)); err != nil {
			return fmt.Errorf("failed to unindex item: %w", err)
		}

		updated = existing.Clone()
		updated.Name = it.Name
		updated.ParentID = it.Clone().ParentID
		updated.UpdatedAt = s.now()
		return putItem(txn, updated)
	})
	if err != nil {
		return nil, mapError(it.ID, err)
	}
	return updated, nil
}

func (s *BadgerItemStore) Delete(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	err := s.db.Update(func(txn *badger.Txn) error {
		existing, err := getItem(txn, id)
		if err != nil {
			return err
		}
		if err := txn.Delete(keyItem(id)); err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		if err := txn.Delete(keyChild(existing.OwnerID, existing.ParentID, id)); err != nil {
			return fmt.Errorf("failed to unindex item: %w", err)
		}
		return nil
	})
	return mapError(id, err)
}

// Files walks the item records inside one read transaction. The iterator
// sees the snapshot taken when iteration starts.
func (s *BadgerItemStore) Files(ctx context.Context) iter.Seq2[*item.Item, error] {
	return func(yield func(*item.Item, error) bool) {
		stopped := false
		err := s.db.View(func(txn *badger.Txn) error {
			opts := badger.DefaultIteratorOptions
			opts.Prefix = []byte(prefixItem)

			it := txn.NewIterator(opts)
			defer it.Close()

			for it.Rewind(); it.Valid(); it.Next() {
				if err := ctx.Err(); err != nil {
					return err
				}
				entry := it.Item()
				id := string(entry.Key()[len(prefixItem):])

				var rec *item.Item
				if err := entry.Value(func(val []byte) error {
					var err error
					rec, err = decodeItem(id, val)
					return err
				}); err != nil {
					return err
				}
				if rec.IsFolder() {
					continue
				}
				if !yield(rec, nil) {
					stopped = true
					return nil
				}
			}
			return nil
		})
		if err != nil && !stopped {
			yield(nil, mapError("", err))
		}
	}
}

func (s *BadgerItemStore) CountFiles(ctx context.Context) (int64, error) {
	var n int64
	for _, err := range s.Files(ctx) {
		if err != nil {
			return 0, err
		}
		n++
	}
	return n, nil
}

func (s *BadgerItemStore) CountByParent(ctx context.Context) ([]item.ParentCount, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var root int64
	counts := make(map[string]int64)
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixItem)

		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			entry := it.Item()
			id := string(entry.Key()[len(prefixItem):])
			err := entry.Value(func(val []byte) error {
				rec, err := decodeItem(id, val)
				if err != nil {
					return err
				}
				if rec.ParentID == nil {
					root++
				} else {
					counts[*rec.ParentID]++
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, mapError("", err)
	}

	out := make([]item.ParentCount, 0, len(counts)+1)
	if root > 0 {
		out = append(out, item.ParentCount{Count: root})
	}
	for parent, n := range counts {
		out = append(out, item.ParentCount{ParentID: &parent, Count: n})
	}
	item.SortParentCounts(out)
	return out, nil
}

// Healthcheck runs an empty read transaction.
func (s *BadgerItemStore) Healthcheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.db.IsClosed() {
		return item.NewUnavailableError("badger database closed", nil)
	}
	return mapError("", s.db.View(func(txn *badger.Txn) error { return nil }))
}

func (s *BadgerItemStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close BadgerDB: %w", err)
	}
	return nil
}

func unixNano(ns int64) time.Time {
	if ns == 0 {
		return time.Time{}
	}
	return time.Unix(0, ns)
}
