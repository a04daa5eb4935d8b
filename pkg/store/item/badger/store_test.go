package badger

import (
	"context"
	"testing"

	badger "github.com/dgraph-io/badger/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/item"
	itemtesting "github.com/marmos91/clouddrive/pkg/store/item/testing"
)

func TestBadgerItemStore(t *testing.T) {
	suite := &itemtesting.StoreTestSuite{
		NewStore: func() item.Repository {
			store, err := NewBadgerItemStore(context.Background(), BadgerItemStoreConfig{InMemory: true})
			require.NoError(t, err)
			return store
		},
	}

	suite.Run(t)
}

func TestBadgerItemStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	cfg := BadgerItemStoreConfig{DBPath: t.TempDir()}

	store, err := NewBadgerItemStore(ctx, cfg)
	require.NoError(t, err)
	created, err := store.Create(ctx, &item.Item{Name: "Reports", Kind: item.KindFolder, OwnerID: "u1"})
	require.NoError(t, err)
	require.NoError(t, store.Close())

	store, err = NewBadgerItemStore(ctx, cfg)
	require.NoError(t, err)
	defer store.Close()

	got, err := store.Get(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Reports", got.Name)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))
}

func TestBadgerItemStore_RequiresPath(t *testing.T) {
	_, err := NewBadgerItemStore(context.Background(), BadgerItemStoreConfig{})
	assert.Error(t, err)
}

func TestChildKeyRoundTrip(t *testing.T) {
	parent := "folder:with:colons"
	key := keyChild("owner:1", &parent, "id-123")

	assert.Equal(t, "id-123", idFromChildKey(key))
	assert.True(t, len(key) > len(keyChildPrefix("owner:1", &parent)))
	assert.NotEqual(t, string(keyChildPrefix("owner:1", nil)), string(keyChildPrefix("owner:1", &parent)))
}

func TestBadgerItemStore_ListingRechecksScope(t *testing.T) {
	ctx := context.Background()
	store, err := NewBadgerItemStore(ctx, BadgerItemStoreConfig{InMemory: true})
	require.NoError(t, err)
	defer store.Close()

	// Written below the validation layer: its index key shares the prefix
	// of owner "a" listing folder "b".
	require.NoError(t, store.db.Update(func(txn *badger.Txn) error {
		return putItem(txn, &item.Item{ID: "x", Name: "secret", Kind: item.KindFolder, OwnerID: "a\x00b"})
	}))

	parent := "b"
	children, err := store.ListChildren(ctx, "a", &parent)
	require.NoError(t, err)
	assert.Empty(t, children)

	owned, err := store.ListByOwner(ctx, "a")
	require.NoError(t, err)
	assert.Empty(t, owned)

	got, err := store.ListByOwner(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, got)
}
