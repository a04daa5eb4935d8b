package drive

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/item"
	"github.com/marmos91/clouddrive/pkg/store/object"
	objectmemory "github.com/marmos91/clouddrive/pkg/store/object/memory"
)

func TestDeleteItem_File(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	file := f.upload(t, "u1", nil, "a.pdf", "application/pdf")

	res, err := f.svc.DeleteItem(ctx, file.ID)
	require.NoError(t, err)
	assert.True(t, res.ObjectDeleted())
	assert.Empty(t, res.Warning())
	assert.Equal(t, file.ObjectKey, res.ObjectKey)

	ok, err := f.objects.Exists(ctx, file.ObjectKey)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = f.items.Get(ctx, file.ID)
	assert.True(t, item.IsNotFound(err))
}

func TestDeleteItem_Folder(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	folder, err := f.svc.CreateFolder(ctx, "u1", nil, "Reports")
	require.NoError(t, err)
	child := f.upload(t, "u1", &folder.ID, "q1.pdf", "application/pdf")

	res, err := f.svc.DeleteItem(ctx, folder.ID)
	require.NoError(t, err)
	assert.False(t, res.ObjectDeleted())
	assert.Empty(t, res.ObjectKey)

	_, err = f.items.Get(ctx, child.ID)
	assert.NoError(t, err, "children are left dangling, not cascaded")
}

func TestDeleteItem_Twice(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	file := f.upload(t, "u1", nil, "a.pdf", "application/pdf")

	_, err := f.svc.DeleteItem(ctx, file.ID)
	require.NoError(t, err)

	_, err = f.svc.DeleteItem(ctx, file.ID)
	require.Error(t, err)
	assert.Equal(t, KindNotFound, KindOf(err))
	assert.True(t, item.IsNotFound(err))
}

func TestDeleteItem_ObjectFailureStillRemovesRecord(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	file := f.upload(t, "u1", nil, "My File.pdf", "application/pdf")
	other := f.upload(t, "u1", nil, "other.pdf", "application/pdf")

	f.objects.InjectFault(objectmemory.OpDelete, errors.New("connection reset"))

	res, err := f.svc.DeleteItem(ctx, file.ID)
	require.NoError(t, err, "object failures are not propagated")
	require.Error(t, res.ObjectCleanupErr)
	assert.ErrorIs(t, res.ObjectCleanupErr, object.ErrUnavailable)
	assert.Contains(t, res.Warning(), file.ObjectKey)
	assert.False(t, res.ObjectDeleted())
	assert.Equal(t, 1, f.metrics.orphanCount(OrphanDeleteFailed))

	_, err = f.items.Get(ctx, file.ID)
	assert.True(t, item.IsNotFound(err))

	// Other items are still deletable while storage is failing
	_, err = f.svc.DeleteItem(ctx, other.ID)
	require.NoError(t, err)

	f.objects.ClearFaults()

	// The object lingers with no matching record
	var ghost bool
	for info, err := range f.objects.ListAll(ctx) {
		require.NoError(t, err)
		if info.Key == file.ObjectKey {
			ghost = true
		}
	}
	assert.True(t, ghost)
}

func TestDeleteItem_UnparseableLocator(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	f.items.Insert(&item.Item{
		ID:      "broken",
		Name:    "broken.pdf",
		Kind:    item.KindPDF,
		OwnerID: "u1",
		Locator: "https://drive-test.s3.amazonaws.com/../etc/passwd",
	})

	res, err := f.svc.DeleteItem(ctx, "broken")
	require.NoError(t, err)
	assert.ErrorIs(t, res.ObjectCleanupErr, object.ErrInvalidKey)
	assert.NotEmpty(t, res.Warning())

	_, err = f.items.Get(ctx, "broken")
	assert.True(t, item.IsNotFound(err))
}

func TestDeleteItem_EmptyID(t *testing.T) {
	f := newFixture(t, Config{})
	_, err := f.svc.DeleteItem(context.Background(), "")
	assert.Equal(t, KindInvalidArgument, KindOf(err))
}
