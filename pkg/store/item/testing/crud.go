package testing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/item"
)

func (suite *StoreTestSuite) RunCRUDTests(test *testing.T) {
	test.Run("Create_AssignsIDAndTimestamps", suite.TestCreate_AssignsIDAndTimestamps)
	test.Run("Create_RejectsInvalidItem", suite.TestCreate_RejectsInvalidItem)
	test.Run("Create_DoesNotMutateInput", suite.TestCreate_DoesNotMutateInput)
	test.Run("Get_NotFound", suite.TestGet_NotFound)
	test.Run("Get_RoundTripsFileAttributes", suite.TestGet_RoundTripsFileAttributes)
	test.Run("Update_RenameAndMove", suite.TestUpdate_RenameAndMove)
	test.Run("Update_NotFound", suite.TestUpdate_NotFound)
	test.Run("Delete_RemovesRecord", suite.TestDelete_RemovesRecord)
	test.Run("Delete_Twice", suite.TestDelete_Twice)
}

func (suite *StoreTestSuite) TestCreate_AssignsIDAndTimestamps(test *testing.T) {
	store := suite.newStore(test)
	before := time.Now().Add(-time.Second)

	it := createFolder(test, store, "u1", nil, "Reports")

	assert.NotEmpty(test, it.ID)
	assert.Equal(test, "Reports", it.Name)
	assert.Equal(test, item.KindFolder, it.Kind)
	assert.Nil(test, it.ParentID)
	assert.True(test, it.CreatedAt.After(before), "CreatedAt should be set")
	assert.False(test, it.UpdatedAt.IsZero(), "UpdatedAt should be set")
}

func (suite *StoreTestSuite) TestCreate_RejectsInvalidItem(test *testing.T) {
	store := suite.newStore(test)

	_, err := store.Create(context.Background(), &item.Item{Kind: item.KindFolder, OwnerID: "u1"})
	assert.True(test, item.IsInvalidArgument(err), "empty name must be rejected, got %v", err)

	_, err = store.Create(context.Background(), &item.Item{
		Name: "f", Kind: item.KindFolder, OwnerID: "u1", ObjectKey: "drive-uploads/x",
	})
	assert.True(test, item.IsInvalidArgument(err), "folder with object must be rejected, got %v", err)
}

func (suite *StoreTestSuite) TestCreate_DoesNotMutateInput(test *testing.T) {
	store := suite.newStore(test)
	in := &item.Item{Name: "Docs", Kind: item.KindFolder, OwnerID: "u1"}

	_, err := store.Create(context.Background(), in)
	require.NoError(test, err)

	assert.Empty(test, in.ID)
	assert.True(test, in.CreatedAt.IsZero())
}

func (suite *StoreTestSuite) TestGet_NotFound(test *testing.T) {
	store := suite.newStore(test)

	_, err := store.Get(context.Background(), "does-not-exist")
	assert.True(test, item.IsNotFound(err), "expected NotFound, got %v", err)
}

func (suite *StoreTestSuite) TestGet_RoundTripsFileAttributes(test *testing.T) {
	store := suite.newStore(test)
	folder := createFolder(test, store, "u1", nil, "Reports")
	file := createFile(test, store, "u1", &folder.ID, "My File.pdf", "drive-uploads/My-File-1-2.pdf")

	got, err := store.Get(context.Background(), file.ID)
	require.NoError(test, err)

	assert.Equal(test, file.ID, got.ID)
	assert.Equal(test, "My File.pdf", got.Name)
	assert.Equal(test, item.KindPDF, got.Kind)
	require.NotNil(test, got.ParentID)
	assert.Equal(test, folder.ID, *got.ParentID)
	assert.Equal(test, "u1", got.OwnerID)
	assert.Equal(test, int64(1024), got.Size)
	assert.Equal(test, "application/pdf", got.ContentType)
	assert.Equal(test, "drive-uploads/My-File-1-2.pdf", got.ObjectKey)
	assert.Equal(test, "https://bucket.s3.eu-west-1.amazonaws.com/drive-uploads/My-File-1-2.pdf", got.Locator)
}

func (suite *StoreTestSuite) TestUpdate_RenameAndMove(test *testing.T) {
	store := suite.newStore(test)
	ctx := context.Background()
	target := createFolder(test, store, "u1", nil, "Target")
	file := createFile(test, store, "u1", nil, "a.pdf", "drive-uploads/a-1-1.pdf")

	file.Name = "b.pdf"
	file.ParentID = &target.ID
	updated, err := store.Update(ctx, file)
	require.NoError(test, err)
	assert.Equal(test, "b.pdf", updated.Name)
	assert.False(test, updated.UpdatedAt.Before(updated.CreatedAt))

	children, err := store.ListChildren(ctx, "u1", &target.ID)
	require.NoError(test, err)
	assert.Equal(test, []string{"b.pdf"}, names(children))

	got, err := store.Get(ctx, file.ID)
	require.NoError(test, err)
	assert.Equal(test, "drive-uploads/a-1-1.pdf", got.ObjectKey, "update must not touch object attributes")
}

func (suite *StoreTestSuite) TestUpdate_NotFound(test *testing.T) {
	store := suite.newStore(test)
	file := createFile(test, store, "u1", nil, "a.pdf", "drive-uploads/a-1-1.pdf")
	require.NoError(test, store.Delete(context.Background(), file.ID))

	_, err := store.Update(context.Background(), file)
	assert.True(test, item.IsNotFound(err), "expected NotFound, got %v", err)
}

func (suite *StoreTestSuite) TestDelete_RemovesRecord(test *testing.T) {
	store := suite.newStore(test)
	ctx := context.Background()
	file := createFile(test, store, "u1", nil, "a.pdf", "drive-uploads/a-1-1.pdf")

	require.NoError(test, store.Delete(ctx, file.ID))

	_, err := store.Get(ctx, file.ID)
	assert.True(test, item.IsNotFound(err))

	children, err := store.ListChildren(ctx, "u1", nil)
	require.NoError(test, err)
	assert.Empty(test, children)
}

func (suite *StoreTestSuite) TestDelete_Twice(test *testing.T) {
	store := suite.newStore(test)
	ctx := context.Background()
	folder := createFolder(test, store, "u1", nil, "Reports")

	require.NoError(test, store.Delete(ctx, folder.ID))
	err := store.Delete(ctx, folder.ID)
	assert.True(test, item.IsNotFound(err), "second delete should be NotFound, got %v", err)
}
