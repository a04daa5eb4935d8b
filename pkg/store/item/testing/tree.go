package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/item"
)

func (suite *StoreTestSuite) RunTreeTests(test *testing.T) {
	test.Run("ListChildren_Root", suite.TestListChildren_Root)
	test.Run("ListChildren_Folder", suite.TestListChildren_Folder)
	test.Run("ListChildren_OwnerScoped", suite.TestListChildren_OwnerScoped)
	test.Run("ListChildren_DanglingParent", suite.TestListChildren_DanglingParent)
	test.Run("Scope_RejectsNUL", suite.TestScope_RejectsNUL)
	test.Run("ListByOwner", suite.TestListByOwner)
	test.Run("ListByParent_CrossOwner", suite.TestListByParent_CrossOwner)
}

func (suite *StoreTestSuite) TestListChildren_Root(test *testing.T) {
	store := suite.newStore(test)
	reports := createFolder(test, store, "u1", nil, "Reports")
	createFile(test, store, "u1", &reports.ID, "nested.pdf", "drive-uploads/nested-1-1.pdf")

	children, err := store.ListChildren(context.Background(), "u1", nil)
	require.NoError(test, err)

	require.Len(test, children, 1)
	assert.Equal(test, "Reports", children[0].Name)
}

func (suite *StoreTestSuite) TestListChildren_Folder(test *testing.T) {
	store := suite.newStore(test)
	reports := createFolder(test, store, "u1", nil, "Reports")
	createFolder(test, store, "u1", &reports.ID, "2024")
	createFile(test, store, "u1", &reports.ID, "q1.pdf", "drive-uploads/q1-1-1.pdf")
	createFile(test, store, "u1", nil, "top.pdf", "drive-uploads/top-1-1.pdf")

	children, err := store.ListChildren(context.Background(), "u1", &reports.ID)
	require.NoError(test, err)

	assert.ElementsMatch(test, []string{"2024", "q1.pdf"}, names(children))
}

func (suite *StoreTestSuite) TestListChildren_OwnerScoped(test *testing.T) {
	store := suite.newStore(test)
	ctx := context.Background()
	createFolder(test, store, "u1", nil, "Mine")
	createFolder(test, store, "u2", nil, "Theirs")
	shared := ptr("same-parent-id")
	createFile(test, store, "u1", shared, "a.pdf", "drive-uploads/a-1-1.pdf")
	createFile(test, store, "u2", shared, "b.pdf", "drive-uploads/b-1-1.pdf")

	for _, parent := range []*string{nil, shared} {
		children, err := store.ListChildren(ctx, "u1", parent)
		require.NoError(test, err)
		require.NotEmpty(test, children)
		for _, c := range children {
			assert.Equal(test, "u1", c.OwnerID, "listing must never cross owners")
		}
	}
}

func (suite *StoreTestSuite) TestListChildren_DanglingParent(test *testing.T) {
	store := suite.newStore(test)
	ctx := context.Background()
	folder := createFolder(test, store, "u1", nil, "Doomed")
	createFile(test, store, "u1", &folder.ID, "orphan.pdf", "drive-uploads/orphan-1-1.pdf")
	require.NoError(test, store.Delete(ctx, folder.ID))

	root, err := store.ListChildren(ctx, "u1", nil)
	require.NoError(test, err)
	assert.Empty(test, root, "plain listing is a pure equality filter")

	children, err := store.ListChildren(ctx, "u1", &folder.ID)
	require.NoError(test, err)
	assert.Equal(test, []string{"orphan.pdf"}, names(children))
}

func (suite *StoreTestSuite) TestScope_RejectsNUL(test *testing.T) {
	store := suite.newStore(test)
	ctx := context.Background()
	createFolder(test, store, "a", ptr("b"), "Mine")

	_, err := store.Create(ctx, &item.Item{Name: "secret", Kind: item.KindFolder, OwnerID: "a\x00b"})
	assert.True(test, item.IsInvalidArgument(err), "owner with NUL: %v", err)

	_, err = store.Create(ctx, &item.Item{Name: "secret", Kind: item.KindFolder, OwnerID: "a", ParentID: ptr("b\x00c")})
	assert.True(test, item.IsInvalidArgument(err), "parent with NUL: %v", err)

	_, err = store.ListChildren(ctx, "a\x00b", nil)
	assert.True(test, item.IsInvalidArgument(err))
	_, err = store.ListChildren(ctx, "a", ptr("b\x00"))
	assert.True(test, item.IsInvalidArgument(err))
	_, err = store.ListByOwner(ctx, "a\x00")
	assert.True(test, item.IsInvalidArgument(err))

	children, err := store.ListChildren(ctx, "a", ptr("b"))
	require.NoError(test, err)
	assert.Equal(test, []string{"Mine"}, names(children))
}

func (suite *StoreTestSuite) TestListByOwner(test *testing.T) {
	store := suite.newStore(test)
	reports := createFolder(test, store, "u1", nil, "Reports")
	createFile(test, store, "u1", &reports.ID, "q1.pdf", "drive-uploads/q1-1-1.pdf")
	createFolder(test, store, "u2", nil, "Other")

	all, err := store.ListByOwner(context.Background(), "u1")
	require.NoError(test, err)
	assert.ElementsMatch(test, []string{"Reports", "q1.pdf"}, names(all))
}

func (suite *StoreTestSuite) TestListByParent_CrossOwner(test *testing.T) {
	store := suite.newStore(test)
	ctx := context.Background()
	gone := ptr("deleted-folder")
	createFile(test, store, "u1", gone, "a.pdf", "drive-uploads/a-1-1.pdf")
	createFolder(test, store, "u2", gone, "Sub")
	createFile(test, store, "u1", nil, "root.pdf", "drive-uploads/root-1-1.pdf")

	children, err := store.ListByParent(ctx, *gone)
	require.NoError(test, err)
	assert.ElementsMatch(test, []string{"a.pdf", "Sub"}, names(children))

	none, err := store.ListByParent(ctx, "nothing-here")
	require.NoError(test, err)
	assert.Empty(test, none)
}
