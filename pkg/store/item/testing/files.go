package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (suite *StoreTestSuite) RunFilesTests(test *testing.T) {
	test.Run("Files_ExcludesFolders", suite.TestFiles_ExcludesFolders)
	test.Run("Files_SpansOwners", suite.TestFiles_SpansOwners)
	test.Run("Files_EarlyBreak", suite.TestFiles_EarlyBreak)
	test.Run("Files_Empty", suite.TestFiles_Empty)
}

func (suite *StoreTestSuite) TestFiles_ExcludesFolders(test *testing.T) {
	store := suite.newStore(test)
	folder := createFolder(test, store, "u1", nil, "Reports")
	createFile(test, store, "u1", &folder.ID, "a.pdf", "drive-uploads/a-1-1.pdf")
	createFile(test, store, "u1", nil, "b.pdf", "drive-uploads/b-1-1.pdf")

	var got []string
	for it, err := range store.Files(context.Background()) {
		require.NoError(test, err)
		assert.False(test, it.IsFolder())
		got = append(got, it.ObjectKey)
	}

	assert.ElementsMatch(test, []string{"drive-uploads/a-1-1.pdf", "drive-uploads/b-1-1.pdf"}, got)
}

func (suite *StoreTestSuite) TestFiles_SpansOwners(test *testing.T) {
	store := suite.newStore(test)
	createFile(test, store, "u1", nil, "a.pdf", "drive-uploads/a-1-1.pdf")
	createFile(test, store, "u2", nil, "b.pdf", "drive-uploads/b-1-1.pdf")

	owners := map[string]bool{}
	for it, err := range store.Files(context.Background()) {
		require.NoError(test, err)
		owners[it.OwnerID] = true
	}

	assert.Equal(test, map[string]bool{"u1": true, "u2": true}, owners)
}

func (suite *StoreTestSuite) TestFiles_EarlyBreak(test *testing.T) {
	store := suite.newStore(test)
	for _, key := range []string{"a", "b", "c"} {
		createFile(test, store, "u1", nil, key+".pdf", "drive-uploads/"+key+"-1-1.pdf")
	}

	seen := 0
	for _, err := range store.Files(context.Background()) {
		require.NoError(test, err)
		seen++
		if seen == 2 {
			break
		}
	}

	assert.Equal(test, 2, seen)
}

func (suite *StoreTestSuite) TestFiles_Empty(test *testing.T) {
	store := suite.newStore(test)
	createFolder(test, store, "u1", nil, "OnlyFolders")

	for it, err := range store.Files(context.Background()) {
		test.Fatalf("unexpected element %v (err %v)", it, err)
	}
}
