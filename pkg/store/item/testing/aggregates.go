package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/item"
)

func (suite *StoreTestSuite) RunAggregateTests(test *testing.T) {
	test.Run("CountFiles", suite.TestCountFiles)
	test.Run("CountByParent", suite.TestCountByParent)
}

func (suite *StoreTestSuite) TestCountFiles(test *testing.T) {
	store := suite.newStore(test)
	ctx := context.Background()

	n, err := store.CountFiles(ctx)
	require.NoError(test, err)
	assert.Zero(test, n)

	folder := createFolder(test, store, "u1", nil, "Reports")
	createFile(test, store, "u1", &folder.ID, "a.pdf", "drive-uploads/a-1-1.pdf")
	createFile(test, store, "u2", nil, "b.pdf", "drive-uploads/b-1-1.pdf")

	n, err = store.CountFiles(ctx)
	require.NoError(test, err)
	assert.Equal(test, int64(2), n)
}

func (suite *StoreTestSuite) TestCountByParent(test *testing.T) {
	store := suite.newStore(test)
	folder := createFolder(test, store, "u1", nil, "Reports")
	createFile(test, store, "u1", &folder.ID, "a.pdf", "drive-uploads/a-1-1.pdf")
	createFile(test, store, "u1", &folder.ID, "b.pdf", "drive-uploads/b-1-1.pdf")
	createFile(test, store, "u1", nil, "c.pdf", "drive-uploads/c-1-1.pdf")

	rows, err := store.CountByParent(context.Background())
	require.NoError(test, err)

	got := map[string]int64{}
	for _, row := range rows {
		key := "<root>"
		if row.ParentID != nil {
			key = *row.ParentID
		}
		got[key] = row.Count
	}
	assert.Equal(test, map[string]int64{"<root>": 2, folder.ID: 2}, got)

	sorted := append([]item.ParentCount(nil), rows...)
	item.SortParentCounts(sorted)
	assert.Nil(test, sorted[0].ParentID, "root sorts first")
}
