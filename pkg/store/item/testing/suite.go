package testing

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/item"
)

// StoreTestSuite is a reusable test suite for item.Repository implementations.
// It tests the interface contract, not implementation details, so the same
// assertions run against memory, badger, mongo and postgres.
type StoreTestSuite struct {
	// NewStore is a factory function that creates a fresh, empty Repository
	// for each test. The suite closes it when the test ends.
	NewStore func() item.Repository
}

// Run executes all tests in the suite.
func (suite *StoreTestSuite) Run(test *testing.T) {
	test.Run("CRUD", suite.RunCRUDTests)
	test.Run("Tree", suite.RunTreeTests)
	test.Run("Files", suite.RunFilesTests)
	test.Run("Aggregates", suite.RunAggregateTests)
	test.Run("Healthcheck", suite.RunHealthcheckTests)
}

func (suite *StoreTestSuite) newStore(test *testing.T) item.Repository {
	test.Helper()
	store := suite.NewStore()
	test.Cleanup(func() { _ = store.Close() })
	return store
}

// ============================================================================
// Helpers
// ============================================================================

func ptr(s string) *string { return &s }

func createFolder(test *testing.T, store item.Repository, owner string, parent *string, name string) *item.Item {
	test.Helper()
	it, err := store.Create(context.Background(), &item.Item{
		Name:     name,
		Kind:     item.KindFolder,
		OwnerID:  owner,
		ParentID: parent,
	})
	require.NoError(test, err)
	return it
}

func createFile(test *testing.T, store item.Repository, owner string, parent *string, name, key string) *item.Item {
	test.Helper()
	it, err := store.Create(context.Background(), &item.Item{
		Name:        name,
		Kind:        item.KindPDF,
		OwnerID:     owner,
		ParentID:    parent,
		Size:        1024,
		ContentType: "application/pdf",
		Locator:     "https://bucket.s3.eu-west-1.amazonaws.com/" + key,
		ObjectKey:   key,
	})
	require.NoError(test, err)
	return it
}

func names(items []*item.Item) []string {
	out := make([]string, 0, len(items))
	for _, it := range items {
		out = append(out, it.Name)
	}
	return out
}
