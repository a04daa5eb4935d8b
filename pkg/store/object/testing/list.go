package testing

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/object"
)

// RunListTests executes ListAll tests.
func (suite *GatewayTestSuite) RunListTests(t *testing.T) {
	t.Run("ListAll_Empty", suite.testListAllEmpty)
	t.Run("ListAll_AllKeys", suite.testListAllAllKeys)
	t.Run("ListAll_EarlyBreak", suite.testListAllEarlyBreak)
	t.Run("ListAll_AfterDelete", suite.testListAllAfterDelete)
	t.Run("DeleteBatch", suite.testDeleteBatch)
}

func collectKeys(t *testing.T, g object.Gateway) []string {
	t.Helper()
	var keys []string
	for info, err := range g.ListAll(testContext()) {
		require.NoError(t, err)
		keys = append(keys, info.Key)
	}
	return keys
}

func (suite *GatewayTestSuite) testListAllEmpty(t *testing.T) {
	g := suite.NewGateway()
	assert.Empty(t, collectKeys(t, g))
}

func (suite *GatewayTestSuite) testListAllAllKeys(t *testing.T) {
	g := suite.NewGateway()
	var want []string
	for i := 0; i < 25; i++ {
		key := fmt.Sprintf("drive-uploads/file-%02d-1-1.bin", i)
		mustPut(t, g, key, []byte{byte(i)})
		want = append(want, key)
	}

	assert.ElementsMatch(t, want, collectKeys(t, g))

	for info, err := range g.ListAll(testContext()) {
		require.NoError(t, err)
		assert.Equal(t, int64(1), info.Size)
		assert.False(t, info.LastModified.IsZero())
	}
}

func (suite *GatewayTestSuite) testListAllEarlyBreak(t *testing.T) {
	g := suite.NewGateway()
	for i := 0; i < 5; i++ {
		mustPut(t, g, fmt.Sprintf("drive-uploads/b-%d-1-1.bin", i), []byte("x"))
	}

	n := 0
	for _, err := range g.ListAll(testContext()) {
		require.NoError(t, err)
		n++
		if n == 3 {
			break
		}
	}
	assert.Equal(t, 3, n)
}

func (suite *GatewayTestSuite) testListAllAfterDelete(t *testing.T) {
	g := suite.NewGateway()
	mustPut(t, g, "drive-uploads/keep-1-1.bin", []byte("x"))
	mustPut(t, g, "drive-uploads/drop-1-1.bin", []byte("x"))
	require.NoError(t, g.Delete(testContext(), "drive-uploads/drop-1-1.bin"))

	assert.Equal(t, []string{"drive-uploads/keep-1-1.bin"}, collectKeys(t, g))
}

func (suite *GatewayTestSuite) testDeleteBatch(t *testing.T) {
	g := suite.NewGateway()
	batcher, ok := g.(object.BatchDeleter)
	if !ok {
		t.Skip("Gateway does not implement BatchDeleter")
	}

	mustPut(t, g, "drive-uploads/x-1-1.bin", []byte("x"))
	mustPut(t, g, "drive-uploads/y-1-1.bin", []byte("y"))

	failures, err := batcher.DeleteBatch(testContext(), []string{
		"drive-uploads/x-1-1.bin",
		"drive-uploads/y-1-1.bin",
		"drive-uploads/absent-1-1.bin",
	})
	require.NoError(t, err)
	assert.Empty(t, failures)
	assert.Empty(t, collectKeys(t, g))
}
