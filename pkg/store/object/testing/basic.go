package testing

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/objectkey"
	"github.com/marmos91/clouddrive/pkg/store/object"
)

// RunBasicTests executes put/get/exists/delete tests.
func (suite *GatewayTestSuite) RunBasicTests(t *testing.T) {
	t.Run("Put_Get", suite.testPutGet)
	t.Run("Put_Overwrite", suite.testPutOverwrite)
	t.Run("Put_InvalidKey", suite.testPutInvalidKey)
	t.Run("Put_LongKey", suite.testPutLongKey)
	t.Run("Locator_RoundTrip", suite.testLocatorRoundTrip)
	t.Run("Get_NotFound", suite.testGetNotFound)
	t.Run("Exists", suite.testExists)
	t.Run("Delete_Success", suite.testDeleteSuccess)
	t.Run("Delete_Idempotent", suite.testDeleteIdempotent)
	t.Run("Healthcheck", suite.testHealthcheck)
}

func (suite *GatewayTestSuite) testPutGet(t *testing.T) {
	g := suite.NewGateway()
	data := []byte("%PDF-1.7 hello")

	mustPut(t, g, "drive-uploads/report-1-2.pdf", data)

	got, err := g.Get(testContext(), "drive-uploads/report-1-2.pdf")
	require.NoError(t, err)
	assert.Equal(t, data, got)
}

func (suite *GatewayTestSuite) testPutOverwrite(t *testing.T) {
	g := suite.NewGateway()

	mustPut(t, g, "drive-uploads/x-1-1.txt", []byte("first"))
	mustPut(t, g, "drive-uploads/x-1-1.txt", []byte("second"))

	got, err := g.Get(testContext(), "drive-uploads/x-1-1.txt")
	require.NoError(t, err)
	assert.Equal(t, "second", string(got))
}

func (suite *GatewayTestSuite) testPutInvalidKey(t *testing.T) {
	g := suite.NewGateway()

	for _, key := range []string{"", "/abs", "drive-uploads/../escape"} {
		_, err := g.Put(testContext(), key, []byte("x"), "")
		AssertErrorIs(t, object.ErrInvalidKey, err)
	}
}

func (suite *GatewayTestSuite) testPutLongKey(t *testing.T) {
	g := suite.NewGateway()
	deriver := objectkey.NewDeriver("")

	for _, name := range []string{strings.Repeat("a", 110) + ".pdf", strings.Repeat("Long Name ", 60) + ".docx"} {
		key := deriver.Derive(name)
		locator := mustPut(t, g, key, []byte("long"))

		got, err := g.Get(testContext(), key)
		require.NoError(t, err)
		assert.Equal(t, "long", string(got))

		fromLocator, err := g.KeyFromLocator(locator)
		require.NoError(t, err)
		assert.Equal(t, key, fromLocator)

		var listed bool
		for info, err := range g.ListAll(testContext()) {
			require.NoError(t, err)
			listed = listed || info.Key == key
		}
		assert.True(t, listed, "long key should be listed")

		require.NoError(t, g.Delete(testContext(), key))
		ok, err := g.Exists(testContext(), key)
		require.NoError(t, err)
		assert.False(t, ok)
	}
}

func (suite *GatewayTestSuite) testLocatorRoundTrip(t *testing.T) {
	g := suite.NewGateway()
	key := "drive-uploads/My-File-1700000000000-123456789.pdf"

	locator := mustPut(t, g, key, []byte("x"))
	require.NotEmpty(t, locator)

	got, err := g.KeyFromLocator(locator)
	require.NoError(t, err)
	assert.Equal(t, key, got)
}

func (suite *GatewayTestSuite) testGetNotFound(t *testing.T) {
	g := suite.NewGateway()

	_, err := g.Get(testContext(), "drive-uploads/missing-1-1.pdf")
	AssertErrorIs(t, object.ErrObjectNotFound, err)
}

func (suite *GatewayTestSuite) testExists(t *testing.T) {
	g := suite.NewGateway()
	mustPut(t, g, "drive-uploads/e-1-1.bin", []byte("x"))

	ok, err := g.Exists(testContext(), "drive-uploads/e-1-1.bin")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = g.Exists(testContext(), "drive-uploads/nope-1-1.bin")
	require.NoError(t, err)
	assert.False(t, ok)
}

func (suite *GatewayTestSuite) testDeleteSuccess(t *testing.T) {
	g := suite.NewGateway()
	mustPut(t, g, "drive-uploads/d-1-1.bin", []byte("x"))

	require.NoError(t, g.Delete(testContext(), "drive-uploads/d-1-1.bin"))

	_, err := g.Get(testContext(), "drive-uploads/d-1-1.bin")
	AssertErrorIs(t, object.ErrObjectNotFound, err)
}

func (suite *GatewayTestSuite) testDeleteIdempotent(t *testing.T) {
	g := suite.NewGateway()

	require.NoError(t, g.Delete(testContext(), "drive-uploads/never-1-1.bin"))
	require.NoError(t, g.Delete(testContext(), "drive-uploads/never-1-1.bin"))
}

func (suite *GatewayTestSuite) testHealthcheck(t *testing.T) {
	g := suite.NewGateway()
	require.NoError(t, g.Healthcheck(testContext()))
}
