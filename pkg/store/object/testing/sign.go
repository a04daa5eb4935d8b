package testing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/object"
)

// RunSignTests executes signed view link tests.
func (suite *GatewayTestSuite) RunSignTests(t *testing.T) {
	t.Run("SignView_ReturnsURL", suite.testSignViewReturnsURL)
	t.Run("SignView_DoesNotMutate", suite.testSignViewDoesNotMutate)
	t.Run("SignView_Verifiable", suite.testSignViewVerifiable)
}

func (suite *GatewayTestSuite) testSignViewReturnsURL(t *testing.T) {
	g := suite.NewGateway()
	mustPut(t, g, "drive-uploads/v-1-1.pdf", []byte("x"))

	link, err := g.SignView(testContext(), "drive-uploads/v-1-1.pdf", 15*time.Minute)
	require.NoError(t, err)
	assert.Contains(t, link, "v-1-1.pdf")
}

func (suite *GatewayTestSuite) testSignViewDoesNotMutate(t *testing.T) {
	g := suite.NewGateway()

	_, err := g.SignView(testContext(), "drive-uploads/absent-1-1.pdf", time.Minute)
	require.NoError(t, err)

	assert.Empty(t, collectKeys(t, g))
}

func (suite *GatewayTestSuite) testSignViewVerifiable(t *testing.T) {
	g := suite.NewGateway()
	verifier, ok := g.(object.LinkVerifier)
	if !ok {
		t.Skip("Gateway links are verified by the storage provider")
	}

	link, err := g.SignView(testContext(), "drive-uploads/v-1-1.pdf", 15*time.Minute)
	require.NoError(t, err)

	key, err := verifier.VerifyView(link, time.Now().Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "drive-uploads/v-1-1.pdf", key)

	_, err = verifier.VerifyView(link, time.Now().Add(16*time.Minute))
	AssertErrorIs(t, object.ErrLinkExpired, err)
}
