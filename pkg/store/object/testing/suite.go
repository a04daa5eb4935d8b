package testing

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/object"
)

// GatewayTestSuite is a reusable test suite for object.Gateway
// implementations (memory, filesystem, S3).
//
// Usage:
//
//	func TestMyGateway(t *testing.T) {
//	    suite := &testing.GatewayTestSuite{
//	        NewGateway: func() object.Gateway {
//	            return mygateway.New()
//	        },
//	    }
//	    suite.Run(t)
//	}
type GatewayTestSuite struct {
	// NewGateway is a factory function that creates a fresh, empty Gateway
	// for each test. This ensures test isolation.
	NewGateway func() object.Gateway
}

// Run executes all tests in the suite.
func (suite *GatewayTestSuite) Run(t *testing.T) {
	t.Run("BasicOperations", suite.RunBasicTests)
	t.Run("Listing", suite.RunListTests)
	t.Run("SignedLinks", suite.RunSignTests)
}

// testContext returns a standard test context.
func testContext() context.Context {
	return context.Background()
}

// AssertErrorIs checks if the error matches the expected error using errors.Is.
func AssertErrorIs(t *testing.T, expected error, actual error) {
	t.Helper()
	if !errors.Is(actual, expected) {
		t.Errorf("Expected error %v, got %v", expected, actual)
	}
}

// mustPut stores data and fails the test if it errors.
func mustPut(t *testing.T, g object.Gateway, key string, data []byte) string {
	t.Helper()
	locator, err := g.Put(testContext(), key, data, "application/octet-stream")
	require.NoError(t, err, "Put should succeed")
	return locator
}
