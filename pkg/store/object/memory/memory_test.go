package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/object"
	objecttesting "github.com/marmos91/clouddrive/pkg/store/object/testing"
)

// TestMemoryGateway runs the gateway suite against the memory implementation.
func TestMemoryGateway(t *testing.T) {
	suite := &objecttesting.GatewayTestSuite{
		NewGateway: func() object.Gateway {
			return MustNew(Config{Bucket: "test"})
		},
	}

	suite.Run(t)
}

func TestMemoryGateway_InjectFault(t *testing.T) {
	ctx := context.Background()
	g := MustNew(Config{})
	_, err := g.Put(ctx, "drive-uploads/a.pdf", []byte("x"), "application/pdf")
	require.NoError(t, err)

	g.InjectFault(OpDelete, errors.New("connection reset"))
	err = g.Delete(ctx, "drive-uploads/a.pdf")
	assert.True(t, errors.Is(err, object.ErrUnavailable), "got %v", err)

	ok, err := g.Exists(ctx, "drive-uploads/a.pdf")
	require.NoError(t, err)
	assert.True(t, ok, "failed delete must leave the object")

	g.ClearFaults()
	require.NoError(t, g.Delete(ctx, "drive-uploads/a.pdf"))
	assert.Zero(t, g.Len())
}

func TestMemoryGateway_PrefixNamespace(t *testing.T) {
	ctx := context.Background()
	g := MustNew(Config{Prefix: "drive-uploads/"})
	_, err := g.Put(ctx, "drive-uploads/a.pdf", []byte("a"), "")
	require.NoError(t, err)
	_, err = g.Put(ctx, "other/b.pdf", []byte("b"), "")
	require.NoError(t, err)

	var keys []string
	for info, err := range g.ListAll(ctx) {
		require.NoError(t, err)
		keys = append(keys, info.Key)
	}

	assert.Equal(t, []string{"drive-uploads/a.pdf"}, keys)
	assert.Equal(t, "drive-uploads/", g.Namespace())
}

func TestMemoryGateway_LinkExpiresWithClock(t *testing.T) {
	ctx := context.Background()
	g := MustNew(Config{Bucket: "test"})
	issued := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	g.SetClock(func() time.Time { return issued })

	link, err := g.SignView(ctx, "drive-uploads/a.pdf", 15*time.Minute)
	require.NoError(t, err)

	key, err := g.VerifyView(link, issued.Add(time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "drive-uploads/a.pdf", key)

	_, err = g.VerifyView(link, issued.Add(16*time.Minute))
	assert.True(t, errors.Is(err, object.ErrLinkExpired))
}

func TestMemoryGateway_ContentType(t *testing.T) {
	g := MustNew(Config{})
	_, err := g.Put(context.Background(), "k", []byte("x"), "image/png")
	require.NoError(t, err)

	ct, ok := g.ContentType("k")
	assert.True(t, ok)
	assert.Equal(t, "image/png", ct)
}
