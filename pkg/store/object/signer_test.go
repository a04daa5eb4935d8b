package object

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinkSigner_ValidUntilTTL(t *testing.T) {
	signer, err := NewLinkSigner("secret", "http://localhost:8080/objects")
	require.NoError(t, err)

	issued := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	link, err := signer.Sign("drive-uploads/My-File-1-2.pdf", 15*time.Minute, issued)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(link, "http://localhost:8080/objects/drive-uploads/My-File-1-2.pdf?token="))

	key, err := signer.Verify(link, issued.Add(14*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, "drive-uploads/My-File-1-2.pdf", key)

	_, err = signer.Verify(link, issued.Add(15*time.Minute+time.Second))
	assert.True(t, errors.Is(err, ErrLinkExpired), "got %v", err)
}

func TestLinkSigner_IndependentGrants(t *testing.T) {
	signer, err := NewLinkSigner("", "memory://bucket")
	require.NoError(t, err)
	now := time.Now()

	a, err := signer.Sign("k/a", time.Minute, now)
	require.NoError(t, err)
	b, err := signer.Sign("k/a", time.Minute, now)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestLinkSigner_Rejects(t *testing.T) {
	signer, err := NewLinkSigner("secret", "http://localhost/objects")
	require.NoError(t, err)
	other, err := NewLinkSigner("other-secret", "http://localhost/objects")
	require.NoError(t, err)
	now := time.Now()

	link, err := signer.Sign("drive-uploads/a.pdf", time.Minute, now)
	require.NoError(t, err)

	_, err = other.Verify(link, now)
	assert.True(t, errors.Is(err, ErrLinkInvalid), "foreign signature: %v", err)

	tampered := strings.Replace(link, "/a.pdf", "/b.pdf", 1)
	_, err = signer.Verify(tampered, now)
	assert.True(t, errors.Is(err, ErrLinkInvalid), "path swap: %v", err)

	_, err = signer.Verify("http://localhost/objects/drive-uploads/a.pdf?token=", now)
	assert.True(t, errors.Is(err, ErrLinkInvalid), "missing token: %v", err)

	_, err = signer.Sign("../x", time.Minute, now)
	assert.True(t, errors.Is(err, ErrInvalidKey))

	_, err = signer.Sign("a", 0, now)
	assert.Error(t, err)
}
