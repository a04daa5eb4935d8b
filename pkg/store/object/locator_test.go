package object

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKeyFromLocator(t *testing.T) {
	tests := []struct {
		name    string
		locator string
		bucket  string
		want    string
	}{
		{
			name:    "virtual-hosted url",
			locator: "https://my-bucket.s3.eu-west-1.amazonaws.com/drive-uploads/My-File-1700000000000-42.pdf",
			bucket:  "my-bucket",
			want:    "drive-uploads/My-File-1700000000000-42.pdf",
		},
		{
			name:    "path-style url",
			locator: "http://localhost:4566/my-bucket/drive-uploads/a-1-2.png",
			bucket:  "my-bucket",
			want:    "drive-uploads/a-1-2.png",
		},
		{
			name:    "percent-encoded extension",
			locator: "https://my-bucket.s3.amazonaws.com/drive-uploads/a-1-2.tar%20gz",
			bucket:  "my-bucket",
			want:    "drive-uploads/a-1-2.tar gz",
		},
		{
			name:    "bare key",
			locator: "drive-uploads/a-1-2.pdf",
			want:    "drive-uploads/a-1-2.pdf",
		},
		{
			name:    "bare key with leading slash",
			locator: "/drive-uploads/a-1-2.pdf",
			want:    "drive-uploads/a-1-2.pdf",
		},
		{
			name:    "memory locator",
			locator: "memory://test/drive-uploads/a-1-2.pdf",
			bucket:  "test",
			want:    "drive-uploads/a-1-2.pdf",
		},
		{
			name:    "unknown bucket keeps path",
			locator: "https://cdn.example.com/drive-uploads/a-1-2.pdf",
			bucket:  "my-bucket",
			want:    "drive-uploads/a-1-2.pdf",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := KeyFromLocator(tt.locator, tt.bucket)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeyFromLocator_Invalid(t *testing.T) {
	for _, locator := range []string{
		"",
		"   ",
		"https://my-bucket.s3.amazonaws.com/",
		"https://my-bucket.s3.amazonaws.com/drive-uploads/../etc/passwd",
		"drive-uploads/./x",
	} {
		_, err := KeyFromLocator(locator, "my-bucket")
		assert.True(t, errors.Is(err, ErrInvalidKey), "locator %q: got %v", locator, err)
	}
}

func TestKeyUnderBase(t *testing.T) {
	key, ok, err := KeyUnderBase("https://cdn.example.com/media/drive-uploads/a-1-2.pdf", "https://cdn.example.com/media/")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "drive-uploads/a-1-2.pdf", key)

	_, ok, err = KeyUnderBase("https://cdn.example.com/other/drive-uploads/a-1-2.pdf", "https://cdn.example.com/media")
	require.NoError(t, err)
	assert.False(t, ok)

	_, ok, err = KeyUnderBase("https://cdn.example.com/media/drive-uploads/../x", "https://cdn.example.com/media")
	assert.True(t, ok)
	assert.True(t, errors.Is(err, ErrInvalidKey))

	_, ok, _ = KeyUnderBase("drive-uploads/a.pdf", "")
	assert.False(t, ok)
}
