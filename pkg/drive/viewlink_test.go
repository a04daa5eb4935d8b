package drive

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/item"
	"github.com/marmos91/clouddrive/pkg/store/object"
	objectmemory "github.com/marmos91/clouddrive/pkg/store/object/memory"
)

func TestIssueViewLink_ExpiresAfterTTL(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	file := f.upload(t, "u1", nil, "photo.png", "image/png")

	link, err := f.svc.IssueViewLink(ctx, file.ID)
	require.NoError(t, err)
	assert.Equal(t, testEpoch.Add(15*time.Minute), link.ExpiresAt)

	key, err := f.objects.VerifyView(link.URL, testEpoch.Add(14*time.Minute))
	require.NoError(t, err)
	assert.Equal(t, file.ObjectKey, key)

	_, err = f.objects.VerifyView(link.URL, testEpoch.Add(16*time.Minute))
	assert.ErrorIs(t, err, object.ErrLinkExpired)
}

func TestIssueViewLink_FreshGrantEachCall(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()
	file := f.upload(t, "u1", nil, "photo.png", "image/png")

	first, err := f.svc.IssueViewLink(ctx, file.ID)
	require.NoError(t, err)
	second, err := f.svc.IssueViewLink(ctx, file.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.URL, second.URL)
}

func TestIssueViewLink_CustomTTL(t *testing.T) {
	f := newFixture(t, Config{ViewLinkTTL: time.Minute})
	file := f.upload(t, "u1", nil, "a.pdf", "application/pdf")

	link, err := f.svc.IssueViewLink(context.Background(), file.ID)
	require.NoError(t, err)

	_, err = f.objects.VerifyView(link.URL, testEpoch.Add(2*time.Minute))
	assert.ErrorIs(t, err, object.ErrLinkExpired)
}

func TestIssueViewLink_Errors(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	folder, err := f.svc.CreateFolder(ctx, "u1", nil, "Reports")
	require.NoError(t, err)

	f.items.Insert(&item.Item{ID: "no-object", Name: "ghost.pdf", Kind: item.KindPDF, OwnerID: "u1"})
	f.items.Insert(&item.Item{ID: "bad-locator", Name: "bad.pdf", Kind: item.KindPDF, OwnerID: "u1", Locator: "memory://drive-test/a/../../b"})

	tests := []struct {
		name string
		id   string
		want ErrorKind
	}{
		{"missing", "does-not-exist", KindNotFound},
		{"folder", folder.ID, KindInvalidState},
		{"file without object", "no-object", KindInvalidState},
		{"unparseable locator", "bad-locator", KindInvalidState},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			link, err := f.svc.IssueViewLink(ctx, tt.id)
			require.Error(t, err)
			assert.Nil(t, link)
			assert.Equal(t, tt.want, KindOf(err))
		})
	}
}

func TestIssueViewLink_SignFailure(t *testing.T) {
	f := newFixture(t, Config{})
	file := f.upload(t, "u1", nil, "a.pdf", "application/pdf")
	f.objects.InjectFault(objectmemory.OpSign, assert.AnError)

	_, err := f.svc.IssueViewLink(context.Background(), file.ID)
	assert.Equal(t, KindStorageUnavailable, KindOf(err))
}
