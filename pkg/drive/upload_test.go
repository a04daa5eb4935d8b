package drive

import (
	"context"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marmos91/clouddrive/pkg/store/item"
	objectmemory "github.com/marmos91/clouddrive/pkg/store/object/memory"
)

func TestUpload_DerivesKeyAndRecordsPDF(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	created, err := f.svc.Upload(ctx, UploadRequest{
		OwnerID:     "u1",
		Name:        "My File.pdf",
		ContentType: "application/pdf",
		Data:        []byte("%PDF-1.4 test"),
	})
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^drive-uploads/My-File-\d+-\d+\.pdf$`), created.ObjectKey)
	assert.Equal(t, item.KindPDF, created.Kind)
	assert.Equal(t, "My File.pdf", created.Name)
	assert.Equal(t, int64(len("%PDF-1.4 test")), created.Size)

	data, err := f.objects.Get(ctx, created.ObjectKey)
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.4 test", string(data))

	key, err := f.objects.KeyFromLocator(created.Locator)
	require.NoError(t, err)
	assert.Equal(t, created.ObjectKey, key)
}

func TestUpload_SniffsContentType(t *testing.T) {
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n', 0, 0, 0, 0x0d, 'I', 'H', 'D', 'R'}

	tests := []struct {
		name     string
		declared string
		data     []byte
		wantType string
		wantKind item.Kind
	}{
		{"declared wins", "image/jpeg", png, "image/jpeg", item.KindImage},
		{"empty sniffed", "", png, "image/png", item.KindImage},
		{"octet-stream sniffed", "application/octet-stream", []byte("%PDF-1.7\n"), "application/pdf", item.KindPDF},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, Config{})
			created, err := f.svc.Upload(context.Background(), UploadRequest{
				OwnerID:     "u1",
				Name:        "blob",
				ContentType: tt.declared,
				Data:        tt.data,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, created.ContentType)
			assert.Equal(t, tt.wantKind, created.Kind)

			stored, ok := f.objects.ContentType(created.ObjectKey)
			require.True(t, ok)
			assert.Equal(t, tt.wantType, stored)
		})
	}
}

func TestUpload_PutFailure(t *testing.T) {
	f := newFixture(t, Config{})
	f.objects.InjectFault(objectmemory.OpPut, assert.AnError)

	_, err := f.svc.Upload(context.Background(), UploadRequest{OwnerID: "u1", Name: "a.txt", Data: []byte("x")})
	require.Error(t, err)
	assert.Equal(t, KindStorageUnavailable, KindOf(err))

	files, err := f.items.CountFiles(context.Background())
	require.NoError(t, err)
	assert.Zero(t, files, "no record without an object")
}

func TestUpload_Validation(t *testing.T) {
	f := newFixture(t, Config{})
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, UploadRequest{Name: "a.txt"})
	assert.Equal(t, KindInvalidArgument, KindOf(err))

	_, err = f.svc.Upload(ctx, UploadRequest{OwnerID: "u1"})
	assert.Equal(t, KindInvalidArgument, KindOf(err))
	assert.Zero(t, f.objects.Len())
}

func TestUpload_CustomPrefix(t *testing.T) {
	f := newFixture(t, Config{KeyPrefix: "tenant-1"})
	created := f.upload(t, "u1", nil, "x.bin", "application/zip")
	assert.Regexp(t, `^tenant-1/x-\d+-\d+\.bin$`, created.ObjectKey)
}
