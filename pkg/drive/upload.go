package drive

import (
	"context"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/store/item"
)

const octetStream = "application/octet-stream"

// UploadRequest is a file received from a client.
type UploadRequest struct {
	OwnerID  string
	ParentID *string

	// Name is the client supplied file name
	Name string

	// ContentType is the declared type; sniffed from Data when empty or
	// application/octet-stream
	ContentType string

	Data []byte
}

// Upload stores the payload under a freshly derived key and records it.
//
// The object is written before the record. When the record cannot be
// written the error is returned and the object is left orphaned.
func (s *Service) Upload(ctx context.Context, req UploadRequest) (created *item.Item, err error) {
	start := time.Now()
	defer func() { s.observe("upload", start, err) }()

	if req.OwnerID == "" {
		return nil, item.NewInvalidArgumentError("owner id is required", "")
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, item.NewInvalidArgumentError("file name is required", "")
	}

	contentType := detectContentType(req.ContentType, req.Data)
	key := s.keys.Derive(req.Name)

	putCtx, cancel := s.opContext(ctx)
	locator, err := s.objects.Put(putCtx, key, req.Data, contentType)
	cancel()
	if err != nil {
		return nil, err
	}
	logger.Debug("Drive: stored object %s (%d bytes, %s)", key, len(req.Data), contentType)

	return s.CompleteUpload(ctx, UploadedFile{
		OwnerID:     req.OwnerID,
		ParentID:    req.ParentID,
		Name:        req.Name,
		ContentType: contentType,
		Size:        int64(len(req.Data)),
		Locator:     locator,
		ObjectKey:   key,
	})
}

// detectContentType keeps a declared type unless it is missing or generic.
func detectContentType(declared string, data []byte) string {
	declared = strings.TrimSpace(declared)
	if declared != "" && !strings.EqualFold(declared, octetStream) {
		return declared
	}
	return mimetype.Detect(data).String()
}
