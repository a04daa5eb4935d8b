package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-chi/chi/v5"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/store/object"
)

// contentTyper is implemented by gateways that remember the content type
// given at upload.
type contentTyper interface {
	ContentType(key string) (string, bool)
}

// opener is implemented by gateways that can stream an object.
type opener interface {
	Open(ctx context.Context, key string) (io.ReadSeekCloser, error)
}

// ObjectHandler serves signed view links for gateways that do not have a
// public endpoint of their own (memory and filesystem).
type ObjectHandler struct {
	objects  object.Gateway
	verifier object.LinkVerifier
	now      func() time.Time
}

// NewObjectHandler returns nil when the gateway issues links that are served
// elsewhere (S3 presigned URLs).
func NewObjectHandler(objects object.Gateway) *ObjectHandler {
	verifier, ok := objects.(object.LinkVerifier)
	if !ok {
		return nil
	}
	return &ObjectHandler{objects: objects, verifier: verifier, now: time.Now}
}

// Serve handles GET /objects/*?token=.
//
// The token must be valid and grant the key named by the path.
func (h *ObjectHandler) Serve(w http.ResponseWriter, r *http.Request) {
	token := r.URL.Query().Get("token")
	if token == "" {
		writeJSON(w, http.StatusUnauthorized, errorBody("missing token"))
		return
	}

	key, err := h.verifier.VerifyView(token, h.now())
	if err != nil {
		if errors.Is(err, object.ErrLinkExpired) {
			writeJSON(w, http.StatusForbidden, errorBody("link expired"))
			return
		}
		writeJSON(w, http.StatusForbidden, errorBody("invalid link"))
		return
	}

	if requested := requestedKey(r); requested != key {
		writeJSON(w, http.StatusForbidden, errorBody("invalid link"))
		return
	}

	w.Header().Set("Cache-Control", "private, no-store")

	if o, ok := h.objects.(opener); ok {
		h.serveStream(w, r, o, key)
		return
	}

	data, err := h.objects.Get(r.Context(), key)
	if err != nil {
		writeError(w, "serve object", err)
		return
	}

	contentType := ""
	if ct, ok := h.objects.(contentTyper); ok {
		contentType, _ = ct.ContentType(key)
	}
	if contentType == "" {
		contentType = mimetype.Detect(data).String()
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		logger.Debug("serve object %s: %v", key, err)
	}
}

func (h *ObjectHandler) serveStream(w http.ResponseWriter, r *http.Request, o opener, key string) {
	rc, err := o.Open(r.Context(), key)
	if err != nil {
		writeError(w, "serve object", err)
		return
	}
	defer func() { _ = rc.Close() }()

	mtype, err := mimetype.DetectReader(rc)
	if err == nil {
		w.Header().Set("Content-Type", mtype.String())
	}
	if _, err := rc.Seek(0, io.SeekStart); err != nil {
		writeError(w, "serve object", err)
		return
	}

	// ServeContent handles Range and conditional requests
	http.ServeContent(w, r, "", time.Time{}, rc)
}

func requestedKey(r *http.Request) string {
	raw := strings.TrimPrefix(chi.URLParam(r, "*"), "/")
	decoded, err := url.PathUnescape(raw)
	if err != nil {
		return raw
	}
	return decoded
}
