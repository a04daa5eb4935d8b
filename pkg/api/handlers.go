package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/marmos91/clouddrive/pkg/drive"
	"github.com/marmos91/clouddrive/pkg/metrics"
	"github.com/marmos91/clouddrive/pkg/store/item"
)

// maxJSONBody caps JSON request bodies.
const maxJSONBody = 1 << 20

// Handler holds the drive route handlers.
type Handler struct {
	svc            *drive.Service
	maxUploadBytes int64
	metrics        metrics.HTTPMetrics
}

// NewHandler creates a new Handler.
func NewHandler(svc *drive.Service, maxUploadBytes int64, m metrics.HTTPMetrics) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultMaxUploadBytes
	}
	if m == nil {
		m = metrics.NewNoopHTTPMetrics()
	}
	return &Handler{svc: svc, maxUploadBytes: maxUploadBytes, metrics: m}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// ListChildren handles GET /api/drive?ownerId=&parentId=.
func (h *Handler) ListChildren(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ownerID := q.Get("ownerId")
	if ownerID == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("ownerId is required"))
		return
	}

	children, err := h.svc.ListChildren(r.Context(), ownerID, item.ParentRef(q.Get("parentId")))
	if err != nil {
		writeError(w, "list children", err)
		return
	}
	if children == nil {
		children = []drive.Child{}
	}
	writeJSON(w, http.StatusOK, children)
}

// CreateFolder handles POST /api/drive/folder.
func (h *Handler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	var req CreateFolderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	folder, err := h.svc.CreateFolder(r.Context(), req.OwnerID, item.ParentRef(req.ParentID), req.Name)
	if err != nil {
		writeError(w, "create folder", err)
		return
	}
	writeJSON(w, http.StatusCreated, folder)
}

// Upload handles POST /api/drive/upload (multipart/form-data, fields
// "file", "ownerId" and optionally "parentId").
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorBody("file too large"))
			return
		}
		writeJSON(w, http.StatusBadRequest, errorBody("invalid multipart form"))
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	form := UploadForm{
		OwnerID:  r.FormValue("ownerId"),
		ParentID: r.FormValue("parentId"),
	}
	if err := form.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("No file uploaded"))
		return
	}
	defer func() { _ = file.Close() }()

	data, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("failed to read upload"))
		return
	}
	h.metrics.RecordUploadBytes(int64(len(data)))

	created, err := h.svc.Upload(r.Context(), drive.UploadRequest{
		OwnerID:     form.OwnerID,
		ParentID:    item.ParentRef(form.ParentID),
		Name:        header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		writeError(w, "upload", err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// Delete handles DELETE /api/drive/{id}.
//
// A record deleted without its object still answers 200, with a warning.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	result, err := h.svc.DeleteItem(r.Context(), id)
	if err != nil {
		writeError(w, "delete", err)
		return
	}

	writeJSON(w, http.StatusOK, DeleteResponse{
		Message: "Item deleted successfully",
		ID:      id,
		Warning: result.Warning(),
	})
}

// ViewLink handles GET /api/drive/file/{id}/view.
func (h *Handler) ViewLink(w http.ResponseWriter, r *http.Request) {
	link, err := h.svc.IssueViewLink(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, "view link", err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}

// Update handles PATCH /api/drive/{id}: rename, move, or both.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req UpdateItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid JSON body"))
		return
	}
	if err := req.Validate(); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody(err.Error()))
		return
	}

	var (
		updated *item.Item
		err     error
	)
	if req.Name != nil {
		if updated, err = h.svc.Rename(r.Context(), id, *req.Name); err != nil {
			writeError(w, "rename", err)
			return
		}
	}
	if req.ParentID != nil {
		if updated, err = h.svc.Move(r.Context(), id, item.ParentRef(*req.ParentID)); err != nil {
			writeError(w, "move", err)
			return
		}
	}
	writeJSON(w, http.StatusOK, updated)
}
