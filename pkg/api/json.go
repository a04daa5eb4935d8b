package api

import (
	"encoding/json"
	"net/http"

	"github.com/marmos91/clouddrive/internal/logger"
	"github.com/marmos91/clouddrive/pkg/drive"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("json encode failed: %v", err)
	}
}

type errResponse struct {
	Message string `json:"message"`
	Kind    string `json:"kind,omitempty"`
}

func errorBody(msg string) errResponse {
	return errResponse{Message: msg}
}

// statusOf maps an error kind to its HTTP status.
func statusOf(kind drive.ErrorKind) int {
	switch kind {
	case drive.KindNotFound:
		return http.StatusNotFound
	case drive.KindInvalidState, drive.KindDuplicateKey:
		return http.StatusConflict
	case drive.KindStorageUnavailable:
		return http.StatusServiceUnavailable
	case drive.KindInvalidArgument:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError classifies err and writes it. Internal errors are logged and
// their text is not exposed.
func writeError(w http.ResponseWriter, op string, err error) {
	kind := drive.KindOf(err)
	status := statusOf(kind)

	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.Error("%s failed: %v", op, err)
		msg = "internal error"
	} else {
		logger.Debug("%s rejected: kind=%s err=%v", op, kind, err)
	}

	writeJSON(w, status, errResponse{Message: msg, Kind: kind.String()})
}
