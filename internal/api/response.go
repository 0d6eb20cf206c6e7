package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/erazemk/popis/internal/audit"
)

// jsonResponse writes a JSON response with the given status code.
func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			slog.Error("encoding response", "error", err)
		}
	}
}

// jsonError writes a JSON error response.
func jsonError(w http.ResponseWriter, status int, message string) {
	jsonResponse(w, status, map[string]string{"error": message})
}

// decodeJSON decodes a JSON request body into the given target.
func decodeJSON(r *http.Request, target any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(target)
}

// auditError maps an audit engine error to a status code and writes it.
// Persistence and unknown errors are logged and reported without detail.
func auditError(w http.ResponseWriter, op string, err error) {
	var validation *audit.ValidationError
	switch {
	case errors.As(err, &validation):
		jsonError(w, http.StatusBadRequest, validation.Error())
	case errors.Is(err, audit.ErrNoActiveAudit):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, audit.ErrNotFound):
		jsonError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, audit.ErrDuplicate), errors.Is(err, audit.ErrBusy), errors.Is(err, audit.ErrAuditClosed):
		jsonError(w, http.StatusConflict, err.Error())
	default:
		slog.Error("audit operation failed", "op", op, "error", err)
		jsonError(w, http.StatusInternalServerError, "internal error")
	}
}
