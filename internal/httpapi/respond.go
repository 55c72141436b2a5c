package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bolsillo/internal/core"
)

type errorResponse struct {
	Error string `json:"error"`
	Class string `json:"class"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError maps the error taxonomy onto HTTP statuses: validation 400,
// missing entity 404, transient storage trouble 503, anything else 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case core.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Class: "validation"})
	case core.IsReferential(err):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error(), Class: "not_found"})
	case core.IsFatal(err):
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Class: "internal"})
	case core.IsRecoverable(err):
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: err.Error(), Class: "unavailable"})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error(), Class: "internal"})
	}
}

var errBadRequestBody = errors.New("invalid request body")

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errBadRequestBody
	}
	return nil
}
