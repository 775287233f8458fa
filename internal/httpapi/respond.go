package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/edueval/teaching-system/internal/domain/evaluations"
	"github.com/edueval/teaching-system/internal/domain/judgements"
	"github.com/edueval/teaching-system/internal/domain/record"
	"github.com/edueval/teaching-system/internal/domain/testresults"
	"github.com/edueval/teaching-system/internal/domain/users"
)

const maxBodyBytes = 1 << 20

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		// If encoding fails there's not much we can do; log to stderr.
		slog.Default().Error("failed to encode response", "err", err)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "request body is empty")
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid JSON payload")
		return false
	}
	return true
}

func notImplemented(err error) bool {
	return errors.Is(err, users.ErrNotImplemented) ||
		errors.Is(err, evaluations.ErrNotImplemented) ||
		errors.Is(err, testresults.ErrNotImplemented) ||
		errors.Is(err, judgements.ErrNotImplemented)
}

// respondDomainError maps service errors onto HTTP statuses. Anything it
// does not recognise is logged and reported as a 500.
func respondDomainError(w http.ResponseWriter, logger *slog.Logger, action string, err error) {
	switch {
	case notImplemented(err):
		respondError(w, http.StatusNotImplemented, action+" not yet implemented")
	case errors.Is(err, record.ErrNotFound), errors.Is(err, users.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, record.ErrExists), errors.Is(err, users.ErrEmailExists):
		respondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, record.ErrForbidden), errors.Is(err, users.ErrRoleNotAllowed):
		respondError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, record.ErrInvalid), errors.Is(err, record.ErrUnsupportedKind), errors.Is(err, users.ErrInvalidRole):
		respondError(w, http.StatusBadRequest, err.Error())
	default:
		logger.Error(action+" failed", "err", err)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}
