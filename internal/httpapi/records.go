package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/edueval/teaching-system/internal/domain"
	"github.com/edueval/teaching-system/internal/domain/record"
	"github.com/edueval/teaching-system/internal/domain/users"
	"github.com/edueval/teaching-system/internal/observability"
)

// registerRecordRoutes exposes the per-user listings and the generic
// delete-by-kind endpoint.
func registerRecordRoutes(mux *http.ServeMux, logger *slog.Logger, services domain.Container, authn *authenticator, metrics *observability.Metrics) {
	ownerOrStaff := func(list func(w http.ResponseWriter, r *http.Request, userID string)) http.HandlerFunc {
		return authn.require(func(w http.ResponseWriter, r *http.Request, p Principal) {
			userID := r.PathValue("userID")
			if !p.CanRead(userID) {
				respondError(w, http.StatusForbidden, record.ErrForbidden.Error())
				return
			}
			list(w, r, userID)
		})
	}

	mux.HandleFunc("GET /v1/users/{userID}/evaluations", ownerOrStaff(func(w http.ResponseWriter, r *http.Request, userID string) {
		list, err := services.Evaluations.ListByUser(r.Context(), userID)
		if err != nil {
			respondDomainError(w, logger, "list evaluations", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"data": list})
	}))

	mux.HandleFunc("GET /v1/users/{userID}/test-results", ownerOrStaff(func(w http.ResponseWriter, r *http.Request, userID string) {
		list, err := services.TestResults.ListByUser(r.Context(), userID)
		if err != nil {
			respondDomainError(w, logger, "list test results", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"data": list})
	}))

	mux.HandleFunc("GET /v1/users/{userID}/judgements", ownerOrStaff(func(w http.ResponseWriter, r *http.Request, userID string) {
		list, err := services.Judgements.ListByUser(r.Context(), userID)
		if err != nil {
			respondDomainError(w, logger, "list judgements", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"data": list})
	}))

	mux.HandleFunc("DELETE /v1/records/{kind}/{id}", authn.require(func(w http.ResponseWriter, r *http.Request, p Principal) {
		kind, err := record.ParseKind(r.PathValue("kind"))
		if err != nil {
			respondDomainError(w, logger, "delete record", err)
			return
		}
		id := r.PathValue("id")
		if err := services.DeleteRecord(r.Context(), kind, id); err != nil {
			respondDomainError(w, logger, "delete record", err)
			return
		}
		metrics.RecordWrite(string(kind), "delete")
		logger.Info("record deleted", "kind", kind, "id", id, "by", p.ID)
		w.WriteHeader(http.StatusNoContent)
	}, users.RoleAdmin))
}
