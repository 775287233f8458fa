package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/edueval/teaching-system/internal/domain/evaluations"
	"github.com/edueval/teaching-system/internal/domain/record"
	"github.com/edueval/teaching-system/internal/observability"
)

func registerEvaluationRoutes(mux *http.ServeMux, logger *slog.Logger, service evaluations.Service, authn *authenticator, metrics *observability.Metrics) {
	mux.HandleFunc("POST /v1/evaluations", authn.require(func(w http.ResponseWriter, r *http.Request, p Principal) {
		var payload evaluations.Evaluation
		if !decodeJSON(w, r, &payload) {
			return
		}
		created, err := service.Upload(r.Context(), payload)
		if err != nil {
			respondDomainError(w, logger, "upload evaluation", err)
			return
		}
		metrics.RecordWrite(string(record.KindEvaluation), "create")
		logger.Info("evaluation uploaded", "evaluation_id", created.ID, "user_id", created.UserID, "by", p.ID)
		respondJSON(w, http.StatusCreated, created)
	}, staffRoles...))

	mux.HandleFunc("GET /v1/evaluations", authn.require(func(w http.ResponseWriter, r *http.Request, _ Principal) {
		list, err := service.ListAll(r.Context())
		if err != nil {
			respondDomainError(w, logger, "list evaluations", err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]any{"data": list})
	}, staffRoles...))

	mux.HandleFunc("GET /v1/evaluations/{id}", authn.require(func(w http.ResponseWriter, r *http.Request, p Principal) {
		id := r.PathValue("id")
		var (
			e   evaluations.Evaluation
			err error
		)
		if p.Role.Staff() {
			e, err = service.Get(r.Context(), id)
		} else {
			e, err = service.GetByID(r.Context(), id, p.ID)
		}
		if err != nil {
			respondDomainError(w, logger, "get evaluation", err)
			return
		}
		respondJSON(w, http.StatusOK, e)
	}))

	mux.HandleFunc("PUT /v1/evaluations/{id}", authn.require(func(w http.ResponseWriter, r *http.Request, p Principal) {
		var payload evaluations.Evaluation
		if !decodeJSON(w, r, &payload) {
			return
		}
		id := r.PathValue("id")
		if payload.ID == "" {
			payload.ID = id
		}
		updated, err := service.Modify(r.Context(), id, payload)
		if err != nil {
			respondDomainError(w, logger, "modify evaluation", err)
			return
		}
		metrics.RecordWrite(string(record.KindEvaluation), "update")
		logger.Info("evaluation modified", "evaluation_id", updated.ID, "by", p.ID)
		respondJSON(w, http.StatusOK, updated)
	}, staffRoles...))
}
