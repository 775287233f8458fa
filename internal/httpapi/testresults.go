package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/edueval/teaching-system/internal/domain/record"
	"github.com/edueval/teaching-system/internal/domain/testresults"
	"github.com/edueval/teaching-system/internal/observability"
)

func registerTestResultRoutes(mux *http.ServeMux, logger *slog.Logger, service testresults.Service, authn *authenticator, metrics *observability.Metrics) {
	mux.HandleFunc("POST /v1/test-results", authn.require(func(w http.ResponseWriter, r *http.Request, p Principal) {
		var payload testresults.TestResult
		if !decodeJSON(w, r, &payload) {
			return
		}
		// Students submit their own answer sheets; staff may submit for anyone.
		if !p.Role.Staff() {
			owner := strings.TrimSpace(payload.UserID)
			if owner != "" && owner != p.ID {
				respondError(w, http.StatusForbidden, "students can only submit their own test results")
				return
			}
			payload.UserID = p.ID
		}

		created, err := service.Upload(r.Context(), payload)
		if err != nil {
			respondDomainError(w, logger, "upload test result", err)
			return
		}
		metrics.RecordWrite(string(record.KindTestResult), "create")
		respondJSON(w, http.StatusCreated, created)
	}))

	mux.HandleFunc("GET /v1/test-results/{id}", authn.require(func(w http.ResponseWriter, r *http.Request, p Principal) {
		id := r.PathValue("id")
		var (
			res testresults.TestResult
			err error
		)
		if p.Role.Staff() {
			res, err = service.GetByTestID(r.Context(), id)
		} else {
			res, err = service.GetByID(r.Context(), p.ID, id)
		}
		if err != nil {
			respondDomainError(w, logger, "get test result", err)
			return
		}
		respondJSON(w, http.StatusOK, res)
	}))
}
