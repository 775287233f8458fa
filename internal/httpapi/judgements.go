package httpapi

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/edueval/teaching-system/internal/domain/judgements"
	"github.com/edueval/teaching-system/internal/domain/record"
	"github.com/edueval/teaching-system/internal/domain/users"
	"github.com/edueval/teaching-system/internal/observability"
)

func registerJudgementRoutes(mux *http.ServeMux, logger *slog.Logger, service judgements.Service, authn *authenticator, metrics *observability.Metrics) {
	mux.HandleFunc("POST /v1/judgements", authn.require(func(w http.ResponseWriter, r *http.Request, p Principal) {
		var payload judgements.Judgement
		if !decodeJSON(w, r, &payload) {
			return
		}
		upload := service.Upload
		if p.Role == users.RoleAdmin {
			upload = service.Override
		} else {
			owner := strings.TrimSpace(payload.UserID)
			if owner != "" && owner != p.ID {
				respondError(w, http.StatusForbidden, "judgements can only be filed for yourself")
				return
			}
			payload.UserID = p.ID
		}

		saved, err := upload(r.Context(), payload)
		if err != nil {
			respondDomainError(w, logger, "upload judgement", err)
			return
		}
		metrics.RecordWrite(string(record.KindJudgement), "upsert")
		respondJSON(w, http.StatusOK, saved)
	}))

	mux.HandleFunc("GET /v1/judgements/{id}", authn.require(func(w http.ResponseWriter, r *http.Request, p Principal) {
		id := r.PathValue("id")
		var (
			j   judgements.Judgement
			err error
		)
		if p.Role.Staff() {
			j, err = service.GetByJudgementID(r.Context(), id)
		} else {
			j, err = service.GetByID(r.Context(), p.ID, id)
		}
		if err != nil {
			respondDomainError(w, logger, "get judgement", err)
			return
		}
		respondJSON(w, http.StatusOK, j)
	}))
}
