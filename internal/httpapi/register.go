package httpapi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/edueval/teaching-system/internal/auth"
	"github.com/edueval/teaching-system/internal/domain"
	"github.com/edueval/teaching-system/internal/observability"
)

// Options carries the collaborators shared by the API handlers.
type Options struct {
	Tokens   *auth.TokenManager
	Sessions *auth.SessionStore
	Limiter  *LoginLimiter
	Metrics  *observability.Metrics
}

// Register attaches API routes to the provided mux.
func Register(mux *http.ServeMux, logger *slog.Logger, domainServices domain.Container, opts Options) {
	mux.HandleFunc("GET /v1/ping", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]any{
			"status":  "ok",
			"time":    time.Now().UTC().Format(time.RFC3339),
			"server":  "teaching-system",
			"version": "v1",
		})
	})

	authn := &authenticator{
		logger:   logger,
		users:    domainServices.Users,
		tokens:   opts.Tokens,
		sessions: opts.Sessions,
	}

	registerAuthRoutes(mux, logger, domainServices.Users, authn, opts)
	registerEvaluationRoutes(mux, logger, domainServices.Evaluations, authn, opts.Metrics)
	registerTestResultRoutes(mux, logger, domainServices.TestResults, authn, opts.Metrics)
	registerJudgementRoutes(mux, logger, domainServices.Judgements, authn, opts.Metrics)
	registerRecordRoutes(mux, logger, domainServices, authn, opts.Metrics)
}
