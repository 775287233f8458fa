package app

import (
	"context"
	"log/slog"
	"time"

	"go.uber.org/fx"

	"github.com/edueval/teaching-system/internal/auth"
	"github.com/edueval/teaching-system/internal/config"
	"github.com/edueval/teaching-system/internal/database"
	"github.com/edueval/teaching-system/internal/domain"
	"github.com/edueval/teaching-system/internal/domain/evaluations"
	"github.com/edueval/teaching-system/internal/domain/judgements"
	"github.com/edueval/teaching-system/internal/domain/testresults"
	"github.com/edueval/teaching-system/internal/domain/users"
	"github.com/edueval/teaching-system/internal/httpapi"
	"github.com/edueval/teaching-system/internal/observability"
	"github.com/edueval/teaching-system/internal/server"
)

// Domain provides the domain.Container over whatever repositories the
// mapper scope registered.
var Domain = fx.Provide(newDomain)

// Components registers the domain services, auth, observability and the
// HTTP server, and starts the server with the application.
var Components = fx.Module(ComponentScope,
	Domain,
	fx.Provide(
		newTokenManager,
		newSessionStore,
		newLoginLimiter,
		newMetrics,
		newTracerProvider,
		newServer,
	),
	fx.Invoke(registerRoutes),
)

type repositories struct {
	fx.In

	Users       users.Repository
	Evaluations evaluations.Repository
	TestResults testresults.Repository
	Judgements  judgements.Repository
}

func newDomain(repos repositories) domain.Container {
	return domain.New(domain.Options{
		UserRepo:       repos.Users,
		EvaluationRepo: repos.Evaluations,
		TestResultRepo: repos.TestResults,
		JudgementRepo:  repos.Judgements,
		Clock:          time.Now,
	})
}

func newTokenManager(cfg config.Config) *auth.TokenManager {
	return auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTExpiry)
}

func newSessionStore(cfg config.Config) *auth.SessionStore {
	return auth.NewSessionStore(cfg.SessionSecret, cfg.Production(), int(cfg.JWTExpiry.Seconds()))
}

func newLoginLimiter(cfg config.Config) (*httpapi.LoginLimiter, error) {
	return httpapi.NewLoginLimiter(cfg.LoginRatePerMinute, cfg.LoginBurst)
}

func newMetrics() *observability.Metrics {
	return observability.MustNewMetrics(observability.NewRegistry())
}

func newTracerProvider(lc fx.Lifecycle, cfg config.Config) (*observability.TracerProvider, error) {
	tp, err := observability.NewTracerProvider(context.Background(), observability.TracingConfig{
		OTLPEndpoint: cfg.OTLPEndpoint,
		Environment:  cfg.Env,
	})
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(tp.Shutdown))
	return tp, nil
}

type serverParams struct {
	fx.In

	Lifecycle fx.Lifecycle
	Config    config.Config
	Logger    *slog.Logger
	Metrics   *observability.Metrics
	Tracing   *observability.TracerProvider
	DB        *database.DB `optional:"true"`
}

func newServer(p serverParams) *server.Server {
	opts := server.Options{
		Metrics:        p.Metrics,
		TracerProvider: p.Tracing.Provider(),
	}
	if p.DB != nil {
		opts.Ready = p.DB.PingContext
	}

	srv := server.New(p.Config, p.Logger, opts)
	p.Lifecycle.Append(fx.Hook{
		OnStart: srv.Start,
		OnStop:  srv.Shutdown,
	})
	return srv
}

type routeParams struct {
	fx.In

	Server   *server.Server
	Logger   *slog.Logger
	Services domain.Container
	Tokens   *auth.TokenManager
	Sessions *auth.SessionStore
	Limiter  *httpapi.LoginLimiter
	Metrics  *observability.Metrics
}

func registerRoutes(p routeParams) {
	httpapi.Register(p.Server.Mux(), p.Logger, p.Services, httpapi.Options{
		Tokens:   p.Tokens,
		Sessions: p.Sessions,
		Limiter:  p.Limiter,
		Metrics:  p.Metrics,
	})
}
