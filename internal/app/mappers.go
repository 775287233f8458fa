package app

import (
	"context"
	"fmt"
	"log/slog"

	"go.uber.org/fx"

	"github.com/edueval/teaching-system/internal/config"
	"github.com/edueval/teaching-system/internal/database"
	"github.com/edueval/teaching-system/internal/domain/evaluations"
	"github.com/edueval/teaching-system/internal/domain/judgements"
	"github.com/edueval/teaching-system/internal/domain/testresults"
	"github.com/edueval/teaching-system/internal/domain/users"
	"github.com/edueval/teaching-system/internal/storage/cache"
	"github.com/edueval/teaching-system/internal/storage/memory"
	"github.com/edueval/teaching-system/internal/storage/sqlstore"
)

// Mappers registers the repositories for cfg.DataBackend.
func Mappers(cfg config.Config) fx.Option {
	if !cfg.UsesSQL() {
		return fx.Module(MapperScope,
			fx.Provide(
				func() users.Repository { return memory.NewUserRepository() },
				func() evaluations.Repository { return memory.NewEvaluationRepository() },
				func() testresults.Repository { return memory.NewTestResultRepository() },
				func() judgements.Repository { return memory.NewJudgementRepository() },
			),
		)
	}

	return fx.Module(MapperScope,
		fx.Provide(
			newDatabase,
			newSQLUserRepository,
			func(db *database.DB) evaluations.Repository {
				return sqlstore.NewEvaluationRepository(db.DB, db.Dialect())
			},
			func(db *database.DB) testresults.Repository {
				return sqlstore.NewTestResultRepository(db.DB, db.Dialect())
			},
			func(db *database.DB) judgements.Repository {
				return sqlstore.NewJudgementRepository(db.DB, db.Dialect())
			},
		),
	)
}

// newDatabase connects and migrates during graph construction so a bad DSN
// or failed migration aborts startup.
func newDatabase(lc fx.Lifecycle, cfg config.Config, log *slog.Logger) (*database.DB, error) {
	ctx := context.Background()
	db, err := database.Connect(ctx, database.Options{
		Dialect:         cfg.DataBackend,
		DSN:             cfg.DatabaseURL,
		MaxOpenConns:    cfg.DBMaxOpenConns,
		MaxIdleConns:    cfg.DBMaxIdleConns,
		ConnMaxLifetime: cfg.DBConnMaxLifetime,
		ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
		Logger:          log,
	})
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", cfg.DataBackend, err)
	}
	if err := db.Migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate %s: %w", cfg.DataBackend, err)
	}

	lc.Append(fx.StopHook(db.Close))
	return db, nil
}

func newSQLUserRepository(db *database.DB, cfg config.Config) (users.Repository, error) {
	return cache.NewUserRepository(sqlstore.NewUserRepository(db.DB, db.Dialect()), cfg.UserCacheSize)
}
