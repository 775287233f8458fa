package main

import (
	"context"
	"fmt"
	"os"

	"go.uber.org/fx"

	"github.com/edueval/teaching-system/internal/app"
	"github.com/edueval/teaching-system/internal/config"
	"github.com/edueval/teaching-system/internal/domain"
	"github.com/edueval/teaching-system/internal/logger"
	"github.com/edueval/teaching-system/internal/seed"
)

type seedFlags struct {
	Fixtures string `name:"fixtures" type:"existingfile" help:"YAML fixtures file; the built-in sample ledger is used when empty."`
}

func main() {
	var flags seedFlags
	cfg, err := config.Parse(os.Args[1:], &flags)
	if err != nil {
		log := logger.New("development", "")
		log.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logr := logger.New(cfg.Env, cfg.LogLevel)

	if !cfg.UsesSQL() {
		logr.Error("seed command requires DATA_BACKEND=postgres or DATA_BACKEND=sqlite")
		os.Exit(1)
	}

	fixtures, err := loadFixtures(flags.Fixtures)
	if err != nil {
		logr.Error("failed to load fixtures", "err", err)
		os.Exit(1)
	}

	var services domain.Container
	container := fx.New(
		app.Base(cfg),
		app.Mappers(cfg),
		app.Domain,
		fx.Populate(&services),
	)

	ctx := context.Background()
	if err := container.Start(ctx); err != nil {
		logr.Error("failed to start", "err", err)
		os.Exit(1)
	}

	report, runErr := seed.Run(ctx, services, fixtures, logr)

	if err := container.Stop(ctx); err != nil {
		logr.Error("shutdown failed", "err", err)
	}
	if runErr != nil {
		logr.Error("seed failed", "err", runErr)
		os.Exit(1)
	}

	fmt.Printf("Users: %d created, %d skipped\n", report.UsersCreated, report.UsersSkipped)
	fmt.Printf("Records: %d created, %d skipped\n", report.RecordsCreated, report.RecordsSkipped)
	logr.Info("seed complete")
}

func loadFixtures(path string) (seed.Fixtures, error) {
	if path == "" {
		return seed.Default()
	}
	f, err := os.Open(path)
	if err != nil {
		return seed.Fixtures{}, err
	}
	defer f.Close()
	return seed.Load(f)
}
