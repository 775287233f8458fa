// Package app assembles the service from two dependency-injection scopes:
// the component scope (domain services, auth, HTTP) and the mapper scope
// (repositories for the configured storage backend).
package app

import (
	"log/slog"

	"go.uber.org/fx"
	"go.uber.org/fx/fxevent"

	"github.com/edueval/teaching-system/internal/config"
	"github.com/edueval/teaching-system/internal/logger"
)

// Scope names of the two modules the container is assembled from.
const (
	ComponentScope = "teaching_system.components"
	MapperScope    = "teaching_system.mappers"
)

// Base supplies configuration and logging to every scope and routes the
// container's own events into the application logger.
func Base(cfg config.Config) fx.Option {
	opts := []fx.Option{
		fx.Supply(cfg),
		fx.Provide(func(cfg config.Config) *slog.Logger {
			return logger.New(cfg.Env, cfg.LogLevel)
		}),
		fx.WithLogger(func(log *slog.Logger) fxevent.Logger {
			return &fxevent.SlogLogger{Logger: log.With("component", "fx")}
		}),
	}
	if cfg.ShutdownTimeout > 0 {
		opts = append(opts, fx.StopTimeout(cfg.ShutdownTimeout))
	}
	return fx.Options(opts...)
}

// Options returns the full application graph for cfg.
func Options(cfg config.Config) fx.Option {
	return fx.Options(
		Base(cfg),
		Mappers(cfg),
		Components,
	)
}

// New builds the application container. Startup errors are reported by the
// returned app's Err, Start or Run.
func New(cfg config.Config, extra ...fx.Option) *fx.App {
	return fx.New(append([]fx.Option{Options(cfg)}, extra...)...)
}

// Run parses args into a configuration and runs the service until it
// receives a shutdown signal.
func Run(args []string) error {
	cfg, err := config.Parse(args)
	if err != nil {
		return err
	}
	New(cfg).Run()
	return nil
}
