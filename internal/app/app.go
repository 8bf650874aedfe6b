// Package app provides the application bootstrap and runtime orchestration.
//
// The App type wires together all dependencies and exposes methods to run
// the operational modes:
//
//   - Worker mode: scheduler loop that polls sources and runs analysis cycles
//   - Once mode: one scheduler pass over all due sources, then exit
//
// Platform collectors are registered by the embedding binary before a mode
// starts; sources on platforms without a collector are skipped.
package app

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/sifterlab/mediasift/internal/core/analyzer"
	"github.com/sifterlab/mediasift/internal/core/chain"
	"github.com/sifterlab/mediasift/internal/core/checkpoint"
	"github.com/sifterlab/mediasift/internal/core/classify"
	"github.com/sifterlab/mediasift/internal/core/llm"
	"github.com/sifterlab/mediasift/internal/core/prompt"
	"github.com/sifterlab/mediasift/internal/core/resolve"
	"github.com/sifterlab/mediasift/internal/platform/config"
	"github.com/sifterlab/mediasift/internal/platform/observability"
	"github.com/sifterlab/mediasift/internal/scheduler"
	db "github.com/sifterlab/mediasift/internal/storage"
)

// App holds the application dependencies and provides methods to run
// different modes.
type App struct {
	cfg        *config.Config
	database   *db.DB
	logger     *zerolog.Logger
	collectors *scheduler.CollectorRegistry
}

// New creates a new App instance with the given dependencies.
func New(cfg *config.Config, database *db.DB, logger *zerolog.Logger) *App {
	return &App{
		cfg:        cfg,
		database:   database,
		logger:     logger,
		collectors: scheduler.NewCollectorRegistry(),
	}
}

// RegisterCollector binds a platform collector. Must be called before a run
// mode starts.
func (a *App) RegisterCollector(platform string, collector scheduler.Collector) {
	a.collectors.Register(platform, collector)
}

// StartHealthServer starts the health check and metrics server.
func (a *App) StartHealthServer(ctx context.Context) error {
	server := observability.NewServer(a.database, a.cfg.HealthPort, a.logger)

	return server.Start(ctx)
}

// Chains returns the chain-evolution query surface over the app's store.
func (a *App) Chains() *chain.Manager {
	return chain.NewManager(a.database)
}

// RunWorker runs the scheduler loop until the context is canceled.
func (a *App) RunWorker(ctx context.Context) error {
	return a.newScheduler().Start(ctx)
}

// RunOnce performs a single scheduler pass over all due sources.
func (a *App) RunOnce(ctx context.Context) error {
	a.newScheduler().Tick(ctx)

	return nil
}

func (a *App) newScheduler() *scheduler.Scheduler {
	classifier := classify.New(a.cfg.TextSampleLimit)
	resolver := resolve.New(a.logger)
	builder := prompt.NewBuilder()

	factory := llm.NewFactory(nil, llm.FactoryOptions{
		CallTimeout:  a.cfg.LLMCallTimeout,
		RateLimitRPS: a.cfg.RateLimitRPS,
	}, a.logger)

	runs := analyzer.New(classifier, resolver, builder, factory, a.database, a.database, a.database, a.logger)
	checkpoints := checkpoint.NewManager(a.database, a.logger)

	return scheduler.New(
		scheduler.Config{
			TickInterval:           a.cfg.SchedulerTickInterval,
			DefaultIntervalMinutes: a.cfg.DefaultIntervalMinutes,
		},
		a.database,
		a.database,
		a.database,
		a.collectors,
		checkpoints,
		runs,
		a.logger,
	)
}
