// Package scheduler polls configured sources on a fixed tick, runs the
// collection-and-analysis cycle for each source that is due and advances
// checkpoints when a cycle completes.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/sifterlab/mediasift/internal/core/analyzer"
	"github.com/sifterlab/mediasift/internal/core/checkpoint"
	"github.com/sifterlab/mediasift/internal/core/domain"
	coreerrors "github.com/sifterlab/mediasift/internal/core/errors"
	"github.com/sifterlab/mediasift/internal/platform/observability"
	"github.com/sifterlab/mediasift/internal/platform/worker"
)

// Collector fetches content for one source within a window. Collectors are
// platform specific and registered per platform name; items returned must be
// newer than the window start. The string result is the next checkpoint
// value, empty when the collector has no cursor of its own.
type Collector interface {
	Collect(ctx context.Context, source domain.Source, from, to time.Time) ([]domain.ContentItem, string, error)
}

// SourceStore lists sources and stamps check times.
type SourceStore interface {
	ListActiveSources(ctx context.Context) ([]domain.Source, error)
	TouchSource(ctx context.Context, sourceID string, checkedAt time.Time) error
}

// ScenarioStore resolves the scenario attached to a source.
type ScenarioStore interface {
	GetScenario(ctx context.Context, id string) (domain.Scenario, error)
}

// Locker serializes cycles per source across worker replicas.
type Locker interface {
	TryAcquireSourceLock(ctx context.Context, sourceID string) (bool, error)
	ReleaseSourceLock(ctx context.Context, sourceID string) error
}

// Runner executes one analysis run over collected items.
type Runner interface {
	Run(ctx context.Context, source domain.Source, scenario *domain.Scenario, items []domain.ContentItem) (*domain.UnifiedAnalysisRecord, error)
}

// Config tunes the scheduler.
type Config struct {
	// TickInterval is how often the source list is polled for due sources.
	TickInterval time.Duration

	// DefaultIntervalMinutes applies to sources whose scenario does not set
	// its own collection interval.
	DefaultIntervalMinutes int
}

// Scheduler drives the periodic collection cycle.
type Scheduler struct {
	cfg         Config
	sources     SourceStore
	scenarios   ScenarioStore
	locker      Locker
	collectors  *CollectorRegistry
	checkpoints *checkpoint.Manager
	runner      Runner
	logger      *zerolog.Logger
	now         func() time.Time
}

// New creates a scheduler.
func New(
	cfg Config,
	sources SourceStore,
	scenarios ScenarioStore,
	locker Locker,
	collectors *CollectorRegistry,
	checkpoints *checkpoint.Manager,
	runner Runner,
	logger *zerolog.Logger,
) *Scheduler {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Scheduler{
		cfg:         cfg,
		sources:     sources,
		scenarios:   scenarios,
		locker:      locker,
		collectors:  collectors,
		checkpoints: checkpoints,
		runner:      runner,
		logger:      logger,
		now:         time.Now,
	}
}

// Start runs the scheduler loop until the context is canceled.
func (s *Scheduler) Start(ctx context.Context) error {
	return worker.TickerLoop(ctx, worker.Config{
		Name:       workerName,
		Interval:   s.cfg.TickInterval,
		RunOnStart: true,
		OnTick:     func(ctx context.Context) { s.Tick(ctx) },
		Logger:     s.logger,
	})
}

// Tick processes every due source once. Per-source failures are logged and
// counted; they never stop the tick.
func (s *Scheduler) Tick(ctx context.Context) {
	sources, err := s.sources.ListActiveSources(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("list active sources")

		return
	}

	due := 0

	for _, source := range sources {
		scenario, err := s.scenarioFor(ctx, source)
		if err != nil {
			s.logger.Error().Err(err).Str(logKeySourceID, source.ID).Msg("load scenario")
			observability.CollectionCycles.WithLabelValues(statusFailed).Inc()

			continue
		}

		if !s.checkpoints.ShouldCollect(source, s.interval(scenario)) {
			continue
		}

		due++

		if err = s.ProcessSource(ctx, source, scenario); err != nil {
			s.logger.Error().Err(err).Str(logKeySourceID, source.ID).Msg("collection cycle failed")
			observability.CollectionCycles.WithLabelValues(statusFailed).Inc()

			continue
		}

		observability.CollectionCycles.WithLabelValues(statusOK).Inc()
	}

	observability.SourcesDue.Set(float64(due))
}

// ProcessSource runs one collection-and-analysis cycle for a source. The
// checkpoint advances when collection succeeded, including empty cycles and
// cycles where individual media kinds failed; it stays put when collection
// itself or persisting the analysis failed.
func (s *Scheduler) ProcessSource(ctx context.Context, source domain.Source, scenario *domain.Scenario) error {
	acquired, err := s.locker.TryAcquireSourceLock(ctx, source.ID)
	if err != nil {
		return fmt.Errorf(errFmtAcquireLock, source.ID, err)
	}
	if !acquired {
		s.logger.Debug().Str(logKeySourceID, source.ID).Msg("source busy, skipping cycle")

		return nil
	}
	defer func() {
		if releaseErr := s.locker.ReleaseSourceLock(ctx, source.ID); releaseErr != nil {
			s.logger.Warn().Err(releaseErr).Str(logKeySourceID, source.ID).Msg("release source lock")
		}
	}()

	collector, err := s.collectors.For(source.Platform)
	if err != nil {
		// No collector for the platform is a configuration gap, not a cycle
		// failure; stamp the check time so the source is not re-polled every
		// tick.
		s.logger.Warn().Str(logKeySourceID, source.ID).Str(logKeyPlatform, source.Platform).Msg("no collector registered")

		return s.sources.TouchSource(ctx, source.ID, s.now())
	}

	from, to, err := s.checkpoints.CollectWindow(source)
	if err != nil {
		return fmt.Errorf(errFmtWindow, source.ID, err)
	}

	items, cursor, err := collector.Collect(ctx, source, from, to)
	if err != nil {
		return fmt.Errorf(errFmtCollect, source.ID, err)
	}

	if _, err = s.runner.Run(ctx, source, scenario, items); err != nil {
		return fmt.Errorf(errFmtAnalyze, source.ID, err)
	}

	next := nextCheckpoint(cursor, items)
	if next == "" {
		next = source.Checkpoint
	}

	if err = s.checkpoints.Advance(ctx, source.ID, next); err != nil {
		return err
	}

	observability.CheckpointAdvances.Inc()

	return nil
}

func (s *Scheduler) scenarioFor(ctx context.Context, source domain.Source) (*domain.Scenario, error) {
	if source.ScenarioID == "" {
		return nil, nil
	}

	scenario, err := s.scenarios.GetScenario(ctx, source.ScenarioID)
	if errors.Is(err, coreerrors.ErrNotFound) {
		// A dangling scenario reference degrades to default prompts rather
		// than stalling the source.
		s.logger.Warn().Str(logKeySourceID, source.ID).Str(logKeyScenarioID, source.ScenarioID).Msg("scenario not found, using defaults")

		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	return &scenario, nil
}

func (s *Scheduler) interval(scenario *domain.Scenario) int {
	if scenario != nil && scenario.IntervalMinutes > 0 {
		return scenario.IntervalMinutes
	}

	return s.cfg.DefaultIntervalMinutes
}

// nextCheckpoint prefers the collector's own cursor, falling back to the
// newest content timestamp in the batch.
func nextCheckpoint(cursor string, items []domain.ContentItem) string {
	if cursor != "" {
		return cursor
	}

	var latest time.Time
	for _, item := range items {
		if item.PublishedAt.After(latest) {
			latest = item.PublishedAt
		}
	}
	if latest.IsZero() {
		return ""
	}

	return latest.UTC().Format(time.RFC3339)
}

var _ Runner = (*analyzer.Analyzer)(nil)
