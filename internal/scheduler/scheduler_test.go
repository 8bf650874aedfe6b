package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sifterlab/mediasift/internal/core/checkpoint"
	"github.com/sifterlab/mediasift/internal/core/domain"
	coreerrors "github.com/sifterlab/mediasift/internal/core/errors"
)

type mockSources struct {
	sources []domain.Source
	touched []string

	advancedID    string
	advancedValue string
}

func (m *mockSources) ListActiveSources(_ context.Context) ([]domain.Source, error) {
	return m.sources, nil
}

func (m *mockSources) TouchSource(_ context.Context, sourceID string, _ time.Time) error {
	m.touched = append(m.touched, sourceID)

	return nil
}

func (m *mockSources) AdvanceCheckpoint(_ context.Context, sourceID, value string, _ time.Time) error {
	m.advancedID = sourceID
	m.advancedValue = value

	return nil
}

type mockScenarios struct {
	scenarios map[string]domain.Scenario
}

func (m *mockScenarios) GetScenario(_ context.Context, id string) (domain.Scenario, error) {
	sc, ok := m.scenarios[id]
	if !ok {
		return domain.Scenario{}, coreerrors.ErrNotFound
	}

	return sc, nil
}

type mockLocker struct {
	busy     bool
	acquired []string
	released []string
}

func (m *mockLocker) TryAcquireSourceLock(_ context.Context, sourceID string) (bool, error) {
	if m.busy {
		return false, nil
	}

	m.acquired = append(m.acquired, sourceID)

	return true, nil
}

func (m *mockLocker) ReleaseSourceLock(_ context.Context, sourceID string) error {
	m.released = append(m.released, sourceID)

	return nil
}

type mockCollector struct {
	items   []domain.ContentItem
	cursor  string
	err     error
	gotFrom time.Time
	gotTo   time.Time
	called  bool
}

func (m *mockCollector) Collect(_ context.Context, _ domain.Source, from, to time.Time) ([]domain.ContentItem, string, error) {
	m.called = true
	m.gotFrom = from
	m.gotTo = to

	return m.items, m.cursor, m.err
}

type mockRunner struct {
	err  error
	runs int
}

func (m *mockRunner) Run(_ context.Context, _ domain.Source, _ *domain.Scenario, _ []domain.ContentItem) (*domain.UnifiedAnalysisRecord, error) {
	m.runs++
	if m.err != nil {
		return nil, m.err
	}

	return &domain.UnifiedAnalysisRecord{ID: "analysis-1"}, nil
}

type fixture struct {
	sources   *mockSources
	locker    *mockLocker
	collector *mockCollector
	runner    *mockRunner
	sched     *Scheduler
}

func newFixture(sources *mockSources) *fixture {
	locker := &mockLocker{}
	collector := &mockCollector{}
	runner := &mockRunner{}

	registry := NewCollectorRegistry()
	registry.Register("telegram", collector)

	sched := New(
		Config{TickInterval: time.Minute, DefaultIntervalMinutes: 60},
		sources,
		&mockScenarios{scenarios: map[string]domain.Scenario{
			"sc-1": {ID: "sc-1", IntervalMinutes: 30},
		}},
		locker,
		registry,
		checkpoint.NewManager(sources, nil),
		runner,
		nil,
	)

	return &fixture{sources: sources, locker: locker, collector: collector, runner: runner, sched: sched}
}

func TestProcessSourceAdvancesWithCollectorCursor(t *testing.T) {
	sources := &mockSources{}
	f := newFixture(sources)
	f.collector.cursor = "cursor:next-page"
	f.collector.items = []domain.ContentItem{{ExternalID: "p1", Text: "hi"}}

	source := domain.Source{ID: "src-1", Platform: "telegram"}

	err := f.sched.ProcessSource(context.Background(), source, nil)
	require.NoError(t, err)

	assert.Equal(t, 1, f.runner.runs)
	assert.Equal(t, "src-1", sources.advancedID)
	assert.Equal(t, "cursor:next-page", sources.advancedValue)
	assert.Equal(t, []string{"src-1"}, f.locker.released)
}

func TestProcessSourceDerivesCheckpointFromContent(t *testing.T) {
	sources := &mockSources{}
	f := newFixture(sources)

	newest := time.Date(2026, 7, 2, 15, 30, 0, 0, time.UTC)
	f.collector.items = []domain.ContentItem{
		{ExternalID: "p1", PublishedAt: newest.Add(-time.Hour)},
		{ExternalID: "p2", PublishedAt: newest},
	}

	err := f.sched.ProcessSource(context.Background(), domain.Source{ID: "src-1", Platform: "telegram"}, nil)
	require.NoError(t, err)

	assert.Equal(t, newest.Format(time.RFC3339), sources.advancedValue)
}

func TestProcessSourceEmptyCycleStillAdvances(t *testing.T) {
	sources := &mockSources{}
	f := newFixture(sources)

	source := domain.Source{ID: "src-1", Platform: "telegram", Checkpoint: "2026-07-01T00:00:00Z"}

	err := f.sched.ProcessSource(context.Background(), source, nil)
	require.NoError(t, err)

	// Nothing new: the checkpoint value stays, but the check time moves so
	// the source is not re-polled immediately.
	assert.Equal(t, 1, f.runner.runs)
	assert.Equal(t, "2026-07-01T00:00:00Z", sources.advancedValue)
}

func TestProcessSourceRunFailureKeepsCheckpoint(t *testing.T) {
	sources := &mockSources{}
	f := newFixture(sources)
	f.runner.err = errors.New("persistence failed")
	f.collector.items = []domain.ContentItem{{ExternalID: "p1", Text: "hi"}}

	err := f.sched.ProcessSource(context.Background(), domain.Source{ID: "src-1", Platform: "telegram"}, nil)
	require.Error(t, err)

	assert.Empty(t, sources.advancedID)
	// The lock is still released on the failure path.
	assert.Equal(t, []string{"src-1"}, f.locker.released)
}

func TestProcessSourceCollectFailureKeepsCheckpoint(t *testing.T) {
	sources := &mockSources{}
	f := newFixture(sources)
	f.collector.err = errors.New("rate limited")

	err := f.sched.ProcessSource(context.Background(), domain.Source{ID: "src-1", Platform: "telegram"}, nil)
	require.Error(t, err)

	assert.Zero(t, f.runner.runs)
	assert.Empty(t, sources.advancedID)
}

func TestProcessSourceBusyLockSkips(t *testing.T) {
	sources := &mockSources{}
	f := newFixture(sources)
	f.locker.busy = true

	err := f.sched.ProcessSource(context.Background(), domain.Source{ID: "src-1", Platform: "telegram"}, nil)
	require.NoError(t, err)

	assert.False(t, f.collector.called)
	assert.Zero(t, f.runner.runs)
}

func TestProcessSourceUnknownPlatformTouchesOnly(t *testing.T) {
	sources := &mockSources{}
	f := newFixture(sources)

	err := f.sched.ProcessSource(context.Background(), domain.Source{ID: "src-1", Platform: "myspace"}, nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"src-1"}, sources.touched)
	assert.Zero(t, f.runner.runs)
	assert.Empty(t, sources.advancedID)
}

func TestProcessSourceWindowOverrides(t *testing.T) {
	sources := &mockSources{}
	f := newFixture(sources)

	source := domain.Source{
		ID:       "src-1",
		Platform: "telegram",
		DateFrom: "2026-06-01",
		DateTo:   "2026-06-10",
	}

	err := f.sched.ProcessSource(context.Background(), source, nil)
	require.NoError(t, err)

	assert.Equal(t, time.June, f.collector.gotFrom.Month())
	assert.Equal(t, 10, f.collector.gotTo.Day())
}

func TestTickProcessesOnlyDueSources(t *testing.T) {
	now := time.Now()
	sources := &mockSources{sources: []domain.Source{
		{ID: "due", Platform: "telegram"},
		{ID: "fresh", Platform: "telegram", LastCheckedAt: now.Add(-time.Minute)},
	}}
	f := newFixture(sources)

	f.sched.Tick(context.Background())

	assert.Equal(t, 1, f.runner.runs)
	assert.Equal(t, []string{"due"}, f.locker.acquired)
}

func TestTickUsesScenarioInterval(t *testing.T) {
	now := time.Now()
	sources := &mockSources{sources: []domain.Source{
		// 45 minutes since last check: due under the scenario's 30-minute
		// interval, not under the 60-minute default.
		{ID: "src-1", Platform: "telegram", ScenarioID: "sc-1", LastCheckedAt: now.Add(-45 * time.Minute)},
	}}
	f := newFixture(sources)

	f.sched.Tick(context.Background())

	assert.Equal(t, 1, f.runner.runs)
}

func TestTickDanglingScenarioFallsBackToDefaults(t *testing.T) {
	sources := &mockSources{sources: []domain.Source{
		{ID: "src-1", Platform: "telegram", ScenarioID: "ghost"},
	}}
	f := newFixture(sources)

	f.sched.Tick(context.Background())

	assert.Equal(t, 1, f.runner.runs)
}
