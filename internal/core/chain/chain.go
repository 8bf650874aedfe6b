// Package chain derives the deterministic analysis-chain identifier for a
// (source, scenario) pair and exposes chain-evolution queries over persisted
// records.
//
// Chain identity is intentionally a fixed key, never topic similarity:
// every run for the same pair lands on the same timeline.
package chain

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sifterlab/mediasift/internal/core/domain"
)

// ID returns the stable chain identifier for a source and optional scenario.
// Runs without a scenario chain separately from runs with one.
func ID(sourceID, scenarioID string) string {
	if scenarioID == "" {
		return fmt.Sprintf("source_%s", sourceID)
	}

	return fmt.Sprintf("source_%s_scenario_%s", sourceID, scenarioID)
}

// Store is the read surface the manager needs over persisted records.
type Store interface {
	AnalysesByChain(ctx context.Context, chainID string) ([]domain.UnifiedAnalysisRecord, error)
	LatestByChain(ctx context.Context, chainID string) (*domain.UnifiedAnalysisRecord, error)
}

// Manager answers chain-evolution queries. It has no write path of its own;
// chain ids are assigned by the orchestrator at persist time.
type Manager struct {
	store Store
}

// NewManager creates a Manager over the given store.
func NewManager(store Store) *Manager {
	return &Manager{store: store}
}

// Evolution returns every record in the chain ordered by the content's own
// date range (earliest content first), falling back to analysis date when a
// record has no content dates.
func (m *Manager) Evolution(ctx context.Context, chainID string) ([]domain.UnifiedAnalysisRecord, error) {
	records, err := m.store.AnalysesByChain(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("load chain %s: %w", chainID, err)
	}

	sort.SliceStable(records, func(i, j int) bool {
		return orderDate(records[i]).Before(orderDate(records[j]))
	})

	return records, nil
}

// Latest returns the most recent record in the chain, nil when the chain has
// no records yet.
func (m *Manager) Latest(ctx context.Context, chainID string) (*domain.UnifiedAnalysisRecord, error) {
	record, err := m.store.LatestByChain(ctx, chainID)
	if err != nil {
		return nil, fmt.Errorf("latest in chain %s: %w", chainID, err)
	}

	return record, nil
}

func orderDate(r domain.UnifiedAnalysisRecord) time.Time {
	if !r.Stats.EarliestContent.IsZero() {
		return r.Stats.EarliestContent
	}

	return r.AnalysisDate
}
