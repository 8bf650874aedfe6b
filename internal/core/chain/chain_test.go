package chain

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sifterlab/mediasift/internal/core/domain"
)

type stubStore struct {
	records []domain.UnifiedAnalysisRecord
}

func (s *stubStore) AnalysesByChain(_ context.Context, _ string) ([]domain.UnifiedAnalysisRecord, error) {
	return s.records, nil
}

func (s *stubStore) LatestByChain(_ context.Context, _ string) (*domain.UnifiedAnalysisRecord, error) {
	if len(s.records) == 0 {
		return nil, nil
	}

	return &s.records[len(s.records)-1], nil
}

func TestID(t *testing.T) {
	assert.Equal(t, "source_src-1", ID("src-1", ""))
	assert.Equal(t, "source_src-1_scenario_sc-9", ID("src-1", "sc-9"))
}

func TestIDDistinguishesScenarioPresence(t *testing.T) {
	// The same source with and without a scenario lands on distinct chains.
	assert.NotEqual(t, ID("src-1", ""), ID("src-1", "sc-1"))
}

func TestEvolutionOrdersByContentDate(t *testing.T) {
	day := func(d int) time.Time { return time.Date(2026, 4, d, 0, 0, 0, 0, time.UTC) }

	store := &stubStore{records: []domain.UnifiedAnalysisRecord{
		// Analyzed first but covers later content.
		{ID: "late-content", AnalysisDate: day(1), Stats: domain.ContentStats{EarliestContent: day(20)}},
		{ID: "early-content", AnalysisDate: day(2), Stats: domain.ContentStats{EarliestContent: day(5)}},
		// No content dates, falls back to analysis date.
		{ID: "empty-run", AnalysisDate: day(10)},
	}}

	records, err := NewManager(store).Evolution(context.Background(), "source_x")
	require.NoError(t, err)

	require.Len(t, records, 3)
	assert.Equal(t, "early-content", records[0].ID)
	assert.Equal(t, "empty-run", records[1].ID)
	assert.Equal(t, "late-content", records[2].ID)
}

func TestLatestEmptyChain(t *testing.T) {
	record, err := NewManager(&stubStore{}).Latest(context.Background(), "source_x")
	require.NoError(t, err)
	assert.Nil(t, record)
}
