package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/sifterlab/mediasift/internal/core/domain"
)

const analysisColumns = `id, source_id, COALESCE(scenario_id::text, ''), analysis_date, chain_id,
	COALESCE(parent_id::text, ''), results, summary, stats, total_tokens,
	estimated_cost_cents, degraded, prompts`

// SaveAnalysis persists one unified analysis run and returns its id. Empty
// runs are stored too so the chain records that the window was inspected.
func (d *DB) SaveAnalysis(ctx context.Context, record *domain.UnifiedAnalysisRecord) (string, error) {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	resultsJSON, err := json.Marshal(record.Results)
	if err != nil {
		return "", fmt.Errorf(errFmtMarshal, "analysis results", err)
	}
	summaryJSON, err := json.Marshal(record.Summary)
	if err != nil {
		return "", fmt.Errorf(errFmtMarshal, "analysis summary", err)
	}
	statsJSON, err := json.Marshal(record.Stats)
	if err != nil {
		return "", fmt.Errorf(errFmtMarshal, "analysis stats", err)
	}
	promptsJSON, err := json.Marshal(record.Prompts)
	if err != nil {
		return "", fmt.Errorf(errFmtMarshal, "analysis prompts", err)
	}

	_, err = d.Pool.Exec(ctx, `
		INSERT INTO analyses (id, source_id, scenario_id, analysis_date, chain_id,
			parent_id, results, summary, stats, total_tokens, estimated_cost_cents,
			degraded, prompts)
		VALUES ($1, $2, NULLIF($3, '')::uuid, $4, $5, NULLIF($6, '')::uuid,
			$7, $8, $9, $10, $11, $12, $13)`,
		record.ID, record.SourceID, record.ScenarioID, record.AnalysisDate,
		record.ChainID, record.ParentID, resultsJSON, summaryJSON, statsJSON,
		record.TotalTokens, record.EstimatedCostCents, record.Degraded, promptsJSON)
	if err != nil {
		return "", fmt.Errorf(errFmtExec, "save analysis", err)
	}
	return record.ID, nil
}

// LatestByChain returns the newest analysis in a chain, nil when the chain
// has no runs yet.
func (d *DB) LatestByChain(ctx context.Context, chainID string) (*domain.UnifiedAnalysisRecord, error) {
	row := d.Pool.QueryRow(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses
		WHERE chain_id = $1
		ORDER BY analysis_date DESC, id DESC
		LIMIT 1`, chainID)
	record, err := scanAnalysis(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

// AnalysesByChain returns every run in a chain ordered by analysis date.
func (d *DB) AnalysesByChain(ctx context.Context, chainID string) ([]domain.UnifiedAnalysisRecord, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses
		WHERE chain_id = $1
		ORDER BY analysis_date, id`, chainID)
	if err != nil {
		return nil, fmt.Errorf(errFmtQuery, "analyses", err)
	}
	defer rows.Close()

	var records []domain.UnifiedAnalysisRecord
	for rows.Next() {
		record, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

// AnalysesBySource returns runs for a source within an optional chain,
// ordered by analysis date. Empty chainID matches all chains of the source.
func (d *DB) AnalysesBySource(ctx context.Context, sourceID, chainID string) ([]domain.UnifiedAnalysisRecord, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+analysisColumns+`
		FROM analyses
		WHERE source_id = $1 AND ($2 = '' OR chain_id = $2)
		ORDER BY analysis_date, id`, sourceID, chainID)
	if err != nil {
		return nil, fmt.Errorf(errFmtQuery, "analyses by source", err)
	}
	defer rows.Close()

	var records []domain.UnifiedAnalysisRecord
	for rows.Next() {
		record, err := scanAnalysis(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

func scanAnalysis(row pgx.Row) (*domain.UnifiedAnalysisRecord, error) {
	var (
		record      domain.UnifiedAnalysisRecord
		resultsJSON []byte
		summaryJSON []byte
		statsJSON   []byte
		promptsJSON []byte
	)
	err := row.Scan(&record.ID, &record.SourceID, &record.ScenarioID,
		&record.AnalysisDate, &record.ChainID, &record.ParentID,
		&resultsJSON, &summaryJSON, &statsJSON, &record.TotalTokens,
		&record.EstimatedCostCents, &record.Degraded, &promptsJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf(errFmtScan, "analysis", err)
	}
	if err = json.Unmarshal(resultsJSON, &record.Results); err != nil {
		return nil, fmt.Errorf(errFmtUnmarshal, "analysis results", err)
	}
	if err = json.Unmarshal(summaryJSON, &record.Summary); err != nil {
		return nil, fmt.Errorf(errFmtUnmarshal, "analysis summary", err)
	}
	if err = json.Unmarshal(statsJSON, &record.Stats); err != nil {
		return nil, fmt.Errorf(errFmtUnmarshal, "analysis stats", err)
	}
	if len(promptsJSON) > 0 {
		if err = json.Unmarshal(promptsJSON, &record.Prompts); err != nil {
			return nil, fmt.Errorf(errFmtUnmarshal, "analysis prompts", err)
		}
	}
	return &record, nil
}
