package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/sifterlab/mediasift/internal/core/domain"
	coreerrors "github.com/sifterlab/mediasift/internal/core/errors"
)

// GetScenario fetches one analysis scenario by id.
func (d *DB) GetScenario(ctx context.Context, id string) (domain.Scenario, error) {
	row := d.Pool.QueryRow(ctx, `
		SELECT id, content_kinds, analysis_kinds, config, prompts, strategy,
			provider_overrides, interval_minutes
		FROM scenarios
		WHERE id = $1`, id)
	sc, err := scanScenario(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Scenario{}, coreerrors.ErrNotFound
	}
	return sc, err
}

// ListScenarios returns every configured scenario.
func (d *DB) ListScenarios(ctx context.Context) ([]domain.Scenario, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, content_kinds, analysis_kinds, config, prompts, strategy,
			provider_overrides, interval_minutes
		FROM scenarios
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf(errFmtQuery, "scenarios", err)
	}
	defer rows.Close()

	var scenarios []domain.Scenario
	for rows.Next() {
		sc, err := scanScenario(rows)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, sc)
	}
	return scenarios, rows.Err()
}

func scanScenario(row pgx.Row) (domain.Scenario, error) {
	var (
		sc            domain.Scenario
		strategy      string
		configJSON    []byte
		promptsJSON   []byte
		overridesJSON []byte
	)
	err := row.Scan(&sc.ID, &sc.ContentKinds, &sc.AnalysisKinds, &configJSON,
		&promptsJSON, &strategy, &overridesJSON, &sc.IntervalMinutes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Scenario{}, err
		}
		return domain.Scenario{}, fmt.Errorf(errFmtScan, "scenario", err)
	}
	sc.Strategy = domain.Strategy(strategy)
	if len(configJSON) > 0 {
		if err = json.Unmarshal(configJSON, &sc.Config); err != nil {
			return domain.Scenario{}, fmt.Errorf(errFmtUnmarshal, "scenario config", err)
		}
	}
	if len(promptsJSON) > 0 {
		if err = json.Unmarshal(promptsJSON, &sc.Prompts); err != nil {
			return domain.Scenario{}, fmt.Errorf(errFmtUnmarshal, "scenario prompts", err)
		}
	}
	if len(overridesJSON) > 0 {
		if err = json.Unmarshal(overridesJSON, &sc.ProviderOverrides); err != nil {
			return domain.Scenario{}, fmt.Errorf(errFmtUnmarshal, "scenario overrides", err)
		}
	}
	return sc, nil
}
