package db

import (
	"context"
	"fmt"
	"time"
)

// LLMUsageRow is one day's aggregated usage for a provider/model/task triple.
type LLMUsageRow struct {
	Date             time.Time
	Provider         string
	Model            string
	Task             string
	PromptTokens     int64
	CompletionTokens int64
	RequestCount     int64
	CostUSD          float64
}

// IncrementLLMUsage upserts today's usage counters for a provider/model/task.
func (d *DB) IncrementLLMUsage(ctx context.Context, provider, model, task string, promptTokens, completionTokens int, cost float64) error {
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO llm_usage (date, provider, model, task, prompt_tokens,
			completion_tokens, request_count, cost_usd)
		VALUES (CURRENT_DATE, $1, $2, $3, $4, $5, 1, $6)
		ON CONFLICT (date, provider, model, task) DO UPDATE SET
			prompt_tokens = llm_usage.prompt_tokens + EXCLUDED.prompt_tokens,
			completion_tokens = llm_usage.completion_tokens + EXCLUDED.completion_tokens,
			request_count = llm_usage.request_count + 1,
			cost_usd = llm_usage.cost_usd + EXCLUDED.cost_usd,
			updated_at = now()`,
		provider, model, task, promptTokens, completionTokens, cost)
	if err != nil {
		return fmt.Errorf(errFmtExec, "increment llm usage", err)
	}
	return nil
}

// GetLLMUsageSince returns per-day usage rows on or after the given date.
func (d *DB) GetLLMUsageSince(ctx context.Context, since time.Time) ([]LLMUsageRow, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT date, provider, model, task, prompt_tokens, completion_tokens,
			request_count, cost_usd
		FROM llm_usage
		WHERE date >= $1
		ORDER BY date, provider, model, task`, since)
	if err != nil {
		return nil, fmt.Errorf(errFmtQuery, "llm usage", err)
	}
	defer rows.Close()

	var usage []LLMUsageRow
	for rows.Next() {
		var row LLMUsageRow
		if err = rows.Scan(&row.Date, &row.Provider, &row.Model, &row.Task,
			&row.PromptTokens, &row.CompletionTokens, &row.RequestCount, &row.CostUSD); err != nil {
			return nil, fmt.Errorf(errFmtScan, "llm usage", err)
		}
		usage = append(usage, row)
	}
	return usage, rows.Err()
}
