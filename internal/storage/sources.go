package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/sifterlab/mediasift/internal/core/domain"
	coreerrors "github.com/sifterlab/mediasift/internal/core/errors"
)

const sourceColumns = `id, platform, external_ref, COALESCE(scenario_id::text, ''),
	COALESCE(last_checked_at, 'epoch'::timestamptz), checkpoint, date_from, date_to, active`

// ListActiveSources returns every source enabled for collection.
func (d *DB) ListActiveSources(ctx context.Context) ([]domain.Source, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT `+sourceColumns+`
		FROM sources
		WHERE active
		ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf(errFmtQuery, "sources", err)
	}
	defer rows.Close()

	var sources []domain.Source
	for rows.Next() {
		src, err := scanSource(rows)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	return sources, rows.Err()
}

// GetSource fetches one source by id.
func (d *DB) GetSource(ctx context.Context, id string) (domain.Source, error) {
	row := d.Pool.QueryRow(ctx, `
		SELECT `+sourceColumns+`
		FROM sources
		WHERE id = $1`, id)
	src, err := scanSource(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Source{}, coreerrors.ErrNotFound
	}
	return src, err
}

// AdvanceCheckpoint records the newest processed content position and the
// collection time for a source.
func (d *DB) AdvanceCheckpoint(ctx context.Context, sourceID, value string, checkedAt time.Time) error {
	_, err := d.Pool.Exec(ctx, `
		UPDATE sources
		SET checkpoint = $2, last_checked_at = $3, updated_at = now()
		WHERE id = $1`, sourceID, value, checkedAt)
	if err != nil {
		return fmt.Errorf(errFmtExec, "advance checkpoint", err)
	}
	return nil
}

// TouchSource updates last_checked_at without moving the checkpoint, used
// when a collection cycle found nothing new.
func (d *DB) TouchSource(ctx context.Context, sourceID string, checkedAt time.Time) error {
	_, err := d.Pool.Exec(ctx, `
		UPDATE sources
		SET last_checked_at = $2, updated_at = now()
		WHERE id = $1`, sourceID, checkedAt)
	if err != nil {
		return fmt.Errorf(errFmtExec, "touch source", err)
	}
	return nil
}

func scanSource(row pgx.Row) (domain.Source, error) {
	var src domain.Source
	err := row.Scan(&src.ID, &src.Platform, &src.ExternalRef, &src.ScenarioID,
		&src.LastCheckedAt, &src.Checkpoint, &src.DateFrom, &src.DateTo, &src.Active)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Source{}, err
		}
		return domain.Source{}, fmt.Errorf(errFmtScan, "source", err)
	}
	if src.LastCheckedAt.Unix() == 0 {
		src.LastCheckedAt = time.Time{}
	}
	return src, nil
}
