// Package entries provides the entry store: a PostgreSQL-backed repository
// for production and an in-memory one for tests and single-node runs.
package entries

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"cloud.google.com/go/civil"
	"github.com/dmitrijs2005/dailyagg/internal/common"
	"github.com/dmitrijs2005/dailyagg/internal/dbx"
	"github.com/dmitrijs2005/dailyagg/internal/server/models"
)

const entryColumns = `id, user_id, kind, occurred_at, day_key, timezone, payload, created_at`

// PostgresRepository implements entry storage over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func storeErr(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrStoreUnavailable, op, err)
}

func (r *PostgresRepository) Put(ctx context.Context, entry *models.Entry) (bool, error) {
	payload, err := entry.Payload()
	if err != nil {
		return false, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	query := `
		INSERT INTO entries (id, user_id, kind, occurred_at, day_key, timezone, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, string(entry.Kind), entry.OccurredAt, entry.DayKey.String(), entry.Timezone, payload)
	if err != nil {
		return false, storeErr("insert entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, storeErr("rows affected", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) Update(ctx context.Context, entry *models.Entry) error {
	payload, err := entry.Payload()
	if err != nil {
		return fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	query := `
		UPDATE entries
		SET occurred_at = $4, day_key = $5, timezone = $6, payload = $7
		WHERE id = $1 AND user_id = $2 AND kind = $3
	`
	res, err := r.db.ExecContext(ctx, query,
		entry.ID, entry.UserID, string(entry.Kind), entry.OccurredAt, entry.DayKey.String(), entry.Timezone, payload)
	if err != nil {
		return storeErr("update entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("rows affected", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, entryID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE id = $1 AND user_id = $2`, entryID, userID)
	if err != nil {
		return storeErr("delete entry", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("rows affected", err)
	}
	if n == 0 {
		return common.ErrNotFound
	}
	return nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, entryID string) (*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries WHERE id = $1 AND user_id = $2`

	e, err := scanEntry(r.db.QueryRowContext(ctx, query, entryID, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrNotFound
		}
		return nil, storeErr("select entry", err)
	}
	return e, nil
}

func (r *PostgresRepository) ListByDay(ctx context.Context, userID string, day civil.Date, kind models.EntryKind) ([]*models.Entry, error) {
	query := `SELECT ` + entryColumns + ` FROM entries
		WHERE user_id = $1 AND day_key = $2 AND ($3::text = '' OR kind = $3::text)
		ORDER BY occurred_at, id
	`
	rows, err := r.db.QueryContext(ctx, query, userID, day.String(), string(kind))
	if err != nil {
		return nil, storeErr("select entries", err)
	}
	defer rows.Close()

	var result []*models.Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, storeErr("scan entry", err)
		}
		result = append(result, e)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate entries", err)
	}
	return result, nil
}

func (r *PostgresRepository) UpsertLatestMetrics(ctx context.Context, entry *models.Entry) (*models.Entry, error) {
	payload, err := entry.Payload()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", common.ErrValidation, err)
	}

	query := `
		INSERT INTO entries (id, user_id, kind, occurred_at, day_key, timezone, payload)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (user_id, day_key) WHERE kind = 'device_metrics'
		DO UPDATE SET
			occurred_at = EXCLUDED.occurred_at,
			timezone = EXCLUDED.timezone,
			payload = EXCLUDED.payload
		RETURNING ` + entryColumns

	stored, err := scanEntry(r.db.QueryRowContext(ctx, query,
		entry.ID, entry.UserID, string(models.KindDeviceMetrics), entry.OccurredAt, entry.DayKey.String(), entry.Timezone, payload))
	if err != nil {
		return nil, storeErr("upsert metrics", err)
	}
	return stored, nil
}

func (r *PostgresRepository) DeleteBefore(ctx context.Context, cutoff civil.Date) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM entries WHERE day_key < $1`, cutoff.String())
	if err != nil {
		return 0, storeErr("delete old entries", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, storeErr("rows affected", err)
	}
	return n, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (*models.Entry, error) {
	var (
		e       models.Entry
		kind    string
		day     time.Time
		payload []byte
	)
	if err := s.Scan(&e.ID, &e.UserID, &kind, &e.OccurredAt, &day, &e.Timezone, &payload, &e.CreatedAt); err != nil {
		return nil, err
	}
	e.DayKey = civil.DateOf(day)
	e.OccurredAt = e.OccurredAt.UTC()
	if err := e.SetPayload(models.EntryKind(kind), payload); err != nil {
		return nil, err
	}
	return &e, nil
}
