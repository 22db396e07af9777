package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"medium_syncer/internal/domain"
)

const uniqueViolation = "23505"

// LedgerStore is the deduplication authority: one immutable row per
// source URL ever attempted.
type LedgerStore struct {
	db *sqlx.DB
}

func NewLedgerStore(db *sqlx.DB) *LedgerStore {
	return &LedgerStore{db: db}
}

func (s *LedgerStore) HasSeen(ctx context.Context, sourceURL string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS (SELECT 1 FROM sync_records WHERE source_url = $1)`

	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists, query, sourceURL)
	if err != nil {
		return false, fmt.Errorf("check seen: %w", err)
	}
	return exists, nil
}

// Record inserts a new ledger row. A unique violation on source_url maps
// to domain.ErrDuplicateRecord; there is no update path.
func (s *LedgerStore) Record(ctx context.Context, record *domain.SyncRecord) error {
	query := `
		INSERT INTO sync_records (source_url, title, author, status, remote_post_id, remote_url, synced_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		RETURNING id, synced_at`

	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		record.SourceURL,
		record.Title,
		record.Author,
		record.Status,
		record.RemotePostID,
		record.RemoteURL,
	).Scan(&record.ID, &record.SyncedAt)

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
		return fmt.Errorf("record %s: %w", record.SourceURL, domain.ErrDuplicateRecord)
	}
	if err != nil {
		return fmt.Errorf("insert record: %w", err)
	}
	return nil
}

func (s *LedgerStore) List(ctx context.Context, limit, offset int) ([]domain.SyncRecord, error) {
	query := `
		SELECT id, source_url, title, author, status, remote_post_id, remote_url, synced_at
		FROM sync_records
		ORDER BY synced_at DESC, id DESC
		LIMIT $1 OFFSET $2`

	var records []domain.SyncRecord
	err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &records, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	return records, nil
}

func (s *LedgerStore) Stats(ctx context.Context) (*domain.Stats, error) {
	query := `
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = 'success') AS synced,
			COUNT(*) FILTER (WHERE status = 'failed') AS failed,
			COUNT(*) FILTER (WHERE status = 'skipped') AS skipped
		FROM sync_records`

	var row struct {
		Total   int64 `db:"total"`
		Synced  int64 `db:"synced"`
		Failed  int64 `db:"failed"`
		Skipped int64 `db:"skipped"`
	}
	if err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &row, query); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &domain.Stats{}, nil
		}
		return nil, fmt.Errorf("ledger stats: %w", err)
	}

	return &domain.Stats{
		TotalRecords: row.Total,
		TotalSynced:  row.Synced,
		TotalFailed:  row.Failed,
		TotalSkipped: row.Skipped,
	}, nil
}
