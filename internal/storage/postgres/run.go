package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"medium_syncer/internal/domain"
)

// RunStore keeps per-execution summaries. Reporting only; the ledger is
// the source of truth for dedup.
type RunStore struct {
	db *sqlx.DB
}

func NewRunStore(db *sqlx.DB) *RunStore {
	return &RunStore{db: db}
}

func (s *RunStore) Insert(ctx context.Context, run *domain.SyncRun) error {
	query := `
		INSERT INTO sync_runs (started_at, finished_at, candidates_seen, synced, skipped, failed, status, error)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := GetExecutor(ctx, s.db).QueryRowxContext(ctx, query,
		run.StartedAt,
		run.FinishedAt,
		run.CandidatesSeen,
		run.Synced,
		run.Skipped,
		run.Failed,
		run.Status,
		run.Error,
	).Scan(&run.ID)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Latest returns the most recent run, or nil when none exist yet.
func (s *RunStore) Latest(ctx context.Context) (*domain.SyncRun, error) {
	query := `
		SELECT id, started_at, finished_at, candidates_seen, synced, skipped, failed, status, error
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT 1`

	var run domain.SyncRun
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &run, query)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return &run, nil
}

func (s *RunStore) List(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	query := `
		SELECT id, started_at, finished_at, candidates_seen, synced, skipped, failed, status, error
		FROM sync_runs
		ORDER BY started_at DESC, id DESC
		LIMIT $1`

	var runs []domain.SyncRun
	if err := sqlx.SelectContext(ctx, GetExecutor(ctx, s.db), &runs, query, limit); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
