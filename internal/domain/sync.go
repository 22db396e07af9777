package domain

import "time"

// RunStatus classifies a whole pipeline run.
type RunStatus string

const (
	RunSuccess RunStatus = "success"
	RunFailed  RunStatus = "failed"
)

// RunResult summarizes one pipeline execution for callers.
type RunResult struct {
	Found    int           `json:"found"`
	Synced   int           `json:"synced"`
	Skipped  int           `json:"skipped"`
	Failed   int           `json:"failed"`
	Invalid  int           `json:"invalid"`
	Duration time.Duration `json:"duration"`
}

// SyncRun is the persisted counterpart of RunResult. Reporting state only;
// the ledger stays the deduplication authority.
type SyncRun struct {
	ID             int64      `db:"id"`
	StartedAt      time.Time  `db:"started_at"`
	FinishedAt     *time.Time `db:"finished_at"`
	CandidatesSeen int        `db:"candidates_seen"`
	Synced         int        `db:"synced"`
	Skipped        int        `db:"skipped"`
	Failed         int        `db:"failed"`
	Status         RunStatus  `db:"status"`
	Error          *string    `db:"error"`
}

// Stats aggregates ledger counters for the dashboard.
type Stats struct {
	TotalRecords int64 `json:"total_records"`
	TotalSynced  int64 `json:"total_synced"`
	TotalFailed  int64 `json:"total_failed"`
	TotalSkipped int64 `json:"total_skipped"`
}
