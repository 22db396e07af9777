package service

import (
	"context"

	"medium_syncer/internal/domain"
)

// Records exposes ledger entries for the dashboard, most recent first.
// The dashboard never talks to the store directly.
func (s *SyncService) Records(ctx context.Context, limit, offset int) ([]domain.SyncRecord, error) {
	return s.ledger.List(ctx, limit, offset)
}

// Runs exposes recent run summaries.
func (s *SyncService) Runs(ctx context.Context, limit int) ([]domain.SyncRun, error) {
	return s.runs.List(ctx, limit)
}

// Stats aggregates ledger counters plus the most recent run.
func (s *SyncService) Stats(ctx context.Context) (*domain.Stats, *domain.SyncRun, error) {
	stats, err := s.ledger.Stats(ctx)
	if err != nil {
		return nil, nil, err
	}
	lastRun, err := s.runs.Latest(ctx)
	if err != nil {
		return nil, nil, err
	}
	return stats, lastRun, nil
}

// TestConnections probes the source and the publish target. Each probe
// failure is reported, not propagated.
func (s *SyncService) TestConnections(ctx context.Context) map[string]bool {
	results := map[string]bool{
		"source":  false,
		"publish": false,
	}

	if _, err := s.source.Search(ctx, []string{"python"}, 1); err == nil {
		results["source"] = true
	}
	if err := s.publisher.Ping(ctx); err == nil {
		results["publish"] = true
	}
	return results
}
