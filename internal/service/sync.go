package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"medium_syncer/internal/config"
	"medium_syncer/internal/domain"
)

// SyncService orchestrates one fetch → dedup → transform → publish →
// record pass. A run-level lock keeps executions mutually exclusive, so
// the ledger has a single writer at any time.
type SyncService struct {
	source      Source
	transformer Transformer
	publisher   Publisher
	ledger      Ledger
	runs        RunStore
	txManager   TransactionManager
	events      EventPublisher
	logger      *slog.Logger
	syncCfg     config.SyncConfig
	translate   config.TranslatorConfig

	mu sync.Mutex
}

func NewSyncService(
	source Source,
	transformer Transformer,
	publisher Publisher,
	ledger Ledger,
	runs RunStore,
	txManager TransactionManager,
	events EventPublisher,
	logger *slog.Logger,
	syncCfg config.SyncConfig,
	translate config.TranslatorConfig,
) *SyncService {
	return &SyncService{
		source:      source,
		transformer: transformer,
		publisher:   publisher,
		ledger:      ledger,
		runs:        runs,
		txManager:   txManager,
		events:      events,
		logger:      logger.With("component", "sync"),
		syncCfg:     syncCfg,
		translate:   translate,
	}
}

// Run executes the full pipeline once. A second call while a run is
// active fails fast with ErrSyncInProgress and touches nothing.
func (s *SyncService) Run(ctx context.Context) (*domain.RunResult, error) {
	if !s.mu.TryLock() {
		return nil, domain.ErrSyncInProgress
	}
	defer s.mu.Unlock()

	startTime := time.Now()
	s.logger.Info("starting sync",
		"source", s.source.Name(),
		"keywords", s.syncCfg.Keywords,
		"max_articles", s.syncCfg.MaxArticles,
		"recent_days", s.syncCfg.RecentDays,
	)

	candidates, err := s.source.Search(ctx, s.syncCfg.Keywords, s.syncCfg.MaxArticles)
	if err != nil {
		s.recordFailedRun(ctx, startTime, err)
		return nil, fmt.Errorf("search articles: %w", err)
	}

	cutoff := time.Now().AddDate(0, 0, -s.syncCfg.RecentDays)
	candidates = filterByDate(candidates, cutoff)

	s.logger.Info("candidates fetched", "count", len(candidates))

	result := &domain.RunResult{Found: len(candidates)}

	for i := range candidates {
		// Skips are free; only transform/publish attempts consume the
		// per-run article budget.
		if result.Synced+result.Failed >= s.syncCfg.MaxArticles {
			break
		}

		candidate := &candidates[i]
		if !candidate.Valid() {
			result.Invalid++
			s.logger.Warn("candidate without source url, skipping",
				"title", candidate.Title,
			)
			continue
		}

		seen, err := s.ledger.HasSeen(ctx, candidate.SourceURL)
		if err != nil {
			result.Failed++
			s.logger.Error("ledger lookup failed",
				"source_url", candidate.SourceURL,
				"error", err,
			)
			continue
		}
		if seen {
			result.Skipped++
			s.logger.Debug("already seen, skipping", "source_url", candidate.SourceURL)
			continue
		}

		record := s.processCandidate(ctx, candidate)
		if record.Status == domain.StatusSuccess {
			result.Synced++
		} else {
			result.Failed++
		}
	}

	result.Duration = time.Since(startTime)

	if err := s.persistRun(ctx, startTime, result, nil); err != nil {
		return result, fmt.Errorf("persist run: %w", err)
	}

	if s.events != nil {
		if err := s.events.PublishRun(ctx, result, false); err != nil {
			s.logger.Error("publish run event", "error", err)
		}
	}

	s.logger.Info("sync completed",
		"found", result.Found,
		"synced", result.Synced,
		"skipped", result.Skipped,
		"failed", result.Failed,
		"invalid", result.Invalid,
		"duration", result.Duration,
	)

	return result, nil
}

// SyncOne pushes a single article through transform → publish → record,
// bypassing the search step. It shares the run lock, so it cannot race a
// scheduled run for the same URL.
func (s *SyncService) SyncOne(ctx context.Context, articleURL string) (*domain.SyncRecord, error) {
	if !s.mu.TryLock() {
		return nil, domain.ErrSyncInProgress
	}
	defer s.mu.Unlock()

	candidate, err := s.source.Lookup(ctx, articleURL)
	if err != nil {
		return nil, fmt.Errorf("lookup article: %w", err)
	}

	seen, err := s.ledger.HasSeen(ctx, candidate.SourceURL)
	if err != nil {
		return nil, fmt.Errorf("check ledger: %w", err)
	}
	if seen {
		return nil, fmt.Errorf("%s: %w", candidate.SourceURL, domain.ErrDuplicateRecord)
	}

	record := s.processCandidate(ctx, candidate)
	return record, nil
}

// processCandidate runs one article to completion and always leaves a
// ledger record behind. Failures are converted into a failed record, not
// propagated, so one article can never abort the run.
func (s *SyncService) processCandidate(ctx context.Context, candidate *domain.ArticleCandidate) *domain.SyncRecord {
	record := &domain.SyncRecord{
		SourceURL: candidate.SourceURL,
		Title:     candidate.Title,
		Author:    candidate.Author,
	}

	if err := s.transformCandidate(ctx, candidate); err != nil {
		s.logger.Error("transform failed",
			"source_url", candidate.SourceURL,
			"error", err,
		)
		record.Status = domain.StatusFailed
		s.saveRecord(ctx, record)
		return record
	}
	record.Title = candidate.Title

	post, err := s.publisher.Publish(ctx, candidate, s.syncCfg.PostStatus, s.syncCfg.Category)
	if err != nil {
		s.logger.Error("publish failed",
			"source_url", candidate.SourceURL,
			"error", err,
		)
		record.Status = domain.StatusFailed
		s.saveRecord(ctx, record)
		return record
	}

	record.Status = domain.StatusSuccess
	record.RemotePostID = &post.ID
	record.RemoteURL = &post.Link
	s.saveRecord(ctx, record)

	s.logger.Info("article synced",
		"source_url", candidate.SourceURL,
		"remote_id", post.ID,
	)
	return record
}

func (s *SyncService) transformCandidate(ctx context.Context, candidate *domain.ArticleCandidate) error {
	if !s.translate.Enabled {
		return nil
	}
	if candidate.Language == s.translate.TargetLanguage {
		return nil
	}

	title, err := s.transformer.Transform(ctx, candidate.Title, s.translate.TargetLanguage)
	if err != nil {
		return fmt.Errorf("translate title: %w", err)
	}

	body, err := s.transformer.Transform(ctx, candidate.Body, s.translate.TargetLanguage)
	if err != nil {
		return fmt.Errorf("translate body: %w", err)
	}

	candidate.Title = title
	candidate.Body = body
	candidate.Language = s.translate.TargetLanguage
	return nil
}

func (s *SyncService) saveRecord(ctx context.Context, record *domain.SyncRecord) {
	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		return s.ledger.Record(txCtx, record)
	})
	if err != nil {
		s.logger.Error("write ledger record",
			"source_url", record.SourceURL,
			"status", record.Status,
			"error", err,
		)
		return
	}

	if s.events != nil {
		if err := s.events.PublishRecord(ctx, record); err != nil {
			s.logger.Error("publish record event",
				"source_url", record.SourceURL,
				"error", err,
			)
		}
	}
}

func (s *SyncService) persistRun(ctx context.Context, startedAt time.Time, result *domain.RunResult, runErr error) error {
	finished := time.Now()
	run := &domain.SyncRun{
		StartedAt:      startedAt,
		FinishedAt:     &finished,
		CandidatesSeen: result.Found,
		Synced:         result.Synced,
		Skipped:        result.Skipped,
		Failed:         result.Failed,
		Status:         domain.RunSuccess,
	}
	if runErr != nil {
		run.Status = domain.RunFailed
		msg := runErr.Error()
		run.Error = &msg
	}
	return s.runs.Insert(ctx, run)
}

// recordFailedRun leaves a failed run row behind after a source-level
// abort. The ledger itself stays untouched.
func (s *SyncService) recordFailedRun(ctx context.Context, startedAt time.Time, runErr error) {
	result := &domain.RunResult{Duration: time.Since(startedAt)}
	if err := s.persistRun(ctx, startedAt, result, runErr); err != nil {
		s.logger.Error("persist failed run", "error", err)
	}
	if s.events != nil {
		if err := s.events.PublishRun(ctx, result, true); err != nil {
			s.logger.Error("publish run event", "error", err)
		}
	}
}

func filterByDate(candidates []domain.ArticleCandidate, cutoff time.Time) []domain.ArticleCandidate {
	var filtered []domain.ArticleCandidate
	for _, c := range candidates {
		if c.PublishedAt.After(cutoff) {
			filtered = append(filtered, c)
		}
	}
	return filtered
}
