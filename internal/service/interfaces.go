package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"medium_syncer/internal/domain"
)

type Source interface {
	Name() string
	Search(ctx context.Context, keywords []string, limit int) ([]domain.ArticleCandidate, error)
	Lookup(ctx context.Context, articleURL string) (*domain.ArticleCandidate, error)
}

type Transformer interface {
	Transform(ctx context.Context, text, targetLanguage string) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, article *domain.ArticleCandidate, status, category string) (*domain.PublishedPost, error)
	Ping(ctx context.Context) error
}

type Ledger interface {
	HasSeen(ctx context.Context, sourceURL string) (bool, error)
	Record(ctx context.Context, record *domain.SyncRecord) error
	List(ctx context.Context, limit, offset int) ([]domain.SyncRecord, error)
	Stats(ctx context.Context) (*domain.Stats, error)
}

type RunStore interface {
	Insert(ctx context.Context, run *domain.SyncRun) error
	Latest(ctx context.Context) (*domain.SyncRun, error)
	List(ctx context.Context, limit int) ([]domain.SyncRun, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventPublisher interface {
	PublishRecord(ctx context.Context, record *domain.SyncRecord) error
	PublishRun(ctx context.Context, result *domain.RunResult, failed bool) error
	Close() error
}
