package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"job_ingester/internal/domain"
)

type PostingStore interface {
	EnsureSchema(ctx context.Context) error
	ExistingKeys(ctx context.Context) (map[domain.PostingKey]struct{}, error)
	InsertBatch(ctx context.Context, postings []domain.Posting) (int, error)
}

type Source interface {
	ID() string
	Name() string
	FetchRecords(ctx context.Context) ([]domain.RawRecord, error)
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type Publisher interface {
	Publish(ctx context.Context, posting *domain.Posting) error
	Close() error
}

type ReportSink interface {
	Write(postings []domain.Posting, stats *domain.RunStats) error
}
