package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"job_ingester/internal/domain"
	"job_ingester/internal/extract"
	"job_ingester/internal/filter"
)

type IngestService struct {
	source    Source
	chain     *filter.Chain
	extractor *extract.Extractor
	postings  PostingStore
	txManager TransactionManager
	publisher Publisher
	sink      ReportSink
	logger    *slog.Logger
}

// NewIngestService wires one ingestion pipeline. publisher and sink may be nil.
func NewIngestService(
	source Source,
	chain *filter.Chain,
	extractor *extract.Extractor,
	postings PostingStore,
	txManager TransactionManager,
	publisher Publisher,
	sink ReportSink,
	logger *slog.Logger,
) *IngestService {
	return &IngestService{
		source:    source,
		chain:     chain,
		extractor: extractor,
		postings:  postings,
		txManager: txManager,
		publisher: publisher,
		sink:      sink,
		logger:    logger.With("source", source.ID()),
	}
}

// Run executes one batch: fetch, filter, extract, then store the postings not
// seen before. scrapeDate is both the recency reference and the date_added of
// every stored posting.
func (s *IngestService) Run(ctx context.Context, scrapeDate time.Time) (*domain.RunStats, error) {
	startTime := time.Now()
	s.logger.Info("starting ingestion",
		"source_name", s.source.Name(),
		"scrape_date", domain.FormatDate(scrapeDate),
	)

	records, err := s.source.FetchRecords(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch records: %w", asSourceUnavailable(err))
	}

	s.logger.Info("fetched records from source", "count", len(records))

	kept, rejected := s.chain.Apply(records, scrapeDate)
	s.logger.Debug("filtered records", "kept", len(kept), "rejected", map[string]int(rejected))

	stats := &domain.RunStats{
		SourceID:   s.source.ID(),
		ScrapeDate: scrapeDate,
		Fetched:    len(records),
		Kept:       len(kept),
		Rejected:   rejected,
	}

	postings := make([]domain.Posting, 0, len(kept))
	for _, r := range kept {
		p, err := s.extractor.Extract(r, scrapeDate)
		if err != nil {
			stats.Malformed++
			s.logger.Debug("skipping record", "external_id", r.ExternalID, "error", err)
			continue
		}
		postings = append(postings, p)
	}
	stats.Extracted = len(postings)

	inserted, fresh, err := s.ingest(ctx, postings)
	if err != nil {
		return nil, err
	}
	stats.Inserted = inserted
	stats.Duplicates = len(postings) - inserted

	s.publish(ctx, fresh, stats)

	stats.Duration = time.Since(startTime)

	if s.sink != nil {
		if err := s.sink.Write(postings, stats); err != nil {
			return stats, fmt.Errorf("write report: %w", err)
		}
	}

	s.logger.Info("ingestion completed",
		"fetched", stats.Fetched,
		"kept", stats.Kept,
		"malformed", stats.Malformed,
		"duplicates", stats.Duplicates,
		"inserted", stats.Inserted,
		"published", stats.Published,
		"errors", stats.Errors,
		"duration", stats.Duration,
	)

	return stats, nil
}

// Ingest stores the postings whose identity key is not yet present and
// returns how many rows were inserted. Repeating a call with the same
// postings inserts nothing.
func (s *IngestService) Ingest(ctx context.Context, postings []domain.Posting) (int, error) {
	inserted, _, err := s.ingest(ctx, postings)
	return inserted, err
}

func (s *IngestService) ingest(ctx context.Context, postings []domain.Posting) (int, []domain.Posting, error) {
	if err := s.postings.EnsureSchema(ctx); err != nil {
		return 0, nil, fmt.Errorf("%w: ensure schema: %w", domain.ErrStoreUnavailable, err)
	}

	existing, err := s.postings.ExistingKeys(ctx)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: read existing keys: %w", domain.ErrStoreUnavailable, err)
	}

	fresh := s.filterNew(postings, existing)
	if len(fresh) == 0 {
		s.logger.Info("no new postings to store", "candidates", len(postings))
		return 0, nil, nil
	}

	var inserted int
	err = s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		n, err := s.postings.InsertBatch(txCtx, fresh)
		if err != nil {
			return err
		}
		inserted = n
		return nil
	})
	if err != nil {
		return 0, nil, fmt.Errorf("insert postings: %w", err)
	}

	if inserted != len(fresh) {
		// Another writer stored some of these keys after the snapshot; the
		// unique constraint dropped them, so the fresh set is no longer exact.
		s.logger.Warn("store rejected postings missing from snapshot",
			"expected", len(fresh),
			"inserted", inserted,
		)
		return inserted, nil, nil
	}

	s.logger.Info("stored new postings", "count", inserted)
	return inserted, fresh, nil
}

// filterNew returns the postings whose key is neither in existing nor
// repeated earlier in the same batch.
func (s *IngestService) filterNew(postings []domain.Posting, existing map[domain.PostingKey]struct{}) []domain.Posting {
	seen := make(map[domain.PostingKey]struct{}, len(postings))
	var fresh []domain.Posting

	for _, p := range postings {
		key := p.Key()
		if _, ok := existing[key]; ok {
			s.logger.Debug("skipping posting", "title", key.Title, "company", key.Company, "reason", domain.ErrDuplicateKey)
			continue
		}
		if _, ok := seen[key]; ok {
			s.logger.Debug("skipping posting", "title", key.Title, "company", key.Company, "reason", domain.ErrDuplicateKey)
			continue
		}
		seen[key] = struct{}{}
		fresh = append(fresh, p)
	}

	return fresh
}

func (s *IngestService) publish(ctx context.Context, fresh []domain.Posting, stats *domain.RunStats) {
	if s.publisher == nil {
		return
	}
	for i := range fresh {
		if err := s.publisher.Publish(ctx, &fresh[i]); err != nil {
			stats.Errors++
			s.logger.Warn("failed to publish posting", "title", fresh[i].Title, "error", err)
			continue
		}
		stats.Published++
	}
}

func asSourceUnavailable(err error) error {
	if errors.Is(err, domain.ErrSourceUnavailable) {
		return err
	}
	return fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
}
