package remotive

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"job_ingester/internal/domain"
	"job_ingester/internal/htmltext"
)

const (
	SourceID   = "remotive"
	SourceName = "Remotive Remote Jobs"
)

// Config holds Remotive source configuration.
type Config struct {
	BaseURL        string
	Category       string
	Search         string
	Limit          int
	Timeout        time.Duration
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// Source implements service.Source for the Remotive public API.
type Source struct {
	httpClient     *http.Client
	baseURL        string
	category       string
	search         string
	limit          int
	maxAttempts    int
	initialBackoff time.Duration
	maxBackoff     time.Duration
	logger         *slog.Logger
}

func New(cfg Config, logger *slog.Logger) *Source {
	return &Source{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:        cfg.BaseURL,
		category:       cfg.Category,
		search:         cfg.Search,
		limit:          cfg.Limit,
		maxAttempts:    max(cfg.MaxAttempts, 1),
		initialBackoff: cfg.InitialBackoff,
		maxBackoff:     cfg.MaxBackoff,
		logger:         logger.With("source", SourceID),
	}
}

func (s *Source) ID() string {
	return SourceID
}

func (s *Source) Name() string {
	return SourceName
}

// FetchRecords downloads the current job list. Any failure to obtain or
// decode it is reported as domain.ErrSourceUnavailable.
func (s *Source) FetchRecords(ctx context.Context) ([]domain.RawRecord, error) {
	endpoint, err := s.endpoint()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}

	resp, err := s.fetch(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSourceUnavailable, err)
	}

	s.logger.Debug("fetched jobs", "jobs", len(resp.Jobs), "job_count", resp.JobCount)

	return s.transform(resp.Jobs), nil
}

func (s *Source) endpoint() (string, error) {
	u, err := url.Parse(s.baseURL)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}

	q := u.Query()
	if s.category != "" {
		q.Set("category", s.category)
	}
	if s.search != "" {
		q.Set("search", s.search)
	}
	if s.limit > 0 {
		q.Set("limit", strconv.Itoa(s.limit))
	}
	u.RawQuery = q.Encode()

	return u.String(), nil
}

func (s *Source) fetch(ctx context.Context, endpoint string) (*APIResponse, error) {
	var resp *APIResponse
	var err error

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		resp, err = s.doRequest(ctx, endpoint)
		if err == nil {
			return resp, nil
		}

		var perm *permanentError
		if attempt == s.maxAttempts || errors.As(err, &perm) {
			break
		}

		backoff := s.calculateBackoff(attempt)
		s.logger.Warn("request failed, retrying",
			"attempt", attempt,
			"backoff", backoff,
			"error", err,
		)

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
	}

	return nil, fmt.Errorf("after %d attempts: %w", s.maxAttempts, err)
}

// permanentError marks failures a retry cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

func (s *Source) doRequest(ctx context.Context, endpoint string) (*APIResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, &permanentError{fmt.Errorf("create request: %w", err)}
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "JobIngester/1.0")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
		return nil, fmt.Errorf("unexpected status: %d", resp.StatusCode)
	default:
		return nil, &permanentError{fmt.Errorf("unexpected status: %d", resp.StatusCode)}
	}

	var apiResp APIResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, &permanentError{fmt.Errorf("decode response: %w", err)}
	}

	return &apiResp, nil
}

func (s *Source) calculateBackoff(attempt int) time.Duration {
	backoff := s.initialBackoff
	for i := 1; i < attempt; i++ {
		backoff *= 2
	}
	if backoff > s.maxBackoff {
		backoff = s.maxBackoff
	}
	return backoff
}

// transform maps jobs to raw records. Incomplete jobs are kept and logged;
// the filter chain decides what to do with them.
func (s *Source) transform(jobs []Job) []domain.RawRecord {
	records := make([]domain.RawRecord, 0, len(jobs))

	for _, j := range jobs {
		r := domain.RawRecord{
			ExternalID:      strconv.FormatInt(j.ID, 10),
			Title:           j.Title,
			Company:         j.CompanyName,
			URL:             j.URL,
			Location:        j.CandidateRequiredLocation,
			Description:     htmltext.ToText(j.Description),
			PublicationDate: j.PublicationDate,
		}

		if err := r.Validate(); err != nil {
			s.logger.Debug("incomplete job", "external_id", r.ExternalID, "error", err)
		}

		records = append(records, r)
	}

	return records
}
