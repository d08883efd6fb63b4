package remotive

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job_ingester/internal/domain"
)

const payload = `{
  "job-count": 2,
  "jobs": [
    {
      "id": 1911001,
      "url": "https://remotive.com/remote-jobs/data/data-analyst-1911001",
      "title": "Data Analyst",
      "company_name": "Acme",
      "category": "Data",
      "publication_date": "2025-03-29T14:10:02",
      "candidate_required_location": "LATAM",
      "description": "<p>We need <b>3+ years</b> of Python &amp; SQL.</p><script>track()</script>"
    },
    {
      "id": 1911002,
      "url": "https://remotive.com/remote-jobs/data/ml-1911002",
      "title": "ML Engineer",
      "company_name": "Beta",
      "publication_date": "2025-03-30T08:00:00",
      "candidate_required_location": "",
      "description": ""
    }
  ]
}`

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSource(baseURL string, attempts int) *Source {
	return New(Config{
		BaseURL:        baseURL,
		Category:       "data",
		Limit:          50,
		Timeout:        5 * time.Second,
		MaxAttempts:    attempts,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     5 * time.Millisecond,
	}, testLogger())
}

func TestFetchRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "data", r.URL.Query().Get("category"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.False(t, r.URL.Query().Has("search"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, payload)
	}))
	defer srv.Close()

	records, err := testSource(srv.URL, 1).FetchRecords(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, domain.RawRecord{
		ExternalID:      "1911001",
		Title:           "Data Analyst",
		Company:         "Acme",
		URL:             "https://remotive.com/remote-jobs/data/data-analyst-1911001",
		Location:        "LATAM",
		Description:     "We need 3+ years of Python & SQL.",
		PublicationDate: "2025-03-29T14:10:02",
	}, records[0])

	assert.Equal(t, "", records[1].Location)
	assert.ErrorIs(t, records[1].Validate(), domain.ErrMalformedRecord)
}

func TestFetchRecords_RetriesServerErrors(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, payload)
	}))
	defer srv.Close()

	records, err := testSource(srv.URL, 3).FetchRecords(context.Background())
	require.NoError(t, err)
	assert.Len(t, records, 2)
	assert.Equal(t, int32(3), calls.Load())
}

func TestFetchRecords_GivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := testSource(srv.URL, 2).FetchRecords(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "after 2 attempts")
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetchRecords_MalformedPayloadIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `{"jobs": [`)
	}))
	defer srv.Close()

	_, err := testSource(srv.URL, 3).FetchRecords(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Contains(t, err.Error(), "decode response")
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRecords_NotFoundIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := testSource(srv.URL, 3).FetchRecords(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetchRecords_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	_, err := testSource(srv.URL, 1).FetchRecords(context.Background())
	assert.ErrorIs(t, err, domain.ErrSourceUnavailable)
}

func TestCalculateBackoff(t *testing.T) {
	s := New(Config{InitialBackoff: time.Second, MaxBackoff: 5 * time.Second}, testLogger())

	assert.Equal(t, time.Second, s.calculateBackoff(1))
	assert.Equal(t, 2*time.Second, s.calculateBackoff(2))
	assert.Equal(t, 4*time.Second, s.calculateBackoff(3))
	assert.Equal(t, 5*time.Second, s.calculateBackoff(4))
}
