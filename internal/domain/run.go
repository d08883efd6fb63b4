package domain

import "time"

// RunStats holds statistics about one ingestion run.
type RunStats struct {
	SourceID   string         `json:"source_id"`
	ScrapeDate time.Time      `json:"scrape_date"`
	Fetched    int            `json:"fetched"`
	Kept       int            `json:"kept"`
	Rejected   map[string]int `json:"rejected"`
	Malformed  int            `json:"malformed"`
	Extracted  int            `json:"extracted"`
	Duplicates int            `json:"duplicates"`
	Inserted   int            `json:"inserted"`
	Published  int            `json:"published"`
	Errors     int            `json:"errors"`
	Duration   time.Duration  `json:"duration_ns"`
}
