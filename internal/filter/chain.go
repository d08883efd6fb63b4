// Package filter decides which raw records are relevant enough to extract.
package filter

import (
	"time"

	"job_ingester/internal/config"
	"job_ingester/internal/domain"
)

// Predicate accepts or rejects a single record. A predicate that cannot
// evaluate a record rejects it.
type Predicate interface {
	Name() string
	Match(r domain.RawRecord, scrapeDate time.Time) bool
}

// Rejections counts rejected records per predicate name.
type Rejections map[string]int

func (r Rejections) Total() int {
	total := 0
	for _, n := range r {
		total += n
	}
	return total
}

// Chain applies its predicates as a logical AND, in order. Later predicates
// only see records every earlier predicate accepted.
type Chain struct {
	predicates []Predicate
}

func New(predicates ...Predicate) *Chain {
	return &Chain{predicates: predicates}
}

// NewChain builds the title, location and recency chain from config.
func NewChain(cfg config.FilterConfig) *Chain {
	return New(
		NewTitlePredicate(cfg.Title.Include, cfg.Title.Exclude),
		NewLocationPredicate(cfg.Location.Keywords),
		NewRecencyPredicate(cfg.Recency.Window()),
	)
}

// Apply returns the records accepted by every predicate, preserving order.
func (c *Chain) Apply(records []domain.RawRecord, scrapeDate time.Time) ([]domain.RawRecord, Rejections) {
	kept := make([]domain.RawRecord, 0, len(records))
	rejected := make(Rejections)

	for _, r := range records {
		if name, ok := c.evaluate(r, scrapeDate); !ok {
			rejected[name]++
			continue
		}
		kept = append(kept, r)
	}

	return kept, rejected
}

func (c *Chain) evaluate(r domain.RawRecord, scrapeDate time.Time) (string, bool) {
	for _, p := range c.predicates {
		if !safeMatch(p, r, scrapeDate) {
			return p.Name(), false
		}
	}
	return "", true
}

// safeMatch keeps one bad record from failing the batch.
func safeMatch(p Predicate, r domain.RawRecord, scrapeDate time.Time) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return p.Match(r, scrapeDate)
}
