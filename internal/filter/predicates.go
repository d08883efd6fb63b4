package filter

import (
	"strings"
	"time"

	"job_ingester/internal/domain"
	"job_ingester/internal/phrase"
)

const (
	TitleName    = "title"
	LocationName = "location"
	RecencyName  = "recency"
)

// TitlePredicate keeps titles naming the target role family. An exclude hit
// wins over an include hit.
type TitlePredicate struct {
	include *phrase.Matcher
	exclude *phrase.Matcher
}

func NewTitlePredicate(include, exclude []string) *TitlePredicate {
	return &TitlePredicate{
		include: phrase.Compile(include),
		exclude: phrase.Compile(exclude),
	}
}

func (p *TitlePredicate) Name() string { return TitleName }

func (p *TitlePredicate) Match(r domain.RawRecord, _ time.Time) bool {
	title := phrase.Normalize(r.Title)
	if title == "" {
		return false
	}
	if p.exclude.MatchNormalized(title) {
		return false
	}
	return p.include.MatchNormalized(title)
}

// LocationPredicate keeps records whose location mentions an accepted region.
// Keywords are matched as substrings of the lower-cased location.
type LocationPredicate struct {
	keywords []string
}

func NewLocationPredicate(keywords []string) *LocationPredicate {
	kws := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.ToLower(strings.TrimSpace(k)); k != "" {
			kws = append(kws, k)
		}
	}
	return &LocationPredicate{keywords: kws}
}

func (p *LocationPredicate) Name() string { return LocationName }

func (p *LocationPredicate) Match(r domain.RawRecord, _ time.Time) bool {
	location := strings.ToLower(strings.TrimSpace(r.Location))
	if location == "" {
		return false
	}
	for _, k := range p.keywords {
		if strings.Contains(location, k) {
			return true
		}
	}
	return false
}

// RecencyPredicate keeps records published between 0 and windowDays days
// before the scrape date, inclusive. Future-dated records are rejected.
type RecencyPredicate struct {
	windowDays int
}

func NewRecencyPredicate(windowDays int) *RecencyPredicate {
	return &RecencyPredicate{windowDays: windowDays}
}

func (p *RecencyPredicate) Name() string { return RecencyName }

func (p *RecencyPredicate) Match(r domain.RawRecord, scrapeDate time.Time) bool {
	published, err := domain.ParsePublicationDate(r.PublicationDate)
	if err != nil {
		return false
	}
	days := domain.DaysBetween(published, scrapeDate)
	return days >= 0 && days <= p.windowDays
}
