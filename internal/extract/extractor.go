// Package extract derives structured features from a filtered raw record.
package extract

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"job_ingester/internal/config"
	"job_ingester/internal/domain"
	"job_ingester/internal/phrase"
)

// experienceRe matches the first "N years", "N+ yrs", "N-year" style mention.
var experienceRe = regexp.MustCompile(`(?i)\b(\d+)\s*\+?\s*-?\s*(?:years?|yrs?)\b`)

type skill struct {
	column  string
	matcher *phrase.Matcher
}

// Extractor turns raw records into postings. It holds no per-call state and
// is safe for concurrent use.
type Extractor struct {
	skills []skill
}

// New compiles one matcher per skill keyword. Keywords are expected to have
// passed config validation, so their column names are distinct.
func New(skillKeywords []string) *Extractor {
	skills := make([]skill, 0, len(skillKeywords))
	for _, kw := range skillKeywords {
		skills = append(skills, skill{
			column:  config.SkillColumn(kw),
			matcher: phrase.Compile([]string{kw}),
		})
	}
	return &Extractor{skills: skills}
}

// Columns returns the skill column identifiers in configuration order.
func (e *Extractor) Columns() []string {
	cols := make([]string, len(e.skills))
	for i, s := range e.skills {
		cols[i] = s.column
	}
	return cols
}

// Extract builds a Posting from r as seen on scrapeDate. Missing optional
// fields get defaults; a missing title or an unusable publication date is an
// error.
func (e *Extractor) Extract(r domain.RawRecord, scrapeDate time.Time) (domain.Posting, error) {
	title := strings.TrimSpace(r.Title)
	if title == "" {
		return domain.Posting{}, fmt.Errorf("%w: missing title", domain.ErrMalformedRecord)
	}

	published, err := domain.ParsePublicationDate(r.PublicationDate)
	if err != nil {
		return domain.Posting{}, err
	}

	days := domain.DaysBetween(published, scrapeDate)
	if days < 0 {
		return domain.Posting{}, fmt.Errorf("%w: published after scrape date", domain.ErrMalformedRecord)
	}

	text := phrase.Normalize(r.Description)

	return domain.Posting{
		Title:                title,
		Company:              strings.TrimSpace(r.Company),
		URL:                  strings.TrimSpace(r.URL),
		Location:             strings.ToLower(strings.TrimSpace(r.Location)),
		PublicationDate:      published,
		DaysSincePublication: days,
		YearsExperience:      YearsExperience(text),
		Skills:               e.skillFlags(text),
		DateAdded:            scrapeDate,
	}, nil
}

func (e *Extractor) skillFlags(text string) map[string]bool {
	flags := make(map[string]bool, len(e.skills))
	for _, s := range e.skills {
		flags[s.column] = text != "" && s.matcher.MatchNormalized(text)
	}
	return flags
}

// YearsExperience returns the number in the leftmost experience mention of
// text, or nil when there is none.
func YearsExperience(text string) *int {
	m := experienceRe.FindStringSubmatch(text)
	if m == nil {
		return nil
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return nil
	}
	return &n
}
