package domain

import (
	"fmt"
	"time"
)

// RawRecord is one job listing as delivered by a source. Every field may be
// empty; an empty field is treated as absent.
type RawRecord struct {
	ExternalID      string
	Title           string
	Company         string
	URL             string
	Location        string
	Description     string
	PublicationDate string
}

// Validate reports the first required field that is missing.
func (r RawRecord) Validate() error {
	switch {
	case isBlank(r.Title):
		return fmt.Errorf("%w: missing title", ErrMalformedRecord)
	case isBlank(r.Location):
		return fmt.Errorf("%w: missing location", ErrMalformedRecord)
	case isBlank(r.PublicationDate):
		return fmt.Errorf("%w: missing publication date", ErrMalformedRecord)
	}
	return nil
}

// Posting is the normalized, feature-enriched form of a RawRecord.
type Posting struct {
	Title                string          `json:"title"`
	Company              string          `json:"company"`
	URL                  string          `json:"url"`
	Location             string          `json:"location"`
	PublicationDate      time.Time       `json:"publication_date"`
	DaysSincePublication int             `json:"days_since_publication"`
	YearsExperience      *int            `json:"years_experience"`
	Skills               map[string]bool `json:"skills"`
	DateAdded            time.Time       `json:"date_added"`
}

// PostingKey identifies a stored posting. It deliberately leaves out the URL:
// two postings with the same title and company added on the same day collide.
type PostingKey struct {
	Title     string `db:"title" json:"title"`
	Company   string `db:"company" json:"company"`
	DateAdded string `db:"date_added" json:"date_added"`
}

func (p Posting) Key() PostingKey {
	return PostingKey{
		Title:     p.Title,
		Company:   p.Company,
		DateAdded: FormatDate(p.DateAdded),
	}
}
