package domain

import (
	"fmt"
	"strings"
	"time"
)

// DateLayout is the DD-MM-YYYY format used for dates at the storage boundary.
const DateLayout = "02-01-2006"

var publicationLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	DateLayout,
}

// FormatDate renders the UTC calendar date of t.
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}

// ParsePublicationDate accepts the date formats job boards are known to emit.
func ParsePublicationDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("%w: empty publication date", ErrMalformedRecord)
	}
	for _, layout := range publicationLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("%w: unparseable publication date %q", ErrMalformedRecord, s)
}

// DaysBetween returns to - from in whole UTC calendar days, ignoring time of
// day. The result is negative when from is after to.
func DaysBetween(from, to time.Time) int {
	from, to = from.UTC(), to.UTC()
	f := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	t := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(f).Hours() / 24)
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
