package filter

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job_ingester/internal/config"
	"job_ingester/internal/domain"
)

var scrapeDate = time.Date(2025, 3, 31, 9, 30, 0, 0, time.UTC)

func testChain() *Chain {
	window := 30
	return NewChain(config.FilterConfig{
		Title: config.TitleFilterConfig{
			Include: []string{"data", "ai", "machine learning"},
			Exclude: []string{"senior", "lead", "principal"},
		},
		Location: config.LocationFilterConfig{
			Keywords: []string{"latam", "worldwide", "americas"},
		},
		Recency: config.RecencyFilterConfig{WindowDays: &window},
	})
}

func record(title, location, published string) domain.RawRecord {
	return domain.RawRecord{
		Title:           title,
		Company:         "Acme",
		URL:             "https://example.com/" + title,
		Location:        location,
		PublicationDate: published,
	}
}

func daysAgo(n int) string {
	return scrapeDate.AddDate(0, 0, -n).Format("2006-01-02T15:04:05")
}

func TestTitlePredicate(t *testing.T) {
	p := NewTitlePredicate([]string{"data", "machine learning"}, []string{"senior", "head of"})

	tests := []struct {
		title string
		want  bool
	}{
		{"Data Engineer", true},
		{"Machine Learning Engineer", true},
		{"Senior Data Engineer", false},
		{"Head of Data", false},
		{"Frontend Developer", false},
		{"Database Administrator", false},
		{"", false},
		{"   ", false},
	}

	for _, tt := range tests {
		t.Run(tt.title, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Match(domain.RawRecord{Title: tt.title}, scrapeDate))
		})
	}
}

func TestLocationPredicate(t *testing.T) {
	p := NewLocationPredicate([]string{"LATAM", "usa timezones", " "})

	assert.True(t, p.Match(domain.RawRecord{Location: "Remote - LATAM only"}, scrapeDate))
	assert.True(t, p.Match(domain.RawRecord{Location: "USA Timezones"}, scrapeDate))
	assert.False(t, p.Match(domain.RawRecord{Location: "Europe"}, scrapeDate))
	assert.False(t, p.Match(domain.RawRecord{Location: ""}, scrapeDate))
}

func TestRecencyPredicate_Boundaries(t *testing.T) {
	p := NewRecencyPredicate(30)

	tests := []struct {
		name      string
		published string
		want      bool
	}{
		{name: "same day", published: daysAgo(0), want: true},
		{name: "30 days", published: daysAgo(30), want: true},
		{name: "31 days", published: daysAgo(31), want: false},
		{name: "future", published: daysAgo(-1), want: false},
		{name: "date only", published: "2025-03-01", want: true},
		{name: "rfc3339", published: "2025-03-30T23:59:59Z", want: true},
		{name: "unparseable", published: "last tuesday", want: false},
		{name: "missing", published: "", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.Match(domain.RawRecord{PublicationDate: tt.published}, scrapeDate))
		})
	}
}

func TestChain_Apply(t *testing.T) {
	records := []domain.RawRecord{
		record("Data Analyst", "LATAM", daysAgo(2)),
		record("Senior Data Analyst", "LATAM", daysAgo(2)),
		record("AI Engineer", "Europe only", daysAgo(2)),
		record("Machine Learning Engineer", "Worldwide", daysAgo(45)),
		record("Data Scientist", "Americas", "not a date"),
		record("ML Ops", "", ""),
		record("Data Engineer", "Worldwide", daysAgo(30)),
	}

	kept, rejected := testChain().Apply(records, scrapeDate)

	require.Len(t, kept, 2)
	assert.Equal(t, "Data Analyst", kept[0].Title)
	assert.Equal(t, "Data Engineer", kept[1].Title)

	assert.Equal(t, 2, rejected[TitleName])
	assert.Equal(t, 1, rejected[LocationName])
	assert.Equal(t, 2, rejected[RecencyName])
	assert.Equal(t, len(records)-len(kept), rejected.Total())
}

func TestChain_ApplyIsMonotonicAndIdempotent(t *testing.T) {
	records := []domain.RawRecord{
		record("Data Analyst", "LATAM", daysAgo(1)),
		record("Lead AI Engineer", "Worldwide", daysAgo(1)),
		record("AI Engineer", "Worldwide", daysAgo(3)),
		{},
	}
	chain := testChain()

	once, _ := chain.Apply(records, scrapeDate)
	twice, rejected := chain.Apply(once, scrapeDate)

	for _, r := range once {
		assert.Contains(t, records, r)
	}
	assert.Equal(t, once, twice)
	assert.Zero(t, rejected.Total())
}

type panickyPredicate struct{}

func (panickyPredicate) Name() string { return "panicky" }

func (panickyPredicate) Match(r domain.RawRecord, _ time.Time) bool {
	if r.Title == "boom" {
		panic("cannot evaluate")
	}
	return true
}

func TestChain_RecordThatCannotBeEvaluatedIsExcluded(t *testing.T) {
	chain := New(panickyPredicate{})

	kept, rejected := chain.Apply([]domain.RawRecord{{Title: "boom"}, {Title: "fine"}}, scrapeDate)

	require.Len(t, kept, 1)
	assert.Equal(t, "fine", kept[0].Title)
	assert.Equal(t, 1, rejected["panicky"])
}

func TestChain_EmptyInput(t *testing.T) {
	kept, rejected := testChain().Apply(nil, scrapeDate)

	assert.Empty(t, kept)
	assert.Zero(t, rejected.Total())
}

func TestRecencyPredicate_ScrapeClockWestOfUTC(t *testing.T) {
	p := NewRecencyPredicate(30)
	scrape := time.Date(2025, 3, 30, 21, 0, 0, 0, time.FixedZone("UTC-5", -5*3600))

	assert.True(t, p.Match(record("Data Analyst", "LATAM", "2025-03-31T01:00:00"), scrape))
	assert.False(t, p.Match(record("Data Analyst", "LATAM", "2025-04-01T01:00:00"), scrape))
}
