package publisher

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"job_ingester/internal/domain"
	"job_ingester/testdata/utils"
)

func TestNewPostingMessage(t *testing.T) {
	added := time.Date(2025, 3, 31, 0, 0, 0, 0, time.UTC)
	now := time.Date(2025, 3, 31, 12, 0, 0, 0, time.FixedZone("UTC-3", -3*3600))

	p := &domain.Posting{
		Title:                "Data Analyst",
		Company:              "Acme",
		URL:                  "https://example.com/1",
		Location:             "latam",
		PublicationDate:      added.AddDate(0, 0, -2),
		DaysSincePublication: 2,
		YearsExperience:      utils.Ptr(3),
		Skills:               map[string]bool{"python": true, "sql": false},
		DateAdded:            added,
	}

	msg := NewPostingMessage(p, now)

	assert.Equal(t, ActionCreated, msg.Action)
	assert.Equal(t, domain.PostingKey{Title: "Data Analyst", Company: "Acme", DateAdded: "31-03-2025"}, msg.Key)
	assert.Equal(t, time.UTC, msg.Timestamp.Location())

	body, err := json.Marshal(msg)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(body, &decoded))
	assert.Equal(t, "posting.created", decoded["action"])
	assert.Contains(t, decoded, "posting")
	assert.Equal(t, "31-03-2025", decoded["key"].(map[string]any)["date_added"])
}
