package feed

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-tips/internal/models"
)

func TestBaseURL(t *testing.T) {
	req := httptest.NewRequest("GET", "/rss/x", nil)
	req.Host = "tips.local"
	assert.Equal(t, "https://tips.local", BaseURL("", req))

	req.Header.Set("X-Forwarded-Proto", "http")
	assert.Equal(t, "http://tips.local", BaseURL("", req))

	assert.Equal(t, "https://cfg.example", BaseURL("https://cfg.example/", req))
}

func TestGenerateRSS(t *testing.T) {
	src := "https://go.dev/doc/effective_go"
	user := &models.User{TelegramUsername: "alice", RSSUUID: "5c1f"}
	items := []models.HistoryItem{
		{
			DeliveryID:  2,
			DeliveredAt: time.Date(2025, 1, 16, 9, 0, 0, 0, time.UTC),
			Tip:         models.TipSnapshot{ID: 11, Title: "Run gofmt", Body: "Format on save.", SourceURL: &src},
			Topic:       models.TopicSnapshot{ID: 1, Name: "Go", Slug: "go"},
		},
		{
			DeliveryID:  1,
			DeliveredAt: time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC),
			Tip:         models.TipSnapshot{ID: 10, Title: "Read a volume", Body: "One per week."},
			Topic:       models.TopicSnapshot{ID: 2, Name: "Manga", Slug: "manga"},
		},
	}

	rss, err := GenerateRSS(user, items, "https://tips.local")
	require.NoError(t, err)
	assert.Contains(t, rss, "alice&#39;s daily tips")
	assert.Contains(t, rss, "https://tips.local/rss/5c1f")
	assert.Contains(t, rss, "[Go] Run gofmt")
	assert.Contains(t, rss, src)
	assert.Equal(t, 2, strings.Count(rss, "<item>"))
}

func TestGenerateRSS_Empty(t *testing.T) {
	rss, err := GenerateRSS(&models.User{RSSUUID: "u"}, nil, "https://tips.local")
	require.NoError(t, err)
	assert.Contains(t, rss, "Daily tips")
	assert.NotContains(t, rss, "<item>")
}
