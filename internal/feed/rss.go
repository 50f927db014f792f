// Package feed renders a user's delivered tips as an RSS channel.
package feed

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/eduncan911/podcast"

	"daily-tips/internal/models"
)

// BaseURL returns configured when set, otherwise the scheme and host the
// request came in on.
func BaseURL(configured string, r *http.Request) string {
	if configured != "" {
		return strings.TrimRight(configured, "/")
	}

	scheme := r.URL.Scheme
	if scheme == "" {
		scheme = "https"
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}
	}

	return fmt.Sprintf("%s://%s", scheme, r.Host)
}

// GenerateRSS builds the feed of a user from their delivery history, newest
// first.
func GenerateRSS(user *models.User, items []models.HistoryItem, baseURL string) (string, error) {
	feedURL := fmt.Sprintf("%s/rss/%s", baseURL, user.RSSUUID)

	title := "Daily tips"
	if user.TelegramUsername != "" {
		title = fmt.Sprintf("%s's daily tips", user.TelegramUsername)
	}

	var updated time.Time
	if len(items) > 0 {
		updated = items[0].DeliveredAt
	}
	p := podcast.New(title, feedURL, "Tips delivered to you, one topic at a time.", &updated, &updated)

	for _, it := range items {
		link := feedURL
		if it.Tip.SourceURL != nil && *it.Tip.SourceURL != "" {
			link = *it.Tip.SourceURL
		}
		pub := it.DeliveredAt
		item := podcast.Item{
			GUID:        fmt.Sprintf("%s/deliveries/%d", feedURL, it.DeliveryID),
			Title:       fmt.Sprintf("[%s] %s", it.Topic.Name, it.Tip.Title),
			Description: it.Tip.Body,
			Link:        link,
			Category:    it.Topic.Name,
			PubDate:     &pub,
		}
		if _, err := p.AddItem(item); err != nil {
			return "", fmt.Errorf("add feed item %d: %w", it.DeliveryID, err)
		}
	}

	return p.String(), nil
}
