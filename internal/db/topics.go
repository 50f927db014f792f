package db

import (
	"context"

	"daily-tips/internal/models"
)

const topicColumns = `id, name, slug, is_active, created_at`

func (s *Store) ListActiveTopics(ctx context.Context) ([]models.Topic, error) {
	var topics []models.Topic
	err := s.db.SelectContext(ctx, &topics, `SELECT `+topicColumns+` FROM topics WHERE is_active ORDER BY name, slug`)
	if err != nil {
		return nil, wrap("list topics", err)
	}
	return topics, nil
}

// UpsertTopic creates a topic or renames the one with the same slug.
func (s *Store) UpsertTopic(ctx context.Context, name, slug string) (*models.Topic, error) {
	query := `
		INSERT INTO topics (name, slug)
		VALUES ($1, $2)
		ON CONFLICT (slug) DO UPDATE SET name = EXCLUDED.name
		RETURNING ` + topicColumns
	topic := &models.Topic{}
	if err := s.db.GetContext(ctx, topic, query, name, slug); err != nil {
		return nil, wrap("upsert topic", err)
	}
	return topic, nil
}

// SubscribedTopics returns the active topics a user is actively subscribed
// to, ordered by name then slug.
func (s *Store) SubscribedTopics(ctx context.Context, userID int64) ([]models.Topic, error) {
	query := `
		SELECT t.id, t.name, t.slug, t.is_active, t.created_at
		FROM subscriptions s
		JOIN topics t ON t.id = s.topic_id
		WHERE s.user_id = $1 AND s.is_active AND t.is_active
		ORDER BY t.name, t.slug
	`
	var topics []models.Topic
	if err := s.db.SelectContext(ctx, &topics, query, userID); err != nil {
		return nil, wrap("subscribed topics", err)
	}
	return topics, nil
}

// CountUndelivered reports, per subscribed topic, how many tips the user has
// not been delivered yet.
func (s *Store) CountUndelivered(ctx context.Context, userID int64) ([]models.TopicRemaining, error) {
	query := `
		SELECT t.id AS topic_id, t.name, t.slug, COUNT(tp.id) AS remaining
		FROM subscriptions s
		JOIN topics t ON t.id = s.topic_id
		LEFT JOIN tips tp ON tp.topic_id = t.id
			AND NOT EXISTS (SELECT 1 FROM deliveries d WHERE d.tip_id = tp.id AND d.user_id = s.user_id)
		WHERE s.user_id = $1 AND s.is_active AND t.is_active
		GROUP BY t.id, t.name, t.slug
		ORDER BY t.name, t.slug
	`
	var out []models.TopicRemaining
	if err := s.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, wrap("count undelivered", err)
	}
	return out, nil
}
