// Package selector chooses which tips a user sees on a given day.
package selector

import (
	"context"
	"fmt"
	"time"

	"daily-tips/internal/models"
)

type TopicStore interface {
	SubscribedTopics(ctx context.Context, userID int64) ([]models.Topic, error)
}

type TipStore interface {
	TipsByTopic(ctx context.Context, topicID int64) ([]models.Tip, error)
	UndeliveredTips(ctx context.Context, userID, topicID int64, order models.TipOrder, limit int) ([]models.Tip, error)
}

// Selector builds daily bundles. It never writes.
type Selector struct {
	tips TipStore
}

func New(tips TipStore) *Selector {
	return &Selector{tips: tips}
}

// SelectBundle picks up to perTopic tips for every topic. Tips the user has
// not received come first; when a topic runs short the rest is filled from
// the whole pool starting at the day's rotation index. Topics with nothing to
// show are left out.
func (s *Selector) SelectBundle(ctx context.Context, userID int64, topics []models.Topic, perTopic int, order models.TipOrder, day time.Time) ([]models.TopicTips, error) {
	bundle := make([]models.TopicTips, 0, len(topics))
	if perTopic <= 0 {
		return bundle, nil
	}

	for _, topic := range topics {
		picked, err := s.pick(ctx, userID, topic.ID, perTopic, order, day)
		if err != nil {
			return nil, fmt.Errorf("select tips for topic %d: %w", topic.ID, err)
		}
		if len(picked) == 0 {
			continue
		}
		bundle = append(bundle, models.TopicTips{Topic: topic, Tips: picked})
	}
	return bundle, nil
}

func (s *Selector) pick(ctx context.Context, userID, topicID int64, perTopic int, order models.TipOrder, day time.Time) ([]models.Tip, error) {
	picked, err := s.tips.UndeliveredTips(ctx, userID, topicID, order, perTopic)
	if err != nil {
		return nil, err
	}
	if len(picked) >= perTopic {
		return picked[:perTopic], nil
	}

	pool, err := s.tips.TipsByTopic(ctx, topicID)
	if err != nil {
		return nil, err
	}
	if len(pool) == 0 {
		return picked, nil
	}

	seen := make(map[int64]struct{}, len(picked))
	for _, tip := range picked {
		seen[tip.ID] = struct{}{}
	}

	start := RotationIndex(day, userID, topicID, len(pool))
	for i := 0; i < len(pool) && len(picked) < perTopic; i++ {
		tip := pool[(start+i)%len(pool)]
		if _, ok := seen[tip.ID]; ok {
			continue
		}
		seen[tip.ID] = struct{}{}
		picked = append(picked, tip)
	}
	return picked, nil
}
