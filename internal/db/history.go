package db

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"

	"daily-tips/internal/models"
)

// historyRow is the flat scan target of the delivery/tip/topic join.
type historyRow struct {
	DeliveryID   int64     `db:"delivery_id"`
	DeliveredAt  time.Time `db:"delivered_at"`
	Channel      string    `db:"channel"`
	Status       string    `db:"status"`
	TipID        int64     `db:"tip_id"`
	Title        string    `db:"title"`
	Body         string    `db:"body"`
	SourceURL    *string   `db:"source_url"`
	TipCreatedAt time.Time `db:"tip_created_at"`
	TopicID      int64     `db:"topic_id"`
	TopicName    string    `db:"topic_name"`
	TopicSlug    string    `db:"topic_slug"`
}

func (r historyRow) item() models.HistoryItem {
	return models.HistoryItem{
		DeliveryID:  r.DeliveryID,
		DeliveredAt: r.DeliveredAt,
		Channel:     r.Channel,
		Status:      r.Status,
		Tip: models.TipSnapshot{
			ID:        r.TipID,
			Title:     r.Title,
			Body:      r.Body,
			SourceURL: r.SourceURL,
			CreatedAt: r.TipCreatedAt,
		},
		Topic: models.TopicSnapshot{
			ID:   r.TopicID,
			Name: r.TopicName,
			Slug: r.TopicSlug,
		},
	}
}

func (s *Store) historySelect() sq.SelectBuilder {
	return s.sb.Select(
		"d.id AS delivery_id", "d.delivered_at", "d.channel", "d.status",
		"t.id AS tip_id", "t.title", "t.body", "t.source_url", "t.created_at AS tip_created_at",
		"tp.id AS topic_id", "tp.name AS topic_name", "tp.slug AS topic_slug",
	).
		From("deliveries d").
		Join("tips t ON t.id = d.tip_id").
		Join("topics tp ON tp.id = t.topic_id")
}

// historyFilter narrows deliveries to one user and optionally one topic.
func historyFilter(userID int64, topicID *int64) sq.And {
	filter := sq.And{sq.Eq{"d.user_id": userID}}
	if topicID != nil {
		filter = append(filter, sq.Eq{"t.topic_id": *topicID})
	}
	return filter
}

// DeliveryHistory returns one page of a user's deliveries, newest first, and
// the total number of deliveries matching the same filter.
func (s *Store) DeliveryHistory(ctx context.Context, q models.HistoryQuery) ([]models.HistoryItem, int, error) {
	filter := historyFilter(q.UserID, q.TopicID)

	countQuery, countArgs, err := s.sb.Select("COUNT(*)").
		From("deliveries d").
		Join("tips t ON t.id = d.tip_id").
		Where(filter).
		ToSql()
	if err != nil {
		return nil, 0, wrap("build history count", err)
	}
	var total int
	if err := s.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, wrap("count history", err)
	}

	query, args, err := s.historySelect().
		Where(filter).
		OrderBy("d.delivered_at DESC", "d.id DESC").
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, wrap("build history", err)
	}
	var rows []historyRow
	if err := s.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, wrap("history", err)
	}

	items := make([]models.HistoryItem, 0, len(rows))
	for _, r := range rows {
		items = append(items, r.item())
	}
	return items, total, nil
}

// DeliveryItem loads a single delivery with its tip and topic.
func (s *Store) DeliveryItem(ctx context.Context, deliveryID int64) (models.HistoryItem, error) {
	query, args, err := s.historySelect().Where(sq.Eq{"d.id": deliveryID}).ToSql()
	if err != nil {
		return models.HistoryItem{}, wrap("build delivery item", err)
	}
	var r historyRow
	if err := s.db.GetContext(ctx, &r, query, args...); err != nil {
		return models.HistoryItem{}, wrap("delivery item", err)
	}
	return r.item(), nil
}
