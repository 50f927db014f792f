package db

import (
	"context"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"daily-tips/internal/models"
	"daily-tips/internal/tipcontent"
)

var tipColumns = []string{"t.id", "t.topic_id", "t.title", "t.body", "t.source_url", "t.fingerprint", "t.created_at"}

// CreateTip stores a tip, filling its fingerprint when empty. A tip whose
// fingerprint already exists yields models.ErrDuplicate; an unknown topic
// yields models.ErrNotFound.
func (s *Store) CreateTip(ctx context.Context, tip *models.Tip) error {
	if tip.Fingerprint == "" {
		tip.Fingerprint = tipcontent.Fingerprint(tip.TopicID, tip.Title, tip.Body)
	}
	query := `
		INSERT INTO tips (topic_id, title, body, source_url, fingerprint)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	row := s.db.QueryRowxContext(ctx, query, tip.TopicID, tip.Title, tip.Body, tip.SourceURL, tip.Fingerprint)
	if err := row.Scan(&tip.ID, &tip.CreatedAt); err != nil {
		return wrap("create tip", err)
	}
	return nil
}

// TipsByTopic returns the whole pool of a topic, oldest first.
func (s *Store) TipsByTopic(ctx context.Context, topicID int64) ([]models.Tip, error) {
	query, args, err := s.sb.Select(tipColumns...).
		From("tips t").
		Where(sq.Eq{"t.topic_id": topicID}).
		OrderBy("t.created_at ASC", "t.id ASC").
		ToSql()
	if err != nil {
		return nil, wrap("build tips by topic", err)
	}
	var tips []models.Tip
	if err := s.db.SelectContext(ctx, &tips, query, args...); err != nil {
		return nil, wrap("tips by topic", err)
	}
	return tips, nil
}

// notDeliveredTo keeps tips the user has never received.
func notDeliveredTo(userID int64) sq.Sqlizer {
	return sq.Expr("NOT EXISTS (SELECT 1 FROM deliveries d WHERE d.tip_id = t.id AND d.user_id = ?)", userID)
}

// UndeliveredTips returns up to limit tips of a topic that were never
// delivered to the user, ranked by order.
func (s *Store) UndeliveredTips(ctx context.Context, userID, topicID int64, order models.TipOrder, limit int) ([]models.Tip, error) {
	if limit <= 0 {
		return nil, nil
	}
	b := s.sb.Select(tipColumns...).
		From("tips t").
		Where(sq.Eq{"t.topic_id": topicID}).
		Where(notDeliveredTo(userID))
	if order == models.OrderRandom {
		b = b.OrderBy("random()")
	} else {
		b = b.OrderBy("t.created_at DESC", "t.id DESC")
	}

	query, args, err := b.Limit(uint64(limit)).ToSql()
	if err != nil {
		return nil, wrap("build undelivered tips", err)
	}
	var tips []models.Tip
	if err := s.db.SelectContext(ctx, &tips, query, args...); err != nil {
		return nil, wrap("undelivered tips", err)
	}
	return tips, nil
}

// GetTip loads one tip by id.
func (s *Store) GetTip(ctx context.Context, id int64) (*models.Tip, error) {
	query, args, err := s.sb.Select(tipColumns...).From("tips t").Where(sq.Eq{"t.id": id}).ToSql()
	if err != nil {
		return nil, wrap("build get tip", err)
	}
	tip := &models.Tip{}
	if err := s.db.GetContext(ctx, tip, query, args...); err != nil {
		return nil, wrap("get tip", err)
	}
	return tip, nil
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// tipFilter narrows the catalogue to one topic and to tips whose title or
// body contains search. Wildcards in search match literally.
func tipFilter(topicID *int64, search string) sq.And {
	filter := sq.And{}
	if topicID != nil {
		filter = append(filter, sq.Eq{"t.topic_id": *topicID})
	}
	if search = strings.TrimSpace(search); search != "" {
		like := "%" + likeEscaper.Replace(search) + "%"
		filter = append(filter, sq.Or{sq.ILike{"t.title": like}, sq.ILike{"t.body": like}})
	}
	return filter
}

// ListTips returns one page of the catalogue, newest first, and the total
// number of tips matching the same filter.
func (s *Store) ListTips(ctx context.Context, q models.TipQuery) ([]models.Tip, int, error) {
	count := s.sb.Select("COUNT(*)").From("tips t")
	list := s.sb.Select(tipColumns...).From("tips t")
	if filter := tipFilter(q.TopicID, q.Search); len(filter) > 0 {
		count = count.Where(filter)
		list = list.Where(filter)
	}

	countQuery, countArgs, err := count.ToSql()
	if err != nil {
		return nil, 0, wrap("build tips count", err)
	}
	var total int
	if err := s.db.GetContext(ctx, &total, countQuery, countArgs...); err != nil {
		return nil, 0, wrap("count tips", err)
	}

	query, args, err := list.
		OrderBy("t.created_at DESC", "t.id DESC").
		Limit(uint64(q.Limit)).
		Offset(uint64(q.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, wrap("build list tips", err)
	}
	tips := []models.Tip{}
	if err := s.db.SelectContext(ctx, &tips, query, args...); err != nil {
		return nil, 0, wrap("list tips", err)
	}
	return tips, total, nil
}
