package db

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"

	"daily-tips/internal/models"
)

// InsertDelivery stores one delivery in its own transaction and sets d.ID.
// An existing (tip, user) row yields models.ErrDuplicate.
func (s *Store) InsertDelivery(ctx context.Context, d *models.Delivery) error {
	return s.inTx(ctx, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO deliveries (tip_id, user_id, delivered_at, channel, status)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING id
		`
		err := tx.QueryRowxContext(ctx, query, d.TipID, d.UserID, d.DeliveredAt, d.Channel, d.Status).Scan(&d.ID)
		if err != nil {
			return wrap("insert delivery", err)
		}
		return nil
	})
}

// DeliveryForUser loads a delivery owned by userID. Deliveries of other users
// are reported as models.ErrNotFound.
func (s *Store) DeliveryForUser(ctx context.Context, userID, deliveryID int64) (*models.Delivery, error) {
	d := &models.Delivery{}
	query := `SELECT id, tip_id, user_id, delivered_at, channel, status FROM deliveries WHERE id = $1 AND user_id = $2`
	if err := s.db.GetContext(ctx, d, query, deliveryID, userID); err != nil {
		return nil, wrap("get delivery", err)
	}
	return d, nil
}

func (s *Store) UpdateDeliveryStatus(ctx context.Context, deliveryID int64, status string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE deliveries SET status = $1 WHERE id = $2`, status, deliveryID)
	if err != nil {
		return wrap("update delivery status", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update delivery status: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// DeliveredWithin reports whether the tip reached the user in [from, to).
func (s *Store) DeliveredWithin(ctx context.Context, userID, tipID int64, from, to time.Time) (bool, error) {
	query, args, err := s.sb.Select("1").
		From("deliveries").
		Where(sq.Eq{"user_id": userID, "tip_id": tipID}).
		Where(sq.GtOrEq{"delivered_at": from}).
		Where(sq.Lt{"delivered_at": to}).
		Prefix("SELECT EXISTS (").
		Suffix(")").
		ToSql()
	if err != nil {
		return false, wrap("build delivered within", err)
	}
	var exists bool
	if err := s.db.GetContext(ctx, &exists, query, args...); err != nil {
		return false, wrap("delivered within", err)
	}
	return exists, nil
}

// TipsDeliveredWithin returns the tips delivered to the user in [from, to),
// in delivery order.
func (s *Store) TipsDeliveredWithin(ctx context.Context, userID int64, from, to time.Time) ([]models.Tip, error) {
	query, args, err := s.sb.Select(tipColumns...).
		From("deliveries d").
		Join("tips t ON t.id = d.tip_id").
		Where(sq.Eq{"d.user_id": userID}).
		Where(sq.GtOrEq{"d.delivered_at": from}).
		Where(sq.Lt{"d.delivered_at": to}).
		OrderBy("d.delivered_at ASC", "d.id ASC").
		ToSql()
	if err != nil {
		return nil, wrap("build tips delivered within", err)
	}
	var tips []models.Tip
	if err := s.db.SelectContext(ctx, &tips, query, args...); err != nil {
		return nil, wrap("tips delivered within", err)
	}
	return tips, nil
}
