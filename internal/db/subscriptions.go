package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"daily-tips/internal/models"
)

const subscriptionColumns = `id, user_id, topic_id, is_active, created_at`

func (s *Store) ListSubscriptions(ctx context.Context, userID int64) ([]models.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE user_id = $1 AND is_active ORDER BY created_at DESC`
	var subs []models.Subscription
	if err := s.db.SelectContext(ctx, &subs, query, userID); err != nil {
		return nil, wrap("list subscriptions", err)
	}
	return subs, nil
}

// Subscribe activates a subscription. It returns models.ErrNotFound for a
// missing or inactive topic and models.ErrDuplicate when the user is already
// subscribed.
func (s *Store) Subscribe(ctx context.Context, userID, topicID int64) (*models.Subscription, error) {
	sub := &models.Subscription{}
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var active bool
		if err := tx.GetContext(ctx, &active, `SELECT is_active FROM topics WHERE id = $1`, topicID); err != nil {
			return wrap("get topic", err)
		}
		if !active {
			return models.ErrNotFound
		}

		query := `
			INSERT INTO subscriptions (user_id, topic_id)
			VALUES ($1, $2)
			ON CONFLICT (user_id, topic_id) DO UPDATE SET is_active = TRUE
				WHERE subscriptions.is_active = FALSE
			RETURNING ` + subscriptionColumns
		err := tx.GetContext(ctx, sub, query, userID, topicID)
		if errors.Is(err, sql.ErrNoRows) {
			// The conflict branch did not fire: already active.
			return models.ErrDuplicate
		}
		if err != nil {
			return wrap("insert subscription", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return sub, nil
}

// Unsubscribe deactivates a subscription, keeping the row.
func (s *Store) Unsubscribe(ctx context.Context, userID, topicID int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET is_active = FALSE WHERE user_id = $1 AND topic_id = $2 AND is_active`,
		userID, topicID)
	if err != nil {
		return wrap("unsubscribe", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("unsubscribe: %w", err)
	}
	if n == 0 {
		return models.ErrNotFound
	}
	return nil
}

// SubscribedUserIDs lists every user that has ever subscribed to something.
func (s *Store) SubscribedUserIDs(ctx context.Context) ([]int64, error) {
	var ids []int64
	if err := s.db.SelectContext(ctx, &ids, `SELECT DISTINCT user_id FROM subscriptions ORDER BY user_id`); err != nil {
		return nil, wrap("subscribed user ids", err)
	}
	return ids, nil
}
