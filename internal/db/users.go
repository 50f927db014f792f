package db

import (
	"context"

	"github.com/google/uuid"

	"daily-tips/internal/models"
)

const userColumns = `id, telegram_id, telegram_username, is_active, is_admin, rss_uuid, created_at, updated_at`

// UpsertUser inserts a new user or refreshes the username of an existing one,
// keyed by Telegram ID. New users get a fresh feed token.
func (s *Store) UpsertUser(ctx context.Context, telegramID int64, username string) (*models.User, error) {
	query := `
		INSERT INTO users (telegram_id, telegram_username, rss_uuid)
		VALUES ($1, $2, $3)
		ON CONFLICT (telegram_id) DO UPDATE SET
			telegram_username = EXCLUDED.telegram_username,
			updated_at = NOW()
		RETURNING ` + userColumns
	user := &models.User{}
	if err := s.db.GetContext(ctx, user, query, telegramID, username, uuid.NewString()); err != nil {
		return nil, wrap("upsert user", err)
	}
	return user, nil
}

// GetUserByRSSUUID resolves a feed token.
func (s *Store) GetUserByRSSUUID(ctx context.Context, rssUUID string) (*models.User, error) {
	user := &models.User{}
	err := s.db.GetContext(ctx, user, `SELECT `+userColumns+` FROM users WHERE rss_uuid = $1`, rssUUID)
	if err != nil {
		return nil, wrap("get user by rss uuid", err)
	}
	return user, nil
}
