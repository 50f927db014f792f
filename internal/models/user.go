package models

import "time"

// User represents a user in the database.
type User struct {
	ID               int64     `db:"id" json:"id"`
	TelegramID       int64     `db:"telegram_id" json:"telegram_id"`
	TelegramUsername string    `db:"telegram_username" json:"telegram_username"`
	IsActive         bool      `db:"is_active" json:"is_active"`
	IsAdmin          bool      `db:"is_admin" json:"is_admin"`
	RSSUUID          string    `db:"rss_uuid" json:"-"`
	CreatedAt        time.Time `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time `db:"updated_at" json:"updated_at"`
}
