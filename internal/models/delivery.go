package models

import "time"

const (
	StatusSent   = "sent"
	StatusRead   = "read"
	StatusFailed = "failed"
)

const (
	ChannelApp      = "app"
	ChannelPush     = "push"
	ChannelEmail    = "email"
	ChannelTelegram = "telegram"
)

// Delivery records that a tip was shown to a user. There is at most one per
// (tip, user).
type Delivery struct {
	ID          int64     `db:"id"`
	TipID       int64     `db:"tip_id"`
	UserID      int64     `db:"user_id"`
	DeliveredAt time.Time `db:"delivered_at"`
	Channel     string    `db:"channel"`
	Status      string    `db:"status"`
}

// TipSnapshot is the tip as it looked when the history was read.
type TipSnapshot struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	Body      string    `json:"body"`
	SourceURL *string   `json:"source_url"`
	CreatedAt time.Time `json:"created_at"`
}

type TopicSnapshot struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Slug string `json:"slug"`
}

// HistoryItem is a delivery enriched with its tip and topic.
type HistoryItem struct {
	DeliveryID  int64         `json:"delivery_id"`
	DeliveredAt time.Time     `json:"delivered_at"`
	Channel     string        `json:"channel"`
	Status      string        `json:"status"`
	Tip         TipSnapshot   `json:"tip"`
	Topic       TopicSnapshot `json:"topic"`
}

// HistoryQuery selects one page of a user's deliveries.
type HistoryQuery struct {
	UserID  int64
	TopicID *int64
	Limit   int
	Offset  int
}
