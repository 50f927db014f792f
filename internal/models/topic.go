package models

import "time"

// Topic groups tips users can subscribe to.
type Topic struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Slug      string    `db:"slug" json:"slug"`
	IsActive  bool      `db:"is_active" json:"is_active"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// TopicRemaining is the number of tips of a subscribed topic the user has not
// received yet.
type TopicRemaining struct {
	TopicID   int64  `db:"topic_id" json:"topic_id"`
	Name      string `db:"name" json:"name"`
	Slug      string `db:"slug" json:"slug"`
	Remaining int    `db:"remaining" json:"remaining"`
}
