package models

import "time"

type Tip struct {
	ID          int64     `db:"id" json:"id"`
	TopicID     int64     `db:"topic_id" json:"topic_id"`
	Title       string    `db:"title" json:"title"`
	Body        string    `db:"body" json:"body"`
	SourceURL   *string   `db:"source_url" json:"source_url"`
	Fingerprint string    `db:"fingerprint" json:"fingerprint"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
}

// TipOrder selects how undelivered tips are ranked before the limit applies.
type TipOrder string

const (
	// OrderLatest ranks by creation time descending, then id descending.
	OrderLatest TipOrder = "latest"
	// OrderRandom ranks uniformly at random.
	OrderRandom TipOrder = "random"
)

// ParseTipOrder maps a request value to a TipOrder. Empty means latest;
// unknown values report false.
func ParseTipOrder(s string) (TipOrder, bool) {
	switch TipOrder(s) {
	case "", OrderLatest:
		return OrderLatest, true
	case OrderRandom:
		return OrderRandom, true
	}
	return OrderLatest, false
}

// TipQuery filters the tip catalogue. Search matches title or body,
// case-insensitively.
type TipQuery struct {
	TopicID *int64
	Search  string
	Limit   int
	Offset  int
}

// TopicTips is one entry of a daily bundle.
type TopicTips struct {
	Topic Topic `json:"topic"`
	Tips  []Tip `json:"tips"`
}
