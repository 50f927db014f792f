package test

import (
	"context"
	"math/rand"
	"sort"
	"sync"
	"time"

	"daily-tips/internal/models"
)

// MemStore is an in-memory store that enforces the same (tip, user)
// uniqueness as the deliveries table. It is safe for concurrent use.
type MemStore struct {
	mu sync.Mutex

	nextID        int64
	topics        []models.Topic
	subscriptions []models.Subscription
	tips          []models.Tip
	deliveries    []models.Delivery

	// StatusWrites counts successful UpdateDeliveryStatus calls.
	StatusWrites int
	// InsertErr, when set, is consulted before every insert.
	InsertErr func(d models.Delivery) error
}

func NewMemStore() *MemStore {
	return &MemStore{}
}

func (m *MemStore) id() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemStore) AddTopic(name, slug string) models.Topic {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := models.Topic{ID: m.id(), Name: name, Slug: slug, IsActive: true, CreatedAt: time.Now()}
	m.topics = append(m.topics, t)
	return t
}

func (m *MemStore) AddTip(topicID int64, title string, createdAt time.Time) models.Tip {
	m.mu.Lock()
	defer m.mu.Unlock()
	t := models.Tip{ID: m.id(), TopicID: topicID, Title: title, Body: title + " body", CreatedAt: createdAt}
	m.tips = append(m.tips, t)
	return t
}

func (m *MemStore) AddSubscription(userID, topicID int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscriptions = append(m.subscriptions, models.Subscription{
		ID: m.id(), UserID: userID, TopicID: topicID, IsActive: true, CreatedAt: time.Now(),
	})
}

// Deliveries returns a copy of all stored deliveries.
func (m *MemStore) Deliveries() []models.Delivery {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.Delivery, len(m.deliveries))
	copy(out, m.deliveries)
	return out
}

func (m *MemStore) topic(id int64) (models.Topic, bool) {
	for _, t := range m.topics {
		if t.ID == id {
			return t, true
		}
	}
	return models.Topic{}, false
}

func (m *MemStore) tip(id int64) (models.Tip, bool) {
	for _, t := range m.tips {
		if t.ID == id {
			return t, true
		}
	}
	return models.Tip{}, false
}

func (m *MemStore) delivered(userID, tipID int64) bool {
	for _, d := range m.deliveries {
		if d.UserID == userID && d.TipID == tipID {
			return true
		}
	}
	return false
}

func (m *MemStore) SubscribedTopics(ctx context.Context, userID int64) ([]models.Topic, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Topic
	for _, s := range m.subscriptions {
		if s.UserID != userID || !s.IsActive {
			continue
		}
		if t, ok := m.topic(s.TopicID); ok && t.IsActive {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].Slug < out[j].Slug
	})
	return out, nil
}

func (m *MemStore) TipsByTopic(ctx context.Context, topicID int64) ([]models.Tip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Tip
	for _, t := range m.tips {
		if t.TopicID == topicID {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (m *MemStore) UndeliveredTips(ctx context.Context, userID, topicID int64, order models.TipOrder, limit int) ([]models.Tip, error) {
	pool, _ := m.TipsByTopic(ctx, topicID)

	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Tip
	for i := len(pool) - 1; i >= 0; i-- {
		if !m.delivered(userID, pool[i].ID) {
			out = append(out, pool[i])
		}
	}
	if order == models.OrderRandom {
		rand.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *MemStore) InsertDelivery(ctx context.Context, d *models.Delivery) error {
	if m.InsertErr != nil {
		if err := m.InsertErr(*d); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.delivered(d.UserID, d.TipID) {
		return models.ErrDuplicate
	}
	d.ID = m.id()
	m.deliveries = append(m.deliveries, *d)
	return nil
}

func (m *MemStore) DeliveryForUser(ctx context.Context, userID, deliveryID int64) (*models.Delivery, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deliveries {
		if d.ID == deliveryID && d.UserID == userID {
			d := d
			return &d, nil
		}
	}
	return nil, models.ErrNotFound
}

func (m *MemStore) UpdateDeliveryStatus(ctx context.Context, deliveryID int64, status string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.deliveries {
		if m.deliveries[i].ID == deliveryID {
			m.deliveries[i].Status = status
			m.StatusWrites++
			return nil
		}
	}
	return models.ErrNotFound
}

func (m *MemStore) item(d models.Delivery) models.HistoryItem {
	tip, _ := m.tip(d.TipID)
	topic, _ := m.topic(tip.TopicID)
	return models.HistoryItem{
		DeliveryID:  d.ID,
		DeliveredAt: d.DeliveredAt,
		Channel:     d.Channel,
		Status:      d.Status,
		Tip: models.TipSnapshot{
			ID: tip.ID, Title: tip.Title, Body: tip.Body, SourceURL: tip.SourceURL, CreatedAt: tip.CreatedAt,
		},
		Topic: models.TopicSnapshot{ID: topic.ID, Name: topic.Name, Slug: topic.Slug},
	}
}

func (m *MemStore) DeliveryItem(ctx context.Context, deliveryID int64) (models.HistoryItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deliveries {
		if d.ID == deliveryID {
			return m.item(d), nil
		}
	}
	return models.HistoryItem{}, models.ErrNotFound
}

func (m *MemStore) DeliveryHistory(ctx context.Context, q models.HistoryQuery) ([]models.HistoryItem, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.Delivery
	for _, d := range m.deliveries {
		if d.UserID != q.UserID {
			continue
		}
		if q.TopicID != nil {
			if tip, _ := m.tip(d.TipID); tip.TopicID != *q.TopicID {
				continue
			}
		}
		matched = append(matched, d)
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].DeliveredAt.Equal(matched[j].DeliveredAt) {
			return matched[i].DeliveredAt.After(matched[j].DeliveredAt)
		}
		return matched[i].ID > matched[j].ID
	})

	items := []models.HistoryItem{}
	for i := q.Offset; i < len(matched) && len(items) < q.Limit; i++ {
		items = append(items, m.item(matched[i]))
	}
	return items, len(matched), nil
}

func (m *MemStore) SubscribedUserIDs(ctx context.Context) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	seen := map[int64]bool{}
	var ids []int64
	for _, s := range m.subscriptions {
		if !seen[s.UserID] {
			seen[s.UserID] = true
			ids = append(ids, s.UserID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids, nil
}

func (m *MemStore) DeliveredWithin(ctx context.Context, userID, tipID int64, from, to time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.deliveries {
		if d.UserID == userID && d.TipID == tipID && !d.DeliveredAt.Before(from) && d.DeliveredAt.Before(to) {
			return true, nil
		}
	}
	return false, nil
}

func (m *MemStore) TipsDeliveredWithin(ctx context.Context, userID int64, from, to time.Time) ([]models.Tip, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.Delivery
	for _, d := range m.deliveries {
		if d.UserID == userID && !d.DeliveredAt.Before(from) && d.DeliveredAt.Before(to) {
			matched = append(matched, d)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].DeliveredAt.Equal(matched[j].DeliveredAt) {
			return matched[i].DeliveredAt.Before(matched[j].DeliveredAt)
		}
		return matched[i].ID < matched[j].ID
	})
	out := make([]models.Tip, 0, len(matched))
	for _, d := range matched {
		if tip, ok := m.tip(d.TipID); ok {
			out = append(out, tip)
		}
	}
	return out, nil
}

func (m *MemStore) CountUndelivered(ctx context.Context, userID int64) ([]models.TopicRemaining, error) {
	topics, _ := m.SubscribedTopics(ctx, userID)

	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]models.TopicRemaining, 0, len(topics))
	for _, t := range topics {
		r := models.TopicRemaining{TopicID: t.ID, Name: t.Name, Slug: t.Slug}
		for _, tip := range m.tips {
			if tip.TopicID == t.ID && !m.delivered(userID, tip.ID) {
				r.Remaining++
			}
		}
		out = append(out, r)
	}
	return out, nil
}
