package delivery

import (
	"context"
	"fmt"
	"math"

	"daily-tips/internal/logger"
	"daily-tips/internal/metrics"
	"daily-tips/internal/models"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPage keeps (page-1)*size within a 32-bit offset.
	MaxPage = math.MaxInt32 / MaxPageSize
)

// NormalizePage turns raw paging input into a page in [1, MaxPage] and a
// size in [1, MaxPageSize]. A zero size means DefaultPageSize.
func NormalizePage(page, size int) (int, int) {
	switch {
	case page < 1:
		page = 1
	case page > MaxPage:
		page = MaxPage
	}
	switch {
	case size == 0:
		size = DefaultPageSize
	case size < 1:
		size = 1
	case size > MaxPageSize:
		size = MaxPageSize
	}
	return page, size
}

type History struct {
	store Store
	log   *logger.Logger
}

func NewHistory(store Store, log *logger.Logger) *History {
	return &History{store: store, log: log}
}

// List returns a page of the user's deliveries, newest first, and the total
// count for the same filter.
func (h *History) List(ctx context.Context, userID int64, page, size int, topicID *int64) ([]models.HistoryItem, int, error) {
	page, size = NormalizePage(page, size)
	items, total, err := h.store.DeliveryHistory(ctx, models.HistoryQuery{
		UserID:  userID,
		TopicID: topicID,
		Limit:   size,
		Offset:  (page - 1) * size,
	})
	if err != nil {
		return nil, 0, fmt.Errorf("list history: %w", err)
	}
	return items, total, nil
}

// MarkRead flags a delivery of the user as read. Calling it again is a no-op
// that returns the same item. Deliveries of other users are
// models.ErrNotFound.
func (h *History) MarkRead(ctx context.Context, userID, deliveryID int64) (models.HistoryItem, error) {
	d, err := h.store.DeliveryForUser(ctx, userID, deliveryID)
	if err != nil {
		return models.HistoryItem{}, err
	}

	if d.Status != models.StatusRead {
		if err := h.store.UpdateDeliveryStatus(ctx, d.ID, models.StatusRead); err != nil {
			return models.HistoryItem{}, fmt.Errorf("mark delivery %d read: %w", d.ID, err)
		}
		metrics.DeliveriesRead.Inc()
		h.log.Debug("delivery marked read", "user_id", userID, "delivery_id", d.ID)
	}

	return h.store.DeliveryItem(ctx, d.ID)
}
