package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"daily-tips/internal/logger"
	"daily-tips/internal/metrics"
	"daily-tips/internal/models"
	"daily-tips/internal/selector"
)

// BatchStore is what the daily batch reads and writes.
type BatchStore interface {
	Store
	selector.TopicStore
	TipsByTopic(ctx context.Context, topicID int64) ([]models.Tip, error)
}

// Batch assigns every subscribed user one rotating tip per topic for a day.
type Batch struct {
	store        BatchStore
	loc          *time.Location
	deliveryHour int
	log          *logger.Logger
}

func NewBatch(store BatchStore, loc *time.Location, deliveryHour int, log *logger.Logger) *Batch {
	if loc == nil {
		loc = time.UTC
	}
	return &Batch{store: store, loc: loc, deliveryHour: deliveryHour, log: log}
}

// RunForAllUsers runs the batch for the calendar day of day, interpreted in
// the batch location. Rows created before a failure are kept, so a rerun
// picks up where it stopped.
func (b *Batch) RunForAllUsers(ctx context.Context, day time.Time) (int, error) {
	timer := prometheus.NewTimer(metrics.DailyBatchDuration)
	defer timer.ObserveDuration()

	y, m, d := day.Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, b.loc)
	end := start.AddDate(0, 0, 1)
	at := time.Date(y, m, d, b.deliveryHour, 0, 0, 0, b.loc)
	label := start.Format("2006-01-02")

	userIDs, err := b.store.SubscribedUserIDs(ctx)
	if err != nil {
		return 0, fmt.Errorf("daily batch %s: list users: %w", label, err)
	}

	created := 0
	for _, userID := range userIDs {
		n, err := b.runForUser(ctx, userID, start, end, at)
		created += n
		if err != nil {
			return created, fmt.Errorf("daily batch %s: user %d: %w", label, userID, err)
		}
	}

	b.log.Info("daily batch finished", "date", label, "users", len(userIDs), "created", created)
	return created, nil
}

func (b *Batch) runForUser(ctx context.Context, userID int64, start, end, at time.Time) (int, error) {
	topics, err := b.store.SubscribedTopics(ctx, userID)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, topic := range topics {
		pool, err := b.store.TipsByTopic(ctx, topic.ID)
		if err != nil {
			return created, err
		}
		if len(pool) == 0 {
			continue
		}
		tip := pool[selector.RotationIndex(start, userID, topic.ID, len(pool))]

		exists, err := b.store.DeliveredWithin(ctx, userID, tip.ID, start, end)
		if err != nil {
			return created, err
		}
		if exists {
			continue
		}

		err = b.store.InsertDelivery(ctx, &models.Delivery{
			TipID:       tip.ID,
			UserID:      userID,
			DeliveredAt: at,
			Channel:     models.ChannelApp,
			Status:      models.StatusSent,
		})
		if errors.Is(err, models.ErrDuplicate) {
			metrics.DeliveryDuplicates.Inc()
			continue
		}
		if err != nil {
			return created, err
		}
		created++
		metrics.DeliveriesCreated.WithLabelValues(models.ChannelApp).Inc()
	}
	return created, nil
}
