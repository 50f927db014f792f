// Package delivery records which tips reached which users and tracks their
// read state.
package delivery

import (
	"context"
	"errors"
	"fmt"
	"time"

	"daily-tips/internal/logger"
	"daily-tips/internal/metrics"
	"daily-tips/internal/models"
)

type Store interface {
	InsertDelivery(ctx context.Context, d *models.Delivery) error
	DeliveryForUser(ctx context.Context, userID, deliveryID int64) (*models.Delivery, error)
	UpdateDeliveryStatus(ctx context.Context, deliveryID int64, status string) error
	DeliveryItem(ctx context.Context, deliveryID int64) (models.HistoryItem, error)
	DeliveryHistory(ctx context.Context, q models.HistoryQuery) ([]models.HistoryItem, int, error)
	SubscribedUserIDs(ctx context.Context) ([]int64, error)
	DeliveredWithin(ctx context.Context, userID, tipID int64, from, to time.Time) (bool, error)
}

// Registrar inserts delivery rows, tolerating rows that already exist.
type Registrar struct {
	store Store
	log   *logger.Logger
	now   func() time.Time
}

func NewRegistrar(store Store, log *logger.Logger) *Registrar {
	return &Registrar{store: store, log: log, now: time.Now}
}

// WithClock makes the registrar stamp deliveries with now().
func (r *Registrar) WithClock(now func() time.Time) *Registrar {
	r.now = now
	return r
}

// RegisterIfMissing inserts one delivery per tip and returns how many rows
// were new. Tips already delivered to the user are skipped silently. Other
// failures are logged and do not stop the remaining tips; the first of them
// is returned.
func (r *Registrar) RegisterIfMissing(ctx context.Context, userID int64, tips []models.Tip, channel, status string) (int, error) {
	created := 0
	var firstErr error
	at := r.now()

	for _, tip := range tips {
		d := &models.Delivery{
			TipID:       tip.ID,
			UserID:      userID,
			DeliveredAt: at,
			Channel:     channel,
			Status:      status,
		}
		err := r.store.InsertDelivery(ctx, d)
		switch {
		case err == nil:
			created++
			metrics.DeliveriesCreated.WithLabelValues(channel).Inc()
		case errors.Is(err, models.ErrDuplicate):
			metrics.DeliveryDuplicates.Inc()
		default:
			r.log.Error("failed to register delivery", "user_id", userID, "tip_id", tip.ID, "error", err)
			if firstErr == nil {
				firstErr = fmt.Errorf("register tip %d: %w", tip.ID, err)
			}
		}
	}

	return created, firstErr
}
