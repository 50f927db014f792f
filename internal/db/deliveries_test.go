package db

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-tips/internal/models"
)

func TestInsertDelivery(t *testing.T) {
	store, mock := newMockStore(t)
	at := time.Date(2025, 1, 15, 9, 0, 0, 0, time.UTC)
	d := &models.Delivery{TipID: 5, UserID: 7, DeliveredAt: at, Channel: models.ChannelApp, Status: models.StatusSent}

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO deliveries \(tip_id, user_id, delivered_at, channel, status\)`).
		WithArgs(int64(5), int64(7), at, "app", "sent").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(31))
	mock.ExpectCommit()

	require.NoError(t, store.InsertDelivery(context.Background(), d))
	assert.Equal(t, int64(31), d.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDelivery_DuplicateRollsBack(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO deliveries`).
		WillReturnError(&pq.Error{Code: "23505", Constraint: "uq_delivery_tip_user"})
	mock.ExpectRollback()

	err := store.InsertDelivery(context.Background(), &models.Delivery{TipID: 5, UserID: 7})
	assert.ErrorIs(t, err, models.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertDelivery_OtherErrorWrapped(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO deliveries`).WillReturnError(errors.New("connection reset"))
	mock.ExpectRollback()

	err := store.InsertDelivery(context.Background(), &models.Delivery{TipID: 5, UserID: 7})
	assert.EqualError(t, err, "insert delivery: connection reset")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveryForUser_Foreign(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT id, tip_id, user_id, delivered_at, channel, status FROM deliveries WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(31), int64(8)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "tip_id", "user_id", "delivered_at", "channel", "status"}))

	_, err := store.DeliveryForUser(context.Background(), 8, 31)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDeliveryStatus(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE deliveries SET status = \$1 WHERE id = \$2`).
		WithArgs("read", int64(31)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE deliveries`).
		WithArgs("read", int64(32)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.UpdateDeliveryStatus(context.Background(), 31, models.StatusRead))
	assert.ErrorIs(t, store.UpdateDeliveryStatus(context.Background(), 32, models.StatusRead), models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeliveredWithin(t *testing.T) {
	store, mock := newMockStore(t)
	from := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	mock.ExpectQuery(`SELECT EXISTS \( SELECT 1 FROM deliveries WHERE tip_id = \$1 AND user_id = \$2 AND delivered_at >= \$3 AND delivered_at < \$4 \)`).
		WithArgs(int64(5), int64(7), from, to).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	ok, err := store.DeliveredWithin(context.Background(), 7, 5, from, to)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTipsDeliveredWithin(t *testing.T) {
	store, mock := newMockStore(t)
	from := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 0, 1)

	mock.ExpectQuery(`FROM deliveries d JOIN tips t ON t.id = d.tip_id WHERE d.user_id = \$1 AND d.delivered_at >= \$2 AND d.delivered_at < \$3 ORDER BY d.delivered_at ASC, d.id ASC`).
		WithArgs(int64(7), from, to).
		WillReturnRows(sqlmock.NewRows(tipRowColumns).AddRow(5, 3, "t", "b", nil, "fp", from))

	tips, err := store.TipsDeliveredWithin(context.Background(), 7, from, to)
	require.NoError(t, err)
	require.Len(t, tips, 1)
	assert.Equal(t, int64(3), tips[0].TopicID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
