package db

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daily-tips/internal/models"
)

var subscriptionRowColumns = []string{"id", "user_id", "topic_id", "is_active", "created_at"}

func TestSubscribe(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT is_active FROM topics WHERE id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(true))
	mock.ExpectQuery(`INSERT INTO subscriptions`).
		WithArgs(int64(7), int64(3)).
		WillReturnRows(sqlmock.NewRows(subscriptionRowColumns).AddRow(1, 7, 3, true, time.Now()))
	mock.ExpectCommit()

	sub, err := store.Subscribe(context.Background(), 7, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3), sub.TopicID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribe_AlreadyActive(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT is_active FROM topics`).
		WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(true))
	mock.ExpectQuery(`INSERT INTO subscriptions`).
		WillReturnRows(sqlmock.NewRows(subscriptionRowColumns))
	mock.ExpectRollback()

	_, err := store.Subscribe(context.Background(), 7, 3)
	assert.ErrorIs(t, err, models.ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribe_InactiveTopic(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT is_active FROM topics`).
		WillReturnRows(sqlmock.NewRows([]string{"is_active"}).AddRow(false))
	mock.ExpectRollback()

	_, err := store.Subscribe(context.Background(), 7, 3)
	assert.ErrorIs(t, err, models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUnsubscribe(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(`UPDATE subscriptions SET is_active = FALSE`).
		WithArgs(int64(7), int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE subscriptions SET is_active = FALSE`).
		WithArgs(int64(7), int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, store.Unsubscribe(context.Background(), 7, 3))
	assert.ErrorIs(t, store.Unsubscribe(context.Background(), 7, 4), models.ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSubscribedUserIDs(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(`SELECT DISTINCT user_id FROM subscriptions`).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(1).AddRow(4))

	ids, err := store.SubscribedUserIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 4}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}
