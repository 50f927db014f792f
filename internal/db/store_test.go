package db

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"

	"daily-tips/internal/models"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	mockDb, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	t.Cleanup(func() { mockDb.Close() })
	return New(sqlx.NewDb(mockDb, "sqlmock")), mock
}

func TestTranslate(t *testing.T) {
	assert.ErrorIs(t, translate(&pq.Error{Code: "23505"}), models.ErrDuplicate)
	assert.ErrorIs(t, translate(&pq.Error{Code: "23503"}), models.ErrNotFound)

	other := &pq.Error{Code: "40001"}
	assert.Equal(t, error(other), translate(other))

	plain := errors.New("boom")
	assert.Equal(t, plain, translate(plain))
}

func TestWrap_KeepsSentinelsBare(t *testing.T) {
	assert.Equal(t, models.ErrDuplicate, wrap("op", &pq.Error{Code: "23505"}))

	err := wrap("op", errors.New("boom"))
	assert.EqualError(t, err, "op: boom")
}

func TestInTx_RollsBackOnError(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := store.inTx(context.Background(), func(tx *sqlx.Tx) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTx_Commits(t *testing.T) {
	store, mock := newMockStore(t)
	mock.ExpectBegin()
	mock.ExpectCommit()

	err := store.inTx(context.Background(), func(tx *sqlx.Tx) error { return nil })
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
