package worker

import (
	"context"
	"errors"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"daily-tips/internal/test"
	"daily-tips/pkg/tasks"
)

type mockBatch struct {
	mock.Mock
}

func (m *mockBatch) RunDailyBatch(ctx context.Context, day time.Time) (int, error) {
	args := m.Called(ctx, day)
	return args.Int(0), args.Error(1)
}

func TestHandleDailyDeliveriesTask_Today(t *testing.T) {
	loc, err := time.LoadLocation("Europe/Madrid")
	require.NoError(t, err)
	batch := &mockBatch{}
	h := NewTaskHandler(batch, loc, test.NoopLogger())
	now := time.Date(2025, 1, 15, 23, 30, 0, 0, time.UTC)
	h.now = func() time.Time { return now }

	batch.On("RunDailyBatch", mock.Anything, mock.MatchedBy(func(day time.Time) bool {
		// 23:30 UTC is already the next day in Madrid.
		y, m, d := day.Date()
		return y == 2025 && m == time.January && d == 16
	})).Return(4, nil)

	task, err := tasks.NewDailyDeliveriesTask("")
	require.NoError(t, err)
	assert.NoError(t, h.HandleDailyDeliveriesTask(context.Background(), task))
	batch.AssertExpectations(t)
}

func TestHandleDailyDeliveriesTask_ExplicitDate(t *testing.T) {
	batch := &mockBatch{}
	h := NewTaskHandler(batch, time.UTC, test.NoopLogger())
	batch.On("RunDailyBatch", mock.Anything, time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)).Return(0, nil)

	task, err := tasks.NewDailyDeliveriesTask("2025-03-02")
	require.NoError(t, err)
	assert.NoError(t, h.HandleDailyDeliveriesTask(context.Background(), task))
	batch.AssertExpectations(t)
}

func TestHandleDailyDeliveriesTask_BadPayloadSkipsRetry(t *testing.T) {
	h := NewTaskHandler(&mockBatch{}, time.UTC, test.NoopLogger())

	err := h.HandleDailyDeliveriesTask(context.Background(), asynq.NewTask(tasks.TypeDailyDeliveries, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)

	task, _ := tasks.NewDailyDeliveriesTask("15/01/2025")
	err = h.HandleDailyDeliveriesTask(context.Background(), task)
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestHandleDailyDeliveriesTask_BatchError(t *testing.T) {
	batch := &mockBatch{}
	h := NewTaskHandler(batch, time.UTC, test.NoopLogger())
	boom := errors.New("daily batch 2025-01-15: db down")
	batch.On("RunDailyBatch", mock.Anything, mock.Anything).Return(2, boom)

	task, _ := tasks.NewDailyDeliveriesTask("2025-01-15")
	err := h.HandleDailyDeliveriesTask(context.Background(), task)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}
