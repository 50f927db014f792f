package main

import (
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"

	"daily-tips/internal/test"
	"daily-tips/pkg/tasks"
)

func TestRetryDelay(t *testing.T) {
	delay := retryDelay(test.NoopLogger())
	task := asynq.NewTask(tasks.TypeDailyDeliveries, nil)
	boom := errors.New("boom")

	assert.Equal(t, time.Minute, delay(0, boom, task))
	assert.Equal(t, 2*time.Minute, delay(1, boom, task))
	assert.Equal(t, 32*time.Minute, delay(5, boom, task))
	assert.Equal(t, time.Hour, delay(6, boom, task))
	assert.Equal(t, time.Hour, delay(20, boom, task))
}
