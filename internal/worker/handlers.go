package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"daily-tips/internal/logger"
	"daily-tips/pkg/tasks"
)

type BatchRunner interface {
	RunDailyBatch(ctx context.Context, day time.Time) (int, error)
}

type TaskHandler struct {
	batch BatchRunner
	loc   *time.Location
	now   func() time.Time
	log   *logger.Logger
}

func NewTaskHandler(batch BatchRunner, loc *time.Location, log *logger.Logger) *TaskHandler {
	if loc == nil {
		loc = time.UTC
	}
	return &TaskHandler{batch: batch, loc: loc, now: time.Now, log: log}
}

// HandleDailyDeliveriesTask runs the daily batch for the payload date, or for
// today in the handler's location. Malformed payloads are not retried.
func (h *TaskHandler) HandleDailyDeliveriesTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.DailyDeliveriesPayload
	if len(t.Payload()) > 0 {
		if err := json.Unmarshal(t.Payload(), &p); err != nil {
			return fmt.Errorf("failed to unmarshal task payload: %v: %w", err, asynq.SkipRetry)
		}
	}

	day := h.now().In(h.loc)
	if p.Date != "" {
		d, err := time.ParseInLocation("2006-01-02", p.Date, h.loc)
		if err != nil {
			return fmt.Errorf("invalid batch date %q: %v: %w", p.Date, err, asynq.SkipRetry)
		}
		day = d
	}

	h.log.Info("running daily deliveries", "date", day.Format("2006-01-02"))
	created, err := h.batch.RunDailyBatch(ctx, day)
	if err != nil {
		return err
	}
	h.log.Info("daily deliveries done", "date", day.Format("2006-01-02"), "created", created)
	return nil
}
