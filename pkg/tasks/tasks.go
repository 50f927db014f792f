package tasks

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const TypeDailyDeliveries = "deliveries:daily"

// TaskEnqueuer is satisfied by *asynq.Client.
type TaskEnqueuer interface {
	Enqueue(task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// DailyDeliveriesPayload names the day to run the batch for, as YYYY-MM-DD.
// An empty date means the current day in the worker's timezone.
type DailyDeliveriesPayload struct {
	Date string `json:"date,omitempty"`
}

func NewDailyDeliveriesTask(date string) (*asynq.Task, error) {
	var payload []byte
	if date != "" {
		var err error
		payload, err = json.Marshal(DailyDeliveriesPayload{Date: date})
		if err != nil {
			return nil, err
		}
	}
	return asynq.NewTask(TypeDailyDeliveries, payload, asynq.MaxRetry(5), asynq.Timeout(30*time.Minute)), nil
}

// EnqueueDailyDeliveries queues a one-off batch run, e.g. to backfill a day.
func EnqueueDailyDeliveries(client TaskEnqueuer, date string, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	task, err := NewDailyDeliveriesTask(date)
	if err != nil {
		return nil, err
	}
	return client.Enqueue(task, opts...)
}
