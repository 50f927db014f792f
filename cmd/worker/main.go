package main

import (
	"context"
	"time"

	"github.com/hibiken/asynq"

	"daily-tips/internal/config"
	"daily-tips/internal/db"
	"daily-tips/internal/logger"
	"daily-tips/internal/tips"
	"daily-tips/internal/worker"
	"daily-tips/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Fatal("could not load config", "error", err)
	}
	log := logger.New(cfg.LogLevel)

	store, err := db.Connect(context.Background(), cfg.Database.URL)
	if err != nil {
		log.Fatal("could not open database", "error", err)
	}
	defer store.Close()

	service := tips.NewService(store, tips.OptionsFromConfig(cfg), log)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.Redis.Addr},
		asynq.Config{
			// One batch at a time; a run already covers every subscriber.
			Concurrency: 1,
			Queues: map[string]int{
				"high":    2,
				"default": 1,
			},
			RetryDelayFunc: retryDelay(log),
		},
	)

	mux := asynq.NewServeMux()
	taskHandler := worker.NewTaskHandler(service, cfg.Location(), log.With("component", "worker"))
	mux.HandleFunc(tasks.TypeDailyDeliveries, taskHandler.HandleDailyDeliveriesTask)

	log.Info("worker starting", "commit", CommitSHA)
	if err := srv.Run(mux); err != nil {
		log.Fatal("could not run worker", "error", err)
	}
}

// retryDelay backs off exponentially from one minute, capped at one hour.
func retryDelay(log *logger.Logger) asynq.RetryDelayFunc {
	return func(n int, err error, task *asynq.Task) time.Duration {
		delay := time.Minute
		maxDelay := time.Hour
		for i := 0; i < n; i++ {
			delay *= 2
			if delay > maxDelay {
				delay = maxDelay
				break
			}
		}
		log.Warn("task failed, retrying", "type", task.Type(), "attempt", n+1, "delay", delay, "error", err)
		return delay
	}
}
