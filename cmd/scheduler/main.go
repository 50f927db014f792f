package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"daily-tips/internal/config"
	"daily-tips/internal/logger"
	"daily-tips/pkg/tasks"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

func main() {
	date := flag.String("date", "", "enqueue a single batch for YYYY-MM-DD and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Fatal("could not load config", "error", err)
	}
	log := logger.New(cfg.LogLevel)
	redis := asynq.RedisClientOpt{Addr: cfg.Redis.Addr}

	if *date != "" {
		client := asynq.NewClient(redis)
		defer client.Close()
		if err := backfill(client, *date, log); err != nil {
			log.Fatal("could not enqueue batch", "date", *date, "error", err)
		}
		return
	}

	scheduler := asynq.NewScheduler(redis, &asynq.SchedulerOpts{Location: cfg.Location()})
	if err := register(scheduler, cfg.Daily.Cron); err != nil {
		log.Fatal("could not register task", "error", err)
	}

	log.Info("scheduler starting", "cron", cfg.Daily.Cron, "timezone", cfg.Location().String(), "commit", CommitSHA)
	if err := scheduler.Run(); err != nil {
		log.Fatal("could not run scheduler", "error", err)
	}
}

type taskRegisterer interface {
	Register(cronspec string, task *asynq.Task, opts ...asynq.Option) (string, error)
}

// register schedules the daily batch. The payload is empty so each run
// resolves "today" when the worker picks it up.
func register(s taskRegisterer, cronspec string) error {
	task, err := tasks.NewDailyDeliveriesTask("")
	if err != nil {
		return err
	}
	_, err = s.Register(cronspec, task, asynq.Unique(time.Hour))
	return err
}

func backfill(client tasks.TaskEnqueuer, date string, log *logger.Logger) error {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return fmt.Errorf("date must be YYYY-MM-DD: %w", err)
	}
	info, err := tasks.EnqueueDailyDeliveries(client, date)
	if err != nil {
		return err
	}
	log.Info("batch enqueued", "date", date, "task_id", info.ID)
	return nil
}
