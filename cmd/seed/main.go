package main

import (
	"context"
	"flag"

	"daily-tips/internal/config"
	"daily-tips/internal/db"
	"daily-tips/internal/logger"
	"daily-tips/internal/seed"
)

func main() {
	file := flag.String("file", "seed.yaml", "path to the YAML seed file")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Fatal("could not load config", "error", err)
	}
	log := logger.New(cfg.LogLevel)

	f, err := seed.Load(*file)
	if err != nil {
		log.Fatal("could not load seed", "file", *file, "error", err)
	}

	ctx := context.Background()
	store, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal("could not open database", "error", err)
	}
	defer store.Close()

	res, err := seed.NewImporter(store, log.With("component", "seed")).Import(ctx, f)
	if err != nil {
		log.Fatal("seed import failed", "topics", res.Topics, "created", res.Created, "skipped", res.Skipped, "error", err)
	}
	log.Info("seed imported", "topics", res.Topics, "created", res.Created, "skipped", res.Skipped)
}
