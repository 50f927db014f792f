package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"

	"daily-tips/internal/config"
	"daily-tips/internal/db"
	"daily-tips/internal/handlers"
	"daily-tips/internal/logger"
	"daily-tips/internal/middleware"
	"daily-tips/internal/tips"
)

// CommitSHA is set at build time via ldflags
var CommitSHA = "unknown"

type App struct {
	cfg   *config.Config
	store *db.Store
	tips  *tips.Service
	log   *logger.Logger
}

func (a *App) routes() http.Handler {
	r := mux.NewRouter()
	limiter := middleware.NewRateLimiterMiddleware(rate.Limit(a.cfg.RateLimit.RPS), a.cfg.RateLimit.Burst, a.log)
	h := handlers.New(a.tips, a.store, a.cfg.HTTP.BaseURL, a.cfg.Plan.MaxPerTopic, a.log)
	h.Register(r,
		middleware.AuthMiddleware(a.store, a.cfg.Telegram.BotToken, a.log),
		limiter.Middleware,
	)
	return r
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("info").Fatal("could not load config", "error", err)
	}
	log := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := db.Connect(ctx, cfg.Database.URL)
	if err != nil {
		log.Fatal("could not open database", "error", err)
	}
	defer store.Close()

	app := &App{
		cfg:   cfg,
		store: store,
		tips:  tips.NewService(store, tips.OptionsFromConfig(cfg), log),
		log:   log,
	}

	if cfg.Telegram.BotToken != "" {
		bot, err := handlers.NewBot(cfg.Telegram.BotToken, store, app.tips, cfg.HTTP.BaseURL, log.With("component", "bot"))
		if err != nil {
			log.Error("telegram bot disabled", "error", err)
		} else {
			go bot.Run(ctx)
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           app.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Error("graceful shutdown failed", "error", err)
		}
	}()

	log.Info("server starting", "port", cfg.HTTP.Port, "commit", CommitSHA)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal("could not run server", "error", err)
	}
	log.Info("server stopped")
}
