package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Framerrr/framerr-monitor/internal/config"
	"github.com/Framerrr/framerr-monitor/internal/httpapi"
	"github.com/Framerrr/framerr-monitor/internal/logging"
	"github.com/Framerrr/framerr-monitor/internal/probe"
	"github.com/Framerrr/framerr-monitor/internal/publish"
	"github.com/Framerrr/framerr-monitor/internal/repo"
	"github.com/Framerrr/framerr-monitor/internal/repo/memory"
	"github.com/Framerrr/framerr-monitor/internal/repo/postgres"
	"github.com/Framerrr/framerr-monitor/internal/repo/sqlite"
	"github.com/Framerrr/framerr-monitor/internal/scheduler"
)

func main() {
	cfg := config.FromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal(err)
	}

	logger, err := logging.NewLogger(cfg.LogDir, cfg.LogLevel)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("store_open_error", zap.Error(err))
	}
	defer closeStore()

	sinks := publish.Multi{&publish.LogSink{Logger: logger}}
	if wh := publish.NewWebhook(cfg.WebhookURL); wh != nil {
		sinks = append(sinks, wh)
	}

	eng := scheduler.New(logger, store, probe.NewMux(), sinks, scheduler.Config{
		Defaults:   cfg.Defaults,
		Retention:  cfg.Retention(),
		PruneEvery: time.Hour,
	})
	defer eng.Close()

	monitors, err := store.List(ctx)
	if err != nil {
		logger.Fatal("monitor_load_error", zap.Error(err))
	}
	eng.Load(monitors)
	logger.Info("monitors_loaded", zap.Int("count", len(monitors)))

	api := httpapi.NewServer(logger, eng, store)
	srv := &http.Server{
		Addr:    cfg.Addr,
		Handler: api.Router(cfg.APIRequestsPerMin, cfg.APIBurst),
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutCtx)
	}()

	logger.Info("api_listen", zap.String("addr", cfg.Addr))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Fatal("api_serve_error", zap.Error(err))
	}
	logger.Info("shutting_down")
}

// openStore picks the store adapter from the config: postgres when a
// DATABASE_URL is set, sqlite when SQLITE_PATH is set, in-memory otherwise.
func openStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (repo.Store, func(), error) {
	switch {
	case cfg.DatabaseURL != "":
		s, err := postgres.New(ctx, cfg.DatabaseURL, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, s.Close, nil
	case cfg.SQLitePath != "":
		s, err := sqlite.New(ctx, cfg.SQLitePath, logger)
		if err != nil {
			return nil, nil, err
		}
		return s, func() { _ = s.Close() }, nil
	default:
		logger.Warn("store_in_memory", zap.String("hint", "set DATABASE_URL or SQLITE_PATH to persist monitors"))
		return memory.New(), func() {}, nil
	}
}
