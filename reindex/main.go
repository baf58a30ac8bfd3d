package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"weblibrary/internal/config"
	"weblibrary/internal/logger"
	"weblibrary/internal/search"
	"weblibrary/internal/store"
)

func main() {
	log := logger.New("reindex")
	cfg, err := config.LoadReindex()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	st := store.New(cfg.DataDir, log)
	index := search.New(cfg.IndexPath, st, log)
	defer index.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := index.Rebuild(ctx); err != nil {
		log.Error("rebuild index", slog.Any("err", err))
		os.Exit(1)
	}

	if cfg.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(cfg.Interval)
	defer ticker.Stop()

	log.Info("periodic reindex enabled", slog.Duration("interval", cfg.Interval))

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			if err := index.Rebuild(ctx); err != nil {
				log.Error("rebuild index", slog.Any("err", err))
			}
		}
	}
}
