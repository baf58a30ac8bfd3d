package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"weblibrary/internal/config"
	"weblibrary/internal/dedupe"
	"weblibrary/internal/extract"
	"weblibrary/internal/exttool"
	"weblibrary/internal/ingest"
	"weblibrary/internal/logger"
	"weblibrary/internal/models"
	"weblibrary/internal/search"
	"weblibrary/internal/store"
	"weblibrary/internal/thumbs"
)

type upserter interface {
	Upsert(ctx context.Context, rec *models.DocumentRecord) error
}

func main() {
	var (
		watch    = flag.Bool("watch", false, "keep scanning the files area on an interval")
		category = flag.String("category", "", "category assigned to ingested documents")
		docType  = flag.String("type", "", "document type assigned to ingested documents")
	)
	flag.Parse()

	log := logger.New("ingest")
	cfg, err := config.LoadIngest()
	if err != nil {
		log.Error("load config", slog.Any("err", err))
		os.Exit(1)
	}

	runner := exttool.NewCommandRunner(cfg.ToolTimeout)
	st := store.New(cfg.DataDir, log)
	index := search.New(cfg.IndexPath, st, log)
	defer index.Close()

	assembler := ingest.NewAssembler(
		cfg.Pipeline,
		extract.New(cfg.Pipeline, runner, log),
		thumbs.New(cfg.Common, cfg.Pipeline, runner, log),
		st,
		log,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	seen := dedupe.New(cfg.SeenCapacity, cfg.SeenTTL)

	processed, failed := scanOnce(ctx, log, cfg, assembler, index, seen, *category, *docType)
	log.Info("scan finished", slog.Int("processed", processed), slog.Int("failed", failed))

	if !*watch {
		if failed > 0 {
			os.Exit(1)
		}
		return
	}

	ticker := time.NewTicker(cfg.WatchInterval)
	defer ticker.Stop()

	log.Info("watching files area",
		slog.String("dir", cfg.FilesDir),
		slog.Duration("interval", cfg.WatchInterval),
	)

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received")
			return
		case <-ticker.C:
			processed, failed = scanOnce(ctx, log, cfg, assembler, index, seen, *category, *docType)
			if processed > 0 || failed > 0 {
				log.Info("scan finished", slog.Int("processed", processed), slog.Int("failed", failed))
			}
		}
	}
}

// scanOnce ingests every new or changed PDF under the files area. One
// document failing never aborts the rest of the batch.
func scanOnce(ctx context.Context, log *slog.Logger, cfg *config.Ingest, assembler *ingest.Assembler, index upserter, seen *dedupe.Fingerprints, category, docType string) (processed, failed int) {
	paths, err := listPDFs(cfg.FilesDir)
	if err != nil {
		log.Error("scan files area", slog.Any("err", err))
		return 0, 1
	}

	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return processed, failed
		}

		info, err := os.Stat(path)
		if err != nil {
			log.Warn("stat pdf", slog.String("path", path), slog.Any("err", err))
			failed++
			continue
		}

		fp := dedupe.Fingerprint(info)
		if seen.Unchanged(path, fp) {
			continue
		}

		rec, err := assembler.Process(ctx, path, category, docType)
		if err != nil {
			if errors.Is(err, extract.ErrSourceUnreadable) {
				log.Warn("skipping unreadable pdf", slog.String("path", path), slog.Any("err", err))
			} else {
				log.Error("ingest pdf", slog.String("path", path), slog.Any("err", err))
			}
			failed++
			continue
		}

		if err := index.Upsert(ctx, rec); err != nil {
			log.Error("index upsert", slog.String("title", rec.Title), slog.Any("err", err))
			failed++
			continue
		}

		seen.Remember(path, fp)
		processed++
	}

	return processed, failed
}

func listPDFs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	var paths []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.EqualFold(filepath.Ext(entry.Name()), ".pdf") {
			paths = append(paths, filepath.Join(dir, entry.Name()))
		}
	}
	return paths, nil
}
