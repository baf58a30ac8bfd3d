// Package store persists one JSON document record per ingested PDF. The
// data directory is both the serving surface (records are addressable under
// /data) and the search index's rebuild source of truth.
package store

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"weblibrary/internal/models"
)

// Store reads and writes document records under a single data directory,
// keyed by title. Re-saving a title overwrites the previous record
// (last-write-wins; no versioning).
type Store struct {
	dataDir string
	log     *slog.Logger
}

// New builds a Store rooted at dataDir.
func New(dataDir string, log *slog.Logger) *Store {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Store{dataDir: dataDir, log: log}
}

// Save serializes the record to <dataDir>/<title>.json.
func (s *Store) Save(rec *models.DocumentRecord) error {
	if err := os.MkdirAll(s.dataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal record %q: %w", rec.Title, err)
	}

	if err := os.WriteFile(s.path(rec.Title), data, 0o644); err != nil {
		return fmt.Errorf("write record %q: %w", rec.Title, err)
	}
	return nil
}

// Load reads one record by title.
func (s *Store) Load(title string) (*models.DocumentRecord, error) {
	data, err := os.ReadFile(s.path(title))
	if err != nil {
		return nil, fmt.Errorf("read record %q: %w", title, err)
	}

	var rec models.DocumentRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("parse record %q: %w", title, err)
	}
	return &rec, nil
}

// List returns every parseable record in the data directory. Corrupt files
// are logged and skipped so one bad record never fails a batch operation.
func (s *Store) List() ([]models.DocumentRecord, error) {
	entries, err := filepath.Glob(filepath.Join(s.dataDir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list data dir: %w", err)
	}

	records := make([]models.DocumentRecord, 0, len(entries))
	for _, path := range entries {
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("skip unreadable record", slog.String("path", path), slog.Any("err", err))
			continue
		}

		var rec models.DocumentRecord
		if err := json.Unmarshal(data, &rec); err != nil {
			s.log.Warn("skip corrupt record", slog.String("path", path), slog.Any("err", err))
			continue
		}

		// The filename stem is the stable key; keep titles in sync with it.
		if rec.Title == "" {
			rec.Title = strings.TrimSuffix(filepath.Base(path), ".json")
		}
		records = append(records, rec)
	}

	return records, nil
}

// JSONURL is the public URL of a persisted record.
func JSONURL(title string) string {
	return "/data/" + title + ".json"
}

func (s *Store) path(title string) string {
	return filepath.Join(s.dataDir, title+".json")
}
