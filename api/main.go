package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"weblibrary/internal/config"
	"weblibrary/internal/extract"
	"weblibrary/internal/exttool"
	"weblibrary/internal/ingest"
	"weblibrary/internal/logger"
	"weblibrary/internal/models"
	"weblibrary/internal/search"
	"weblibrary/internal/store"
	"weblibrary/internal/thumbs"
)

func main() {
	log := logger.New("api")
	cfg, err := config.LoadAPI()
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

	srv := &server{log: log, cfg: cfg, assembler: assembler, store: st, index: index}
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.Get("/health", srv.handleHealth)
	r.Get("/search", srv.handleSearch)
	r.Get("/documents", srv.handleDocuments)
	r.Post("/documents", srv.handleUpload)
	r.Post("/reindex", srv.handleReindex)

	mountStatic(r, "/files", cfg.FilesDir)
	mountStatic(r, "/data", cfg.DataDir)
	mountStatic(r, "/thumbs", cfg.ThumbsDir)

	httpServer := &http.Server{
		Addr:              cfg.BindAddr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       time.Minute,
		WriteTimeout:      5 * time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	go func() {
		log.Info("api server starting", slog.String("addr", cfg.BindAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server stopped", slog.Any("err", err))
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", slog.Any("err", err))
	}
}

type server struct {
	log       *slog.Logger
	cfg       *config.API
	assembler *ingest.Assembler
	store     *store.Store
	index     *search.Index
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleSearch(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	query := r.URL.Query().Get("q")
	top := clampInt(r.URL.Query().Get("top"), s.cfg.DefaultTop, s.cfg.MaxTop)

	results, err := s.index.Search(ctx, query, top)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, search.ErrQuerySyntax) {
			status = http.StatusBadRequest
		}
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, results)
}

// handleDocuments lists the persisted records, optionally narrowed by the
// category and type query parameters (case-insensitive exact match).
func (s *server) handleDocuments(w http.ResponseWriter, r *http.Request) {
	records, err := s.store.List()
	if err != nil {
		s.log.Error("list documents", slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "list documents"})
		return
	}

	category := r.URL.Query().Get("category")
	docType := r.URL.Query().Get("type")

	out := make([]models.DocumentRecord, 0, len(records))
	for _, rec := range records {
		if category != "" && !strings.EqualFold(rec.Category, category) {
			continue
		}
		if docType != "" && !strings.EqualFold(rec.DocType, docType) {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Title < out[b].Title })

	writeJSON(w, http.StatusOK, out)
}

// handleUpload stores the uploaded PDF under the files area, runs the
// ingestion pipeline, and upserts the document into the search index.
func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing file field"})
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	if !strings.EqualFold(filepath.Ext(name), ".pdf") {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "only pdf uploads are accepted"})
		return
	}

	pdfPath, err := s.saveUpload(file, name)
	if err != nil {
		s.log.Error("save upload", slog.String("file", name), slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "store upload"})
		return
	}

	rec, err := s.assembler.Process(r.Context(), pdfPath, r.FormValue("category"), r.FormValue("docType"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, extract.ErrSourceUnreadable) {
			status = http.StatusUnprocessableEntity
		}
		s.log.Error("ingest failed", slog.String("file", name), slog.Any("err", err))
		writeJSON(w, status, errorResponse{Error: err.Error()})
		return
	}

	if err := s.index.Upsert(r.Context(), rec); err != nil {
		s.log.Error("index upsert failed", slog.String("title", rec.Title), slog.Any("err", err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "document stored but not indexed"})
		return
	}

	writeJSON(w, http.StatusCreated, rec)
}

func (s *server) handleReindex(w http.ResponseWriter, r *http.Request) {
	if err := s.index.Rebuild(r.Context()); err != nil {
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reindexed"})
}

func (s *server) saveUpload(src io.Reader, name string) (string, error) {
	if err := os.MkdirAll(s.cfg.FilesDir, 0o755); err != nil {
		return "", fmt.Errorf("create files dir: %w", err)
	}

	path := filepath.Join(s.cfg.FilesDir, name)
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", path, err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func mountStatic(r chi.Router, prefix, dir string) {
	fs := http.StripPrefix(prefix, http.FileServer(http.Dir(dir)))
	r.Get(prefix+"/*", func(w http.ResponseWriter, req *http.Request) {
		fs.ServeHTTP(w, req)
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func clampInt(raw string, fallback, max int) int {
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || v <= 0 {
		return fallback
	}
	if v > max {
		return max
	}
	return v
}
