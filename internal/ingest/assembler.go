// Package ingest orchestrates the document pipeline: text extraction,
// chunking, keyword/summary derivation, thumbnail generation, and record
// persistence.
package ingest

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"weblibrary/internal/chunker"
	"weblibrary/internal/config"
	"weblibrary/internal/extract"
	"weblibrary/internal/models"
	"weblibrary/internal/store"
	"weblibrary/internal/textproc"
)

// PageExtractor yields the per-page texts of a PDF.
type PageExtractor interface {
	Pages(ctx context.Context, pdfPath string) (*extract.Result, error)
}

// Thumbnailer renders a first-page preview and returns its public URL.
type Thumbnailer interface {
	Generate(ctx context.Context, pdfPath, title string) string
}

// Assembler turns one PDF into a persisted DocumentRecord. Ingestions of
// distinct titles may run concurrently; ingestions of the same title are
// serialized here so two uploads of one file cannot interleave their
// record, thumbnail, and index writes.
type Assembler struct {
	cfg       config.Pipeline
	extractor PageExtractor
	thumbs    Thumbnailer
	store     *store.Store
	log       *slog.Logger

	titles sync.Map // title -> *sync.Mutex
}

// NewAssembler wires the pipeline components together.
func NewAssembler(cfg config.Pipeline, ex PageExtractor, th Thumbnailer, st *store.Store, log *slog.Logger) *Assembler {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Assembler{cfg: cfg, extractor: ex, thumbs: th, store: st, log: log}
}

// Process ingests the PDF at pdfPath and returns the persisted record. The
// caller drives the index upsert with the returned record. Re-ingesting the
// same filename fully replaces the previous record (last-write-wins).
func (a *Assembler) Process(ctx context.Context, pdfPath, category, docType string) (*models.DocumentRecord, error) {
	name := filepath.Base(pdfPath)
	title := strings.TrimSuffix(name, filepath.Ext(name))

	unlock := a.lockTitle(title)
	defer unlock()

	res, err := a.extractor.Pages(ctx, pdfPath)
	if err != nil {
		return nil, fmt.Errorf("extract %q: %w", title, err)
	}
	if res.OCRUsed {
		a.log.Info("ocr fallback used", slog.String("title", title), slog.Int("pages", len(res.Pages)))
	}

	chunks := chunker.Build(res.Pages, a.cfg.ChunkSize)

	texts := make([]string, len(chunks))
	for i := range chunks {
		texts[i] = chunks[i].Text
	}

	var (
		globalKeywords []string
		globalSummary  string
		thumbURL       string
	)

	// Chunk metadata, global metadata and the thumbnail have no data
	// dependency on each other.
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for i := range chunks {
			chunks[i].Keywords = textproc.ExtractKeywords(chunks[i].Text, a.cfg.ChunkKeywords)
			chunks[i].Summary = textproc.Summarize(chunks[i].Text, a.cfg.ChunkSummarySentences)
		}
		return nil
	})
	g.Go(func() error {
		globalKeywords = textproc.ExtractKeywords(strings.Join(res.Pages, "\n"), a.cfg.GlobalKeywords)
		globalSummary = textproc.Summarize(strings.Join(texts, " "), a.cfg.GlobalSummarySentences)
		return nil
	})
	g.Go(func() error {
		thumbURL = a.thumbs.Generate(gctx, pdfPath, title)
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	rec := &models.DocumentRecord{
		SchemaVersion:  models.SchemaVersion,
		ID:             models.NewID(),
		Title:          title,
		Source:         "/files/" + name,
		Pages:          len(res.Pages),
		Chunks:         chunks,
		GlobalKeywords: globalKeywords,
		GlobalSummary:  globalSummary,
		Meta:           models.DocumentMeta{DetectedDate: &now},
		Category:       category,
		DocType:        docType,
		ThumbURL:       thumbURL,
	}

	if err := a.store.Save(rec); err != nil {
		return nil, fmt.Errorf("persist %q: %w", title, err)
	}

	a.log.Info("document ingested",
		slog.String("title", title),
		slog.Int("pages", rec.Pages),
		slog.Int("chunks", len(rec.Chunks)),
	)
	return rec, nil
}

func (a *Assembler) lockTitle(title string) func() {
	v, _ := a.titles.LoadOrStore(title, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
