// Package extract obtains per-page plain text from a PDF. The text layer is
// the primary source; documents without a usable layer (scans) fall back to
// rasterization plus OCR.
package extract

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/pdfcpu/pdfcpu/pkg/api"

	"weblibrary/internal/config"
	"weblibrary/internal/exttool"
)

// ErrSourceUnreadable reports that the PDF itself cannot be opened. This is
// the only condition fatal to a document's extraction.
var ErrSourceUnreadable = errors.New("source pdf unreadable")

// Result carries the ordered page texts and whether the OCR fallback ran.
type Result struct {
	Pages   []string
	OCRUsed bool
}

// pageSource produces one text per page, in page order. Implementations
// degrade per page (empty string) rather than failing the document.
type pageSource interface {
	pageTexts(ctx context.Context, pdfPath string, pageCount int) ([]string, error)
}

// Extractor selects between the native text layer and the OCR fallback
// based on how much text the primary path yields.
type Extractor struct {
	native    pageSource
	ocr       pageSource
	threshold int
	log       *slog.Logger
}

// New wires the production extractor from the pipeline configuration.
func New(cfg config.Pipeline, runner exttool.Runner, log *slog.Logger) *Extractor {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Extractor{
		native:    &textLayerSource{},
		ocr:       &ocrSource{runner: runner, languages: cfg.OCRLanguages, dpi: cfg.OCRDPI},
		threshold: cfg.TextThreshold,
		log:       log,
	}
}

// Pages extracts the per-page texts for the document at pdfPath. The page
// count comes from a pdfcpu probe, which doubles as the readability check.
func (e *Extractor) Pages(ctx context.Context, pdfPath string) (*Result, error) {
	count, err := api.PageCountFile(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrSourceUnreadable, pdfPath, err)
	}

	pages, ocrUsed := e.selectPages(ctx, pdfPath, count)
	return &Result{Pages: pages, OCRUsed: ocrUsed}, nil
}

// selectPages runs the primary path and, when it yields too little text,
// the OCR fallback. Either path failing degrades rather than aborting: a
// document is only unreadable when the pdfcpu probe in Pages says so.
func (e *Extractor) selectPages(ctx context.Context, pdfPath string, count int) ([]string, bool) {
	pages, err := e.native.pageTexts(ctx, pdfPath, count)
	if err != nil {
		// A broken text layer is not fatal; OCR may still read the raster.
		e.log.Warn("native text extraction failed", slog.String("pdf", pdfPath), slog.Any("err", err))
		pages = make([]string, count)
	}
	pages = pad(pages, count)

	if e.sufficient(pages) {
		return pages, false
	}

	ocrPages, err := e.ocr.pageTexts(ctx, pdfPath, count)
	if err != nil {
		e.log.Warn("ocr fallback failed, keeping native text", slog.String("pdf", pdfPath), slog.Any("err", err))
		return pages, false
	}

	return pad(ocrPages, count), true
}

// sufficient counts characters, not bytes: a threshold of 200 means 200
// runes regardless of how the accents encode.
func (e *Extractor) sufficient(pages []string) bool {
	total := strings.TrimSpace(strings.Join(pages, ""))
	return utf8.RuneCountInString(total) >= e.threshold && total != ""
}

// pad normalizes a page slice to exactly count entries so the record's
// page-count invariant holds even when a source came up short.
func pad(pages []string, count int) []string {
	if len(pages) == count {
		return pages
	}
	if len(pages) > count {
		return pages[:count]
	}
	out := make([]string, count)
	copy(out, pages)
	return out
}
