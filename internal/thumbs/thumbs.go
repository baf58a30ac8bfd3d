// Package thumbs renders bounded-size preview images for the first page of
// ingested PDFs.
package thumbs

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"weblibrary/internal/config"
	"weblibrary/internal/exttool"
)

const rasterizerTool = "pdftoppm"

// Generator renders first-page thumbnails into the thumbs area. Rendering
// failures are non-fatal and resolve to the placeholder asset.
type Generator struct {
	runner         exttool.Runner
	thumbsDir      string
	maxSize        int
	placeholderURL string
	log            *slog.Logger
}

// New builds a Generator from the shared layout and pipeline configuration.
func New(cfg config.Common, pipe config.Pipeline, runner exttool.Runner, log *slog.Logger) *Generator {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Generator{
		runner:         runner,
		thumbsDir:      cfg.ThumbsDir,
		maxSize:        pipe.ThumbMaxSize,
		placeholderURL: cfg.PlaceholderURL,
		log:            log,
	}
}

// Generate renders page 1 of pdfPath as <thumbsDir>/<title>.png, longest
// side capped at the configured size and cropped to the content box. It
// returns the public URL of the thumbnail, or the placeholder URL when
// rendering fails for any reason. A stale thumbnail at the target path is
// removed first so a failed re-ingestion never serves the previous preview.
func (g *Generator) Generate(ctx context.Context, pdfPath, title string) string {
	target := filepath.Join(g.thumbsDir, title+".png")
	_ = os.Remove(target)

	if err := os.MkdirAll(g.thumbsDir, 0o755); err != nil {
		g.log.Warn("create thumbs dir", slog.Any("err", err))
		return g.placeholderURL
	}

	prefix := filepath.Join(g.thumbsDir, title)
	_, err := g.runner.Run(ctx, rasterizerTool,
		"-png", "-singlefile", "-f", "1", "-l", "1",
		"-scale-to", strconv.Itoa(g.maxSize), "-cropbox",
		pdfPath, prefix,
	)
	if err != nil {
		g.log.Warn("thumbnail render failed", slog.String("pdf", pdfPath), slog.Any("err", err))
		return g.placeholderURL
	}

	if _, err := os.Stat(target); err != nil {
		return g.placeholderURL
	}
	return "/thumbs/" + title + ".png"
}
