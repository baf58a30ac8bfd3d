package extract

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"weblibrary/internal/exttool"
)

const (
	rasterizerTool = "pdftoppm"
	ocrTool        = "tesseract"
)

// ocrSource rasterizes every page into a scratch directory and runs the OCR
// engine over each image. Individual page failures degrade to empty text;
// only a failed rasterization aborts the fallback as a whole.
type ocrSource struct {
	runner    exttool.Runner
	languages string
	dpi       int
}

func (s *ocrSource) pageTexts(ctx context.Context, pdfPath string, pageCount int) ([]string, error) {
	scratch, err := os.MkdirTemp("", "weblib-ocr-")
	if err != nil {
		return nil, fmt.Errorf("create ocr scratch dir: %w", err)
	}
	defer os.RemoveAll(scratch) // best effort

	prefix := filepath.Join(scratch, "p")
	_, err = s.runner.Run(ctx, rasterizerTool, "-png", "-r", strconv.Itoa(s.dpi), pdfPath, prefix)
	if err != nil {
		return nil, fmt.Errorf("rasterize %s: %w", pdfPath, err)
	}

	images, err := filepath.Glob(prefix + "-*.png")
	if err != nil {
		return nil, fmt.Errorf("list raster images: %w", err)
	}
	// pdftoppm zero-pads page numbers, so lexical order is page order.
	sort.Strings(images)

	pages := make([]string, pageCount)
	for i, img := range images {
		if i >= pageCount {
			break
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		text, err := s.runner.Run(ctx, ocrTool, img, "stdout", "-l", s.languages)
		if err != nil {
			// Degrade this page only; the remaining pages still run.
			continue
		}
		pages[i] = text
	}

	return pages, nil
}
