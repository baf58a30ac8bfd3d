package extract

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// rasterRunner mimics pdftoppm and tesseract: the rasterize call writes one
// zero-padded image per page next to the requested prefix, and each OCR
// call returns the canned text for that page.
type rasterRunner struct {
	texts     []string
	failPages map[int]bool
	rasterErr error

	rasterArgs []string
	ocrArgs    [][]string
}

func (r *rasterRunner) Run(_ context.Context, tool string, args ...string) (string, error) {
	if tool == "pdftoppm" {
		r.rasterArgs = args
		if r.rasterErr != nil {
			return "", r.rasterErr
		}
		prefix := args[len(args)-1]
		for i := range r.texts {
			name := fmt.Sprintf("%s-%02d.png", prefix, i+1)
			if err := os.WriteFile(name, []byte("png"), 0o644); err != nil {
				return "", err
			}
		}
		return "", nil
	}

	r.ocrArgs = append(r.ocrArgs, args)
	img := args[0]
	stem := strings.TrimSuffix(filepath.Base(img), ".png")
	n, err := strconv.Atoi(stem[strings.LastIndex(stem, "-")+1:])
	if err != nil {
		return "", err
	}
	if r.failPages[n] {
		return "", errors.New("tesseract exited 1")
	}
	return r.texts[n-1], nil
}

func newOCRSource(runner *rasterRunner) *ocrSource {
	return &ocrSource{runner: runner, languages: "spa+eng", dpi: 300}
}

func TestOCRPageFailureDegradesThatPageOnly(t *testing.T) {
	runner := &rasterRunner{
		texts:     []string{"página uno", "página dos", "página tres"},
		failPages: map[int]bool{2: true},
	}
	s := newOCRSource(runner)

	pages, err := s.pageTexts(context.Background(), "doc.pdf", 3)
	require.NoError(t, err)
	require.Equal(t, []string{"página uno", "", "página tres"}, pages)
}

func TestOCRKeepsPageOrder(t *testing.T) {
	// Twelve pages: lexical ordering of the zero-padded image names must
	// reproduce page order.
	texts := make([]string, 12)
	for i := range texts {
		texts[i] = fmt.Sprintf("texto de la página %d", i+1)
	}
	runner := &rasterRunner{texts: texts}
	s := newOCRSource(runner)

	pages, err := s.pageTexts(context.Background(), "doc.pdf", 12)
	require.NoError(t, err)
	require.Equal(t, texts, pages)
}

func TestOCRCapsAtPageCount(t *testing.T) {
	runner := &rasterRunner{texts: []string{"uno", "dos", "tres"}}
	s := newOCRSource(runner)

	pages, err := s.pageTexts(context.Background(), "doc.pdf", 2)
	require.NoError(t, err)
	require.Equal(t, []string{"uno", "dos"}, pages)
}

func TestOCRRasterFailureAborts(t *testing.T) {
	runner := &rasterRunner{rasterErr: errors.New("pdftoppm exited 1")}
	s := newOCRSource(runner)

	_, err := s.pageTexts(context.Background(), "doc.pdf", 1)
	require.Error(t, err)
	require.Empty(t, runner.ocrArgs)
}

func TestOCRToolArguments(t *testing.T) {
	runner := &rasterRunner{texts: []string{"uno"}}
	s := newOCRSource(runner)

	_, err := s.pageTexts(context.Background(), "doc.pdf", 1)
	require.NoError(t, err)

	require.Contains(t, runner.rasterArgs, "-r")
	require.Contains(t, runner.rasterArgs, "300")
	require.Contains(t, runner.rasterArgs, "doc.pdf")

	require.Len(t, runner.ocrArgs, 1)
	call := runner.ocrArgs[0]
	require.Equal(t, "stdout", call[1])
	require.Equal(t, []string{"-l", "spa+eng"}, call[2:])
}
