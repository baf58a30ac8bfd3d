package extract

import (
	"context"
	"fmt"

	"github.com/ledongthuc/pdf"
)

// textLayerSource reads the embedded PDF text layer page by page. Pages
// without a layer, or pages the parser chokes on, yield empty strings.
type textLayerSource struct{}

func (s *textLayerSource) pageTexts(ctx context.Context, pdfPath string, pageCount int) ([]string, error) {
	f, reader, err := pdf.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("open pdf text layer: %w", err)
	}
	defer f.Close()

	pages := make([]string, pageCount)
	for i := 1; i <= pageCount && i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pages[i-1] = pageText(reader, i)
	}
	return pages, nil
}

// pageText isolates one page read; the parser panics on some malformed
// content streams, which must not take down the document.
func pageText(reader *pdf.Reader, n int) (text string) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
		}
	}()

	page := reader.Page(n)
	if page.V.IsNull() {
		return ""
	}
	text, err := page.GetPlainText(nil)
	if err != nil {
		return ""
	}
	return text
}
