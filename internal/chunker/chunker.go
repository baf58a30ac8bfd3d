// Package chunker groups per-page texts into bounded chunks that record the
// page range they cover.
package chunker

import (
	"strings"
	"unicode/utf8"

	"weblibrary/internal/models"
)

// Build accumulates pages in order into chunks of roughly maxSize
// characters. Sizes are counted in runes, not bytes, so accented text does
// not shift boundaries. A page is never split: the buffer is flushed before
// appending page i only once it already exceeds maxSize, so maxSize is a
// soft cap and a single oversized page still lands in one chunk. Page
// ranges are 1-based, inclusive, and partition [1, len(pages)] whenever the
// document has any non-blank text. An all-blank document yields no chunks.
func Build(pages []string, maxSize int) []models.Chunk {
	var chunks []models.Chunk
	var buf strings.Builder
	size := 0
	start := 1

	for i, page := range pages {
		if size > 0 && size > maxSize {
			chunks = append(chunks, newChunk(start, i, buf.String()))
			buf.Reset()
			size = 0
			start = i + 1
		}
		buf.WriteString(page)
		buf.WriteString("\n")
		size += utf8.RuneCountInString(page) + 1
	}

	if strings.TrimSpace(buf.String()) != "" {
		chunks = append(chunks, newChunk(start, len(pages), buf.String()))
	}

	return chunks
}

func newChunk(pageStart, pageEnd int, text string) models.Chunk {
	return models.Chunk{
		ChunkID:   models.NewID(),
		PageStart: pageStart,
		PageEnd:   pageEnd,
		Text:      text,
	}
}
