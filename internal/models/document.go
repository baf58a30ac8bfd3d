package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// SchemaVersion is bumped whenever the persisted record layout changes.
// Persisted records are the rebuild source of truth for the search index,
// so the version travels with every record.
const SchemaVersion = 1

// Chunk is a contiguous page-bounded slice of a document's extracted text,
// the unit of indexing and retrieval.
type Chunk struct {
	ChunkID   string   `json:"chunkId"`
	PageStart int      `json:"pageStart"`
	PageEnd   int      `json:"pageEnd"`
	Text      string   `json:"text"`
	Keywords  []string `json:"keywords"`
	Summary   string   `json:"summary"`
}

// DocumentMeta carries derived metadata that is not part of the chunk bodies.
type DocumentMeta struct {
	DetectedDate *time.Time `json:"detectedDate,omitempty"`
	Sections     []string   `json:"sections,omitempty"`
}

// DocumentRecord is the canonical persisted form of one ingested PDF. It is
// written once per ingestion and fully replaced on re-ingestion of the same
// title.
type DocumentRecord struct {
	SchemaVersion  int          `json:"schemaVersion"`
	ID             string       `json:"id"`
	Title          string       `json:"title"`
	Source         string       `json:"source"`
	Pages          int          `json:"pages"`
	Chunks         []Chunk      `json:"chunks"`
	GlobalKeywords []string     `json:"globalKeywords"`
	GlobalSummary  string       `json:"globalSummary"`
	Meta           DocumentMeta `json:"meta"`
	Category       string       `json:"category"`
	DocType        string       `json:"docType"`
	ThumbURL       string       `json:"thumbUrl"`
}

// SearchResult is an ephemeral query hit: display fields copied from the
// index plus a relevance score and a generated excerpt. Scores are
// non-negative and comparable within one query only.
type SearchResult struct {
	Title     string     `json:"title"`
	PdfURL    string     `json:"pdfUrl"`
	JSONURL   string     `json:"jsonUrl"`
	ThumbURL  string     `json:"thumbUrl"`
	Category  string     `json:"category"`
	DocType   string     `json:"docType"`
	PageStart int        `json:"pageStart"`
	PageEnd   int        `json:"pageEnd"`
	Score     float64    `json:"score"`
	Date      *time.Time `json:"date,omitempty"`
	Excerpt   string     `json:"excerpt"`
}

// NewID returns a compact hex identifier for records and chunks.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
