package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Common contains the filesystem layout shared by every service: where the
// uploaded PDFs, persisted document records, thumbnails, and the search index
// live.
type Common struct {
	FilesDir       string
	DataDir        string
	ThumbsDir      string
	IndexPath      string
	PlaceholderURL string
}

// Pipeline holds the ingestion knobs: chunking, keyword/summary derivation,
// OCR fallback, and thumbnail generation.
type Pipeline struct {
	ChunkSize              int
	ChunkKeywords          int
	GlobalKeywords         int
	ChunkSummarySentences  int
	GlobalSummarySentences int
	TextThreshold          int
	OCRLanguages           string
	OCRDPI                 int
	ThumbMaxSize           int
	ToolTimeout            time.Duration
}

// API describes HTTP-layer configuration.
type API struct {
	Common
	Pipeline
	BindAddr   string
	DefaultTop int
	MaxTop     int
}

// Ingest configures the batch/watch ingester.
type Ingest struct {
	Common
	Pipeline
	WatchInterval time.Duration
	SeenCapacity  int
	SeenTTL       time.Duration
}

// Reindex configures the index maintenance loop.
type Reindex struct {
	Common
	Interval time.Duration
}

func loadCommon() Common {
	return Common{
		FilesDir:       getEnv("FILES_DIR", "wwwroot/files"),
		DataDir:        getEnv("DATA_DIR", "wwwroot/data"),
		ThumbsDir:      getEnv("THUMBS_DIR", "wwwroot/thumbs"),
		IndexPath:      getEnv("INDEX_PATH", "app_data/index/search.db"),
		PlaceholderURL: getEnv("PLACEHOLDER_URL", "/img/placeholder.svg"),
	}
}

func loadPipeline() (Pipeline, error) {
	p := Pipeline{
		ChunkSize:              getInt("CHUNK_SIZE", 900),
		ChunkKeywords:          getInt("CHUNK_KEYWORDS", 12),
		GlobalKeywords:         getInt("GLOBAL_KEYWORDS", 20),
		ChunkSummarySentences:  getInt("CHUNK_SUMMARY_SENTENCES", 3),
		GlobalSummarySentences: getInt("GLOBAL_SUMMARY_SENTENCES", 10),
		TextThreshold:          getInt("OCR_TEXT_THRESHOLD", 200),
		OCRLanguages:           getEnv("OCR_LANGUAGES", "spa+eng"),
		OCRDPI:                 getInt("OCR_DPI", 300),
		ThumbMaxSize:           getInt("THUMB_MAX_SIZE", 480),
		ToolTimeout:            getDuration("TOOL_TIMEOUT", "2m"),
	}

	if p.ChunkSize <= 0 {
		return p, fmt.Errorf("CHUNK_SIZE must be positive")
	}
	if p.ChunkKeywords <= 0 || p.GlobalKeywords <= 0 {
		return p, fmt.Errorf("CHUNK_KEYWORDS and GLOBAL_KEYWORDS must be positive")
	}
	if p.ChunkSummarySentences <= 0 || p.GlobalSummarySentences <= 0 {
		return p, fmt.Errorf("CHUNK_SUMMARY_SENTENCES and GLOBAL_SUMMARY_SENTENCES must be positive")
	}
	if p.TextThreshold < 0 {
		return p, fmt.Errorf("OCR_TEXT_THRESHOLD cannot be negative")
	}
	if p.OCRDPI <= 0 {
		return p, fmt.Errorf("OCR_DPI must be positive")
	}
	if p.ThumbMaxSize <= 0 {
		return p, fmt.Errorf("THUMB_MAX_SIZE must be positive")
	}
	if p.ToolTimeout <= 0 {
		return p, fmt.Errorf("TOOL_TIMEOUT must be positive")
	}

	return p, nil
}

// LoadAPI builds the API config from environment variables.
func LoadAPI() (*API, error) {
	pipe, err := loadPipeline()
	if err != nil {
		return nil, err
	}

	c := &API{
		Common:     loadCommon(),
		Pipeline:   pipe,
		BindAddr:   getEnv("API_BIND_ADDR", "0.0.0.0:8080"),
		DefaultTop: getInt("API_RESULT_LIMIT", 20),
		MaxTop:     getInt("API_MAX_RESULT_LIMIT", 100),
	}

	if c.DefaultTop <= 0 {
		return nil, fmt.Errorf("API_RESULT_LIMIT must be positive")
	}
	if c.MaxTop <= 0 {
		return nil, fmt.Errorf("API_MAX_RESULT_LIMIT must be positive")
	}
	if c.DefaultTop > c.MaxTop {
		return nil, fmt.Errorf("API_RESULT_LIMIT cannot exceed API_MAX_RESULT_LIMIT")
	}

	return c, nil
}

// LoadIngest builds the batch ingester config from environment variables.
func LoadIngest() (*Ingest, error) {
	pipe, err := loadPipeline()
	if err != nil {
		return nil, err
	}

	c := &Ingest{
		Common:        loadCommon(),
		Pipeline:      pipe,
		WatchInterval: getDuration("INGEST_WATCH_INTERVAL", "30s"),
		SeenCapacity:  getInt("INGEST_SEEN_CAPACITY", 10000),
		SeenTTL:       getDuration("INGEST_SEEN_TTL", "24h"),
	}

	if c.WatchInterval <= 0 {
		return nil, fmt.Errorf("INGEST_WATCH_INTERVAL must be positive")
	}
	if c.SeenCapacity <= 0 {
		return nil, fmt.Errorf("INGEST_SEEN_CAPACITY must be positive")
	}
	if c.SeenTTL <= 0 {
		return nil, fmt.Errorf("INGEST_SEEN_TTL must be positive")
	}

	return c, nil
}

// LoadReindex builds the reindex loop config from environment variables.
// A zero REINDEX_INTERVAL means run once and exit.
func LoadReindex() (*Reindex, error) {
	c := &Reindex{
		Common:   loadCommon(),
		Interval: getDuration("REINDEX_INTERVAL", "0s"),
	}

	if c.Interval < 0 {
		return nil, fmt.Errorf("REINDEX_INTERVAL cannot be negative")
	}

	return c, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			return parsed
		}
	}
	return fallback
}

func getDuration(key, fallback string) time.Duration {
	raw := strings.TrimSpace(getEnv(key, fallback))
	d, err := time.ParseDuration(raw)
	if err != nil {
		fd, ferr := time.ParseDuration(fallback)
		if ferr != nil {
			panic(fmt.Sprintf("invalid fallback duration %q: %v", fallback, ferr))
		}
		return fd
	}
	return d
}
