package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"weblibrary/internal/config"
)

func TestLoadAPIDefaults(t *testing.T) {
	t.Setenv("FILES_DIR", "")
	t.Setenv("DATA_DIR", "")
	t.Setenv("INDEX_PATH", "")
	t.Setenv("API_BIND_ADDR", "")
	t.Setenv("CHUNK_SIZE", "")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)

	require.Equal(t, "wwwroot/files", cfg.FilesDir)
	require.Equal(t, "wwwroot/data", cfg.DataDir)
	require.Equal(t, "wwwroot/thumbs", cfg.ThumbsDir)
	require.Equal(t, "app_data/index/search.db", cfg.IndexPath)
	require.Equal(t, "/img/placeholder.svg", cfg.PlaceholderURL)
	require.Equal(t, "0.0.0.0:8080", cfg.BindAddr)
	require.Equal(t, 900, cfg.ChunkSize)
	require.Equal(t, 12, cfg.ChunkKeywords)
	require.Equal(t, 20, cfg.GlobalKeywords)
	require.Equal(t, 200, cfg.TextThreshold)
	require.Equal(t, "spa+eng", cfg.OCRLanguages)
	require.Equal(t, 300, cfg.OCRDPI)
	require.Equal(t, 480, cfg.ThumbMaxSize)
	require.Equal(t, 20, cfg.DefaultTop)
	require.Equal(t, 100, cfg.MaxTop)
}

func TestLoadAPIOverrides(t *testing.T) {
	t.Setenv("FILES_DIR", "/srv/library/files")
	t.Setenv("INDEX_PATH", "/srv/library/index.db")
	t.Setenv("API_BIND_ADDR", ":9090")
	t.Setenv("CHUNK_SIZE", "1500")
	t.Setenv("OCR_LANGUAGES", "deu+eng")
	t.Setenv("TOOL_TIMEOUT", "45s")
	t.Setenv("API_RESULT_LIMIT", "10")
	t.Setenv("API_MAX_RESULT_LIMIT", "50")

	cfg, err := config.LoadAPI()
	require.NoError(t, err)

	require.Equal(t, "/srv/library/files", cfg.FilesDir)
	require.Equal(t, "/srv/library/index.db", cfg.IndexPath)
	require.Equal(t, ":9090", cfg.BindAddr)
	require.Equal(t, 1500, cfg.ChunkSize)
	require.Equal(t, "deu+eng", cfg.OCRLanguages)
	require.Equal(t, 45*time.Second, cfg.ToolTimeout)
	require.Equal(t, 10, cfg.DefaultTop)
	require.Equal(t, 50, cfg.MaxTop)
}

func TestLoadAPIRejectsInvalidLimits(t *testing.T) {
	t.Setenv("API_RESULT_LIMIT", "200")
	t.Setenv("API_MAX_RESULT_LIMIT", "100")

	_, err := config.LoadAPI()
	require.Error(t, err)
}

func TestLoadPipelineRejectsInvalidChunkSize(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "-5")

	_, err := config.LoadIngest()
	require.Error(t, err)
}

func TestLoadIngestDefaults(t *testing.T) {
	t.Setenv("INGEST_WATCH_INTERVAL", "")
	t.Setenv("INGEST_SEEN_CAPACITY", "")
	t.Setenv("CHUNK_SIZE", "")

	cfg, err := config.LoadIngest()
	require.NoError(t, err)

	require.Equal(t, 30*time.Second, cfg.WatchInterval)
	require.Equal(t, 10000, cfg.SeenCapacity)
	require.Equal(t, 24*time.Hour, cfg.SeenTTL)
}

func TestLoadReindex(t *testing.T) {
	t.Setenv("REINDEX_INTERVAL", "")
	cfg, err := config.LoadReindex()
	require.NoError(t, err)
	require.Equal(t, time.Duration(0), cfg.Interval)

	t.Setenv("REINDEX_INTERVAL", "6h")
	cfg, err = config.LoadReindex()
	require.NoError(t, err)
	require.Equal(t, 6*time.Hour, cfg.Interval)
}
