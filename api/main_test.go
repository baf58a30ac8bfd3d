package main

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"weblibrary/internal/models"
	"weblibrary/internal/store"
)

func TestClampInt(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		fallback int
		max      int
		want     int
	}{
		{name: "empty uses fallback", raw: "", fallback: 20, max: 100, want: 20},
		{name: "garbage uses fallback", raw: "abc", fallback: 20, max: 100, want: 20},
		{name: "zero uses fallback", raw: "0", fallback: 20, max: 100, want: 20},
		{name: "negative uses fallback", raw: "-5", fallback: 20, max: 100, want: 20},
		{name: "in range passes through", raw: "42", fallback: 20, max: 100, want: 42},
		{name: "above max is capped", raw: "500", fallback: 20, max: 100, want: 100},
		{name: "whitespace trimmed", raw: " 7 ", fallback: 20, max: 100, want: 7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, clampInt(tt.raw, tt.fallback, tt.max))
		})
	}
}

func TestHandleDocumentsListsAndFilters(t *testing.T) {
	st := store.New(t.TempDir(), nil)
	for _, rec := range []models.DocumentRecord{
		{SchemaVersion: models.SchemaVersion, ID: models.NewID(), Title: "acta-2024", Category: "legal", DocType: "acta"},
		{SchemaVersion: models.SchemaVersion, ID: models.NewID(), Title: "informe-q1", Category: "estudios", DocType: "informe"},
		{SchemaVersion: models.SchemaVersion, ID: models.NewID(), Title: "reglamento-interno", Category: "legal", DocType: "reglamento"},
	} {
		require.NoError(t, st.Save(&rec))
	}
	srv := &server{
		log:   slog.New(slog.NewTextHandler(io.Discard, nil)),
		store: st,
	}

	list := func(t *testing.T, url string) []models.DocumentRecord {
		t.Helper()
		rec := httptest.NewRecorder()
		srv.handleDocuments(rec, httptest.NewRequest("GET", url, nil))
		require.Equal(t, 200, rec.Code)

		var out []models.DocumentRecord
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
		return out
	}

	titles := func(records []models.DocumentRecord) []string {
		out := make([]string, len(records))
		for i, r := range records {
			out[i] = r.Title
		}
		return out
	}

	t.Run("no filter returns all sorted by title", func(t *testing.T) {
		got := list(t, "/documents")
		require.Equal(t, []string{"acta-2024", "informe-q1", "reglamento-interno"}, titles(got))
	})

	t.Run("category filter", func(t *testing.T) {
		got := list(t, "/documents?category=legal")
		require.Equal(t, []string{"acta-2024", "reglamento-interno"}, titles(got))
	})

	t.Run("category filter is case-insensitive", func(t *testing.T) {
		got := list(t, "/documents?category=LEGAL")
		require.Len(t, got, 2)
	})

	t.Run("type filter", func(t *testing.T) {
		got := list(t, "/documents?type=informe")
		require.Equal(t, []string{"informe-q1"}, titles(got))
	})

	t.Run("combined filters", func(t *testing.T) {
		got := list(t, "/documents?category=legal&type=acta")
		require.Equal(t, []string{"acta-2024"}, titles(got))
	})

	t.Run("no match yields empty list", func(t *testing.T) {
		got := list(t, "/documents?category=inexistente")
		require.Empty(t, got)
	})
}

func TestWriteJSON(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, 400, errorResponse{Error: "bad query"})

	require.Equal(t, 400, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))
	require.JSONEq(t, `{"error":"bad query"}`, rec.Body.String())
}
