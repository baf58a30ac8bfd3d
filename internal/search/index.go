// Package search maintains the chunk-level inverted index and answers
// ranked free-text queries. The index is a single SQLite FTS5 table on local
// disk: one row per chunk, matched on the title, keywords and text columns
// and carrying the display fields unindexed so hits need no join against the
// record store.
package search

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // register pure-Go SQLite driver

	"weblibrary/internal/models"
	"weblibrary/internal/store"
)

// ErrQuerySyntax reports a query the engine rejected even after the
// literal-phrase retry. Distinct from an empty result set.
var ErrQuerySyntax = errors.New("invalid query syntax")

// Field weights applied by the bm25 ranking, in declared column order
// (title, keywords, text).
const (
	titleWeight    = 2.2
	keywordsWeight = 1.5
	textWeight     = 1.0
)

const excerptLen = 200

const createTableSQL = `CREATE VIRTUAL TABLE IF NOT EXISTS chunks USING fts5(
	title, keywords, text,
	doc_key UNINDEXED, pdf_url UNINDEXED, json_url UNINDEXED, thumb_url UNINDEXED,
	category UNINDEXED, doc_type UNINDEXED, page_start UNINDEXED, page_end UNINDEXED,
	date_unix UNINDEXED,
	tokenize = 'unicode61 remove_diacritics 2'
)`

// RecordSource lists the persisted document records a full rebuild reads.
type RecordSource interface {
	List() ([]models.DocumentRecord, error)
}

// Index wraps the on-disk FTS5 table. Exactly one writer (Rebuild or
// Upsert) holds the mutation lock at a time; readers run ordinary read
// transactions against the WAL and see either the pre- or post-commit
// state, never a partial one.
type Index struct {
	path   string
	source RecordSource
	log    *slog.Logger

	mu sync.Mutex // writer lock

	openOnce sync.Once
	db       *sql.DB
	openErr  error
}

// New builds an Index stored at path, rebuilding from source on demand.
func New(path string, source RecordSource, log *slog.Logger) *Index {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Index{path: path, source: source, log: log}
}

func (i *Index) open() (*sql.DB, error) {
	i.openOnce.Do(func() {
		if err := os.MkdirAll(filepath.Dir(i.path), 0o755); err != nil {
			i.openErr = fmt.Errorf("create index dir: %w", err)
			return
		}

		db, err := sql.Open("sqlite", i.path)
		if err != nil {
			i.openErr = fmt.Errorf("open index: %w", err)
			return
		}
		if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000;`); err != nil {
			i.openErr = fmt.Errorf("configure index: %w", err)
			return
		}
		i.db = db
	})
	return i.db, i.openErr
}

// Close releases the underlying database handle.
func (i *Index) Close() error {
	if i.db != nil {
		return i.db.Close()
	}
	return nil
}

// Rebuild drops the index and re-adds every chunk of every persisted
// record in one transaction. Records the store could not parse were already
// skipped during listing, so a corrupt file never fails the rebuild.
func (i *Index) Rebuild(ctx context.Context) error {
	records, err := i.source.List()
	if err != nil {
		return fmt.Errorf("list records: %w", err)
	}

	db, err := i.open()
	if err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin rebuild: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DROP TABLE IF EXISTS chunks"); err != nil {
		return fmt.Errorf("drop index table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create index table: %w", err)
	}

	total := 0
	for idx := range records {
		n, err := insertRecord(ctx, tx, &records[idx])
		if err != nil {
			return fmt.Errorf("index record %q: %w", records[idx].Title, err)
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit rebuild: %w", err)
	}

	i.log.Info("index rebuilt", slog.Int("documents", len(records)), slog.Int("chunks", total))
	return nil
}

// Upsert replaces every index entry for the record's docKey with the
// record's current chunks, atomically with respect to other writers.
func (i *Index) Upsert(ctx context.Context, rec *models.DocumentRecord) error {
	db, err := i.open()
	if err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, createTableSQL); err != nil {
		return fmt.Errorf("create index table: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM chunks WHERE doc_key = ?", docKey(rec)); err != nil {
		return fmt.Errorf("delete stale entries: %w", err)
	}
	if _, err := insertRecord(ctx, tx, rec); err != nil {
		return fmt.Errorf("index record %q: %w", rec.Title, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert: %w", err)
	}
	return nil
}

// Search runs a free-text query and returns up to top ranked hits with
// excerpts. A blank query returns an empty list without touching the query
// engine. A missing index triggers one implicit rebuild. Malformed query
// syntax is retried once with the raw query treated as a literal phrase.
func (i *Index) Search(ctx context.Context, query string, top int) ([]models.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.SearchResult{}, nil
	}
	if top <= 0 {
		top = 20
	}

	db, err := i.open()
	if err != nil {
		return nil, err
	}

	ready, err := i.tableExists(ctx, db)
	if err != nil {
		return nil, err
	}
	if !ready {
		if err := i.Rebuild(ctx); err != nil {
			return nil, err
		}
		if ready, err = i.tableExists(ctx, db); err != nil || !ready {
			return []models.SearchResult{}, err
		}
	}

	results, err := i.runQuery(ctx, db, orQuery(query), query, top)
	if err != nil {
		if !syntaxError(err) {
			return nil, fmt.Errorf("run query: %w", err)
		}
		// The raw string did not parse as query syntax; retry it as an
		// escaped literal phrase before giving up.
		results, err = i.runQuery(ctx, db, literalQuery(query), query, top)
		if err != nil {
			if !syntaxError(err) {
				return nil, fmt.Errorf("run query: %w", err)
			}
			return nil, fmt.Errorf("%w: %q", ErrQuerySyntax, query)
		}
	}
	return results, nil
}

// syntaxError reports whether a query failure came from the FTS5 match
// parser, as opposed to cancellation or storage trouble. Only parse
// failures earn the literal-phrase retry and the ErrQuerySyntax wrap.
func syntaxError(err error) bool {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	msg := err.Error()
	// An unbalanced quote is reported without the fts5 prefix.
	return strings.Contains(msg, "fts5") || strings.Contains(msg, "unterminated string")
}

func (i *Index) runQuery(ctx context.Context, db *sql.DB, match, rawQuery string, top int) ([]models.SearchResult, error) {
	rows, err := db.QueryContext(ctx, fmt.Sprintf(`
		SELECT title, pdf_url, json_url, thumb_url, category, doc_type,
		       page_start, page_end, date_unix, text,
		       bm25(chunks, %g, %g, %g) AS rank
		FROM chunks
		WHERE chunks MATCH ?
		ORDER BY rank
		LIMIT ?`, titleWeight, keywordsWeight, textWeight),
		match, top,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	results := make([]models.SearchResult, 0, top)
	for rows.Next() {
		var (
			res      models.SearchResult
			text     string
			dateUnix int64
			rank     float64
		)
		if err := rows.Scan(&res.Title, &res.PdfURL, &res.JSONURL, &res.ThumbURL,
			&res.Category, &res.DocType, &res.PageStart, &res.PageEnd,
			&dateUnix, &text, &rank); err != nil {
			return nil, fmt.Errorf("scan hit: %w", err)
		}

		// bm25 reports better matches as more negative values.
		res.Score = -rank
		if dateUnix > 0 {
			d := time.Unix(dateUnix, 0).UTC()
			res.Date = &d
		}
		res.Excerpt = buildExcerpt(text, rawQuery, excerptLen)
		results = append(results, res)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func (i *Index) tableExists(ctx context.Context, db *sql.DB) (bool, error) {
	var name string
	err := db.QueryRowContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name = 'chunks'`).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("probe index table: %w", err)
	}
	return true, nil
}

func insertRecord(ctx context.Context, tx *sql.Tx, rec *models.DocumentRecord) (int, error) {
	globalKw := strings.Join(rec.GlobalKeywords, " ")

	var dateUnix int64
	if rec.Meta.DetectedDate != nil {
		dateUnix = rec.Meta.DetectedDate.UTC().Unix()
	}

	key := docKey(rec)
	for _, ch := range rec.Chunks {
		keywords := strings.TrimSpace(strings.Join(ch.Keywords, " ") + " " + globalKw)
		_, err := tx.ExecContext(ctx, `
			INSERT INTO chunks(title, keywords, text,
				doc_key, pdf_url, json_url, thumb_url,
				category, doc_type, page_start, page_end, date_unix)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			rec.Title, keywords, ch.Text,
			key, rec.Source, store.JSONURL(key), rec.ThumbURL,
			rec.Category, rec.DocType, ch.PageStart, ch.PageEnd, dateUnix,
		)
		if err != nil {
			return 0, err
		}
	}
	return len(rec.Chunks), nil
}

// docKey groups all entries of one document for replace-on-upsert. It is
// the source filename stem, which is also the record's title.
func docKey(rec *models.DocumentRecord) string {
	return rec.Title
}

// orQuery turns whitespace-separated terms into an OR-combined FTS match
// expression, mirroring an OR-default query parser. Terms carrying engine
// syntax pass through untouched.
func orQuery(query string) string {
	return strings.Join(strings.Fields(query), " OR ")
}

// literalQuery escapes the raw query as one quoted phrase.
func literalQuery(query string) string {
	return `"` + strings.ReplaceAll(query, `"`, `""`) + `"`
}
