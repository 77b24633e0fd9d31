package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)
)

// SQLiteIndex implements Index using SQLite FTS5.
// All indexes share one database; every (index, document, field) triple is
// one FTS row so that field clauses can be matched independently.
type SQLiteIndex struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool
}

// Verify interface implementation at compile time
var _ Index = (*SQLiteIndex)(nil)

// validateSQLiteIntegrity checks if an existing database is usable.
// Returns nil if valid or absent, error describing corruption if not.
func validateSQLiteIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	db, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("cannot open for validation: %w", err)
	}
	defer db.Close()

	var result string
	if err := db.QueryRow("PRAGMA integrity_check").Scan(&result); err != nil {
		return fmt.Errorf("integrity check failed: %w", err)
	}
	if result != "ok" {
		return fmt.Errorf("database corrupted: %s", result)
	}

	var count int
	err = db.QueryRow(`SELECT COUNT(*) FROM sqlite_master
                       WHERE type='table' AND name='fts_fields'`).Scan(&count)
	if err != nil {
		return fmt.Errorf("cannot query schema: %w", err)
	}
	if count == 0 {
		return fmt.Errorf("FTS5 table 'fts_fields' missing")
	}

	return nil
}

// NewSQLiteIndex creates a SQLite FTS5 index at path.
// If path is empty, the database lives in memory.
func NewSQLiteIndex(path string) (*SQLiteIndex, error) {
	var dsn string
	if path == "" {
		dsn = ":memory:"
	} else {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}

		if validErr := validateSQLiteIntegrity(path); validErr != nil {
			slog.Warn("sqlite_index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))

			if removeErr := os.Remove(path); removeErr != nil && !os.IsNotExist(removeErr) {
				return nil, fmt.Errorf("index corrupted at %s and cannot remove: %w (original error: %v)", path, removeErr, validErr)
			}
			_ = os.Remove(path + "-wal")
			_ = os.Remove(path + "-shm")

			slog.Info("sqlite_index_cleared",
				slog.String("path", path),
				slog.String("reason", "corruption detected, documents must be registered again"))
		}

		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and serializes
	// writers, which FTS5 needs anyway.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	if path != "" {
		pragmas = append(pragmas, "PRAGMA journal_mode = WAL")
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	idx := &SQLiteIndex{db: db, path: path}
	if err := idx.initSchema(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return idx, nil
}

// initSchema creates the FTS5 virtual table and the document registry.
func (s *SQLiteIndex) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS schema_version (
		version INTEGER PRIMARY KEY
	);

	-- Only value is searchable; the other columns address the row.
	CREATE VIRTUAL TABLE IF NOT EXISTS fts_fields USING fts5(
		index_name UNINDEXED,
		doc_id UNINDEXED,
		field UNINDEXED,
		value,
		tokenize='unicode61'
	);

	CREATE TABLE IF NOT EXISTS documents (
		index_name TEXT NOT NULL,
		doc_id TEXT NOT NULL,
		PRIMARY KEY (index_name, doc_id)
	);

	INSERT OR IGNORE INTO schema_version (version) VALUES (1);
	`

	_, err := s.db.Exec(schema)
	return err
}

// Write adds or replaces documents inside one transaction.
func (s *SQLiteIndex) Write(ctx context.Context, indexName string, docs []*Document) error {
	if err := ValidateIndexName(indexName); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrIndexClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	// FTS5 virtual tables don't support REPLACE, so we delete first
	deleteStmt, err := tx.PrepareContext(ctx,
		`DELETE FROM fts_fields WHERE index_name = ? AND doc_id = ?`)
	if err != nil {
		return fmt.Errorf("failed to prepare delete statement: %w", err)
	}
	defer deleteStmt.Close()

	insertStmt, err := tx.PrepareContext(ctx,
		`INSERT INTO fts_fields(index_name, doc_id, field, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare FTS statement: %w", err)
	}
	defer insertStmt.Close()

	docStmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO documents(index_name, doc_id) VALUES (?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare document statement: %w", err)
	}
	defer docStmt.Close()

	for _, doc := range docs {
		if _, err := deleteStmt.ExecContext(ctx, indexName, doc.ID); err != nil {
			return fmt.Errorf("failed to delete existing document %s: %w", doc.ID, err)
		}

		fields := make([]string, 0, len(doc.Fields))
		for f := range doc.Fields {
			fields = append(fields, f)
		}
		sort.Strings(fields)

		for _, f := range fields {
			if _, err := insertStmt.ExecContext(ctx, indexName, doc.ID, f, doc.Fields[f]); err != nil {
				return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
			}
		}
		if _, err := docStmt.ExecContext(ctx, indexName, doc.ID); err != nil {
			return fmt.Errorf("failed to track document %s: %w", doc.ID, err)
		}
	}

	return tx.Commit()
}

// Delete removes documents from the named index.
func (s *SQLiteIndex) Delete(ctx context.Context, indexName string, ids []string) error {
	if err := ValidateIndexName(indexName); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrIndexClosed
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	placeholders := make([]string, len(ids))
	args := make([]any, 0, len(ids)+1)
	args = append(args, indexName)
	for i, id := range ids {
		placeholders[i] = "?"
		args = append(args, id)
	}
	inClause := strings.Join(placeholders, ",")

	ftsQuery := fmt.Sprintf("DELETE FROM fts_fields WHERE index_name = ? AND doc_id IN (%s)", inClause)
	if _, err := tx.ExecContext(ctx, ftsQuery, args...); err != nil {
		return fmt.Errorf("failed to delete from FTS: %w", err)
	}

	docQuery := fmt.Sprintf("DELETE FROM documents WHERE index_name = ? AND doc_id IN (%s)", inClause)
	if _, err := tx.ExecContext(ctx, docQuery, args...); err != nil {
		return fmt.Errorf("failed to delete from documents: %w", err)
	}

	return tx.Commit()
}

// Query runs every clause as its own FTS5 MATCH and keeps documents that
// satisfy all of them, ranked by the summed bm25 score.
func (s *SQLiteIndex) Query(ctx context.Context, indexName string, queryStr string, opts QueryOptions) ([]*ScoredDocument, error) {
	if err := ValidateIndexName(indexName); err != nil {
		return nil, err
	}
	limit, err := validateOptions(opts)
	if err != nil {
		return nil, err
	}
	parsed, err := ParseQuery(queryStr)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrIndexClosed
	}

	var scores map[string]float64
	for _, c := range parsed.Clauses {
		matched, err := s.matchClause(ctx, indexName, c)
		if err != nil {
			return nil, err
		}
		scores = intersectScores(scores, matched)
		if len(scores) == 0 {
			return []*ScoredDocument{}, nil
		}
	}

	hits := rankScores(scores, limit)
	if !opts.IDsOnly {
		for _, hit := range hits {
			fields, err := s.loadFields(ctx, indexName, hit.ID)
			if err != nil {
				return nil, err
			}
			hit.Fields = fields
		}
	}

	return hits, nil
}

// clauseSQL renders one clause as a plain MATCH. bm25() is only available
// in a non-aggregate query over the FTS table itself.
func clauseSQL(indexName string, c Clause) (string, []any) {
	sqlQuery := `SELECT doc_id, bm25(fts_fields) AS score
		FROM fts_fields
		WHERE fts_fields MATCH ? AND index_name = ?`
	args := []any{QuotePhrase(c.Value), indexName}
	if c.Field != "" {
		sqlQuery += " AND field = ?"
		args = append(args, c.Field)
	}
	return sqlQuery, args
}

// matchClause returns the documents matching c with their score. bm25() is
// negative with lower meaning better, so scores are negated; a bare term
// matching several fields of one document adds up.
func (s *SQLiteIndex) matchClause(ctx context.Context, indexName string, c Clause) (map[string]float64, error) {
	sqlQuery, args := clauseSQL(indexName, c)
	rows, err := s.db.QueryContext(ctx, sqlQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	matched := make(map[string]float64)
	for rows.Next() {
		var docID string
		var score float64
		if err := rows.Scan(&docID, &score); err != nil {
			return nil, fmt.Errorf("failed to scan result: %w", err)
		}
		matched[docID] += -score
	}
	return matched, rows.Err()
}

// intersectScores keeps the documents present in both sets and sums their
// scores. A nil acc means no clause has been applied yet.
func intersectScores(acc, next map[string]float64) map[string]float64 {
	if acc == nil {
		return next
	}
	out := make(map[string]float64, len(acc))
	for id, score := range acc {
		if other, ok := next[id]; ok {
			out[id] = score + other
		}
	}
	return out
}

// rankScores orders documents by score descending, ties by id, and keeps
// at most limit of them.
func rankScores(scores map[string]float64, limit int) []*ScoredDocument {
	hits := make([]*ScoredDocument, 0, len(scores))
	for id, score := range scores {
		hits = append(hits, &ScoredDocument{ID: id, Score: score})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].ID < hits[j].ID
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}
	return hits
}

// loadFields reads the stored fields of one document.
func (s *SQLiteIndex) loadFields(ctx context.Context, indexName, docID string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT field, value FROM fts_fields WHERE index_name = ? AND doc_id = ?`, indexName, docID)
	if err != nil {
		return nil, fmt.Errorf("failed to load fields of %s: %w", docID, err)
	}
	defer rows.Close()

	fields := make(map[string]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		fields[field] = value
	}
	return fields, rows.Err()
}

// Count returns the number of documents in the named index.
func (s *SQLiteIndex) Count(ctx context.Context, indexName string) (int, error) {
	if err := ValidateIndexName(indexName); err != nil {
		return 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return 0, ErrIndexClosed
	}

	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM documents WHERE index_name = ?`, indexName).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return count, nil
}

// Indexes lists the names of all non-empty indexes.
func (s *SQLiteIndex) Indexes(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrIndexClosed
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT DISTINCT index_name FROM documents ORDER BY index_name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list indexes: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan index name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// Close checkpoints the WAL and closes the database.
func (s *SQLiteIndex) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}

	s.closed = true
	if s.db != nil {
		if s.path != "" {
			_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
		}
		return s.db.Close()
	}
	return nil
}
