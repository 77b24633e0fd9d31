package cmd

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/Aman-CERP/cuse/pkg/loader"
)

// recordsFile is the record database file name inside the data dir.
const recordsFile = "records.db"

// Record is the value the CLI stores and searches: an id and its fields,
// kept per index.
type Record struct {
	Index  string            `json:"index"`
	ID     string            `json:"id"`
	Fields map[string]string `json:"fields"`
}

// recordStore persists records in SQLite. The index holds only what is
// needed to match; search results are hydrated from here.
type recordStore struct {
	db *sql.DB
}

func openRecordStore(path string) (*recordStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory for %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open record database: %w", err)
	}
	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		`CREATE TABLE IF NOT EXISTS records (
			index_name TEXT NOT NULL,
			id TEXT NOT NULL,
			fields TEXT NOT NULL,
			PRIMARY KEY (index_name, id)
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to initialize record database: %w", err)
		}
	}

	return &recordStore{db: db}, nil
}

// Put inserts or replaces records.
func (s *recordStore) Put(ctx context.Context, records []Record) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, r := range records {
		fields, err := json.Marshal(r.Fields)
		if err != nil {
			return fmt.Errorf("failed to encode fields of %s: %w", r.ID, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO records (index_name, id, fields) VALUES (?, ?, ?)`,
			r.Index, r.ID, string(fields)); err != nil {
			return fmt.Errorf("failed to store record %s: %w", r.ID, err)
		}
	}

	return tx.Commit()
}

// Delete removes records by id and returns how many existed.
func (s *recordStore) Delete(ctx context.Context, index string, ids []string) (int, error) {
	removed := 0
	for _, id := range ids {
		res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE index_name = ? AND id = ?`, index, id)
		if err != nil {
			return removed, fmt.Errorf("failed to delete record %s: %w", id, err)
		}
		n, _ := res.RowsAffected()
		removed += int(n)
	}
	return removed, nil
}

// Get returns one record or loader.ErrNotFound.
func (s *recordStore) Get(ctx context.Context, index, id string) (Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, fields FROM records WHERE index_name = ? AND id = ?`, index, id)

	var raw string
	r := Record{Index: index}
	if err := row.Scan(&r.ID, &raw); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, loader.ErrNotFound
		}
		return Record{}, fmt.Errorf("failed to read record %s: %w", id, err)
	}
	if err := json.Unmarshal([]byte(raw), &r.Fields); err != nil {
		return Record{}, fmt.Errorf("failed to decode record %s: %w", id, err)
	}
	return r, nil
}

// batchLoader loads records of one index in id batches.
func (s *recordStore) batchLoader(index string) loader.Func[Record] {
	return loader.SQL(s.db,
		`SELECT id, fields FROM records WHERE index_name = ? AND id IN (%s)`,
		func(rows *sql.Rows) (string, Record, error) {
			var raw string
			r := Record{Index: index}
			if err := rows.Scan(&r.ID, &raw); err != nil {
				return "", Record{}, err
			}
			if err := json.Unmarshal([]byte(raw), &r.Fields); err != nil {
				return "", Record{}, fmt.Errorf("decode record %s: %w", r.ID, err)
			}
			return r.ID, r, nil
		},
		index)
}

// perIDLoader loads records of one index with one query per id, up to
// workers at once.
func (s *recordStore) perIDLoader(index string, workers int) loader.Func[Record] {
	return loader.PerID(func(ctx context.Context, id string) (Record, error) {
		return s.Get(ctx, index, id)
	}, workers)
}

func (s *recordStore) Close() error {
	return s.db.Close()
}
