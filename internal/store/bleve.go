package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/search/query"
)

const bleveIndexSuffix = ".bleve"

// BleveIndex implements Index with one Bleve v2 index per index name.
// With an empty data directory every index lives in memory.
type BleveIndex struct {
	mu      sync.RWMutex
	dataDir string
	indexes map[string]bleve.Index
	lock    *DirLock
	closed  bool
}

// Verify interface implementation at compile time
var _ Index = (*BleveIndex)(nil)

// NewBleveIndex creates a Bleve-backed index rooted at dataDir.
// If dataDir is empty, indexes are kept in memory.
func NewBleveIndex(dataDir string) (*BleveIndex, error) {
	b := &BleveIndex{
		dataDir: dataDir,
		indexes: make(map[string]bleve.Index),
	}

	if dataDir != "" {
		if err := os.MkdirAll(dataDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dataDir, err)
		}
		b.lock = NewDirLock(dataDir)
		if err := b.lock.TryLock(); err != nil {
			return nil, err
		}
	}

	return b, nil
}

// validateIndexIntegrity checks if a Bleve index is valid before opening.
// Returns nil if valid or absent, error describing corruption if not.
func validateIndexIntegrity(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing (corrupted index)")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty (corrupted)")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}

	return nil
}

// isCorruptionError checks if an error indicates Bleve index corruption.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	errStr := err.Error()
	return strings.Contains(errStr, "unexpected end of JSON") ||
		strings.Contains(errStr, "error parsing mapping JSON") ||
		strings.Contains(errStr, "failed to load segment") ||
		strings.Contains(errStr, "error opening bolt") ||
		err == bleve.ErrorIndexMetaCorrupt
}

// indexPath returns the on-disk location of a named index.
func (b *BleveIndex) indexPath(name string) string {
	return filepath.Join(b.dataDir, name+bleveIndexSuffix)
}

// open returns the named bleve index, opening or creating it when create is
// true. Returns nil, nil for an index that does not exist and create is false.
// Callers must hold b.mu for writing.
func (b *BleveIndex) open(name string, create bool) (bleve.Index, error) {
	if idx, ok := b.indexes[name]; ok {
		return idx, nil
	}

	if b.dataDir == "" {
		if !create {
			return nil, nil
		}
		idx, err := bleve.NewMemOnly(bleve.NewIndexMapping())
		if err != nil {
			return nil, fmt.Errorf("failed to create index %s: %w", name, err)
		}
		b.indexes[name] = idx
		return idx, nil
	}

	path := b.indexPath(name)
	if validErr := validateIndexIntegrity(path); validErr != nil {
		slog.Warn("bleve_index_corrupted",
			slog.String("index", name),
			slog.String("path", path),
			slog.String("error", validErr.Error()))

		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, fmt.Errorf("index %s corrupted and cannot remove: %w (original error: %v)", name, removeErr, validErr)
		}
	}

	idx, err := bleve.Open(path)
	if err == bleve.ErrorIndexPathDoesNotExist {
		if !create {
			return nil, nil
		}
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	} else if err != nil && isCorruptionError(err) {
		slog.Warn("bleve_index_open_failed",
			slog.String("index", name),
			slog.String("error", err.Error()))

		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, fmt.Errorf("index %s corrupted, cannot clear: %w (original: %v)", name, removeErr, err)
		}
		if !create {
			return nil, nil
		}
		idx, err = bleve.New(path, bleve.NewIndexMapping())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create/open index %s: %w", name, err)
	}

	b.indexes[name] = idx
	return idx, nil
}

// lookup returns an already-open index or opens an existing one.
func (b *BleveIndex) lookup(name string) (bleve.Index, error) {
	b.mu.RLock()
	idx, ok := b.indexes[name]
	closed := b.closed
	b.mu.RUnlock()

	if closed {
		return nil, ErrIndexClosed
	}
	if ok {
		return idx, nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, ErrIndexClosed
	}
	return b.open(name, false)
}

// Write adds or replaces documents. The batch is committed before Write
// returns, so subsequent queries see every document.
func (b *BleveIndex) Write(ctx context.Context, indexName string, docs []*Document) error {
	if err := ValidateIndexName(indexName); err != nil {
		return err
	}
	if len(docs) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return ErrIndexClosed
	}

	idx, err := b.open(indexName, true)
	if err != nil {
		return err
	}

	batch := idx.NewBatch()
	for _, doc := range docs {
		fields := make(map[string]interface{}, len(doc.Fields))
		for k, v := range doc.Fields {
			fields[k] = v
		}
		if err := batch.Index(doc.ID, fields); err != nil {
			return fmt.Errorf("failed to index document %s: %w", doc.ID, err)
		}
	}

	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to execute batch: %w", err)
	}

	return nil
}

// Delete removes documents from the named index.
func (b *BleveIndex) Delete(ctx context.Context, indexName string, ids []string) error {
	if err := ValidateIndexName(indexName); err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}

	idx, err := b.lookup(indexName)
	if err != nil || idx == nil {
		return err
	}

	batch := idx.NewBatch()
	for _, id := range ids {
		batch.Delete(id)
	}

	if err := idx.Batch(batch); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}

	return nil
}

// Query runs a parsed query as a conjunction of match queries.
func (b *BleveIndex) Query(ctx context.Context, indexName string, queryStr string, opts QueryOptions) ([]*ScoredDocument, error) {
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

	idx, err := b.lookup(indexName)
	if err != nil {
		return nil, err
	}
	if idx == nil {
		return []*ScoredDocument{}, nil
	}

	req := bleve.NewSearchRequest(buildBleveQuery(parsed))
	req.Size = limit
	req.SortBy([]string{"-_score", "_id"})
	if !opts.IDsOnly {
		req.Fields = []string{"*"}
	}

	result, err := idx.SearchInContext(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	hits := make([]*ScoredDocument, 0, len(result.Hits))
	for _, hit := range result.Hits {
		doc := &ScoredDocument{ID: hit.ID, Score: hit.Score}
		if !opts.IDsOnly {
			doc.Fields = make(map[string]string, len(hit.Fields))
			for k, v := range hit.Fields {
				doc.Fields[k] = fmt.Sprint(v)
			}
		}
		hits = append(hits, doc)
	}

	return hits, nil
}

// buildBleveQuery translates parsed clauses into a bleve conjunction.
func buildBleveQuery(q *Query) query.Query {
	parts := make([]query.Query, 0, len(q.Clauses))
	for _, c := range q.Clauses {
		if c.Phrase {
			pq := bleve.NewMatchPhraseQuery(c.Value)
			if c.Field != "" {
				pq.SetField(c.Field)
			}
			parts = append(parts, pq)
			continue
		}
		mq := bleve.NewMatchQuery(c.Value)
		mq.SetOperator(query.MatchQueryOperatorAnd)
		if c.Field != "" {
			mq.SetField(c.Field)
		}
		parts = append(parts, mq)
	}
	return bleve.NewConjunctionQuery(parts...)
}

// Count returns the number of documents in the named index.
func (b *BleveIndex) Count(ctx context.Context, indexName string) (int, error) {
	if err := ValidateIndexName(indexName); err != nil {
		return 0, err
	}
	idx, err := b.lookup(indexName)
	if err != nil || idx == nil {
		return 0, err
	}

	n, err := idx.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to count documents: %w", err)
	}
	return int(n), nil
}

// Indexes lists non-empty indexes, including ones on disk not yet opened.
func (b *BleveIndex) Indexes(ctx context.Context) ([]string, error) {
	b.mu.RLock()
	if b.closed {
		b.mu.RUnlock()
		return nil, ErrIndexClosed
	}
	seen := make(map[string]struct{}, len(b.indexes))
	for name := range b.indexes {
		seen[name] = struct{}{}
	}
	b.mu.RUnlock()

	if b.dataDir != "" {
		entries, err := os.ReadDir(b.dataDir)
		if err != nil {
			return nil, fmt.Errorf("failed to list indexes: %w", err)
		}
		for _, e := range entries {
			if e.IsDir() && strings.HasSuffix(e.Name(), bleveIndexSuffix) {
				seen[strings.TrimSuffix(e.Name(), bleveIndexSuffix)] = struct{}{}
			}
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		n, err := b.Count(ctx, name)
		if err != nil {
			return nil, err
		}
		if n > 0 {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// Close closes every open index and releases the directory lock.
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return nil
	}
	b.closed = true

	var firstErr error
	for name, idx := range b.indexes {
		if err := idx.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to close index %s: %w", name, err)
		}
	}
	b.indexes = nil

	if b.lock != nil {
		if err := b.lock.Unlock(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
