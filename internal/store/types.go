// Package store provides the document index that cuse searches against.
// Two backends implement Index: Bleve (one bleve index per index name) and
// SQLite FTS5 (one shared database, rows partitioned by index name).
package store

import (
	"context"
	"errors"
	"fmt"
	"regexp"
)

// DefaultLimit is the number of hits a query returns when no limit is given.
const DefaultLimit = 20

// ErrIndexClosed is returned by any operation on a closed index.
var ErrIndexClosed = errors.New("index is closed")

// ErrInvalidIndexName is returned when an index name cannot be used as a
// storage key (empty, or contains characters other than letters, digits,
// '_', '-' and '.').
var ErrInvalidIndexName = errors.New("invalid index name")

// ErrUnknownConsistency is returned for a Consistency value no backend knows.
var ErrUnknownConsistency = errors.New("unknown consistency")

// Consistency selects the read guarantee of a query.
type Consistency int

const (
	// ConsistencyPerDocument guarantees every returned document reflects its
	// latest write.
	ConsistencyPerDocument Consistency = iota
	// ConsistencyGlobal allows reads to lag behind recent writes.
	ConsistencyGlobal
)

// String returns the consistency name.
func (c Consistency) String() string {
	switch c {
	case ConsistencyPerDocument:
		return "per_document"
	case ConsistencyGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Document is a unit stored in an index: an identifier and its text fields.
type Document struct {
	ID     string
	Fields map[string]string
}

// ScoredDocument is a single query hit.
// Fields is only populated when the query did not ask for ids only.
type ScoredDocument struct {
	ID     string
	Score  float64
	Fields map[string]string
}

// QueryOptions controls how a query executes.
type QueryOptions struct {
	// IDsOnly skips loading stored fields for each hit.
	IDsOnly bool

	// Limit caps the number of hits. Zero means DefaultLimit.
	Limit int

	// Consistency is the read guarantee requested.
	Consistency Consistency
}

// Index is the document store/search service.
//
// Implementations must be safe for concurrent use and must return hits in
// descending relevance order, ties broken by document id.
type Index interface {
	// Write adds or replaces documents in the named index.
	Write(ctx context.Context, indexName string, docs []*Document) error

	// Delete removes documents by id. Unknown ids are ignored.
	Delete(ctx context.Context, indexName string, ids []string) error

	// Query runs a query string (see ParseQuery) against the named index.
	// An index that was never written returns no hits.
	Query(ctx context.Context, indexName string, query string, opts QueryOptions) ([]*ScoredDocument, error)

	// Count returns the number of documents in the named index.
	Count(ctx context.Context, indexName string) (int, error)

	// Indexes lists the names of all non-empty indexes, sorted.
	Indexes(ctx context.Context) ([]string, error)

	// Close releases resources. Safe to call more than once.
	Close() error
}

var indexNamePattern = regexp.MustCompile(`^[A-Za-z0-9_.-]+$`)

// ValidateIndexName reports whether name can be used as an index name.
func ValidateIndexName(name string) error {
	if !indexNamePattern.MatchString(name) || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidIndexName, name)
	}
	return nil
}

// validateOptions checks opts and returns the effective limit.
func validateOptions(opts QueryOptions) (int, error) {
	switch opts.Consistency {
	case ConsistencyPerDocument, ConsistencyGlobal:
	default:
		return 0, ErrUnknownConsistency
	}
	if opts.Limit <= 0 {
		return DefaultLimit, nil
	}
	return opts.Limit, nil
}
