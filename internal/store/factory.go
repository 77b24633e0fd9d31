package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// Backend represents the index backend type.
type Backend string

const (
	// BackendSQLite uses SQLite FTS5 (default).
	// WAL mode allows several processes to read and write the same data dir.
	BackendSQLite Backend = "sqlite"

	// BackendBleve uses Bleve v2, one bleve index per index name.
	// Holds an exclusive lock on the data dir - single process only.
	BackendBleve Backend = "bleve"
)

// NewIndexWithBackend creates an Index rooted at dataDir using the given
// backend ("sqlite" when empty). An empty dataDir keeps everything in memory.
func NewIndexWithBackend(dataDir string, backend string) (Index, error) {
	switch backend {
	case string(BackendSQLite), "":
		var path string
		if dataDir != "" {
			path = filepath.Join(dataDir, "index.db")
		}
		return NewSQLiteIndex(path)

	case string(BackendBleve):
		return NewBleveIndex(dataDir)

	default:
		return nil, fmt.Errorf("unknown index backend: %s (valid options: sqlite, bleve)", backend)
	}
}

// DetectBackend detects which backend an existing data dir uses.
// Returns an empty string if no index exists there.
func DetectBackend(dataDir string) Backend {
	if info, err := os.Stat(filepath.Join(dataDir, "index.db")); err == nil && !info.IsDir() {
		return BackendSQLite
	}

	matches, _ := filepath.Glob(filepath.Join(dataDir, "*"+bleveIndexSuffix))
	for _, m := range matches {
		if info, err := os.Stat(m); err == nil && info.IsDir() {
			return BackendBleve
		}
	}

	return ""
}
