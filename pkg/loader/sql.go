package loader

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// sqlBatchSize stays under SQLite's default bound-parameter limit.
const sqlBatchSize = 500

// SQL builds a Func from a batch query. query must contain one %s verb,
// replaced by the placeholder list of an IN clause, e.g.
//
//	SELECT id, name FROM people WHERE id IN (%s)
//
// scan reads one row and returns its id and value. Ids with no row are
// left out. leading args bind placeholders that appear before the IN clause.
func SQL[T any](db *sql.DB, query string, scan func(rows *sql.Rows) (string, T, error), leading ...any) Func[T] {
	return func(ctx context.Context, ids []string) (map[string]T, error) {
		found := make(map[string]T, len(ids))

		for start := 0; start < len(ids); start += sqlBatchSize {
			end := start + sqlBatchSize
			if end > len(ids) {
				end = len(ids)
			}
			if err := sqlBatch(ctx, db, query, leading, ids[start:end], scan, found); err != nil {
				return nil, err
			}
		}

		return found, nil
	}
}

func sqlBatch[T any](ctx context.Context, db *sql.DB, query string, leading []any, ids []string,
	scan func(rows *sql.Rows) (string, T, error), found map[string]T) error {

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")
	args := make([]any, 0, len(leading)+len(ids))
	args = append(args, leading...)
	for _, id := range ids {
		args = append(args, id)
	}

	rows, err := db.QueryContext(ctx, fmt.Sprintf(query, placeholders), args...)
	if err != nil {
		return fmt.Errorf("load entities: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		id, v, err := scan(rows)
		if err != nil {
			return fmt.Errorf("scan entity: %w", err)
		}
		found[id] = v
	}
	return rows.Err()
}
