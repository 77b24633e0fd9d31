package loader

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the default fetch parallelism of PerID.
const DefaultWorkers = 8

// PerID builds a Func from a single-id fetch, running up to workers fetches
// at once. A fetch returning ErrNotFound leaves its id out; any other error
// cancels the remaining fetches and is returned.
func PerID[T any](fetch func(ctx context.Context, id string) (T, error), workers int) Func[T] {
	if workers <= 0 {
		workers = DefaultWorkers
	}

	return func(ctx context.Context, ids []string) (map[string]T, error) {
		found := make(map[string]T, len(ids))
		var mu sync.Mutex

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)

		for _, id := range ids {
			id := id
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				v, err := fetch(gctx, id)
				if errors.Is(err, ErrNotFound) {
					return nil
				}
				if err != nil {
					return err
				}

				mu.Lock()
				found[id] = v
				mu.Unlock()
				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return nil, err
		}
		return found, nil
	}
}
