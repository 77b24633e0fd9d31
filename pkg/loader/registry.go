package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/Aman-CERP/cuse/pkg/cuse"
)

// ErrNotFound is returned by single-id fetch functions for a missing id.
var ErrNotFound = errors.New("entity not found")

// ErrNoLoader is returned when no Func is registered for a type.
var ErrNoLoader = errors.New("no loader registered for type")

// Func resolves ids to values of type T. Ids that do not exist are left
// out of the returned map.
type Func[T any] func(ctx context.Context, ids []string) (map[string]T, error)

type anyFunc func(ctx context.Context, ids []string) (map[string]any, error)

// Registry holds one Func per type.
type Registry struct {
	mu    sync.RWMutex
	funcs map[cuse.Type]anyFunc
}

// Ensure Registry implements both hydration interfaces.
var (
	_ cuse.EntityLoader          = (*Registry)(nil)
	_ cuse.MatchedIdObjectFinder = (*Registry)(nil)
)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{funcs: make(map[cuse.Type]anyFunc)}
}

// Register installs fn as the loader for T, replacing any previous one.
func Register[T any](r *Registry, fn Func[T]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[cuse.TypeOf[T]()] = func(ctx context.Context, ids []string) (map[string]any, error) {
		found, err := fn(ctx, ids)
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(found))
		for id, v := range found {
			out[id] = v
		}
		return out, nil
	}
}

// FindMatched resolves ids with the Func registered for typ.
func (r *Registry) FindMatched(ctx context.Context, typ cuse.Type, ids []string) (map[string]any, error) {
	r.mu.RLock()
	fn, ok := r.funcs[typ]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNoLoader, typ)
	}
	return fn(ctx, ids)
}

// LoadAll resolves ids and returns the values in id order, skipping misses.
func (r *Registry) LoadAll(ctx context.Context, typ cuse.Type, ids []string) ([]any, error) {
	return Ordered(r).LoadAll(ctx, typ, ids)
}

// orderedLoader adapts a finder into an EntityLoader.
type orderedLoader struct {
	finder cuse.MatchedIdObjectFinder
}

// Ordered returns an EntityLoader that resolves ids through finder and
// returns the values in id order. Ids the finder did not return are skipped.
func Ordered(finder cuse.MatchedIdObjectFinder) cuse.EntityLoader {
	return orderedLoader{finder: finder}
}

func (o orderedLoader) LoadAll(ctx context.Context, typ cuse.Type, ids []string) ([]any, error) {
	found, err := o.finder.FindMatched(ctx, typ, ids)
	if err != nil {
		return nil, err
	}
	return inOrder(ids, found), nil
}

// inOrder lists found values in ids order, skipping misses.
func inOrder[T any](ids []string, found map[string]T) []T {
	out := make([]T, 0, len(found))
	for _, id := range ids {
		if v, ok := found[id]; ok {
			out = append(out, v)
		}
	}
	return out
}
