package loader

import (
	"context"

	"github.com/Aman-CERP/cuse/internal/store"
)

// stubIndex answers every query with fixed hits.
type stubIndex struct {
	hits []string
}

func (s *stubIndex) Write(context.Context, string, []*store.Document) error { return nil }
func (s *stubIndex) Delete(context.Context, string, []string) error          { return nil }
func (s *stubIndex) Count(context.Context, string) (int, error)              { return 0, nil }
func (s *stubIndex) Indexes(context.Context) ([]string, error)               { return nil, nil }
func (s *stubIndex) Close() error                                            { return nil }

func (s *stubIndex) Query(context.Context, string, string, store.QueryOptions) ([]*store.ScoredDocument, error) {
	out := make([]*store.ScoredDocument, len(s.hits))
	for i, id := range s.hits {
		out[i] = &store.ScoredDocument{ID: id}
	}
	return out, nil
}
