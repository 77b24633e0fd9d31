package cuse

import (
	"context"
	"sync"

	"github.com/Aman-CERP/cuse/internal/store"
)

// Person is the domain type used across the tests.
type Person struct {
	ID     string
	Name   string
	Status string
}

// Company has its own strategy, used for index override tests.
type Company struct {
	ID   string
	Name string
}

func personStrategy() *TypedStrategy[*Person] {
	return NewStrategy("people",
		func(p *Person) string { return p.ID },
		func(p *Person) map[string]string {
			return map[string]string{"name": p.Name, "status": p.Status}
		},
	)
}

type indexCall struct {
	indexName string
	query     string
	opts      store.QueryOptions
}

// fakeIndex returns canned hits and records every call.
type fakeIndex struct {
	mu      sync.Mutex
	hits    []string
	err     error
	queries []indexCall
	written map[string][]*store.Document
	deleted map[string][]string
}

var _ store.Index = (*fakeIndex)(nil)

func newFakeIndex(hits ...string) *fakeIndex {
	return &fakeIndex{
		hits:    hits,
		written: make(map[string][]*store.Document),
		deleted: make(map[string][]string),
	}
}

func (f *fakeIndex) Write(_ context.Context, indexName string, docs []*store.Document) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.written[indexName] = append(f.written[indexName], docs...)
	return nil
}

func (f *fakeIndex) Delete(_ context.Context, indexName string, ids []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.deleted[indexName] = append(f.deleted[indexName], ids...)
	return nil
}

func (f *fakeIndex) Query(_ context.Context, indexName string, query string, opts store.QueryOptions) ([]*store.ScoredDocument, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, indexCall{indexName: indexName, query: query, opts: opts})
	if f.err != nil {
		return nil, f.err
	}
	out := make([]*store.ScoredDocument, 0, len(f.hits))
	for i, id := range f.hits {
		out = append(out, &store.ScoredDocument{ID: id, Score: float64(len(f.hits) - i)})
	}
	return out, nil
}

func (f *fakeIndex) Count(_ context.Context, indexName string) (int, error) {
	return len(f.written[indexName]), nil
}

func (f *fakeIndex) Indexes(_ context.Context) ([]string, error) {
	return nil, nil
}

func (f *fakeIndex) Close() error {
	return nil
}

func (f *fakeIndex) lastQuery() indexCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queries[len(f.queries)-1]
}

func (f *fakeIndex) queryCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

type loadCall struct {
	typ Type
	ids []string
}

// fakeLoader serves values from a map, in id order, skipping misses.
type fakeLoader struct {
	values map[string]any
	err    error
	calls  []loadCall
}

func (l *fakeLoader) LoadAll(_ context.Context, typ Type, ids []string) ([]any, error) {
	l.calls = append(l.calls, loadCall{typ: typ, ids: append([]string(nil), ids...)})
	if l.err != nil {
		return nil, l.err
	}
	out := make([]any, 0, len(ids))
	for _, id := range ids {
		if v, ok := l.values[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

// fakeFinder serves values from a map.
type fakeFinder struct {
	values map[string]any
	calls  int
}

func (f *fakeFinder) FindMatched(_ context.Context, _ Type, ids []string) (map[string]any, error) {
	f.calls++
	out := make(map[string]any)
	for _, id := range ids {
		if v, ok := f.values[id]; ok {
			out[id] = v
		}
	}
	return out, nil
}

func peopleByID(ids ...string) map[string]any {
	m := make(map[string]any, len(ids))
	for _, id := range ids {
		m[id] = &Person{ID: id, Name: "person " + id}
	}
	return m
}
