package cuse

import (
	"context"
	"log/slog"
	"strings"
	"time"

	cerrors "github.com/Aman-CERP/cuse/internal/errors"
	"github.com/Aman-CERP/cuse/internal/store"
)

// MaxSearchLimit is the largest limit a search may request.
const MaxSearchLimit = 1000

// filterSet is an insertion-ordered field → matcher map.
type filterSet struct {
	fields   []string
	matchers map[string]SearchMatcher
}

func (f *filterSet) set(field string, m SearchMatcher) {
	if f.matchers == nil {
		f.matchers = make(map[string]SearchMatcher)
	}
	if _, ok := f.matchers[field]; !ok {
		f.fields = append(f.fields, field)
	}
	f.matchers[field] = m
}

func (f filterSet) clone() filterSet {
	c := filterSet{
		fields:   make([]string, len(f.fields)),
		matchers: make(map[string]SearchMatcher, len(f.matchers)),
	}
	copy(c.fields, f.fields)
	for k, v := range f.matchers {
		c.matchers[k] = v
	}
	return c
}

// render renders every filter as a clause in insertion order.
func (f filterSet) render() ([]string, error) {
	clauses := make([]string, 0, len(f.fields))
	for _, field := range f.fields {
		m := f.matchers[field]
		if m.IsEmpty() {
			return nil, cerrors.Newf(cerrors.ErrCodeEmptyMatcher, "matcher for field %q is empty", field).
				WithDetail("field", field)
		}
		clauses = append(clauses, m.render(field))
	}
	return clauses, nil
}

// SearchBuilder configures a search for values of type T.
// Mutators return the same builder for chaining; a builder must not be
// shared between goroutines.
type SearchBuilder[T any] struct {
	engine  *Engine
	typ     Type
	idType  Type
	filters filterSet
	query   string
	index   string
}

// Search starts a search returning hydrated values of type T.
func Search[T any](engine *Engine) *SearchBuilder[T] {
	return &SearchBuilder[T]{engine: engine, typ: TypeOf[T]()}
}

// SearchIds starts a search returning ids converted to ID. It fails with
// ErrNotConfiguredIdConverter if no converter is registered for ID.
func SearchIds[ID any](engine *Engine) (*SearchBuilder[ID], error) {
	typ := TypeOf[ID]()
	if _, ok := LookupConverter[ID](engine.converters); !ok {
		return nil, converterNotConfigured(typ)
	}
	return &SearchBuilder[ID]{engine: engine, typ: typ, idType: typ}, nil
}

// Where sets the matcher for field. A second call for the same field
// replaces the first and keeps its position.
func (b *SearchBuilder[T]) Where(field string, matcher SearchMatcher) *SearchBuilder[T] {
	b.filters.set(field, matcher)
	return b
}

// WhereQuery sets the raw query fragment. Only the last call is kept.
func (b *SearchBuilder[T]) WhereQuery(query SearchQuery) *SearchBuilder[T] {
	b.query = query.String()
	return b
}

// InIndex targets the index named after typ's simple name instead of the
// index of T's strategy.
func (b *SearchBuilder[T]) InIndex(typ Type) *SearchBuilder[T] {
	b.index = typ.Name()
	return b
}

// InIndexNamed targets the named index instead of the index of T's strategy.
func (b *SearchBuilder[T]) InIndexNamed(name string) *SearchBuilder[T] {
	b.index = name
	return b
}

// ReturnAll finalizes the search without a limit.
func (b *SearchBuilder[T]) ReturnAll() Prepared[T] {
	return b.FetchMaximum(0)
}

// FetchMaximum finalizes the search with a limit. The limit is validated
// when the search executes.
func (b *SearchBuilder[T]) FetchMaximum(limit int) Prepared[T] {
	return Prepared[T]{
		engine:  b.engine,
		typ:     b.typ,
		idType:  b.idType,
		filters: b.filters.clone(),
		query:   b.query,
		index:   b.index,
		limit:   limit,
	}
}

// Prepared is an immutable, executable search produced by a SearchBuilder.
type Prepared[T any] struct {
	engine  *Engine
	typ     Type
	idType  Type
	filters filterSet
	query   string
	index   string
	limit   int
}

// Limit returns the requested limit. Zero means the index default.
func (s Prepared[T]) Limit() int {
	return s.limit
}

// Index returns the explicit index override, or "" when the index comes
// from T's strategy.
func (s Prepared[T]) Index() string {
	return s.index
}

// QueryString renders the query sent to the index: the raw fragment
// followed by filter clauses in insertion order, separated by single spaces.
func (s Prepared[T]) QueryString() (string, error) {
	clauses, err := s.filters.render()
	if err != nil {
		return "", err
	}

	parts := make([]string, 0, len(clauses)+1)
	if raw := strings.TrimSpace(s.query); raw != "" {
		parts = append(parts, raw)
	}
	parts = append(parts, clauses...)

	q := strings.Join(parts, " ")
	if q == "" {
		return "", cerrors.Newf(cerrors.ErrCodeInvalidSearch, "search for %s has no filters and no query", s.typ).
			WithDetail("type", s.typ.String()).
			WithSuggestion("add a Where filter or a WhereQuery fragment")
	}
	return q, nil
}

// indexName resolves the override or the strategy's index.
func (s Prepared[T]) indexName() (string, error) {
	if s.index != "" {
		return s.index, nil
	}
	strategy, ok := s.engine.strategies.Get(s.typ)
	if !ok {
		return "", strategyNotConfigured(s.typ)
	}
	return strategy.IndexName(), nil
}

// queryOptions validates the limit and builds index options.
func (s Prepared[T]) queryOptions() (store.QueryOptions, error) {
	if s.limit > MaxSearchLimit {
		return store.QueryOptions{}, cerrors.Newf(cerrors.ErrCodeSearchLimitExceeded,
			"search limit %d exceeds maximum of %d", s.limit, MaxSearchLimit)
	}
	if s.limit < 0 {
		return store.QueryOptions{}, cerrors.Newf(cerrors.ErrCodeNegativeSearchLimit,
			"search limit %d is negative", s.limit)
	}
	return store.QueryOptions{
		IDsOnly:     true,
		Limit:       s.limit,
		Consistency: store.ConsistencyPerDocument,
	}, nil
}

// Now executes the search and returns results in the index's ranking order:
// converted ids for a SearchIds search, hydrated values otherwise.
func (s Prepared[T]) Now(ctx context.Context) ([]T, error) {
	if s.engine == nil {
		return nil, cerrors.Newf(cerrors.ErrCodeNilDependency, "search is not bound to an engine")
	}

	q, err := s.QueryString()
	if err != nil {
		return nil, err
	}
	indexName, err := s.indexName()
	if err != nil {
		return nil, err
	}
	opts, err := s.queryOptions()
	if err != nil {
		return nil, err
	}

	start := time.Now()
	hits, err := s.engine.index.Query(ctx, indexName, q, opts)
	if err != nil {
		return nil, err
	}

	ids := make([]string, len(hits))
	for i, h := range hits {
		ids[i] = h.ID
	}

	s.engine.logger.Debug("search_executed",
		slog.String("index", indexName),
		slog.String("query", q),
		slog.Int("limit", s.limit),
		slog.Int("hits", len(ids)),
		slog.Duration("duration", time.Since(start)))

	if !s.idType.IsZero() {
		return s.convert(ids)
	}
	return s.hydrate(ctx, ids)
}

// convert re-resolves the converter, which may have been removed since the
// builder was created.
func (s Prepared[T]) convert(ids []string) ([]T, error) {
	conv, ok := LookupConverter[T](s.engine.converters)
	if !ok {
		return nil, converterNotConfigured(s.idType)
	}
	out, err := conv.Convert(ids)
	if err != nil {
		return nil, cerrors.New(cerrors.ErrCodeIdConversionFailed, err.Error(), err).
			WithDetail("type", s.idType.String())
	}
	return out, nil
}

// hydrate loads values for ids through the entity loader, or the matched id
// finder when no loader is configured.
func (s Prepared[T]) hydrate(ctx context.Context, ids []string) ([]T, error) {
	if len(ids) == 0 {
		return []T{}, nil
	}

	switch {
	case s.engine.loader != nil:
		loaded, err := s.engine.loader.LoadAll(ctx, s.typ, ids)
		if err != nil {
			return nil, err
		}
		out := make([]T, 0, len(loaded))
		for _, v := range loaded {
			t, ok := v.(T)
			if !ok {
				return nil, s.typeMismatch(v)
			}
			out = append(out, t)
		}
		return out, nil

	case s.engine.finder != nil:
		found, err := s.engine.finder.FindMatched(ctx, s.typ, ids)
		if err != nil {
			return nil, err
		}
		out := make([]T, 0, len(found))
		for _, id := range ids {
			v, ok := found[id]
			if !ok {
				continue
			}
			t, ok := v.(T)
			if !ok {
				return nil, s.typeMismatch(v)
			}
			out = append(out, t)
		}
		return out, nil

	default:
		return nil, cerrors.Newf(cerrors.ErrCodeNilDependency, "no entity loader configured to hydrate %s", s.typ).
			WithSuggestion("configure cuse.WithEntityLoader or search ids with cuse.SearchIds")
	}
}

func (s Prepared[T]) typeMismatch(v any) error {
	return cerrors.Newf(cerrors.ErrCodeEntityTypeMismatch, "loader returned %T, want %s", v, s.typ).
		WithDetail("type", s.typ.String())
}

func strategyNotConfigured(typ Type) error {
	return cerrors.Newf(cerrors.ErrCodeStrategyNotConfigured, "no indexing strategy configured for %s", typ).
		WithDetail("type", typ.String()).
		WithSuggestion("register a strategy with cuse.RegisterStrategy, or target an index with InIndex")
}

func converterNotConfigured(typ Type) error {
	return cerrors.Newf(cerrors.ErrCodeIdConverterNotConfigured, "no id converter configured for %s", typ).
		WithDetail("type", typ.String()).
		WithSuggestion("register a converter with cuse.RegisterConverter")
}
