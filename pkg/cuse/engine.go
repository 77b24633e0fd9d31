package cuse

import (
	"context"
	"log/slog"

	cerrors "github.com/Aman-CERP/cuse/internal/errors"
	"github.com/Aman-CERP/cuse/internal/store"
)

// EntityLoader loads values of a type by document id.
//
// LoadAll must return values in the order of ids. Ids with no value may be
// skipped; the engine does not re-check count or order.
type EntityLoader interface {
	LoadAll(ctx context.Context, typ Type, ids []string) ([]any, error)
}

// MatchedIdObjectFinder resolves matched ids to values. Ids missing from the
// returned map are skipped.
type MatchedIdObjectFinder interface {
	FindMatched(ctx context.Context, typ Type, ids []string) (map[string]any, error)
}

// IndexRegister writes instances to and deletes documents from the index.
type IndexRegister interface {
	Register(ctx context.Context, instance any, strategy IndexingStrategy) error
	Delete(ctx context.Context, indexName string, ids []string) error
}

// Engine registers values in the index and is the entry point for searches.
type Engine struct {
	index      store.Index
	strategies *StrategyCatalog
	converters *ConverterCatalog
	register   IndexRegister
	loader     EntityLoader
	finder     MatchedIdObjectFinder
	logger     *slog.Logger
}

// Option configures the engine.
type Option func(*Engine)

// WithStrategies sets the strategy catalog. Default: an empty catalog.
func WithStrategies(c *StrategyCatalog) Option {
	return func(e *Engine) {
		e.strategies = c
	}
}

// WithConverters sets the id converter catalog.
// Default: NewDefaultConverterCatalog().
func WithConverters(c *ConverterCatalog) Option {
	return func(e *Engine) {
		e.converters = c
	}
}

// WithEntityLoader sets the loader used to hydrate search results.
func WithEntityLoader(l EntityLoader) Option {
	return func(e *Engine) {
		e.loader = l
	}
}

// WithMatchedIdObjectFinder sets a finder used to hydrate results when no
// EntityLoader is configured.
func WithMatchedIdObjectFinder(f MatchedIdObjectFinder) Option {
	return func(e *Engine) {
		e.finder = f
	}
}

// WithIndexRegister replaces the register that writes documents.
// Default: a StoreRegister on the engine's index.
func WithIndexRegister(r IndexRegister) Option {
	return func(e *Engine) {
		e.register = r
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// New creates an engine searching index.
// Returns ErrNilDependency if index is nil.
func New(index store.Index, opts ...Option) (*Engine, error) {
	if index == nil {
		return nil, cerrors.Newf(cerrors.ErrCodeNilDependency, "index is required")
	}

	e := &Engine{index: index}
	for _, opt := range opts {
		opt(e)
	}

	if e.strategies == nil {
		e.strategies = NewStrategyCatalog()
	}
	if e.converters == nil {
		e.converters = NewDefaultConverterCatalog()
	}
	if e.register == nil {
		e.register = NewIndexRegister(index)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}

	return e, nil
}

// Register writes instance to the index of the strategy registered for its
// dynamic type. Fails with ErrNotConfiguredIndexingStrategy if there is none.
func (e *Engine) Register(ctx context.Context, instance any) error {
	typ := TypeOfValue(instance)
	strategy, ok := e.strategies.Get(typ)
	if !ok {
		return strategyNotConfigured(typ)
	}

	if err := e.register.Register(ctx, instance, strategy); err != nil {
		return err
	}

	e.logger.Debug("entity_registered",
		slog.String("type", typ.String()),
		slog.String("index", strategy.IndexName()))
	return nil
}

// Delete removes documents from the named index.
func (e *Engine) Delete(ctx context.Context, indexName string, ids []string) error {
	if err := e.register.Delete(ctx, indexName, ids); err != nil {
		return err
	}

	e.logger.Debug("entities_deleted",
		slog.String("index", indexName),
		slog.Int("count", len(ids)))
	return nil
}

// Strategies returns the strategy catalog.
func (e *Engine) Strategies() *StrategyCatalog {
	return e.strategies
}

// Converters returns the id converter catalog.
func (e *Engine) Converters() *ConverterCatalog {
	return e.converters
}
