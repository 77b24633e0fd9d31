package cuse

import (
	"fmt"
	"sync"

	"github.com/Aman-CERP/cuse/internal/store"
)

// IndexingStrategy maps instances of one type to documents in one index.
type IndexingStrategy interface {
	// IndexName is the index that instances are written to and searched in.
	IndexName() string

	// Document converts an instance into the document stored in the index.
	Document(instance any) (*store.Document, error)
}

// TypedStrategy is an IndexingStrategy for values of type T built from an
// id function and a fields function.
type TypedStrategy[T any] struct {
	indexName string
	id        func(T) string
	fields    func(T) map[string]string
}

// NewStrategy creates a strategy writing T values to indexName.
func NewStrategy[T any](indexName string, id func(T) string, fields func(T) map[string]string) *TypedStrategy[T] {
	return &TypedStrategy[T]{indexName: indexName, id: id, fields: fields}
}

// IndexName returns the index name.
func (s *TypedStrategy[T]) IndexName() string {
	return s.indexName
}

// Document converts instance, which must be a T, into a document.
func (s *TypedStrategy[T]) Document(instance any) (*store.Document, error) {
	v, ok := instance.(T)
	if !ok {
		return nil, fmt.Errorf("strategy for %s cannot index %T", TypeOf[T](), instance)
	}

	id := s.id(v)
	if id == "" {
		return nil, fmt.Errorf("strategy for %s produced an empty document id", TypeOf[T]())
	}

	var fields map[string]string
	if s.fields != nil {
		fields = s.fields(v)
	}
	return &store.Document{ID: id, Fields: fields}, nil
}

// StrategyCatalog maps types to their indexing strategy.
// Thread-safe for concurrent use.
type StrategyCatalog struct {
	mu         sync.RWMutex
	strategies map[Type]IndexingStrategy
}

// NewStrategyCatalog creates an empty catalog.
func NewStrategyCatalog() *StrategyCatalog {
	return &StrategyCatalog{strategies: make(map[Type]IndexingStrategy)}
}

// Register associates typ with strategy, replacing any previous entry.
func (c *StrategyCatalog) Register(typ Type, strategy IndexingStrategy) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.strategies[typ] = strategy
}

// Get returns the strategy registered for typ.
func (c *StrategyCatalog) Get(typ Type) (IndexingStrategy, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	s, ok := c.strategies[typ]
	return s, ok
}

// Len returns the number of registered strategies.
func (c *StrategyCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.strategies)
}

// RegisterStrategy registers a typed strategy under TypeOf[T]().
func RegisterStrategy[T any](c *StrategyCatalog, strategy *TypedStrategy[T]) {
	c.Register(TypeOf[T](), strategy)
}
