package cuse

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// IdConverter turns raw document ids into typed ids, preserving order.
type IdConverter[ID any] interface {
	Convert(raw []string) ([]ID, error)
}

// IdConverterFunc adapts a function to IdConverter.
type IdConverterFunc[ID any] func(raw []string) ([]ID, error)

// Convert calls f(raw).
func (f IdConverterFunc[ID]) Convert(raw []string) ([]ID, error) {
	return f(raw)
}

// ConverterCatalog maps id types to converters of that type.
// Thread-safe for concurrent use.
type ConverterCatalog struct {
	mu         sync.RWMutex
	converters map[Type]any
}

// NewConverterCatalog creates an empty catalog.
func NewConverterCatalog() *ConverterCatalog {
	return &ConverterCatalog{converters: make(map[Type]any)}
}

// NewDefaultConverterCatalog creates a catalog with converters for string,
// int64 and uuid.UUID ids.
func NewDefaultConverterCatalog() *ConverterCatalog {
	c := NewConverterCatalog()
	RegisterConverter[string](c, StringConverter())
	RegisterConverter[int64](c, Int64Converter())
	RegisterConverter[uuid.UUID](c, UUIDConverter())
	return c
}

// Has reports whether a converter is registered for typ.
func (c *ConverterCatalog) Has(typ Type) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.converters[typ]
	return ok
}

// Remove drops the converter registered for typ.
func (c *ConverterCatalog) Remove(typ Type) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.converters, typ)
}

// RegisterConverter registers conv for the id type ID.
func RegisterConverter[ID any](c *ConverterCatalog, conv IdConverter[ID]) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.converters[TypeOf[ID]()] = conv
}

// LookupConverter returns the converter registered for ID.
func LookupConverter[ID any](c *ConverterCatalog) (IdConverter[ID], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	conv, ok := c.converters[TypeOf[ID]()].(IdConverter[ID])
	return conv, ok
}

// StringConverter returns raw ids unchanged.
func StringConverter() IdConverter[string] {
	return IdConverterFunc[string](func(raw []string) ([]string, error) {
		out := make([]string, len(raw))
		copy(out, raw)
		return out, nil
	})
}

// Int64Converter parses base-10 ids.
func Int64Converter() IdConverter[int64] {
	return IdConverterFunc[int64](func(raw []string) ([]int64, error) {
		out := make([]int64, 0, len(raw))
		for _, s := range raw {
			n, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return nil, fmt.Errorf("convert id %q: %w", s, err)
			}
			out = append(out, n)
		}
		return out, nil
	})
}

// UUIDConverter parses ids as UUIDs.
func UUIDConverter() IdConverter[uuid.UUID] {
	return IdConverterFunc[uuid.UUID](func(raw []string) ([]uuid.UUID, error) {
		out := make([]uuid.UUID, 0, len(raw))
		for _, s := range raw {
			id, err := uuid.Parse(s)
			if err != nil {
				return nil, fmt.Errorf("convert id %q: %w", s, err)
			}
			out = append(out, id)
		}
		return out, nil
	})
}
