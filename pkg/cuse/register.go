package cuse

import (
	"context"
	"fmt"

	"github.com/Aman-CERP/cuse/internal/store"
)

// StoreRegister is the IndexRegister writing straight into a store.Index.
type StoreRegister struct {
	index store.Index
}

// Ensure StoreRegister implements IndexRegister.
var _ IndexRegister = (*StoreRegister)(nil)

// NewIndexRegister creates a register writing to index.
func NewIndexRegister(index store.Index) *StoreRegister {
	return &StoreRegister{index: index}
}

// Register converts instance with strategy and writes the document to the
// strategy's index.
func (r *StoreRegister) Register(ctx context.Context, instance any, strategy IndexingStrategy) error {
	doc, err := strategy.Document(instance)
	if err != nil {
		return fmt.Errorf("build document: %w", err)
	}
	return r.index.Write(ctx, strategy.IndexName(), []*store.Document{doc})
}

// Delete removes ids from the named index.
func (r *StoreRegister) Delete(ctx context.Context, indexName string, ids []string) error {
	return r.index.Delete(ctx, indexName, ids)
}
