package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/Aman-CERP/cuse/internal/config"
	cerrors "github.com/Aman-CERP/cuse/internal/errors"
	"github.com/Aman-CERP/cuse/internal/store"
	"github.com/Aman-CERP/cuse/pkg/cuse"
	"github.com/Aman-CERP/cuse/pkg/loader"
)

// app wires the index, the record store and the engine for one command.
type app struct {
	cfg       *config.Config
	indexName string
	index     store.Index
	records   *recordStore
	engine    *cuse.Engine
	logger    *slog.Logger
}

// recordStrategy indexes records under indexName, every field searchable.
func recordStrategy(indexName string) *cuse.TypedStrategy[Record] {
	return cuse.NewStrategy(indexName,
		func(r Record) string { return r.ID },
		func(r Record) map[string]string { return r.Fields },
	)
}

// openApp opens the configured index and record store. indexName may be
// empty for commands that span all indexes.
func openApp(cfg *config.Config, logger *slog.Logger, indexName string) (*app, error) {
	if indexName != "" {
		if err := store.ValidateIndexName(indexName); err != nil {
			return nil, cerrors.New(cerrors.ErrCodeInvalidIndexName, err.Error(), err).
				WithSuggestion("index names may contain letters, digits, '_', '-' and '.'")
		}
	}

	backend := strings.ToLower(cfg.Index.Backend)
	if existing := store.DetectBackend(cfg.Index.DataDir); existing != "" && string(existing) != backend {
		logger.Warn("index_backend_mismatch",
			slog.String("data_dir", cfg.Index.DataDir),
			slog.String("configured", backend),
			slog.String("found", string(existing)))
	}

	idx, err := store.NewIndexWithBackend(cfg.Index.DataDir, backend)
	if err != nil {
		return nil, cerrors.ConfigError(fmt.Sprintf("failed to open index: %v", err), err).
			WithDetail("data_dir", cfg.Index.DataDir).
			WithDetail("backend", backend)
	}

	records, err := openRecordStore(filepath.Join(cfg.Index.DataDir, recordsFile))
	if err != nil {
		_ = idx.Close()
		return nil, err
	}

	a := &app{
		cfg:       cfg,
		indexName: indexName,
		index:     idx,
		records:   records,
		logger:    logger,
	}

	strategies := cuse.NewStrategyCatalog()
	registry := loader.NewRegistry()
	if indexName != "" {
		cuse.RegisterStrategy(strategies, recordStrategy(indexName))
		loader.Register(registry, records.batchLoader(indexName))
	}

	var finder cuse.MatchedIdObjectFinder = registry
	if cfg.Loader.CacheSize > 0 {
		cached, err := loader.NewCached(registry, cfg.Loader.CacheSize)
		if err != nil {
			_ = a.Close()
			return nil, err
		}
		finder = cached
	}

	a.engine, err = cuse.New(idx,
		cuse.WithStrategies(strategies),
		cuse.WithEntityLoader(loader.Ordered(finder)),
		cuse.WithLogger(logger),
	)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	return a, nil
}

// put stores records and registers them in the index.
func (a *app) put(ctx context.Context, records []Record) error {
	if err := a.records.Put(ctx, records); err != nil {
		return err
	}
	for _, r := range records {
		if err := a.engine.Register(ctx, r); err != nil {
			return fmt.Errorf("failed to index record %s: %w", r.ID, err)
		}
	}
	return nil
}

// remove deletes records from the store and the index.
func (a *app) remove(ctx context.Context, ids []string) (int, error) {
	removed, err := a.records.Delete(ctx, a.indexName, ids)
	if err != nil {
		return removed, err
	}
	if err := a.engine.Delete(ctx, a.indexName, ids); err != nil {
		return removed, err
	}
	return removed, nil
}

// get fetches records by id concurrently, in the order given.
func (a *app) get(ctx context.Context, ids []string) ([]Record, error) {
	registry := loader.NewRegistry()
	loader.Register(registry, a.records.perIDLoader(a.indexName, a.cfg.Loader.Workers))

	values, err := registry.LoadAll(ctx, cuse.TypeOf[Record](), ids)
	if err != nil {
		return nil, err
	}
	out := make([]Record, 0, len(values))
	for _, v := range values {
		out = append(out, v.(Record))
	}
	return out, nil
}

func (a *app) Close() error {
	var errs []error
	if err := a.records.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.index.Close(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
