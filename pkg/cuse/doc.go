// Package cuse decouples application types from the full-text index they
// are searched in.
//
// Callers register a type together with an [IndexingStrategy], then build
// structured queries (field filters, raw query fragments, index overrides,
// result limits) and receive either hydrated values or converted ids, in the
// index's relevance order.
//
// # Architecture
//
//	┌───────────────────────────────────────────────────────────────┐
//	│                            Engine                             │
//	│  ┌──────────────────┐  ┌───────────────────┐  ┌────────────┐  │
//	│  │ StrategyCatalog  │  │ ConverterCatalog  │  │ Register   │  │
//	│  └──────────────────┘  └───────────────────┘  └────────────┘  │
//	│          │                       │                   │        │
//	│  SearchBuilder[T] ─finalize─▶ Prepared[T] ─Now──▶ store.Index │
//	│                                  │                            │
//	│                     IdConverter / EntityLoader                │
//	└───────────────────────────────────────────────────────────────┘
//
// # Usage
//
//	strategies := cuse.NewStrategyCatalog()
//	cuse.RegisterStrategy(strategies, cuse.NewStrategy("Person",
//	    func(p *Person) string { return p.ID },
//	    func(p *Person) map[string]string {
//	        return map[string]string{"name": p.Name, "status": p.Status}
//	    },
//	))
//
//	engine, _ := cuse.New(index,
//	    cuse.WithStrategies(strategies),
//	    cuse.WithEntityLoader(loader),
//	)
//
//	_ = engine.Register(ctx, &Person{ID: "1", Name: "John Smith", Status: "active"})
//
//	people, err := cuse.Search[*Person](engine).
//	    Where("status", cuse.Is("active")).
//	    FetchMaximum(10).
//	    Now(ctx)
//
//	ids, err := cuse.SearchIds[int64](engine) // also checks a converter exists
//
// # Errors
//
// Every condition the core raises is a sentinel usable with errors.Is:
// [ErrNotConfiguredIndexingStrategy], [ErrNotConfiguredIdConverter],
// [ErrEmptyMatcher], [ErrInvalidSearch], [ErrSearchLimitExceeded] and
// [ErrNegativeSearchLimit]. Failures of the index itself are returned
// unmodified.
//
// # Thread Safety
//
// Engine and the catalogs are safe for concurrent use. A SearchBuilder
// belongs to the goroutine that created it; a finalized Prepared search is an
// immutable value and may be shared.
package cuse
