// Package loader provides entity loaders for the cuse search engine.
//
// Every loader is built from a [Func]: a typed function resolving ids to
// values, keyed by id, that simply omits ids it cannot find.
//
//   - [Registry]: per-type Funcs; implements both cuse.EntityLoader and
//     cuse.MatchedIdObjectFinder
//   - [Cached]: LRU cache in front of any finder
//   - [PerID]: builds a Func from a single-id fetch, fanned out concurrently
//   - [SQL]: builds a Func from a database/sql batch query
//   - [Ordered]: turns a finder into an order-preserving loader
//
// Typical wiring:
//
//	reg := loader.NewRegistry()
//	loader.Register(reg, loader.SQL(db,
//	    "SELECT id, name FROM people WHERE id IN (%s)", scanPerson))
//	cached, _ := loader.NewCached(reg, 1000)
//
//	engine, _ := cuse.New(index,
//	    cuse.WithStrategies(strategies),
//	    cuse.WithEntityLoader(cached),
//	)
//
// All loaders are safe for concurrent use.
package loader
