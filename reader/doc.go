// Package reader is the core of pageflow: it owns the page records of one
// open document, runs render cycles, and keeps raster memory inside a fixed
// budget.
//
// # Components
//
//   - PageRecord: per-page state machine (geometry, surface, status, recency)
//   - CanvasCache: aggregate raster memory accounting and eviction
//   - Scheduler: single-flight, trailing-coalesced render cycle execution
//   - Store: the orchestrator tying records, cache, scheduler, visibility,
//     page-size cache, and navigation state together
//
// # Render cycle
//
// A cycle walks the visible pages in ascending index order. For each page it
// ensures geometry is known (persisted cache first, engine second), then
// rasterizes unless the page is already rendered at the current resolution.
// After every page the cache enforces the memory budget by evicting the
// least recently touched non-visible pages. Interleaving eviction with
// rendering bounds peak memory during a long cycle.
//
// # Concurrency
//
// All record and counter mutation happens under the store's mutex or from
// the single scheduler goroutine, with the mutex released across engine
// calls. The scheduler guarantees at most one cycle runs at a time; triggers
// arriving mid-cycle coalesce into exactly one follow-up cycle.
package reader
