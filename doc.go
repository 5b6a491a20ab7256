// Package pageflow provides a virtualized renderer for multi-page documents.
//
// # Overview
//
// Given a document with many pages and a scrollable viewport that shows only
// a few of them, pageflow decides which pages to rasterize, at what
// resolution, in what order, and when to release previously rasterized pages
// so that total raster memory stays inside a fixed budget. At most one
// rasterization pass runs at a time, and pages the user is looking at are
// never evicted.
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/pageflow/engine/cbz"
//	    "github.com/gogpu/pageflow/reader"
//	)
//
//	eng := cbz.New()
//	store, err := reader.Open(ctx, reader.Config{
//	    Engine:     eng,
//	    DocumentID: "my-comic",
//	    Data:       docBytes,
//	    Viewport:   reader.Viewport{Width: 800, Height: 1000},
//	})
//	if err != nil { ... }
//	defer store.Close()
//
//	store.Scrolled(2400) // host reports scroll offsets; rendering follows
//
// # Architecture
//
// The module is organized into:
//   - Root: Surface (owned raster buffer), geometry helpers, error taxonomy
//   - reader: page records, canvas cache, render scheduler, reader store
//   - visibility: wide-margin and narrow-band viewport observation
//   - engine: the rasterization engine boundary, with cbz and script backends
//   - sizecache: persisted per-document page geometry
//   - navstate: reading position serialized to URL query parameters
package pageflow
