// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package engine

import (
	"context"

	"github.com/gogpu/pageflow"
)

// Engine is the rasterization engine boundary.
//
// Engines are treated as non-reentrant: the reader issues at most one
// geometry or raster call at a time per document. Implementations that can
// be called from multiple goroutines must still tolerate serialized use;
// they need not support concurrent calls.
//
// Two implementations ship with this module:
//
//   - engine/cbz: zip archives of page images (CBZ layout)
//   - engine/script: ECMAScript-programmable pages
type Engine interface {
	// Init prepares the engine. It must be called once before LoadDocument.
	// Calling Init again after success is a no-op.
	Init(ctx context.Context, opts Options) error

	// LoadDocument parses the document bytes and returns a handle.
	// Document-level failures (corrupt data, unsupported format) are
	// returned here; they are fatal for the document, not the engine.
	LoadDocument(ctx context.Context, data []byte) (DocumentHandle, error)
}

// Options configures engine initialization.
// The zero value selects defaults; engines ignore fields they do not use.
type Options struct {
	// SourceDPI is the pixel density assumed for documents whose pages
	// carry no physical size (raster-image formats). 0 means 96.
	SourceDPI float64

	// MaxPixels caps the pixel count of a single rendered page.
	// 0 means no cap. Engines reject renders above the cap.
	MaxPixels int
}

// DocumentHandle is an open document inside an engine.
//
// Destroy releases engine-side resources; the handle must not be used after.
type DocumentHandle interface {
	// PageCount returns the number of pages. It is fixed for the lifetime
	// of the handle.
	PageCount() int

	// PageSize returns the page's size in points.
	PageSize(ctx context.Context, index int) (pageflow.SizePt, error)

	// LoadPage prepares one page for rasterization.
	LoadPage(ctx context.Context, index int) (PageHandle, error)

	// Destroy releases the document. Idempotent.
	Destroy()
}

// PageHandle is one loaded page, ready to rasterize.
type PageHandle interface {
	// RenderTo rasterizes the page into the surface at the given
	// resolution. The surface is sized by the caller; the engine fills it
	// edge to edge.
	RenderTo(ctx context.Context, s *pageflow.Surface, ppi float64) error

	// Destroy releases the page. Idempotent.
	Destroy()
}
