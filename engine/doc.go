// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package engine defines the rasterization engine boundary.
//
// The reader treats the engine as a black box: open a document, ask for the
// page count, fetch per-page geometry, and rasterize individual pages into
// caller-owned surfaces. Everything behind that boundary (decoding, drawing,
// pixel format conversion) belongs to the engine implementation.
//
// Implementations in this module:
//   - engine/cbz: zip archives of page images
//   - engine/script: ECMAScript-programmable documents (goja)
package engine
