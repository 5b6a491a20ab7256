// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pageflow

import (
	"image"
	"image/color"
	"image/draw"
)

// Surface is an owned 2D raster buffer holding one rasterized page.
//
// A Surface is exclusively owned by the page record it was allocated for and
// is never shared between pages. Engines draw into it through RGBA; the
// reader accounts for its memory through Bytes.
//
// Surfaces are NOT thread-safe. The reader's render cycle is the only writer
// while a surface is attached.
type Surface struct {
	width  int
	height int
	img    *image.RGBA
}

// NewSurface allocates a surface with the given dimensions.
// Dimensions are clamped to at least 1x1.
func NewSurface(width, height int) *Surface {
	if width <= 0 {
		width = 1
	}
	if height <= 0 {
		height = 1
	}
	return &Surface{
		width:  width,
		height: height,
		img:    image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Width returns the surface width in pixels.
func (s *Surface) Width() int { return s.width }

// Height returns the surface height in pixels.
func (s *Surface) Height() int { return s.height }

// Bytes returns the memory footprint of the surface's pixel buffer.
func (s *Surface) Bytes() int64 {
	return SizePx{Width: s.width, Height: s.height}.Bytes()
}

// RGBA returns the backing image for engines to draw into.
// The image remains owned by the surface.
func (s *Surface) RGBA() *image.RGBA { return s.img }

// Clear fills the entire surface with the given color.
func (s *Surface) Clear(c color.Color) {
	draw.Draw(s.img, s.img.Bounds(), image.NewUniform(c), image.Point{}, draw.Src)
}

// Snapshot returns a copy of the current surface contents.
// Modifications to the returned image do not affect the surface.
func (s *Surface) Snapshot() *image.RGBA {
	out := image.NewRGBA(s.img.Bounds())
	copy(out.Pix, s.img.Pix)
	return out
}
