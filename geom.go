package pageflow

import "math"

// SizePt is a page size in device-independent points (1/72 inch).
type SizePt struct {
	Width  float64
	Height float64
}

// IsZero reports whether the size has not been set.
func (s SizePt) IsZero() bool {
	return s.Width == 0 && s.Height == 0
}

// SizePx is a page size in device pixels at some resolution.
type SizePx struct {
	Width  int
	Height int
}

// Bytes returns the memory footprint of an RGBA raster at this size.
func (s SizePx) Bytes() int64 {
	return int64(s.Width) * int64(s.Height) * 4
}

// PointsToPixels converts a length in points to pixels at the given
// resolution, rounding up so that page content is never clipped.
func PointsToPixels(pt, ppi float64) int {
	if pt <= 0 || ppi <= 0 {
		return 0
	}
	return int(math.Ceil(pt * ppi / 72))
}

// PixelSize converts a page size in points to pixels at the given resolution.
func PixelSize(s SizePt, ppi float64) SizePx {
	return SizePx{
		Width:  PointsToPixels(s.Width, ppi),
		Height: PointsToPixels(s.Height, ppi),
	}
}
