package pageflow

import "fmt"

// GeometryError reports that the engine failed to provide a page's size.
// It is scoped to a single page: the rest of the document is unaffected.
type GeometryError struct {
	Page int
	Err  error
}

func (e *GeometryError) Error() string {
	return fmt.Sprintf("page %d: geometry fetch failed: %v", e.Page, e.Err)
}

func (e *GeometryError) Unwrap() error { return e.Err }

// RasterError reports that the engine failed to rasterize a page.
// It is scoped to a single page: the rest of the document is unaffected.
type RasterError struct {
	Page int
	Err  error
}

func (e *RasterError) Error() string {
	return fmt.Sprintf("page %d: rasterization failed: %v", e.Page, e.Err)
}

func (e *RasterError) Unwrap() error { return e.Err }
