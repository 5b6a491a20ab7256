package visibility

// Layout exposes the vertical arrangement of pages in the scroll container.
// The reader store implements this: page rectangles follow from page
// geometry at the current resolution, with an estimated height standing in
// for pages whose geometry is not known yet.
type Layout interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// PageRect returns the top offset and height of a page, in pixels,
	// in the scroll container's coordinate space.
	PageRect(index int) (top, height int)
}

// WideSource reports the set of page indices intersecting the viewport
// expanded by a margin in either scroll direction. The set errs toward
// over-inclusion so that scroll-ahead content is already rasterized when
// it enters the viewport.
type WideSource interface {
	VisibleSet() []int
}

// NarrowSource reports the single page index intersecting a thin horizontal
// band at a fixed fraction of viewport height from the top. This is the
// "page the user is reading": stable and singular, unlike the wide set.
type NarrowSource interface {
	CurrentPage() int
}
