package visibility

// Default observation parameters.
const (
	// DefaultMargin is the viewport expansion, in pixels, used for the
	// wide visible set.
	DefaultMargin = 200

	// DefaultBandFraction positions the narrow reading band this far down
	// from the top of the viewport.
	DefaultBandFraction = 0.10
)

// Tracker computes both visibility observations from a Layout and the
// current scroll state. It implements WideSource and NarrowSource.
//
// Tracker is not thread-safe; the reader store serializes access.
type Tracker struct {
	layout       Layout
	viewportH    int
	margin       int
	bandFraction float64
	scrollY      int
}

var (
	_ WideSource   = (*Tracker)(nil)
	_ NarrowSource = (*Tracker)(nil)
)

// NewTracker creates a tracker over the given layout.
// margin <= 0 selects DefaultMargin; bandFraction outside (0, 1) selects
// DefaultBandFraction.
func NewTracker(layout Layout, viewportHeight, margin int, bandFraction float64) *Tracker {
	if margin <= 0 {
		margin = DefaultMargin
	}
	if bandFraction <= 0 || bandFraction >= 1 {
		bandFraction = DefaultBandFraction
	}
	return &Tracker{
		layout:       layout,
		viewportH:    viewportHeight,
		margin:       margin,
		bandFraction: bandFraction,
	}
}

// SetScroll records the current scroll offset of the container, in pixels.
func (t *Tracker) SetScroll(y int) {
	if y < 0 {
		y = 0
	}
	t.scrollY = y
}

// SetViewportHeight records a viewport resize.
func (t *Tracker) SetViewportHeight(h int) {
	if h < 0 {
		h = 0
	}
	t.viewportH = h
}

// VisibleSet returns the indices of all pages whose rectangle intersects
// the viewport expanded by the margin, in ascending order.
func (t *Tracker) VisibleSet() []int {
	lo := t.scrollY - t.margin
	hi := t.scrollY + t.viewportH + t.margin

	var set []int
	for i := 0; i < t.layout.PageCount(); i++ {
		top, h := t.layout.PageRect(i)
		if top+h <= lo {
			continue
		}
		if top >= hi {
			// Pages are stacked top to bottom; nothing below can
			// intersect either.
			break
		}
		set = append(set, i)
	}
	return set
}

// CurrentPage returns the index of the page under the narrow reading band,
// or 0 if the document is empty. If no page intersects the band (a gap
// between pages), the nearest following page is returned so that the
// reported position never goes backwards while scrolling down.
func (t *Tracker) CurrentPage() int {
	count := t.layout.PageCount()
	if count == 0 {
		return 0
	}

	bandTop := t.scrollY + int(float64(t.viewportH)*t.bandFraction)

	// First page whose bottom edge is below the band. Covers both the
	// intersecting case and gaps between pages (nearest following page).
	for i := 0; i < count; i++ {
		top, h := t.layout.PageRect(i)
		if top+h > bandTop {
			return i
		}
	}
	return count - 1
}
