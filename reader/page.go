package reader

import (
	"log/slog"
	"sync/atomic"

	"github.com/gogpu/pageflow"
)

// Status is the lifecycle state of one page record.
type Status uint8

const (
	// StatusIdle means nothing is known about the page yet.
	StatusIdle Status = iota

	// StatusSizing means a geometry request is in flight.
	StatusSizing

	// StatusReady means geometry is known and the page can be rendered.
	StatusReady

	// StatusRendering means a rasterization call is in flight.
	StatusRendering

	// StatusRendered means the page owns a surface with current content.
	StatusRendered

	// StatusDetached means the page was rendered once and then evicted.
	StatusDetached

	// StatusError means geometry fetch or rasterization failed. Terminal
	// until the document is reopened.
	StatusError
)

func (s Status) String() string {
	switch s {
	case StatusIdle:
		return "idle"
	case StatusSizing:
		return "sizing"
	case StatusReady:
		return "ready"
	case StatusRendering:
		return "rendering"
	case StatusRendered:
		return "rendered"
	case StatusDetached:
		return "detached"
	case StatusError:
		return "error"
	default:
		return "unknown"
	}
}

// statusTransitions is the closed transition table. All status changes go
// through PageRecord.transition, which consults this table, so the state
// machine stays auditable in one place.
var statusTransitions = map[Status][]Status{
	StatusIdle:      {StatusSizing},
	StatusSizing:    {StatusReady, StatusError},
	StatusReady:     {StatusRendering, StatusReady},
	StatusRendering: {StatusRendered, StatusError},
	StatusRendered:  {StatusDetached, StatusReady},
	StatusDetached:  {StatusRendering},
	StatusError:     {},
}

// recencyTick is a process-wide monotonic counter used as the eviction
// recency key. A counter rather than a wall clock keeps the ordering total
// even for touches within the same clock granule.
var recencyTick atomic.Int64

// PageRecord tracks one page of an open document: geometry, raster surface,
// status, and cache recency. Records are created when a document opens and
// destroyed when it closes.
//
// PageRecord is not thread-safe; the store's mutex guards all access.
type PageRecord struct {
	index       int
	sizePt      pageflow.SizePt // zero until fetched, immutable once set
	sizePx      pageflow.SizePx // derived, recomputed on resolution change
	surface     *pageflow.Surface
	status      Status
	lastTouched int64
	errMsg      string
}

// newPageRecord creates an idle record for the given page index.
func newPageRecord(index int) *PageRecord {
	return &PageRecord{index: index, status: StatusIdle}
}

// Index returns the page's position in the document.
func (p *PageRecord) Index() int { return p.index }

// Status returns the current lifecycle state.
func (p *PageRecord) Status() Status { return p.status }

// SizePt returns the page size in points; zero while unknown.
func (p *PageRecord) SizePt() pageflow.SizePt { return p.sizePt }

// SizePx returns the page size in pixels at the current resolution.
func (p *PageRecord) SizePx() pageflow.SizePx { return p.sizePx }

// Err returns the failure message for a page in StatusError, or "".
func (p *PageRecord) Err() string { return p.errMsg }

// Touch updates the recency key. Called when a surface is attached and when
// a rendered page is revisited.
func (p *PageRecord) Touch() {
	p.lastTouched = recencyTick.Add(1)
}

// setGeometry records the page's point size. Geometry does not change
// within a document, so later calls are ignored.
func (p *PageRecord) setGeometry(size pageflow.SizePt) {
	if !p.sizePt.IsZero() {
		return
	}
	p.sizePt = size
}

// SetSizeFromPoints recomputes the pixel size at the given resolution.
// No-op while the point size is unknown.
func (p *PageRecord) SetSizeFromPoints(ppi float64) {
	if p.sizePt.IsZero() {
		return
	}
	p.sizePx = pageflow.PixelSize(p.sizePt, ppi)
}

// EnsureSurface returns the page's owned surface, allocating an empty one
// at the current pixel size if none is present. Allocation is idempotent:
// repeated calls before the surface is freed return the same surface.
func (p *PageRecord) EnsureSurface() *pageflow.Surface {
	if p.surface == nil {
		p.surface = pageflow.NewSurface(p.sizePx.Width, p.sizePx.Height)
	}
	return p.surface
}

// Surface returns the owned surface, or nil while not rendered.
func (p *PageRecord) Surface() *pageflow.Surface { return p.surface }

// transition moves the record to the next status if the transition table
// allows it. Disallowed transitions are ignored and logged; they indicate
// an orchestration bug, not a recoverable condition.
func (p *PageRecord) transition(next Status) bool {
	for _, allowed := range statusTransitions[p.status] {
		if next == allowed {
			p.status = next
			return true
		}
	}
	pageflow.Logger().Warn("invalid page status transition",
		slog.Int("page", p.index),
		slog.String("from", p.status.String()),
		slog.String("to", next.String()))
	return false
}

// fail moves the record to StatusError with the given message. Only the
// geometry-fetch and rasterize failure paths call this.
func (p *PageRecord) fail(msg string) {
	if p.transition(StatusError) {
		p.errMsg = msg
	}
}
