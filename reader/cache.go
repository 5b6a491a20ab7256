package reader

import (
	"log/slog"
	"sort"

	"github.com/gogpu/pageflow"
)

// DefaultBudgetBytes is the raster memory budget used when none is
// configured: 256 MiB, roughly 30 letter-size pages at 150 ppi.
const DefaultBudgetBytes = 256 << 20

// CanvasCache accounts for the raster memory of one open document and
// evicts non-visible pages when the budget is exceeded.
//
// bytesUsed always equals the summed surface bytes of all rendered pages.
// The budget is a steady-state target: enforcement runs after every page
// render, but usage may transiently exceed the budget when the visible set
// alone does not fit (see Enforce).
//
// CanvasCache is not thread-safe; the store's mutex guards all access.
type CanvasCache struct {
	budgetBytes int64
	bytesUsed   int64
}

// NewCanvasCache creates a cache with the given budget.
// budget <= 0 selects DefaultBudgetBytes.
func NewCanvasCache(budget int64) *CanvasCache {
	if budget <= 0 {
		budget = DefaultBudgetBytes
	}
	return &CanvasCache{budgetBytes: budget}
}

// Budget returns the configured budget in bytes.
func (c *CanvasCache) Budget() int64 { return c.budgetBytes }

// BytesUsed returns the summed surface bytes of all rendered pages.
func (c *CanvasCache) BytesUsed() int64 { return c.bytesUsed }

// NoteAttach records a successful raster: the surface becomes the page's
// owned surface, its bytes join the total, and the page's pixel size is
// taken from the surface's actual dimensions (the surface is the source of
// truth post-render; device pixel scaling may differ slightly from the
// requested size).
func (c *CanvasCache) NoteAttach(p *PageRecord, s *pageflow.Surface) {
	p.surface = s
	p.sizePx = pageflow.SizePx{Width: s.Width(), Height: s.Height()}
	c.bytesUsed += s.Bytes()
	p.transition(StatusRendered)
	p.Touch()
}

// NoteDetach frees the page's surface and subtracts its bytes, clamped at
// zero to tolerate accounting drift. Detaching never fails; it is pure
// bookkeeping.
func (c *CanvasCache) NoteDetach(p *PageRecord) {
	if p.surface != nil {
		c.bytesUsed -= p.surface.Bytes()
		if c.bytesUsed < 0 {
			c.bytesUsed = 0
		}
		p.surface = nil
	}
	p.transition(StatusDetached)
}

// Reset zeroes the byte counter. Called after a resolution change has freed
// every surface.
func (c *CanvasCache) Reset() {
	c.bytesUsed = 0
}

// Enforce brings usage back under budget by detaching rendered pages that
// are not in the visible set, least recently touched first, re-checking
// after each detach. Visible pages are never detached.
//
// When every rendered page is visible and the budget still cannot be met,
// Enforce leaves usage over budget and logs a warning; degrading resolution
// is the host's decision.
//
// Returns the number of pages detached.
func (c *CanvasCache) Enforce(visible map[int]struct{}, pages []*PageRecord) int {
	if c.bytesUsed <= c.budgetBytes {
		return 0
	}

	var candidates []*PageRecord
	for _, p := range pages {
		if p.Status() != StatusRendered {
			continue
		}
		if _, ok := visible[p.Index()]; ok {
			continue
		}
		candidates = append(candidates, p)
	}
	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].lastTouched < candidates[j].lastTouched
	})

	evicted := 0
	for _, p := range candidates {
		if c.bytesUsed <= c.budgetBytes {
			break
		}
		pageflow.Logger().Debug("evicting page",
			slog.Int("page", p.Index()),
			slog.Int64("bytesUsed", c.bytesUsed))
		c.NoteDetach(p)
		evicted++
	}

	if c.bytesUsed > c.budgetBytes {
		pageflow.Logger().Warn("raster budget unsatisfiable, visible set too large",
			slog.Int64("bytesUsed", c.bytesUsed),
			slog.Int64("budget", c.budgetBytes))
	}
	return evicted
}
