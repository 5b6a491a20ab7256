package reader

import (
	"testing"

	"github.com/gogpu/pageflow"
)

// renderedPage walks a fresh record to rendered with a surface of the given
// pixel dimensions attached through the cache.
func renderedPage(t *testing.T, c *CanvasCache, index, w, h int) *PageRecord {
	t.Helper()
	p := newPageRecord(index)
	p.transition(StatusSizing)
	p.setGeometry(pageflow.SizePt{Width: float64(w) * 72 / 96, Height: float64(h) * 72 / 96})
	p.SetSizeFromPoints(96)
	p.transition(StatusReady)
	p.transition(StatusRendering)
	c.NoteAttach(p, pageflow.NewSurface(w, h))
	return p
}

func visible(indices ...int) map[int]struct{} {
	set := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		set[i] = struct{}{}
	}
	return set
}

func TestNoteAttachAccounting(t *testing.T) {
	c := NewCanvasCache(1 << 30)
	p := renderedPage(t, c, 0, 10, 10)

	if p.Status() != StatusRendered {
		t.Errorf("status = %v, want rendered", p.Status())
	}
	if c.BytesUsed() != 10*10*4 {
		t.Errorf("bytesUsed = %d, want %d", c.BytesUsed(), 10*10*4)
	}
	if got := p.SizePx(); got.Width != 10 || got.Height != 10 {
		t.Errorf("pixel size not taken from surface: %+v", got)
	}
}

func TestNoteDetachClampsAtZero(t *testing.T) {
	c := NewCanvasCache(1 << 30)
	p := renderedPage(t, c, 0, 10, 10)

	// Force drift: shrink the counter below the surface size.
	c.bytesUsed = 5

	c.NoteDetach(p)
	if c.BytesUsed() != 0 {
		t.Errorf("bytesUsed = %d, want 0 (clamped)", c.BytesUsed())
	}
	if p.Status() != StatusDetached {
		t.Errorf("status = %v, want detached", p.Status())
	}
	if p.Surface() != nil {
		t.Error("surface not released on detach")
	}
}

func TestEnforceNoopUnderBudget(t *testing.T) {
	c := NewCanvasCache(1 << 30)
	p := renderedPage(t, c, 0, 10, 10)

	if n := c.Enforce(visible(), []*PageRecord{p}); n != 0 {
		t.Errorf("Enforce evicted %d pages under budget", n)
	}
	if p.Status() != StatusRendered {
		t.Errorf("status = %v, want rendered", p.Status())
	}
}

func TestEnforceEvictsOldestFirst(t *testing.T) {
	pageBytes := int64(10 * 10 * 4)
	c := NewCanvasCache(3 * pageBytes)

	// Pages 1-5 rendered in order, none visible. Rendering page 4 pushes
	// usage to 4 pages; one eviction suffices, and it must be page 1.
	var pages []*PageRecord
	for i := 1; i <= 4; i++ {
		pages = append(pages, renderedPage(t, c, i, 10, 10))
	}

	n := c.Enforce(visible(), pages)
	if n != 1 {
		t.Fatalf("evicted %d pages, want 1", n)
	}
	if pages[0].Status() != StatusDetached {
		t.Errorf("page 1 status = %v, want detached (oldest first)", pages[0].Status())
	}
	for _, p := range pages[1:] {
		if p.Status() != StatusRendered {
			t.Errorf("page %d status = %v, want rendered", p.Index(), p.Status())
		}
	}

	// Page 5 pushes over again; page 2 is now the oldest candidate.
	pages = append(pages, renderedPage(t, c, 5, 10, 10))
	c.Enforce(visible(), pages)
	if pages[1].Status() != StatusDetached {
		t.Errorf("page 2 status = %v, want detached", pages[1].Status())
	}
}

func TestEnforceRecencyFollowsTouch(t *testing.T) {
	pageBytes := int64(10 * 10 * 4)
	c := NewCanvasCache(2 * pageBytes)

	a := renderedPage(t, c, 0, 10, 10)
	b := renderedPage(t, c, 1, 10, 10)
	x := renderedPage(t, c, 2, 10, 10)

	// Revisiting page 0 makes page 1 the oldest.
	a.Touch()

	c.Enforce(visible(), []*PageRecord{a, b, x})
	if b.Status() != StatusDetached {
		t.Errorf("page 1 status = %v, want detached (smallest recency)", b.Status())
	}
	if a.Status() != StatusRendered {
		t.Error("touched page evicted before older one")
	}
}

func TestEnforceNeverEvictsVisible(t *testing.T) {
	pageBytes := int64(10 * 10 * 4)
	c := NewCanvasCache(1 * pageBytes)

	var pages []*PageRecord
	for i := 0; i < 3; i++ {
		pages = append(pages, renderedPage(t, c, i, 10, 10))
	}

	c.Enforce(visible(0, 1, 2), pages)
	for _, p := range pages {
		if p.Status() != StatusRendered {
			t.Errorf("visible page %d evicted", p.Index())
		}
	}
	if c.BytesUsed() <= c.Budget() {
		t.Error("test setup expected usage over budget")
	}
}

// A single visible rendered page larger than the budget stays over budget
// with no detach. Documented exception, not a bug.
func TestEnforceOverBudgetVisibleOnly(t *testing.T) {
	c := NewCanvasCache(100)
	p := renderedPage(t, c, 10, 50, 50)

	if n := c.Enforce(visible(10), []*PageRecord{p}); n != 0 {
		t.Errorf("evicted %d pages, want 0", n)
	}
	if p.Status() != StatusRendered {
		t.Errorf("status = %v, want rendered", p.Status())
	}
	if c.BytesUsed() != 50*50*4 {
		t.Errorf("bytesUsed = %d, want unchanged", c.BytesUsed())
	}
}

func TestEnforceStopsAtBudget(t *testing.T) {
	pageBytes := int64(10 * 10 * 4)
	c := NewCanvasCache(2 * pageBytes)

	var pages []*PageRecord
	for i := 0; i < 4; i++ {
		pages = append(pages, renderedPage(t, c, i, 10, 10))
	}

	n := c.Enforce(visible(), pages)
	if n != 2 {
		t.Errorf("evicted %d pages, want exactly 2", n)
	}
	if c.BytesUsed() != 2*pageBytes {
		t.Errorf("bytesUsed = %d, want %d", c.BytesUsed(), 2*pageBytes)
	}
}

func TestCacheReset(t *testing.T) {
	c := NewCanvasCache(1 << 30)
	renderedPage(t, c, 0, 10, 10)

	c.Reset()
	if c.BytesUsed() != 0 {
		t.Errorf("bytesUsed = %d after Reset, want 0", c.BytesUsed())
	}
}

func TestDefaultBudget(t *testing.T) {
	c := NewCanvasCache(0)
	if c.Budget() != DefaultBudgetBytes {
		t.Errorf("Budget() = %d, want DefaultBudgetBytes", c.Budget())
	}
}
