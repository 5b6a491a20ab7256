package reader

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gogpu/pageflow"
	"github.com/gogpu/pageflow/engine"
	"github.com/gogpu/pageflow/navstate"
	"github.com/gogpu/pageflow/sizecache"
	"github.com/gogpu/pageflow/visibility"
)

// Defaults applied by Open for zero-value Config fields.
const (
	// DefaultPPI is the rendering resolution used when none is configured
	// and none is restored from the navigation state.
	DefaultPPI = 96.0

	// DefaultPageGap is the vertical gap between pages in the scroll
	// container, in pixels.
	DefaultPageGap = 16
)

// defaultEstimatedPage stands in for pages whose geometry is not known yet
// (US Letter), so the scroll layout has a usable height before sizing.
var defaultEstimatedPage = pageflow.SizePt{Width: 612, Height: 792}

// Viewport is the visible area of the scroll container, in pixels.
type Viewport struct {
	Width  int
	Height int
}

// Config configures Open. Engine and Data are required; everything else
// has a zero-value default.
type Config struct {
	// Engine rasterizes the document. Required.
	Engine engine.Engine

	// EngineOptions is passed to Engine.Init.
	EngineOptions engine.Options

	// DocumentID identifies the document in the size cache and is
	// required only when SizeCache is set.
	DocumentID string

	// Data is the raw document bytes. Required.
	Data []byte

	// PPI is the initial rendering resolution. 0 means DefaultPPI.
	// A resolution restored from Location takes precedence.
	PPI float64

	// BudgetBytes caps total raster memory. 0 means DefaultBudgetBytes.
	BudgetBytes int64

	// Viewport is the initial viewport size.
	Viewport Viewport

	// Margin expands the viewport for the wide visible set.
	// 0 means visibility.DefaultMargin.
	Margin int

	// BandFraction positions the narrow reading band.
	// 0 means visibility.DefaultBandFraction.
	BandFraction float64

	// Debounce is the scroll idle interval before a render cycle.
	// 0 means visibility.DefaultDebounce.
	Debounce time.Duration

	// PageGap is the vertical gap between pages. 0 means DefaultPageGap.
	PageGap int

	// EstimatedPageSize stands in for unsized pages in the layout.
	// Zero means US Letter.
	EstimatedPageSize pageflow.SizePt

	// SizeCache, when set, persists page geometry across sessions.
	SizeCache *sizecache.Store

	// Location, when set, persists the reading position (page,
	// resolution, in-page offset) and restores it at open.
	Location navstate.Location
}

// Store orchestrates rendering for one open document. It owns the page
// records, the canvas cache, the render scheduler, and the visibility
// tracker, and is torn down by Close.
//
// Store is safe for concurrent use.
type Store struct {
	cfg Config
	doc engine.DocumentHandle

	mu          sync.Mutex
	pages       []*PageRecord
	tops        []int // layout: top offset per page, recomputed on change
	totalHeight int
	ppi         float64
	currentPage int
	pageOffset  float64 // scroll offset within current page, 0.0-1.0
	visible     []int   // last reported wide set, ascending
	cache       *CanvasCache
	tracker     *visibility.Tracker
	sizesDirty  bool // geometry fetched since the last persist

	sched    *Scheduler
	debounce *visibility.Debouncer
	syncer   *navstate.Syncer
	closed   atomic.Bool
}

// Open loads a document and starts the first render cycle.
//
// Geometry comes from the size cache when available, skipping the engine
// entirely for sizing. Document-level failures (engine init, corrupt data)
// are returned here; per-page failures later only mark individual pages.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Engine == nil {
		return nil, errors.New("reader: Config.Engine is required")
	}
	if len(cfg.Data) == 0 {
		return nil, errors.New("reader: Config.Data is required")
	}
	if cfg.PPI < 0 {
		return nil, fmt.Errorf("reader: negative PPI %v", cfg.PPI)
	}
	if cfg.EstimatedPageSize.IsZero() {
		cfg.EstimatedPageSize = defaultEstimatedPage
	}
	if cfg.PageGap <= 0 {
		cfg.PageGap = DefaultPageGap
	}

	if err := cfg.Engine.Init(ctx, cfg.EngineOptions); err != nil {
		return nil, fmt.Errorf("reader: engine init: %w", err)
	}
	doc, err := cfg.Engine.LoadDocument(ctx, cfg.Data)
	if err != nil {
		return nil, fmt.Errorf("reader: load document: %w", err)
	}
	count := doc.PageCount()
	if count <= 0 {
		doc.Destroy()
		return nil, fmt.Errorf("reader: document has %d pages", count)
	}

	st := &Store{
		cfg:   cfg,
		doc:   doc,
		ppi:   cfg.PPI,
		cache: NewCanvasCache(cfg.BudgetBytes),
	}
	if st.ppi == 0 {
		st.ppi = DefaultPPI
	}

	st.pages = make([]*PageRecord, count)
	for i := range st.pages {
		st.pages[i] = newPageRecord(i)
	}

	// Restore the reading position before anything renders.
	restored := navstate.State{}
	if cfg.Location != nil {
		if s, ok := navstate.Decode(cfg.Location.Query()); ok {
			restored = s
			if s.PPI > 0 {
				st.ppi = s.PPI
			}
			if s.Page >= 0 && s.Page < count {
				st.currentPage = s.Page
				st.pageOffset = s.Offset
			}
		}
		st.syncer = navstate.NewSyncer(cfg.Location)
	}

	st.applyCachedSizes()
	st.recomputeLayout()

	st.tracker = visibility.NewTracker(&storeLayout{st}, cfg.Viewport.Height, cfg.Margin, cfg.BandFraction)
	st.sched = NewScheduler(st.renderCycle)
	st.debounce = visibility.NewDebouncer(cfg.Debounce, st.sched.Trigger)

	// Place the viewport at the restored position and compute the initial
	// visible set from it.
	st.mu.Lock()
	top, height := st.pageRectLocked(st.currentPage)
	st.tracker.SetScroll(top + int(restored.Offset*float64(height)))
	st.visible = st.tracker.VisibleSet()
	st.mu.Unlock()

	pageflow.Logger().Info("document opened",
		slog.String("doc", cfg.DocumentID),
		slog.Int("pages", count),
		slog.Float64("ppi", st.ppi))

	st.sched.Trigger()
	return st, nil
}

// applyCachedSizes seeds page geometry from the size cache. On a full hit
// every page skips the engine for sizing.
func (st *Store) applyCachedSizes() {
	if st.cfg.SizeCache == nil || st.cfg.DocumentID == "" {
		return
	}
	sizes, err := st.cfg.SizeCache.Get(st.cfg.DocumentID)
	if err != nil {
		pageflow.Logger().Warn("size cache read failed", slog.Any("err", err))
		return
	}
	for _, s := range sizes {
		if s.PageIndex < 0 || s.PageIndex >= len(st.pages) {
			continue
		}
		p := st.pages[s.PageIndex]
		if p.Status() != StatusIdle {
			continue
		}
		p.transition(StatusSizing)
		p.setGeometry(pageflow.SizePt{Width: s.WidthPt, Height: s.HeightPt})
		p.SetSizeFromPoints(st.ppi)
		p.transition(StatusReady)
	}
}

// Close tears the store down: cancels the scroll idle timer, waits for any
// in-flight cycle to abort, detaches every surface, destroys the document
// handle, and clears the page records. Idempotent.
func (st *Store) Close() error {
	if st.closed.Swap(true) {
		return nil
	}
	st.debounce.Stop()
	st.sched.Wait()

	st.mu.Lock()
	st.persistSizesLocked()
	for _, p := range st.pages {
		if p.Status() == StatusRendered {
			st.cache.NoteDetach(p)
		}
	}
	st.pages = nil
	st.tops = nil
	doc := st.doc
	st.doc = nil
	st.mu.Unlock()

	if doc != nil {
		doc.Destroy()
	}
	pageflow.Logger().Info("store closed", slog.String("doc", st.cfg.DocumentID))
	return nil
}

// Scrolled reports a new scroll offset of the container, in pixels. The
// visible set and reading position update immediately; the render cycle is
// debounced so fast scrolling settles into one trailing cycle.
func (st *Store) Scrolled(offset int) {
	if st.closed.Load() {
		return
	}
	st.mu.Lock()
	st.tracker.SetScroll(offset)
	st.visible = st.tracker.VisibleSet()
	st.currentPage = st.tracker.CurrentPage()
	top, height := st.pageRectLocked(st.currentPage)
	if height > 0 {
		off := float64(offset-top) / float64(height)
		st.pageOffset = clampFloat(off, 0, 1)
	}
	st.mu.Unlock()

	st.debounce.Touch()
}

// ScrollToPage scrolls so that the given page starts at the top of the
// viewport.
func (st *Store) ScrollToPage(index int) {
	st.mu.Lock()
	index = clampInt(index, 0, len(st.pages)-1)
	top, _ := st.pageRectLocked(index)
	st.mu.Unlock()
	st.Scrolled(top)
}

// SetViewport reports a viewport resize.
func (st *Store) SetViewport(v Viewport) {
	if st.closed.Load() {
		return
	}
	st.mu.Lock()
	st.cfg.Viewport = v
	st.tracker.SetViewportHeight(v.Height)
	st.visible = st.tracker.VisibleSet()
	st.mu.Unlock()

	st.debounce.Touch()
}

// SetPPI changes the rendering resolution. Setting the current value is a
// no-op. Otherwise every page's pixel geometry is recomputed, every
// rendered surface is freed back to ready (forcing a re-render), the byte
// counter resets, and a new cycle is triggered. An in-flight cycle is not
// cancelled; pages it renders late at the old resolution are detected as
// stale and re-rendered next cycle.
func (st *Store) SetPPI(ppi float64) {
	if st.closed.Load() || ppi <= 0 {
		return
	}
	st.mu.Lock()
	if ppi == st.ppi {
		st.mu.Unlock()
		return
	}
	st.ppi = ppi
	for _, p := range st.pages {
		p.SetSizeFromPoints(ppi)
		if p.Status() == StatusRendered {
			p.surface = nil
			p.transition(StatusReady)
		}
	}
	st.cache.Reset()
	st.recomputeLayoutLocked()
	st.mu.Unlock()

	pageflow.Logger().Info("resolution changed", slog.Float64("ppi", ppi))
	st.sched.Trigger()
}

// Invalidate requests a render cycle without waiting for the debouncer.
func (st *Store) Invalidate() {
	if st.closed.Load() {
		return
	}
	st.sched.Trigger()
}

// WaitIdle flushes any pending debounced trigger and blocks until no cycle
// is running. Used by hosts that need rendering to settle (tests, batch
// export).
func (st *Store) WaitIdle() {
	st.debounce.Flush()
	st.sched.Wait()
}

// PageCount returns the number of pages.
func (st *Store) PageCount() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.pages)
}

// CurrentPage returns the page under the narrow reading band.
func (st *Store) CurrentPage() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.currentPage
}

// PageOffset returns the scroll offset within the current page, 0.0-1.0.
func (st *Store) PageOffset() float64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.pageOffset
}

// PPI returns the current rendering resolution.
func (st *Store) PPI() float64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.ppi
}

// VisiblePages returns a copy of the current wide visible set.
func (st *Store) VisiblePages() []int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return append([]int(nil), st.visible...)
}

// BytesUsed returns current raster memory usage.
func (st *Store) BytesUsed() int64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cache.BytesUsed()
}

// Budget returns the configured raster memory budget.
func (st *Store) Budget() int64 {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.cache.Budget()
}

// PageStatus returns a page's status and failure message.
func (st *Store) PageStatus(index int) (Status, string) {
	st.mu.Lock()
	defer st.mu.Unlock()
	if index < 0 || index >= len(st.pages) {
		return StatusIdle, ""
	}
	p := st.pages[index]
	return p.Status(), p.Err()
}

// Snapshot returns a copy of a rendered page's raster, or nil if the page
// is not currently rendered.
func (st *Store) Snapshot(index int) *image.RGBA {
	st.mu.Lock()
	defer st.mu.Unlock()
	if index < 0 || index >= len(st.pages) {
		return nil
	}
	p := st.pages[index]
	if p.Status() != StatusRendered || p.surface == nil {
		return nil
	}
	p.Touch()
	return p.surface.Snapshot()
}

// TotalHeight returns the scroll container height implied by the layout.
func (st *Store) TotalHeight() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return st.totalHeight
}

// renderCycle is one pass of the scheduler: size and rasterize the visible
// pages in ascending order, enforcing the budget after every page, then
// persist newly fetched geometry and sync the navigation state.
func (st *Store) renderCycle() {
	if st.closed.Load() {
		return
	}
	ctx := context.Background()

	// The cycle renders the order chosen at its start; visibility updates
	// arriving mid-cycle are observed by the next cycle.
	st.mu.Lock()
	order := append([]int(nil), st.visible...)
	sort.Ints(order)
	if len(order) == 0 && len(st.pages) > 0 {
		order = []int{clampInt(st.currentPage, 0, len(st.pages)-1)}
	}
	st.mu.Unlock()

	for _, index := range order {
		// Document disposal is the only cancellation point, checked
		// before each page's work begins.
		if st.closed.Load() {
			return
		}
		st.renderPage(ctx, index)

		st.mu.Lock()
		st.cache.Enforce(st.visibleSetLocked(), st.pages)
		st.mu.Unlock()
	}

	st.mu.Lock()
	st.persistSizesLocked()
	state := navstate.State{Page: st.currentPage, PPI: st.ppi, Offset: st.pageOffset}
	st.mu.Unlock()

	if st.syncer != nil {
		st.syncer.Sync(state)
	}
}

// renderPage sizes and rasterizes one page. The store mutex is released
// across engine calls; per-page failures mark only this page and never
// abort the cycle.
func (st *Store) renderPage(ctx context.Context, index int) {
	st.mu.Lock()
	if index < 0 || index >= len(st.pages) || st.doc == nil {
		st.mu.Unlock()
		return
	}
	p := st.pages[index]
	doc := st.doc
	ppi := st.ppi

	// Ensure geometry.
	if p.Status() == StatusIdle {
		p.transition(StatusSizing)
		st.mu.Unlock()
		size, err := doc.PageSize(ctx, index)
		st.mu.Lock()
		if err != nil {
			gerr := &pageflow.GeometryError{Page: index, Err: err}
			p.fail(gerr.Error())
			st.mu.Unlock()
			pageflow.Logger().Warn("geometry fetch failed", slog.Any("err", gerr))
			return
		}
		p.setGeometry(size)
		p.SetSizeFromPoints(ppi)
		p.transition(StatusReady)
		st.sizesDirty = true
		st.recomputeLayoutLocked()
	}

	switch p.Status() {
	case StatusRendered:
		want := pageflow.PixelSize(p.SizePt(), ppi)
		if p.surface != nil && p.surface.Width() == want.Width && p.surface.Height() == want.Height {
			// Already rendered at the current resolution.
			p.Touch()
			st.mu.Unlock()
			return
		}
		// Rendered late at a stale resolution; free and re-render.
		st.cache.NoteDetach(p)
	case StatusReady, StatusDetached:
	default:
		// error, or a sizing/rendering state left by a failed
		// transition; nothing to do this cycle
		st.mu.Unlock()
		return
	}

	p.SetSizeFromPoints(ppi)
	p.transition(StatusRendering)
	surf := p.EnsureSurface()
	st.mu.Unlock()

	page, err := doc.LoadPage(ctx, index)
	if err == nil {
		err = page.RenderTo(ctx, surf, ppi)
		page.Destroy()
	}

	st.mu.Lock()
	if err != nil {
		rerr := &pageflow.RasterError{Page: index, Err: err}
		p.surface = nil // drop the partially drawn surface
		p.fail(rerr.Error())
		st.mu.Unlock()
		pageflow.Logger().Warn("rasterization failed", slog.Any("err", rerr))
		return
	}
	st.cache.NoteAttach(p, surf)
	used := st.cache.BytesUsed()
	st.mu.Unlock()

	pageflow.Logger().Debug("page rendered",
		slog.Int("page", index),
		slog.Float64("ppi", ppi),
		slog.Int64("bytesUsed", used))
}

// persistSizesLocked writes newly fetched geometry to the size cache.
// Caller must hold st.mu.
func (st *Store) persistSizesLocked() {
	if !st.sizesDirty || st.cfg.SizeCache == nil || st.cfg.DocumentID == "" {
		return
	}
	var sizes []sizecache.PageSize
	for _, p := range st.pages {
		if p.SizePt().IsZero() {
			continue
		}
		sizes = append(sizes, sizecache.PageSize{
			PageIndex: p.Index(),
			WidthPt:   p.SizePt().Width,
			HeightPt:  p.SizePt().Height,
		})
	}
	if err := st.cfg.SizeCache.Put(st.cfg.DocumentID, sizes); err != nil {
		pageflow.Logger().Warn("size cache write failed", slog.Any("err", err))
		return
	}
	st.sizesDirty = false
}

// visibleSetLocked returns the visible set as a lookup map.
// Caller must hold st.mu.
func (st *Store) visibleSetLocked() map[int]struct{} {
	set := make(map[int]struct{}, len(st.visible))
	for _, i := range st.visible {
		set[i] = struct{}{}
	}
	return set
}

// recomputeLayout recomputes page offsets in the scroll container.
func (st *Store) recomputeLayout() {
	st.mu.Lock()
	defer st.mu.Unlock()
	st.recomputeLayoutLocked()
}

// recomputeLayoutLocked rebuilds the layout prefix sums.
// Caller must hold st.mu.
func (st *Store) recomputeLayoutLocked() {
	st.tops = make([]int, len(st.pages))
	y := 0
	for i, p := range st.pages {
		st.tops[i] = y
		y += st.pageHeightLocked(p) + st.cfg.PageGap
	}
	st.totalHeight = y
}

// pageHeightLocked returns a page's layout height, substituting the
// estimated page size while geometry is unknown.
// Caller must hold st.mu.
func (st *Store) pageHeightLocked(p *PageRecord) int {
	if !p.SizePt().IsZero() {
		return pageflow.PixelSize(p.SizePt(), st.ppi).Height
	}
	return pageflow.PixelSize(st.cfg.EstimatedPageSize, st.ppi).Height
}

// pageRectLocked returns a page's top offset and height in the layout.
// Caller must hold st.mu.
func (st *Store) pageRectLocked(index int) (top, height int) {
	if index < 0 || index >= len(st.tops) {
		return 0, 0
	}
	return st.tops[index], st.pageHeightLocked(st.pages[index])
}

// storeLayout adapts the store to visibility.Layout. Its methods are only
// invoked by the tracker while the store holds its own mutex, so they read
// without locking.
type storeLayout struct {
	s *Store
}

func (l *storeLayout) PageCount() int {
	return len(l.s.pages)
}

func (l *storeLayout) PageRect(index int) (top, height int) {
	return l.s.pageRectLocked(index)
}

func clampInt(v, lo, hi int) int {
	if hi < lo {
		return lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
