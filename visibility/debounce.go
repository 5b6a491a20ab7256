package visibility

import (
	"sync"
	"time"
)

// DefaultDebounce is the idle interval after the last scroll event before
// the debounced function fires.
const DefaultDebounce = 120 * time.Millisecond

// Debouncer coalesces a burst of scroll events into one trailing call.
// Each Touch restarts the idle timer; fn runs only once the timer expires
// without another Touch. This avoids triggering a render cycle on every
// scroll frame while guaranteeing one final cycle once scrolling settles.
//
// Debouncer is safe for concurrent use.
type Debouncer struct {
	mu       sync.Mutex
	interval time.Duration
	timer    *time.Timer
	stopped  bool
	fn       func()
}

// NewDebouncer creates a debouncer invoking fn after interval of quiet.
// interval <= 0 selects DefaultDebounce.
func NewDebouncer(interval time.Duration, fn func()) *Debouncer {
	if interval <= 0 {
		interval = DefaultDebounce
	}
	return &Debouncer{interval: interval, fn: fn}
}

// Touch (re)starts the idle timer.
func (d *Debouncer) Touch() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

// Flush runs fn immediately if a call is pending, cancelling the timer.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	pending := d.timer != nil && d.timer.Stop()
	d.timer = nil
	d.mu.Unlock()
	if pending {
		d.fn()
	}
}

// Stop cancels any pending call. The debouncer ignores Touch afterwards.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.timer = nil
	d.mu.Unlock()
	d.fn()
}
