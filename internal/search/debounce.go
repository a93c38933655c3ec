package search

import (
	"sync"
	"time"
)

// DefaultDebounce is the quiet period a query must survive before the
// index lookup fires.
const DefaultDebounce = 200 * time.Millisecond

// Debouncer delays a function until its caller has gone quiet. Each Do
// supersedes any pending call: only the last function submitted within a
// burst runs. Note this only stops a superseded lookup from *starting*; a
// lookup already in flight has no cancellation token and may still land
// late. Callers must tolerate one stale result.
type Debouncer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer. delay <= 0 uses DefaultDebounce.
func NewDebouncer(delay time.Duration) *Debouncer {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &Debouncer{delay: delay}
}

// Do schedules fn after the quiet period, cancelling any pending call.
func (d *Debouncer) Do(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Stop cancels any pending call.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
