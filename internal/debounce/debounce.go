// Package debounce coalesces bursts of triggers into a single callback after
// a quiet period.
package debounce

import (
	"sync"
	"time"
)

// afterFunc is swapped out by tests to drive timer callbacks manually.
var afterFunc = time.AfterFunc

type Debouncer struct {
	mu    sync.Mutex
	delay time.Duration
	timer *time.Timer
	gen   uint64
	fn    func()
}

func New(delay time.Duration, fn func()) *Debouncer {
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger re-arms the debouncer. Only the most recently armed callback runs;
// earlier callbacks are stale and ignored even if their timer already fired.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.timer = afterFunc(d.delay, func() {
		d.mu.Lock()
		stale := gen != d.gen || d.timer == nil
		d.mu.Unlock()
		if stale {
			return
		}
		d.fn()
	})
}

func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.gen++
}

// Ensure initializes *d when nil and returns the stored debouncer. An already
// initialized debouncer keeps its original handler.
func Ensure(d **Debouncer, delay time.Duration, fn func()) *Debouncer {
	if *d == nil {
		*d = New(delay, fn)
	}
	return *d
}
