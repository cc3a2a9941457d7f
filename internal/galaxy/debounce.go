package galaxy

import (
	"sync"
	"time"
)

// Debouncer turns a stream of interactive edits into finalized changes:
// fn runs once with the last value pushed, after wait has passed without
// another push.
type Debouncer struct {
	wait time.Duration
	fn   func(Parameters)

	mu      sync.Mutex
	timer   *time.Timer
	pending *Parameters
}

func NewDebouncer(wait time.Duration, fn func(Parameters)) *Debouncer {
	return &Debouncer{wait: wait, fn: fn}
}

func (d *Debouncer) Push(p Parameters) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pending = &p
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.wait, d.fire)
}

// Flush delivers the pending value now, if any. Use it when the edit
// gesture ends explicitly.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.mu.Unlock()
	d.fire()
}

// Stop drops the pending value.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}

func (d *Debouncer) fire() {
	d.mu.Lock()
	p := d.pending
	d.pending = nil
	d.mu.Unlock()

	if p != nil {
		d.fn(*p)
	}
}
