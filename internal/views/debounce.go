// ABOUTME: Timer-reset debouncer used by the entry form's food search.
// ABOUTME: A newer trigger cancels the context of the call it supersedes.
package views

import (
	"context"
	"sync"
	"time"
)

// Debouncer delays a call until triggers stop arriving for the configured delay.
type Debouncer struct {
	mu     sync.Mutex
	delay  time.Duration
	timer  *time.Timer
	cancel context.CancelFunc
	gen    uint64
}

// NewDebouncer returns a Debouncer that waits delay after the last trigger.
func NewDebouncer(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Trigger schedules fn, superseding any pending or running call.
// fn receives a context that is cancelled when a later trigger arrives.
func (d *Debouncer) Trigger(parent context.Context, fn func(ctx context.Context)) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopLocked()
	d.gen++
	gen := d.gen
	ctx, cancel := context.WithCancel(parent)
	d.cancel = cancel

	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		current := d.gen == gen
		d.mu.Unlock()
		if !current {
			return
		}
		fn(ctx)
	})
}

// Cancel drops the pending call and cancels one already running.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.gen++
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
}
