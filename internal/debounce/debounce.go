package debounce

import (
	"context"
	"sync"
	"time"
)

// Task is a unit of debounced work. ctx is cancelled once a newer task is
// scheduled or the debouncer stops.
type Task func(ctx context.Context)

// Debouncer coalesces bursts of Schedule calls: only the most recent task
// runs, after delay has passed without another call.
type Debouncer struct {
	delay time.Duration

	mu      sync.Mutex
	gen     uint64
	timer   *time.Timer
	pending Task
	ctx     context.Context
	cancel  context.CancelFunc
	stopped bool
	running sync.WaitGroup
}

// New creates a debouncer with the given quiet period
func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Schedule replaces any pending task with fn and restarts the quiet period.
// The context of the previous task, pending or running, is cancelled.
func (d *Debouncer) Schedule(fn Task) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if d.cancel != nil {
		d.cancel()
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	d.gen++
	gen := d.gen
	d.ctx, d.cancel = context.WithCancel(context.Background())
	d.pending = fn
	d.timer = time.AfterFunc(d.delay, func() { d.fire(gen) })
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if gen != d.gen || d.pending == nil {
		d.mu.Unlock()
		return
	}
	fn, ctx := d.take()
	d.mu.Unlock()

	defer d.running.Done()
	fn(ctx)
}

// take hands out the pending task; d.mu must be held
func (d *Debouncer) take() (Task, context.Context) {
	fn, ctx := d.pending, d.ctx
	d.pending = nil
	d.running.Add(1)
	return fn, ctx
}

// Flush runs the pending task immediately on the calling goroutine.
// It reports whether a task ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.pending == nil {
		d.mu.Unlock()
		return false
	}
	if d.timer != nil {
		d.timer.Stop()
	}
	fn, ctx := d.take()
	d.mu.Unlock()

	defer d.running.Done()
	fn(ctx)
	return true
}

// Pending reports whether a task is waiting for its quiet period
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}

// Stop cancels the pending and running tasks and waits for running ones to
// return. Later Schedule calls are ignored.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	if d.cancel != nil {
		d.cancel()
	}
	d.pending = nil
	d.mu.Unlock()

	d.running.Wait()
}
