// Package schedule holds the single-slot deferred task used to coalesce
// resize notifications.
package schedule

import (
	"sync"
	"time"
)

// Timer is the part of *time.Timer the debouncer needs.
type Timer interface {
	Stop() bool
}

// AfterFunc schedules f after d. time.AfterFunc satisfies it once wrapped.
type AfterFunc func(d time.Duration, f func()) Timer

func realAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Debouncer runs at most one pending task. Scheduling replaces whatever is
// pending, so only the latest request runs, once the delay has passed with
// no newer request. A zero delay runs the task synchronously.
type Debouncer struct {
	delay     time.Duration
	afterFunc AfterFunc

	mu     sync.Mutex
	gen    uint64
	task   func()
	timer  Timer
	closed bool
}

type Option func(*Debouncer)

// WithAfterFunc replaces the timer source, for tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(d *Debouncer) { d.afterFunc = fn }
}

func New(delay time.Duration, opts ...Option) *Debouncer {
	if delay < 0 {
		delay = 0
	}
	d := &Debouncer{delay: delay, afterFunc: realAfterFunc}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Schedule makes task the pending one. It returns false after Close.
func (d *Debouncer) Schedule(task func()) bool {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return false
	}
	d.stopLocked()
	d.gen++

	if d.delay == 0 {
		d.mu.Unlock()
		task()
		return true
	}

	gen := d.gen
	d.task = task
	d.timer = d.afterFunc(d.delay, func() { d.fire(gen) })
	d.mu.Unlock()
	return true
}

func (d *Debouncer) fire(gen uint64) {
	d.mu.Lock()
	if d.closed || gen != d.gen || d.task == nil {
		d.mu.Unlock()
		return
	}
	task := d.task
	d.task = nil
	d.timer = nil
	d.mu.Unlock()

	task()
}

// Flush runs the pending task now, if any. It reports whether one ran.
func (d *Debouncer) Flush() bool {
	d.mu.Lock()
	if d.closed || d.task == nil {
		d.mu.Unlock()
		return false
	}
	task := d.task
	d.stopLocked()
	d.gen++
	d.mu.Unlock()

	task()
	return true
}

// Cancel drops the pending task without running it.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	had := d.task != nil
	d.stopLocked()
	d.gen++
	return had
}

// Close cancels the pending task and rejects further scheduling.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopLocked()
	d.gen++
	d.closed = true
}

func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.task != nil
}

func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

func (d *Debouncer) stopLocked() {
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.task = nil
}
