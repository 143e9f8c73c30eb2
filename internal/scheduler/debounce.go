package scheduler

import (
	"sync"
	"time"
)

// Debouncer delays an action until a quiet interval with no further triggers
// has elapsed. Every Trigger cancels the previously scheduled fire and
// reschedules it, so a burst of triggers yields exactly one fire, timed from
// the last trigger. An already-running fire is never cancelled.
type Debouncer struct {
	mu       sync.Mutex
	delay    time.Duration
	fire     func()
	suppress func() bool
	timer    *time.Timer
	stopped  bool
}

// NewDebouncer creates a Debouncer that calls fire after delay of quiet.
func NewDebouncer(delay time.Duration, fire func()) *Debouncer {
	return &Debouncer{delay: delay, fire: fire}
}

// SetSuppress installs a predicate consulted on every trigger and again at
// fire time. While it returns true the trigger is dropped entirely, not
// deferred.
func (d *Debouncer) SetSuppress(suppress func() bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.suppress = suppress
}

// Trigger restarts the quiet-interval timer.
func (d *Debouncer) Trigger() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	if d.suppress != nil && d.suppress() {
		return
	}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		if d.stopped || (d.suppress != nil && d.suppress()) {
			d.mu.Unlock()
			return
		}
		d.mu.Unlock()
		d.fire()
	})
}

// Stop cancels any scheduled fire and disables the debouncer.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
