package core

import (
	"sync"
	"time"
)

// delayer is a single-slot pending-task cell: scheduling a task while one
// is pending replaces it and resets the deadline, so rapid repeated
// triggers coalesce into the most recent one. Cancel drops any pending
// task immediately.
type delayer struct {
	delay time.Duration

	mu    sync.Mutex
	timer *time.Timer
}

func newDelayer(delay time.Duration) *delayer {
	return &delayer{delay: delay}
}

// Trigger schedules fn to run after the configured delay, replacing any
// pending task.
func (d *delayer) Trigger(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, fn)
}

// Cancel drops the pending task, if any.
func (d *delayer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
