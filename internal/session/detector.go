package session

import (
	"sync"
	"time"
)

// IdleDetector ends a conversation after a period without new fragments.
// A zero or negative timeout disables it; Touch and Stop are then no-ops.
type IdleDetector struct {
	timeout time.Duration

	mu     sync.Mutex
	timer  *time.Timer
	onIdle func()
}

func NewIdleDetector(timeout time.Duration) *IdleDetector {
	return &IdleDetector{timeout: timeout}
}

// Enabled reports whether the detector will ever fire.
func (d *IdleDetector) Enabled() bool {
	return d != nil && d.timeout > 0
}

func (d *IdleDetector) OnIdle(callback func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onIdle = callback
}

// Touch records activity and restarts the idle countdown.
func (d *IdleDetector) Touch() {
	if !d.Enabled() {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.timer = time.AfterFunc(d.timeout, func() {
		d.mu.Lock()
		callback := d.onIdle
		d.timer = nil
		d.mu.Unlock()

		if callback != nil {
			callback()
		}
	})
}

// Stop cancels a pending countdown, e.g. after an explicit conversation end.
func (d *IdleDetector) Stop() {
	if !d.Enabled() {
		return
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}
