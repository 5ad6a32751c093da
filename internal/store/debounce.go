package store

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid updates into one flush. Every Arm cancels the
// previous timer before starting a new one, so the callback can never fire
// twice for one armed window.
type Debouncer struct {
	interval time.Duration
	fire     func()

	mu    sync.Mutex
	timer *time.Timer
}

// NewDebouncer creates a debouncer that invokes fire after interval of
// quiet.
func NewDebouncer(interval time.Duration, fire func()) *Debouncer {
	return &Debouncer{interval: interval, fire: fire}
}

// Arm (re)starts the quiet window.
func (d *Debouncer) Arm() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.interval, d.fire)
}

// Cancel stops any pending fire.
func (d *Debouncer) Cancel() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
}

// Flush cancels the timer and fires synchronously.
func (d *Debouncer) Flush() {
	d.Cancel()
	d.fire()
}
