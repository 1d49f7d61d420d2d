package client

import (
	"sync"
	"time"
)

// watchdog is a single-slot timer: at most one pending timer exists at a
// time. Arming cancels any pending timer first, so overlapping timers
// can never fire stale transitions.
//
// It exists because the transport's own retry and backoff can silently
// stay "connecting" past any sane UI deadline; the watchdog bounds that
// wait independently.
type watchdog struct {
	mu    sync.Mutex
	timer *time.Timer
}

// Arm schedules fn after d, cancelling any pending timer first.
func (w *watchdog) Arm(d time.Duration, fn func()) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(d, fn)
}

// Cancel stops any pending timer.
func (w *watchdog) Cancel() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
}
