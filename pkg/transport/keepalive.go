package transport

import (
	"errors"
	"sync"
	"time"
)

// ErrIdleTimeout is reported when a stream delivers nothing for longer than
// the configured idle timeout.
var ErrIdleTimeout = errors.New("event stream idle timeout")

// idleWatchdog calls onTimeout once if Touch is not called within timeout.
type idleWatchdog struct {
	mu      sync.Mutex
	timer   *time.Timer
	timeout time.Duration
	fired   bool
	stopped bool
}

// newIdleWatchdog starts a watchdog. A non-positive timeout disables it and
// returns nil; all methods accept a nil receiver.
func newIdleWatchdog(timeout time.Duration, onTimeout func()) *idleWatchdog {
	if timeout <= 0 {
		return nil
	}
	w := &idleWatchdog{timeout: timeout}
	w.timer = time.AfterFunc(timeout, func() {
		w.mu.Lock()
		if w.stopped {
			w.mu.Unlock()
			return
		}
		w.fired = true
		w.mu.Unlock()
		onTimeout()
	})
	return w
}

// Touch records activity and restarts the countdown.
func (w *idleWatchdog) Touch() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped || w.fired {
		return
	}
	w.timer.Reset(w.timeout)
}

// Fired reports whether the timeout elapsed.
func (w *idleWatchdog) Fired() bool {
	if w == nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.fired
}

// Stop disables the watchdog.
func (w *idleWatchdog) Stop() {
	if w == nil {
		return
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.stopped = true
	w.timer.Stop()
}
