package core

import (
	"sync"
	"time"
)

// DefaultAnnounceDelay is how long an announcement stays visible before the
// throttle clears it.
const DefaultAnnounceDelay = 3 * time.Second

// Announcer exposes transient human-readable status text with an
// auto-clearing timer. A new announcement replaces the current text and
// restarts the timer; at most one timer is armed at any moment. Close
// cancels the pending timer so nothing mutates state after disposal.
type Announcer struct {
	mu        sync.Mutex
	delay     time.Duration
	current   string
	timer     *time.Timer
	seq       uint64
	closed    bool
	afterFunc func(time.Duration, func()) *time.Timer
}

// NewAnnouncer constructs a throttle with the given clear delay; zero or
// negative falls back to DefaultAnnounceDelay.
func NewAnnouncer(delay time.Duration) *Announcer {
	if delay <= 0 {
		delay = DefaultAnnounceDelay
	}
	return &Announcer{delay: delay, afterFunc: time.AfterFunc}
}

// Announce replaces the current text and re-arms the clear timer. The prior
// timer is cancelled rather than stacked. Calls after Close are dropped.
func (a *Announcer) Announce(msg string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.current = msg
	a.seq++
	seq := a.seq
	a.timer = a.afterFunc(a.delay, func() { a.clear(seq) })
}

// clear wipes the text when the arming announcement is still the latest.
// The sequence guard covers the race where a stopped timer had already
// fired.
func (a *Announcer) clear(seq uint64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || seq != a.seq {
		return
	}
	a.current = ""
	a.timer = nil
}

// Current returns the visible announcement, or empty when cleared.
func (a *Announcer) Current() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.current
}

// Close cancels any pending timer and freezes the announcer.
func (a *Announcer) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
