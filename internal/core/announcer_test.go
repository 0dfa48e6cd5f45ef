package core

import (
	"testing"
	"time"
)

// manualTimers captures scheduled clear callbacks so tests fire them
// deterministically.
type manualTimers struct {
	callbacks []func()
}

func (m *manualTimers) afterFunc(_ time.Duration, fn func()) *time.Timer {
	m.callbacks = append(m.callbacks, fn)
	// A real timer armed far in the future; Stop is harmless.
	return time.AfterFunc(time.Hour, func() {})
}

func newManualAnnouncer(delay time.Duration) (*Announcer, *manualTimers) {
	timers := &manualTimers{}
	a := NewAnnouncer(delay)
	a.afterFunc = timers.afterFunc
	return a, timers
}

func TestAnnounceSetsAndClears(t *testing.T) {
	a, timers := newManualAnnouncer(time.Second)
	a.Announce("Product owner lapsed.")
	if got := a.Current(); got != "Product owner lapsed." {
		t.Fatalf("current = %q", got)
	}
	timers.callbacks[0]()
	if got := a.Current(); got != "" {
		t.Fatalf("announcement not cleared: %q", got)
	}
}

func TestAnnounceSupersedesPriorTimer(t *testing.T) {
	a, timers := newManualAnnouncer(time.Second)
	a.Announce("first")
	a.Announce("second")
	// the first timer fires late; the sequence guard must keep "second"
	timers.callbacks[0]()
	if got := a.Current(); got != "second" {
		t.Fatalf("stale timer cleared a newer announcement: %q", got)
	}
	timers.callbacks[1]()
	if got := a.Current(); got != "" {
		t.Fatalf("second announcement not cleared: %q", got)
	}
}

func TestAnnounceAfterCloseDropped(t *testing.T) {
	a, timers := newManualAnnouncer(time.Second)
	a.Announce("visible")
	a.Close()
	a.Announce("ignored")
	if got := a.Current(); got != "visible" {
		t.Fatalf("announce after close mutated state: %q", got)
	}
	// pending timer firing after close must be a no-op as well
	timers.callbacks[0]()
	if got := a.Current(); got != "visible" {
		t.Fatalf("timer after close mutated state: %q", got)
	}
}

func TestAnnouncerDefaultDelay(t *testing.T) {
	a := NewAnnouncer(0)
	if a.delay != DefaultAnnounceDelay {
		t.Fatalf("delay = %v, want %v", a.delay, DefaultAnnounceDelay)
	}
	a.Close()
}
