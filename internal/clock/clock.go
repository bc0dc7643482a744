// internal/clock/clock.go
//
// Timer provider used by the match engine.
// Responsibilities:
//   - Schedule a repeating callback (the one-second game timer).
//   - Schedule a one-shot callback (mismatch unflip, completion signal).
//   - Hand back a cancellable handle for both.
//
// Real() is backed by package time; Manual (manual.go) is advanced by hand
// and fires callbacks synchronously, which keeps engine tests deterministic.

package clock

import (
	"sync"
	"time"
)

// Timer is a cancellable scheduled callback.
type Timer interface {
	// Stop cancels the callback. It reports whether the timer was still
	// pending; stopping twice is harmless.
	Stop() bool
}

// Clock schedules callbacks.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
	Every(d time.Duration, fn func()) Timer
}

// Real returns a Clock backed by the runtime timers.
func Real() Clock { return realClock{} }

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

func (realClock) Every(d time.Duration, fn func()) Timer {
	t := &ticker{t: time.NewTicker(d), done: make(chan struct{})}
	go func() {
		for {
			select {
			case <-t.done:
				return
			case <-t.t.C:
				fn()
			}
		}
	}()
	return t
}

// ticker wraps time.Ticker with an explicit shutdown so the goroutine exits.
type ticker struct {
	t    *time.Ticker
	once sync.Once
	done chan struct{}
}

func (t *ticker) Stop() bool {
	stopped := false
	t.once.Do(func() {
		t.t.Stop()
		close(t.done)
		stopped = true
	})
	return stopped
}
