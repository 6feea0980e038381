// Package loop provides the single goroutine every controller callback runs
// on. Transport readers, input sources and timers never touch controller
// state directly; they Post closures here and the loop runs them one at a
// time, each to completion.
package loop

import (
	"context"
	"time"
)

// Timer is a pending callback scheduled with AfterFunc.
type Timer interface {
	// Stop cancels the callback. It reports false if the callback already
	// ran or was already stopped. Must be called from the loop goroutine.
	Stop() bool
}

// Scheduler is what controller components need from the event loop.
type Scheduler interface {
	Now() time.Time
	// AfterFunc runs f on the loop after d.
	AfterFunc(d time.Duration, f func()) Timer
	// Post runs f on the loop as soon as possible. Safe from any goroutine.
	Post(f func())
}

// Loop is the real-time Scheduler.
type Loop struct {
	queue chan func()
	done  chan struct{}
}

func New(buffer int) *Loop {
	if buffer <= 0 {
		buffer = 256
	}
	return &Loop{
		queue: make(chan func(), buffer),
		done:  make(chan struct{}),
	}
}

// Run executes posted closures until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case f := <-l.queue:
			f()
		}
	}
}

// Post queues f. Closures posted after Run returned are dropped.
func (l *Loop) Post(f func()) {
	select {
	case l.queue <- f:
	case <-l.done:
	}
}

func (l *Loop) Now() time.Time {
	return time.Now()
}

func (l *Loop) AfterFunc(d time.Duration, f func()) Timer {
	t := &loopTimer{}
	t.t = time.AfterFunc(d, func() {
		l.Post(func() {
			if t.stopped {
				return
			}
			t.fired = true
			f()
		})
	})
	return t
}

// loopTimer fields are only touched on the loop goroutine.
type loopTimer struct {
	t       *time.Timer
	stopped bool
	fired   bool
}

func (t *loopTimer) Stop() bool {
	if t.stopped || t.fired {
		return false
	}
	t.stopped = true
	t.t.Stop()
	return true
}
