package loop

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManualRunsTimersInDeadlineOrder(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var got []string
	m.AfterFunc(30*time.Millisecond, func() { got = append(got, "c") })
	m.AfterFunc(10*time.Millisecond, func() { got = append(got, "a") })
	m.AfterFunc(10*time.Millisecond, func() { got = append(got, "b") })

	m.Advance(20 * time.Millisecond)
	assert.Equal(t, []string{"a", "b"}, got)

	m.Advance(10 * time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, got)
	assert.Equal(t, 0, m.Pending())
}

func TestManualChainedTimersInsideWindow(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	var fired []time.Duration
	start := m.Now()
	var tick func()
	tick = func() {
		fired = append(fired, m.Now().Sub(start))
		m.AfterFunc(50*time.Millisecond, tick)
	}
	m.AfterFunc(50*time.Millisecond, tick)

	m.Advance(175 * time.Millisecond)
	assert.Equal(t, []time.Duration{50 * time.Millisecond, 100 * time.Millisecond, 150 * time.Millisecond}, fired)
}

func TestManualStop(t *testing.T) {
	m := NewManual(time.Unix(0, 0))
	ran := false
	tm := m.AfterFunc(time.Millisecond, func() { ran = true })
	assert.True(t, tm.Stop())
	assert.False(t, tm.Stop())
	m.Advance(time.Second)
	assert.False(t, ran)
}

func TestLoopRunsPostedAndTimers(t *testing.T) {
	l := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	done := make(chan string, 2)
	l.Post(func() { done <- "posted" })
	l.Post(func() {
		l.AfterFunc(5*time.Millisecond, func() { done <- "timer" })
	})

	for _, want := range []string{"posted", "timer"} {
		select {
		case got := <-done:
			assert.Equal(t, want, got)
		case <-time.After(time.Second):
			require.FailNow(t, "timed out waiting for "+want)
		}
	}
}

func TestLoopStoppedTimerNeverFires(t *testing.T) {
	l := New(8)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = l.Run(ctx) }()

	fired := make(chan struct{}, 1)
	stopped := make(chan bool, 1)
	l.Post(func() {
		tm := l.AfterFunc(20*time.Millisecond, func() { fired <- struct{}{} })
		stopped <- tm.Stop()
	})
	assert.True(t, <-stopped)

	select {
	case <-fired:
		t.Fatal("stopped timer fired")
	case <-time.After(60 * time.Millisecond):
	}
}
