package loop

import (
	"sort"
	"time"
)

// Manual is a Scheduler driven by Advance instead of the wall clock. Posted
// closures run immediately on the caller's goroutine.
type Manual struct {
	now    time.Time
	seq    uint64
	timers []*manualTimer
}

func NewManual(start time.Time) *Manual {
	return &Manual{now: start}
}

func (m *Manual) Now() time.Time {
	return m.now
}

func (m *Manual) Post(f func()) {
	f()
}

func (m *Manual) AfterFunc(d time.Duration, f func()) Timer {
	if d < 0 {
		d = 0
	}
	m.seq++
	t := &manualTimer{m: m, when: m.now.Add(d), seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

// Advance moves the clock forward by d, running every timer that becomes
// due in deadline order. Timers scheduled by callbacks run too if they fall
// inside the window.
func (m *Manual) Advance(d time.Duration) {
	target := m.now.Add(d)
	for {
		t := m.next(target)
		if t == nil {
			break
		}
		m.now = t.when
		t.fired = true
		t.f()
	}
	m.now = target
}

// Pending reports how many timers are waiting to fire.
func (m *Manual) Pending() int {
	return len(m.timers)
}

func (m *Manual) next(target time.Time) *manualTimer {
	if len(m.timers) == 0 {
		return nil
	}
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].when.Equal(m.timers[j].when) {
			return m.timers[i].seq < m.timers[j].seq
		}
		return m.timers[i].when.Before(m.timers[j].when)
	})
	t := m.timers[0]
	if t.when.After(target) {
		return nil
	}
	m.timers = m.timers[1:]
	return t
}

func (m *Manual) remove(t *manualTimer) {
	for i, other := range m.timers {
		if other == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

type manualTimer struct {
	m     *Manual
	when  time.Time
	seq   uint64
	f     func()
	fired bool
	done  bool
}

func (t *manualTimer) Stop() bool {
	if t.fired || t.done {
		return false
	}
	t.done = true
	t.m.remove(t)
	return true
}
