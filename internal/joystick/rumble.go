package joystick

import (
	"slices"
	"sync"
	"time"
)

// Rumble is a vibration.Output that plays trains on the joystick motors.
// Vibrate may be called from any goroutine; the reader applies the current
// segment on every poll.
type Rumble struct {
	mu      sync.Mutex
	pattern []int
	started time.Time
	now     func() time.Time
}

func NewRumble() *Rumble {
	return &Rumble{now: time.Now}
}

func (r *Rumble) Vibrate(pattern []int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pattern = slices.Clone(pattern)
	r.started = r.now()
}

// Current reports whether the motors should run now and how long the
// current segment lasts from here. A finished train is off.
func (r *Rumble) Current() (on bool, left time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.pattern == nil {
		return false, 0
	}
	on, left, ok := segmentAt(r.pattern, r.now().Sub(r.started))
	if !ok {
		r.pattern = nil
		return false, 0
	}
	return on, left
}

// segmentAt locates elapsed within a train of alternating on/off
// millisecond durations, starting with on.
func segmentAt(pattern []int, elapsed time.Duration) (on bool, left time.Duration, ok bool) {
	var end time.Duration
	for i, ms := range pattern {
		end += time.Duration(ms) * time.Millisecond
		if elapsed < end {
			return i%2 == 0, end - elapsed, true
		}
	}
	return false, 0, false
}
