// Package repeat drives auto-repeat (turbo) buttons and macro playback on
// loop timers.
package repeat

import (
	"time"

	"github.com/soar/vgamepadnet/internal/loop"
	"github.com/soar/vgamepadnet/internal/protocol"
)

const DefaultTurboPeriod = 50 * time.Millisecond

type turboState struct {
	timer   loop.Timer
	pressed bool
}

// Turbo alternates enabled buttons between pressed and released. Only
// enabled buttons have an entry.
type Turbo struct {
	sched   loop.Scheduler
	period  time.Duration
	send    func(line string)
	buttons map[string]*turboState
}

// NewTurbo returns a Turbo that emits bdown/bup lines through send.
func NewTurbo(sched loop.Scheduler, period time.Duration, send func(line string)) *Turbo {
	if period <= 0 {
		period = DefaultTurboPeriod
	}
	return &Turbo{
		sched:   sched,
		period:  period,
		send:    send,
		buttons: make(map[string]*turboState),
	}
}

func (t *Turbo) Enabled(name string) bool {
	_, ok := t.buttons[name]
	return ok
}

// Toggle flips the turbo state of name and returns the new state.
func (t *Turbo) Toggle(name string) bool {
	on := !t.Enabled(name)
	t.Set(name, on)
	return on
}

func (t *Turbo) Set(name string, on bool) {
	st, ok := t.buttons[name]
	switch {
	case on && !ok:
		st = &turboState{}
		t.buttons[name] = st
		t.press(name, st)
	case !on && ok:
		delete(t.buttons, name)
		if st.timer != nil {
			st.timer.Stop()
		}
		if st.pressed {
			t.send(protocol.ButtonUp(name))
		}
	}
}

// StopAll disables every button.
func (t *Turbo) StopAll() {
	for name := range t.buttons {
		t.Set(name, false)
	}
}

func (t *Turbo) press(name string, st *turboState) {
	st.pressed = true
	t.send(protocol.ButtonDown(name))
	st.timer = t.sched.AfterFunc(t.period, func() { t.release(name, st) })
}

func (t *Turbo) release(name string, st *turboState) {
	st.pressed = false
	t.send(protocol.ButtonUp(name))
	st.timer = t.sched.AfterFunc(t.period, func() { t.press(name, st) })
}
