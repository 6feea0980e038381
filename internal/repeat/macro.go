package repeat

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/google/shlex"

	"github.com/soar/vgamepadnet/internal/loop"
)

const (
	DefaultMacroPeriod = 100 * time.Millisecond
	// NoOp is the pause step.
	NoOp     = "."
	MaxSpeed = 2
	MinSpeed = -2
)

// Dispatcher presses and releases a control named by a macro step.
type Dispatcher interface {
	Down(token string)
	Up(token string)
}

// Tokenize splits macro text into steps. Quoting follows shell rules.
func Tokenize(text string) ([]string, error) {
	steps, err := shlex.Split(text)
	if err != nil {
		return nil, fmt.Errorf("tokenize macro: %w", err)
	}
	return steps, nil
}

// Macro plays a list of steps in a loop. Each step takes two ticks: press
// on the first, release and advance on the second.
type Macro struct {
	sched    loop.Scheduler
	dispatch Dispatcher
	resolve  func(token string) string
	period   time.Duration
	logger   *slog.Logger

	steps     []string
	speed     int
	running   bool
	cursor    int
	phaseDown bool
	timer     loop.Timer
}

// NewMacro creates a stopped macro. resolve maps a step token to the name
// passed to dispatch; nil passes tokens through unchanged.
func NewMacro(sched loop.Scheduler, dispatch Dispatcher, resolve func(string) string, period time.Duration, logger *slog.Logger) *Macro {
	if period <= 0 {
		period = DefaultMacroPeriod
	}
	if resolve == nil {
		resolve = func(s string) string { return s }
	}
	return &Macro{
		sched:    sched,
		dispatch: dispatch,
		resolve:  resolve,
		period:   period,
		logger:   logger,
	}
}

// SetText replaces the steps. A running macro is stopped first.
func (m *Macro) SetText(text string) error {
	steps, err := Tokenize(text)
	if err != nil {
		return err
	}
	m.SetSteps(steps)
	return nil
}

func (m *Macro) SetSteps(steps []string) {
	m.Stop()
	m.steps = append([]string(nil), steps...)
}

func (m *Macro) Steps() []string {
	return m.steps
}

func (m *Macro) Running() bool {
	return m.running
}

// Speed is the current speed level in [MinSpeed, MaxSpeed].
func (m *Macro) Speed() int {
	return m.speed
}

// AdjustSpeed moves the speed level by delta, clamped. Each level doubles or
// halves the tick rate; the change applies from the next tick.
func (m *Macro) AdjustSpeed(delta int) int {
	m.speed = min(max(m.speed+delta, MinSpeed), MaxSpeed)
	return m.speed
}

// Period is the tick period at the current speed.
func (m *Macro) Period() time.Duration {
	if m.speed >= 0 {
		return m.period >> m.speed
	}
	return m.period << -m.speed
}

func (m *Macro) Toggle() bool {
	if m.running {
		m.Stop()
	} else {
		m.Start()
	}
	return m.running
}

// Start plays from the first step.
func (m *Macro) Start() {
	if len(m.steps) == 0 {
		m.logger.Warn("macro has no steps")
		return
	}
	m.Stop()
	m.running = true
	m.cursor = 0
	m.phaseDown = false
	m.schedule()
}

// Stop halts playback, releasing the in-flight step.
func (m *Macro) Stop() {
	if !m.running {
		return
	}
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.phaseDown {
		m.up(m.steps[m.cursor])
	}
	m.running = false
	m.phaseDown = false
}

func (m *Macro) schedule() {
	m.timer = m.sched.AfterFunc(m.Period(), m.tick)
}

func (m *Macro) tick() {
	step := m.steps[m.cursor]
	if m.phaseDown {
		m.up(step)
		m.phaseDown = false
		m.cursor = (m.cursor + 1) % len(m.steps)
	} else {
		m.down(step)
		m.phaseDown = true
	}
	m.schedule()
}

func (m *Macro) down(step string) {
	if step == NoOp {
		return
	}
	m.dispatch.Down(m.resolve(step))
}

func (m *Macro) up(step string) {
	if step == NoOp {
		return
	}
	m.dispatch.Up(m.resolve(step))
}
