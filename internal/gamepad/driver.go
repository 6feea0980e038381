package gamepad

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/soar/vgamepadnet/internal/protocol"
)

// Driver is the virtual device behind a session. Update and Reset are
// called from the session's read goroutine; a driver may report feedback
// from any goroutine.
type Driver interface {
	Update(State)
	Reset()
	Close() error
}

type FeedbackFunc func(Feedback)

// DriverFactory creates the device for a session in the given mode.
type DriverFactory func(session int, mode protocol.Mode, feedback FeedbackFunc) (Driver, error)

// NewDriverFactory returns the built-in driver registered under name.
func NewDriverFactory(name string, logger *slog.Logger) (DriverFactory, error) {
	switch name {
	case "log":
		return func(session int, mode protocol.Mode, _ FeedbackFunc) (Driver, error) {
			return NewLogDriver(logger.With("session", session, "mode", mode)), nil
		}, nil
	case "echo":
		return func(session int, mode protocol.Mode, feedback FeedbackFunc) (Driver, error) {
			return NewEchoDriver(session, feedback), nil
		}, nil
	}
	return nil, fmt.Errorf("unknown driver %q", name)
}

// LogDriver writes every state change to the log.
type LogDriver struct {
	logger *slog.Logger
	last   State
}

func NewLogDriver(logger *slog.Logger) *LogDriver {
	return &LogDriver{logger: logger}
}

func (d *LogDriver) Update(s State) {
	delta := ComputeDelta(d.last, s)
	d.last = s
	if delta.IsEmpty() {
		return
	}
	d.logger.Debug("Pad update",
		"buttons", s.Buttons,
		"dpad", s.Dpad.Octant(),
		"left", s.Sticks.Left,
		"right", s.Sticks.Right,
		"lt", s.Triggers.LT.Value,
		"rt", s.Triggers.RT.Value)
}

func (d *LogDriver) Reset() {
	d.last = State{}
	d.logger.Info("Pad reset")
}

func (d *LogDriver) Close() error {
	d.logger.Info("Pad removed")
	return nil
}

// EchoDriver reflects the triggers back as motor feedback, LT on the large
// motor and RT on the small one. The LED number is the session id.
type EchoDriver struct {
	mu       sync.Mutex
	led      int
	last     Feedback
	sent     bool
	feedback FeedbackFunc
}

func NewEchoDriver(led int, feedback FeedbackFunc) *EchoDriver {
	return &EchoDriver{led: led, feedback: feedback}
}

func (d *EchoDriver) Update(s State) {
	d.report(Feedback{
		LargeMotor: s.Triggers.LT.Value,
		SmallMotor: s.Triggers.RT.Value,
		LED:        d.led,
	})
}

func (d *EchoDriver) Reset() {
	d.report(Feedback{LED: d.led})
}

func (d *EchoDriver) Close() error {
	d.mu.Lock()
	d.feedback = nil
	d.mu.Unlock()
	return nil
}

func (d *EchoDriver) report(fb Feedback) {
	d.mu.Lock()
	if d.sent && fb == d.last {
		d.mu.Unlock()
		return
	}
	d.last, d.sent = fb, true
	f := d.feedback
	d.mu.Unlock()
	if f != nil {
		f(fb)
	}
}
