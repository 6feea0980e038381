package gamepad

import (
	"math"

	"github.com/soar/vgamepadnet/internal/input"
)

type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type StickState struct {
	Position Vector `json:"position"`
	Pressed  bool   `json:"pressed"`
}

type TriggerState struct {
	Value float64 `json:"value"`
}

type ButtonState struct {
	A     bool `json:"a"`
	B     bool `json:"b"`
	X     bool `json:"x"`
	Y     bool `json:"y"`
	LB    bool `json:"lb"`
	RB    bool `json:"rb"`
	Back  bool `json:"back"`
	Start bool `json:"start"`
	Guide bool `json:"guide"`
}

type DpadState struct {
	Up    bool `json:"up"`
	Down  bool `json:"down"`
	Left  bool `json:"left"`
	Right bool `json:"right"`
}

// Octant folds the four directions into a hat position. Opposite
// directions cancel.
func (d DpadState) Octant() input.Octant {
	x, y := 0, 0
	if d.Left {
		x--
	}
	if d.Right {
		x++
	}
	if d.Up {
		y++
	}
	if d.Down {
		y--
	}
	return input.FromComponents(x, y)
}

func DpadFromOctant(o input.Octant) DpadState {
	x, y := o.Components()
	return DpadState{Up: y > 0, Down: y < 0, Left: x < 0, Right: x > 0}
}

type SticksState struct {
	Left  StickState `json:"left"`
	Right StickState `json:"right"`
}

type TriggersState struct {
	LT TriggerState `json:"lt"`
	RT TriggerState `json:"rt"`
}

// Feedback is what the virtual device reports back: motor strengths in
// 0..1 and the player LED number.
type Feedback struct {
	LargeMotor float64 `json:"largeMotor"`
	SmallMotor float64 `json:"smallMotor"`
	LED        int     `json:"led"`
}

// State is the host side view of one controller session.
type State struct {
	Connected bool          `json:"connected"`
	Mode      string        `json:"mode"`
	Name      string        `json:"name"`
	SessionID int           `json:"sessionId"`
	Buttons   ButtonState   `json:"buttons"`
	Dpad      DpadState     `json:"dpad"`
	Sticks    SticksState   `json:"sticks"`
	Triggers  TriggersState `json:"triggers"`
	Feedback  Feedback      `json:"feedback"`
}

// ClearInputs releases every control. Identity and feedback are kept.
func (s *State) ClearInputs() {
	s.Buttons = ButtonState{}
	s.Dpad = DpadState{}
	s.Sticks = SticksState{}
	s.Triggers = TriggersState{}
}

type DeltaChanges struct {
	Connected *bool          `json:"connected,omitempty"`
	Mode      *string        `json:"mode,omitempty"`
	Name      *string        `json:"name,omitempty"`
	Buttons   *ButtonState   `json:"buttons,omitempty"`
	Dpad      *DpadState     `json:"dpad,omitempty"`
	Sticks    *SticksState   `json:"sticks,omitempty"`
	Triggers  *TriggersState `json:"triggers,omitempty"`
	Feedback  *Feedback      `json:"feedback,omitempty"`
}

func (d *DeltaChanges) IsEmpty() bool {
	return d.Connected == nil &&
		d.Mode == nil &&
		d.Name == nil &&
		d.Buttons == nil &&
		d.Dpad == nil &&
		d.Sticks == nil &&
		d.Triggers == nil &&
		d.Feedback == nil
}

const analogThreshold = 0.01

func floatEqual(a, b float64) bool {
	return math.Abs(a-b) < analogThreshold
}

func ComputeDelta(old, new_ State) *DeltaChanges {
	d := &DeltaChanges{}

	if old.Connected != new_.Connected {
		d.Connected = &new_.Connected
	}
	if old.Mode != new_.Mode {
		d.Mode = &new_.Mode
	}
	if old.Name != new_.Name {
		d.Name = &new_.Name
	}
	if old.Buttons != new_.Buttons {
		d.Buttons = &new_.Buttons
	}
	if old.Dpad != new_.Dpad {
		d.Dpad = &new_.Dpad
	}

	if !floatEqual(old.Sticks.Left.Position.X, new_.Sticks.Left.Position.X) ||
		!floatEqual(old.Sticks.Left.Position.Y, new_.Sticks.Left.Position.Y) ||
		old.Sticks.Left.Pressed != new_.Sticks.Left.Pressed ||
		!floatEqual(old.Sticks.Right.Position.X, new_.Sticks.Right.Position.X) ||
		!floatEqual(old.Sticks.Right.Position.Y, new_.Sticks.Right.Position.Y) ||
		old.Sticks.Right.Pressed != new_.Sticks.Right.Pressed {
		d.Sticks = &new_.Sticks
	}

	if !floatEqual(old.Triggers.LT.Value, new_.Triggers.LT.Value) ||
		!floatEqual(old.Triggers.RT.Value, new_.Triggers.RT.Value) {
		d.Triggers = &new_.Triggers
	}

	if !floatEqual(old.Feedback.LargeMotor, new_.Feedback.LargeMotor) ||
		!floatEqual(old.Feedback.SmallMotor, new_.Feedback.SmallMotor) ||
		old.Feedback.LED != new_.Feedback.LED {
		d.Feedback = &new_.Feedback
	}

	return d
}
