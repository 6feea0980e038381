package gamepad

import (
	"errors"
	"fmt"
	"math"

	"github.com/soar/vgamepadnet/internal/input"
	"github.com/soar/vgamepadnet/internal/protocol"
)

var (
	ErrUnknownField = errors.New("unknown field")
	ErrBadValue     = errors.New("bad value")
)

type setter func(s *State, v float64)

func press(field func(*State) *bool) setter {
	return func(s *State, v float64) { *field(s) = v != 0 }
}

func axis(field func(*State) *float64) setter {
	return func(s *State, v float64) { *field(s) = clamp(v, -1, 1) }
}

func trigger(field func(*State) *float64) setter {
	return func(s *State, v float64) { *field(s) = clamp(v, 0, 1) }
}

// xboxFields maps protocol field names onto the pad. Names are case
// sensitive, matching what controllers send.
var xboxFields = map[string]setter{
	"A":     press(func(s *State) *bool { return &s.Buttons.A }),
	"B":     press(func(s *State) *bool { return &s.Buttons.B }),
	"X":     press(func(s *State) *bool { return &s.Buttons.X }),
	"Y":     press(func(s *State) *bool { return &s.Buttons.Y }),
	"LB":    press(func(s *State) *bool { return &s.Buttons.LB }),
	"RB":    press(func(s *State) *bool { return &s.Buttons.RB }),
	"back":  press(func(s *State) *bool { return &s.Buttons.Back }),
	"start": press(func(s *State) *bool { return &s.Buttons.Start }),
	"guide": press(func(s *State) *bool { return &s.Buttons.Guide }),
	"LS":    press(func(s *State) *bool { return &s.Sticks.Left.Pressed }),
	"RS":    press(func(s *State) *bool { return &s.Sticks.Right.Pressed }),
	"up":    press(func(s *State) *bool { return &s.Dpad.Up }),
	"down":  press(func(s *State) *bool { return &s.Dpad.Down }),
	"left":  press(func(s *State) *bool { return &s.Dpad.Left }),
	"right": press(func(s *State) *bool { return &s.Dpad.Right }),
	"LT":    trigger(func(s *State) *float64 { return &s.Triggers.LT.Value }),
	"RT":    trigger(func(s *State) *float64 { return &s.Triggers.RT.Value }),
	"LSx":   axis(func(s *State) *float64 { return &s.Sticks.Left.Position.X }),
	"LSy":   axis(func(s *State) *float64 { return &s.Sticks.Left.Position.Y }),
	"RSx":   axis(func(s *State) *float64 { return &s.Sticks.Right.Position.X }),
	"RSy":   axis(func(s *State) *float64 { return &s.Sticks.Right.Position.Y }),
}

// ds4Fields accepts the xbox names plus the PlayStation ones.
var ds4Fields = withAliases(xboxFields, map[string]string{
	"cross":    "A",
	"circle":   "B",
	"square":   "X",
	"triangle": "Y",
	"L1":       "LB",
	"R1":       "RB",
	"L2":       "LT",
	"R2":       "RT",
	"L3":       "LS",
	"R3":       "RS",
	"share":    "back",
	"options":  "start",
	"PS":       "guide",
})

func withAliases(base map[string]setter, aliases map[string]string) map[string]setter {
	out := make(map[string]setter, len(base)+len(aliases))
	for k, v := range base {
		out[k] = v
	}
	for alias, name := range aliases {
		out[alias] = base[name]
	}
	return out
}

func fields(mode string) map[string]setter {
	if mode == string(protocol.ModeDS4) {
		return ds4Fields
	}
	return xboxFields
}

// Set applies one protocol field to the pad using the table of the
// pad's current mode.
func (s *State) Set(name string, v float64) error {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fmt.Errorf("%w: %s=%v", ErrBadValue, name, v)
	}
	f, ok := fields(s.Mode)[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, name)
	}
	f(s, v)
	return nil
}

// SetStick applies the direct "<stick> <x> <y>" form.
func (s *State) SetStick(name string, x, y float64) error {
	if err := s.Set(name+"x", x); err != nil {
		return err
	}
	return s.Set(name+"y", y)
}

// IsStick reports whether name is a stick, which makes a two argument
// line the direct vector form.
func IsStick(name string) bool {
	return name == "LS" || name == "RS"
}

// IsTrigger reports whether name is an analog trigger in the pad's mode.
func (s *State) IsTrigger(name string) bool {
	switch name {
	case "LT", "RT":
		return true
	case "L2", "R2":
		return s.Mode == string(protocol.ModeDS4)
	}
	return false
}

func (s *State) SetDPad(o input.Octant) error {
	if !o.Valid() {
		return fmt.Errorf("%w: dpad %d", ErrBadValue, int(o))
	}
	s.Dpad = DpadFromOctant(o)
	return nil
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
