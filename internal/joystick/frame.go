// Package joystick turns raw controller readings into normalized control
// values and holds the vibration train for the device's rumble motors. The
// SDL3 polling loop lives in sdlreader.
package joystick

import (
	"slices"

	"github.com/soar/vgamepadnet/internal/input"
)

const (
	hatUp    uint8 = 0x01
	hatRight uint8 = 0x02
	hatDown  uint8 = 0x04
	hatLeft  uint8 = 0x08
)

// DPadSymbol is the control the hat switch drives.
const DPadSymbol = "DP"

// Device is the raw view of one joystick.
type Device interface {
	Axis(index int32) int16
	Button(index int32) bool
	NumButtons() int32
	// Hat returns the first hat's direction bits, or false if there is none.
	Hat() (uint8, bool)
}

// Frame is one poll of a device, keyed by control symbol.
type Frame map[string]input.Value

// ReadFrame samples dev through m.
func ReadFrame(dev Device, m *DeviceMapping, deadzone float64) Frame {
	f := Frame{}

	// Read axes
	for _, am := range m.Axes {
		raw := dev.Axis(am.Index)
		symbol, component := am.Control()
		if am.IsTrigger {
			val := NormalizeTrigger(raw, am.RawMin, am.RawMax)
			f[symbol] = input.Value{Scalar: ApplyDeadzone(val, deadzone)}
			continue
		}
		val := NormalizeAxis(raw)
		if am.Invert {
			val = -val
		}
		val = ApplyDeadzone(val, deadzone)
		v := f[symbol]
		switch component {
		case "x":
			v.Vector.X = val
		case "y":
			v.Vector.Y = val
		}
		v.Pressed = v.Vector != (input.Vector{})
		f[symbol] = v
	}

	// Read buttons
	n := dev.NumButtons()
	for _, bm := range m.Buttons {
		if bm.Index >= n {
			continue
		}
		f[bm.Target] = input.Value{Pressed: dev.Button(bm.Index)}
	}

	// Read hat (D-pad)
	if m.HasHat {
		if hat, ok := dev.Hat(); ok {
			v := HatVector(hat)
			f[DPadSymbol] = input.Value{Pressed: v != (input.Vector{}), Vector: v}
		}
	}
	return f
}

// HatVector turns hat bits into a y-up unit step vector.
func HatVector(hat uint8) input.Vector {
	var v input.Vector
	if hat&hatRight != 0 {
		v.X++
	}
	if hat&hatLeft != 0 {
		v.X--
	}
	if hat&hatUp != 0 {
		v.Y++
	}
	if hat&hatDown != 0 {
		v.Y--
	}
	return v
}

// Changed lists, in sorted order, the symbols whose value differs from
// prev. Symbols missing from f are ignored.
func (f Frame) Changed(prev Frame) []string {
	var out []string
	for sym, v := range f {
		if old, ok := prev[sym]; ok && old == v {
			continue
		}
		out = append(out, sym)
	}
	slices.Sort(out)
	return out
}
