// Package input turns pointer samples on a control's bounding box into the
// normalized values the protocol carries.
package input

import "math"

// Box is a control's bounding box in device pixels.
type Box struct {
	Left, Top, Width, Height float64
}

func (b Box) empty() bool {
	return b.Width <= 0 || b.Height <= 0
}

type Point struct {
	X, Y float64
}

// Vector is a stick or d-pad deflection. Y grows upwards.
type Vector struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (v Vector) Magnitude() float64 {
	return math.Sqrt(v.X*v.X + v.Y*v.Y)
}

// ClampUnit scales v back onto the unit disc when it lies outside it.
func ClampUnit(v Vector) Vector {
	d := v.Magnitude()
	if d > 1 {
		v.X /= d
		v.Y /= d
	}
	return v
}

// Value is a normalized input. Which field is meaningful depends on the
// control kind: Pressed for buttons, Vector for sticks and d-pads, Scalar for
// triggers.
type Value struct {
	Pressed bool
	Vector  Vector
	Scalar  float64
}

// Amplification holds the per-kind gain applied before clamping.
type Amplification struct {
	Stick float64
	DPad  float64
}

var DefaultAmplification = Amplification{Stick: 1.5, DPad: 1.0}

// Normalize maps one pointer sample on box to a normalized value. first is
// the pointer position at the most recent down edge; only triggers use it.
func Normalize(kind Kind, down bool, p, first Point, box Box, amp Amplification) Value {
	switch kind {
	case Button:
		return Value{Pressed: down}
	case Stick:
		return Value{Pressed: down, Vector: normalizeVector(down, p, box, amp.Stick)}
	case DPad:
		return Value{Pressed: down, Vector: normalizeVector(down, p, box, amp.DPad)}
	case Trigger:
		return Value{Pressed: down, Scalar: normalizeTrigger(down, p, first, box)}
	}
	return Value{}
}

func normalizeVector(down bool, p Point, box Box, gain float64) Vector {
	if !down || box.empty() {
		return Vector{}
	}
	if gain <= 0 {
		gain = 1
	}
	u := 2*(p.X-box.Left)/box.Width - 1
	v := -(2*(p.Y-box.Top)/box.Height - 1)
	return ClampUnit(Vector{X: u * gain, Y: v * gain})
}

// normalizeTrigger measures the downward drag from the first contact point.
func normalizeTrigger(down bool, p, first Point, box Box) float64 {
	if !down || box.empty() {
		return 0
	}
	v := 2 * (p.Y - first.Y) / box.Height
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return v
}
