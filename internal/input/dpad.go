package input

import (
	"fmt"
	"math"
)

// Octant is a d-pad direction. North is 0 and the values run clockwise;
// Center is 8, which is also its wire encoding.
type Octant int

const (
	North Octant = iota
	NorthEast
	East
	SouthEast
	South
	SouthWest
	West
	NorthWest
	Center
)

// DPadDeadzone is the per-axis extent at or below which the d-pad is
// centered. The square it bounds contains the disc of the same radius.
const DPadDeadzone = 0.4

var octantNames = [...]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW", "C"}

func (o Octant) String() string {
	if o < North || o > Center {
		return fmt.Sprintf("octant(%d)", int(o))
	}
	return octantNames[o]
}

func (o Octant) Valid() bool {
	return o >= North && o <= Center
}

// Classify buckets a y-up vector into an octant.
func Classify(x, y float64) Octant {
	if math.Max(math.Abs(x), math.Abs(y)) <= DPadDeadzone {
		return Center
	}
	// Screen orientation: y grows downwards, so North sits at -π/2 and the
	// +2 offset brings it to index 0.
	angle := math.Atan2(-y, x)
	dir := int(math.Floor(angle/(2*math.Pi)*8+2+0.5)) % 8
	if dir < 0 {
		dir += 8
	}
	return Octant(dir)
}

// Components returns the unit steps of o as (right, up) in {-1, 0, 1}.
func (o Octant) Components() (x, y int) {
	switch o {
	case North:
		return 0, 1
	case NorthEast:
		return 1, 1
	case East:
		return 1, 0
	case SouthEast:
		return 1, -1
	case South:
		return 0, -1
	case SouthWest:
		return -1, -1
	case West:
		return -1, 0
	case NorthWest:
		return -1, 1
	}
	return 0, 0
}

// FromComponents is the inverse of Components for hat-switch style inputs.
func FromComponents(x, y int) Octant {
	if x == 0 && y == 0 {
		return Center
	}
	return Classify(float64(x), float64(y))
}

// DirectionLatch turns a stream of octants into change events.
type DirectionLatch struct {
	last    Octant
	emitted bool
}

// Update reports whether o differs from the last emitted octant and records
// it if so. The first non-center octant always counts as a change.
func (l *DirectionLatch) Update(o Octant) bool {
	if !l.emitted {
		l.emitted = true
		l.last = o
		return o != Center
	}
	if o == l.last {
		return false
	}
	l.last = o
	return true
}

// Reset forgets the last emitted octant.
func (l *DirectionLatch) Reset() {
	l.emitted = false
	l.last = Center
}

func (l *DirectionLatch) Last() Octant {
	if !l.emitted {
		return Center
	}
	return l.last
}
