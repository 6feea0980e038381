package input

// Edge describes the press transition carried by a sample.
type Edge int

const (
	Held Edge = iota // no transition
	Pressed
	Released
)

// Sample is the normalized result of one pointer event.
type Sample struct {
	Value Value
	Edge  Edge
	// Octant is set for d-pad controls; OctantChanged reports an edge.
	Octant        Octant
	OctantChanged bool
}

// Tracker is the Idle → Pressed → Idle state machine of one control. It
// re-arms the first-contact reference on every down edge.
type Tracker struct {
	Control Control
	Box     Box
	amp     Amplification
	down    bool
	first   Point
	latch   DirectionLatch
}

func NewTracker(c Control, box Box, amp Amplification) *Tracker {
	return &Tracker{Control: c, Box: box, amp: amp}
}

func (t *Tracker) Down() bool {
	return t.down
}

// Handle consumes a pointer sample.
func (t *Tracker) Handle(down bool, x, y float64) Sample {
	p := Point{X: x, Y: y}
	edge := Held
	switch {
	case down && !t.down:
		edge = Pressed
		t.first = p
	case !down && t.down:
		edge = Released
	}
	t.down = down

	s := Sample{
		Value: Normalize(t.Control.Kind, down, p, t.first, t.Box, t.amp),
		Edge:  edge,
	}
	if t.Control.Kind == DPad {
		s.Octant = Classify(s.Value.Vector.X, s.Value.Vector.Y)
		s.OctantChanged = t.latch.Update(s.Octant)
	}
	return s
}

// Latch exposes the d-pad change detector so non-pointer sources can share it.
func (t *Tracker) Latch() *DirectionLatch {
	return &t.latch
}
