package vibration

import "math"

const (
	DefaultTotal = 100
	DefaultGrain = 5
	DefaultSlots = 50
	DefaultUnit  = 10
)

// Strategy turns a duty cycle in [0,1] into an on/off duration list.
// Even indexes are "on", odd indexes are "off".
type Strategy interface {
	Pattern(duty float64) []int
}

// Canonical builds a train of total length Total from on/off pairs whose
// shorter side grows by Grain per pair.
type Canonical struct {
	Total int
	Grain int
}

func (c Canonical) Pattern(duty float64) []int {
	total, grain := c.Total, c.Grain
	if total <= 0 {
		total = DefaultTotal
	}
	if grain <= 0 {
		grain = DefaultGrain
	}
	if duty >= 1 {
		return []int{total}
	}
	if duty <= 0 {
		return []int{0}
	}
	var (
		a             []int
		totOn, totOff int
	)
	for totOn+totOff < total {
		if duty > 0.5 {
			totOff += grain
			on := roundHalfUp(float64(totOff)*duty/(1-duty) - float64(totOn))
			a = append(a, on, grain)
			totOn += on
		} else {
			totOn += grain
			off := roundHalfUp(float64(totOn)*(1-duty)/duty - float64(totOff))
			a = append(a, grain, off)
			totOff += off
		}
	}
	trim(a, totOn+totOff-total)
	return Merge(a)
}

// Slotted spreads duty over Slots slots of Unit length, carrying the
// fractional remainder from slot to slot.
type Slotted struct {
	Slots int
	Unit  int
}

func (s Slotted) Pattern(duty float64) []int {
	slots, unit := s.Slots, s.Unit
	if slots <= 0 {
		slots = DefaultSlots
	}
	if unit <= 0 {
		unit = DefaultUnit
	}
	if duty <= 0 {
		return []int{0}
	}
	a := make([]int, 0, slots*2)
	d := 0.0
	for i := 0; i < slots; i++ {
		d += float64(unit) * duty
		p := math.Floor(d)
		d -= p
		on := min(int(p), unit)
		a = append(a, on, unit-on)
	}
	return Merge(a)
}

// Merge removes zero-length entries without changing the total length. An
// interior zero joins its two neighbours, a trailing zero is dropped and a
// leading zero "on" moves its following "off" to the end of the train. An
// empty result becomes the idle train [0].
func Merge(a []int) []int {
	out := make([]int, 0, len(a))
	for i := 0; i < len(a); i++ {
		if a[i] == 0 && len(out) > 0 && i+1 < len(a) {
			out[len(out)-1] += a[i+1]
			i++
			continue
		}
		out = append(out, a[i])
	}
	for len(out) > 0 && out[len(out)-1] == 0 {
		out = out[:len(out)-1]
	}
	if len(out) >= 2 && out[0] == 0 {
		off := out[1]
		out = out[2:]
		switch {
		case len(out) == 0:
		case len(out)%2 == 1:
			out = append(out, off)
		default:
			out[len(out)-1] += off
		}
	}
	if len(out) == 0 {
		return []int{0}
	}
	return out
}

// Sum is the total length of a train.
func Sum(a []int) int {
	n := 0
	for _, v := range a {
		n += v
	}
	return n
}

// trim shortens the tail of a by excess.
func trim(a []int, excess int) {
	for i := len(a) - 1; i >= 0 && excess > 0; i-- {
		d := min(a[i], excess)
		a[i] -= d
		excess -= d
	}
}

func roundHalfUp(v float64) int {
	return int(math.Floor(v + 0.5))
}
