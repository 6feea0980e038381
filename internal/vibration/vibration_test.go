package vibration

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soar/vgamepadnet/internal/loop"
)

type capture struct {
	trains [][]int
}

func (c *capture) Vibrate(p []int) { c.trains = append(c.trains, p) }

func TestCanonicalEdges(t *testing.T) {
	c := Canonical{Total: 100, Grain: 5}
	assert.Equal(t, []int{100}, c.Pattern(1))
	assert.Equal(t, []int{100}, c.Pattern(1.2))
	assert.Equal(t, []int{0}, c.Pattern(0))
	assert.Equal(t, []int{0}, c.Pattern(-1))
}

func TestCanonicalSumsToTotal(t *testing.T) {
	c := Canonical{Total: 100, Grain: 5}
	for duty := 0.01; duty < 1; duty += 0.01 {
		p := c.Pattern(duty)
		assert.Equal(t, 100, Sum(p), "duty %v", duty)
		for _, v := range p {
			assert.Positive(t, v, "duty %v: %v", duty, p)
		}
	}
}

func TestCanonicalHighDuty(t *testing.T) {
	p := Canonical{Total: 100, Grain: 5}.Pattern(0.86)
	assert.Equal(t, []int{31, 5, 30, 5, 29}, p)
}

func TestCanonicalLowDuty(t *testing.T) {
	p := Canonical{Total: 100, Grain: 5}.Pattern(0.3)
	// on grows by 5, off follows 5*0.7/0.3
	assert.Equal(t, 5, p[0])
	assert.Equal(t, 12, p[1])
	assert.Equal(t, 100, Sum(p))
}

func TestSlotted(t *testing.T) {
	s := Slotted{Slots: 50, Unit: 10}
	assert.Equal(t, []int{0}, s.Pattern(0))
	assert.Equal(t, []int{500}, s.Pattern(1))

	p := s.Pattern(0.5)
	assert.Equal(t, 500, Sum(p))
	assert.Equal(t, []int{5, 5, 5}, p[:3])

	// 0.05 leaves the first slot empty
	p = s.Pattern(0.05)
	assert.Equal(t, 500, Sum(p))
	assert.NotZero(t, p[0])
}

func TestMerge(t *testing.T) {
	tests := []struct {
		name string
		in   []int
		want []int
	}{
		{"no zeros", []int{3, 4, 5}, []int{3, 4, 5}},
		{"interior zero on", []int{5, 5, 0, 5, 5}, []int{5, 10, 5}},
		{"interior zero off", []int{10, 0, 10, 0}, []int{20}},
		{"trailing zero", []int{29, 5, 30, 0}, []int{29, 5, 30}},
		{"leading zero", []int{0, 10, 1, 9}, []int{1, 19}},
		{"leading zero odd", []int{0, 10, 1}, []int{1, 10}},
		{"all zero", []int{0, 0}, []int{0}},
		{"idle", []int{0}, []int{0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Merge(tt.in)
			assert.Equal(t, tt.want, got)
			if Sum(tt.in) > 0 {
				assert.Equal(t, Sum(tt.in), Sum(got))
			}
		})
	}
}

func TestHysteresis(t *testing.T) {
	clock := loop.NewManual(time.Unix(0, 0))
	out := &capture{}
	s := New(clock, out, Config{})
	s.Start()

	clock.Advance(50 * time.Millisecond)
	assert.Empty(t, out.trains, "silent while idle")

	s.SetIntensity(1, 0)
	clock.Advance(10 * time.Millisecond) // latch
	assert.Empty(t, out.trains)
	clock.Advance(10 * time.Millisecond) // emit
	require.Len(t, out.trains, 1)
	assert.Equal(t, []int{100}, out.trains[0])

	// held for Hold ticks, then re-emitted
	clock.Advance(100 * time.Millisecond)
	assert.Len(t, out.trains, 1)
	clock.Advance(10 * time.Millisecond)
	assert.Len(t, out.trains, 2)

	s.SetIntensity(0, 0)
	clock.Advance(10 * time.Millisecond) // latch
	clock.Advance(10 * time.Millisecond)
	assert.Equal(t, []int{0}, out.trains[len(out.trains)-1])

	s.Stop()
	assert.Zero(t, clock.Pending())
}

func TestNaNIntensityKeepsLevel(t *testing.T) {
	clock := loop.NewManual(time.Unix(0, 0))
	out := &capture{}
	s := New(clock, out, Config{})
	s.Start()

	s.SetIntensity(math.NaN(), 0)
	assert.Zero(t, s.Intensity())
	clock.Advance(50 * time.Millisecond)
	assert.Empty(t, out.trains)

	s.SetIntensity(1, 0)
	s.SetIntensity(0, math.NaN())
	assert.Equal(t, 1.0, s.Intensity())
	clock.Advance(20 * time.Millisecond)
	require.Len(t, out.trains, 1)
	for _, d := range out.trains[0] {
		assert.GreaterOrEqual(t, d, 0)
	}
}

func TestEndToEndIntensity(t *testing.T) {
	clock := loop.NewManual(time.Unix(0, 0))
	out := &capture{}
	s := New(clock, out, Config{})
	s.Start()
	s.SetIntensity(0.8, 0.1)
	clock.Advance(20 * time.Millisecond)

	require.Len(t, out.trains, 1)
	p := out.trains[0]
	assert.InDelta(t, 0.86, Shape(0.8, DefaultK), 1e-9)
	assert.Equal(t, 100, Sum(p))
	on := 0
	for i := 0; i < len(p); i += 2 {
		on += p[i]
	}
	assert.Greater(t, on, 50)
}
