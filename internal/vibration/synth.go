// Package vibration converts the host's motor intensities into on/off pulse
// trains for a binary haptic actuator.
package vibration

import (
	"math"
	"time"

	"github.com/soar/vgamepadnet/internal/loop"
)

const (
	DefaultTick = 10 * time.Millisecond
	DefaultHold = 10
	DefaultK    = 0.7
)

// Output plays a pulse train. A new train replaces the one playing.
type Output interface {
	Vibrate(pattern []int)
}

type Config struct {
	Tick time.Duration
	// Hold is how many ticks an unchanged intensity is held before the
	// train is re-emitted.
	Hold int
	// K is the shaping factor: duty = 1 - (1-peak)*K.
	K        float64
	Strategy Strategy
}

// Synthesizer samples the intensity every tick and emits a train when it
// changes or after it has been held for Hold ticks.
type Synthesizer struct {
	sched loop.Scheduler
	out   Output
	cfg   Config

	raw     float64
	peak    float64
	old     float64
	counter int
	timer   loop.Timer
}

func New(sched loop.Scheduler, out Output, cfg Config) *Synthesizer {
	if cfg.Tick <= 0 {
		cfg.Tick = DefaultTick
	}
	if cfg.Hold <= 0 {
		cfg.Hold = DefaultHold
	}
	if cfg.K <= 0 {
		cfg.K = DefaultK
	}
	if cfg.Strategy == nil {
		cfg.Strategy = Canonical{}
	}
	return &Synthesizer{sched: sched, out: out, cfg: cfg}
}

// SetIntensity records the latest motor levels. The stronger motor drives
// the actuator. A NaN level leaves the previous intensity in place.
func (s *Synthesizer) SetIntensity(large, small float64) {
	if math.IsNaN(large) || math.IsNaN(small) {
		return
	}
	s.raw = clamp01(max(large, small))
}

func (s *Synthesizer) Intensity() float64 {
	return s.raw
}

func (s *Synthesizer) Start() {
	if s.timer != nil {
		return
	}
	s.schedule()
}

// Stop halts ticking and silences the output.
func (s *Synthesizer) Stop() {
	if s.timer == nil {
		return
	}
	s.timer.Stop()
	s.timer = nil
	s.raw, s.peak, s.old, s.counter = 0, 0, 0, 0
	s.out.Vibrate([]int{0})
}

func (s *Synthesizer) schedule() {
	s.timer = s.sched.AfterFunc(s.cfg.Tick, func() {
		s.Tick()
		s.schedule()
	})
}

// Tick runs one sampling step.
func (s *Synthesizer) Tick() {
	if s.peak == s.old {
		if s.peak == 0 {
			s.peak = s.raw
			return
		}
		if s.counter < s.cfg.Hold {
			s.counter++
			s.peak = s.raw
			return
		}
	}
	s.out.Vibrate(s.Pattern(s.peak))
	s.old = s.peak
	s.counter = 0
	s.peak = s.raw
}

// Pattern is the train emitted for intensity.
func (s *Synthesizer) Pattern(intensity float64) []int {
	if intensity <= 0 {
		return []int{0}
	}
	return s.cfg.Strategy.Pattern(Shape(intensity, s.cfg.K))
}

// Shape compresses intensity into the duty cycle range the actuator can
// express.
func Shape(intensity, k float64) float64 {
	return 1 - (1-intensity)*k
}

func clamp01(v float64) float64 {
	return min(max(v, 0), 1)
}
