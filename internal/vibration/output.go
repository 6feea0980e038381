package vibration

import (
	"log/slog"
	"slices"
)

// LogOutput writes each train to a logger instead of an actuator.
type LogOutput struct {
	Logger *slog.Logger
	last   []int
}

func (o *LogOutput) Vibrate(pattern []int) {
	if slices.Equal(o.last, pattern) {
		o.Logger.Debug("vibrate", "pattern", pattern)
		return
	}
	o.last = slices.Clone(pattern)
	on := 0
	for i := 0; i < len(pattern); i += 2 {
		on += pattern[i]
	}
	o.Logger.Info("vibrate", "pattern", pattern, "on", on, "total", Sum(pattern))
}

// Discard drops every train.
type Discard struct{}

func (Discard) Vibrate([]int) {}
