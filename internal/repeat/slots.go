package repeat

import (
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/soar/vgamepadnet/internal/loop"
)

// Slots holds the named macros (M1..M4). At most one plays at a time and
// they share one speed level.
type Slots struct {
	macros map[string]*Macro
	speed  int
}

func NewSlots(sched loop.Scheduler, dispatch Dispatcher, resolve func(string) string, period time.Duration, logger *slog.Logger, texts map[string]string) (*Slots, error) {
	s := &Slots{macros: make(map[string]*Macro, len(texts))}
	for name, text := range texts {
		m := NewMacro(sched, dispatch, resolve, period, logger.With("macro", name))
		if err := m.SetText(text); err != nil {
			return nil, fmt.Errorf("macro %s: %w", name, err)
		}
		s.macros[strings.ToUpper(name)] = m
	}
	return s, nil
}

func (s *Slots) Names() []string {
	names := make([]string, 0, len(s.macros))
	for n := range s.macros {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (s *Slots) Get(name string) (*Macro, bool) {
	m, ok := s.macros[strings.ToUpper(name)]
	return m, ok
}

// Toggle starts or stops the named macro, stopping any other one first.
func (s *Slots) Toggle(name string) (bool, error) {
	m, ok := s.Get(name)
	if !ok {
		return false, fmt.Errorf("no macro named %q", name)
	}
	if !m.Running() {
		s.StopAll()
	}
	return m.Toggle(), nil
}

// AdjustSpeed changes the shared speed level and returns the new one.
func (s *Slots) AdjustSpeed(delta int) int {
	s.speed = min(max(s.speed+delta, MinSpeed), MaxSpeed)
	for _, m := range s.macros {
		m.speed = s.speed
	}
	return s.speed
}

func (s *Slots) Speed() int {
	return s.speed
}

func (s *Slots) StopAll() {
	for _, m := range s.macros {
		m.Stop()
	}
}
