package repeat

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	vlog "github.com/soar/vgamepadnet/internal/log"
	"github.com/soar/vgamepadnet/internal/loop"
)

type recorder struct {
	lines []string
}

func (r *recorder) send(line string) { r.lines = append(r.lines, line) }
func (r *recorder) Down(t string)    { r.send("bdown " + t) }
func (r *recorder) Up(t string)      { r.send("bup " + t) }

func (r *recorder) take() []string {
	out := r.lines
	r.lines = nil
	return out
}

func TestTurbo(t *testing.T) {
	clock := loop.NewManual(time.Unix(0, 0))
	rec := &recorder{}
	tb := NewTurbo(clock, 50*time.Millisecond, rec.send)

	assert.True(t, tb.Toggle("A"))
	assert.Equal(t, []string{"bdown A"}, rec.take())

	clock.Advance(49 * time.Millisecond)
	assert.Empty(t, rec.take())
	clock.Advance(time.Millisecond)
	assert.Equal(t, []string{"bup A"}, rec.take())
	clock.Advance(100 * time.Millisecond)
	assert.Equal(t, []string{"bdown A", "bup A"}, rec.take())

	clock.Advance(50 * time.Millisecond) // pressed again
	assert.Equal(t, []string{"bdown A"}, rec.take())
	assert.False(t, tb.Toggle("A"))
	assert.Equal(t, []string{"bup A"}, rec.take())

	clock.Advance(time.Second)
	assert.Empty(t, rec.take())
	assert.Zero(t, clock.Pending())
}

func TestTurboOffWhileReleased(t *testing.T) {
	clock := loop.NewManual(time.Unix(0, 0))
	rec := &recorder{}
	tb := NewTurbo(clock, 0, rec.send)

	tb.Set("B", true)
	clock.Advance(DefaultTurboPeriod)
	rec.take()
	tb.Set("B", false)
	assert.Empty(t, rec.take(), "no release when already up")
	assert.False(t, tb.Enabled("B"))
}

func TestTurboStopAll(t *testing.T) {
	clock := loop.NewManual(time.Unix(0, 0))
	rec := &recorder{}
	tb := NewTurbo(clock, 0, rec.send)
	tb.Set("A", true)
	tb.Set("X", true)
	rec.take()
	tb.StopAll()
	assert.ElementsMatch(t, []string{"bup A", "bup X"}, rec.take())
	assert.Zero(t, clock.Pending())
}

func TestMacroSequence(t *testing.T) {
	clock := loop.NewManual(time.Unix(0, 0))
	rec := &recorder{}
	m := NewMacro(clock, rec, nil, 100*time.Millisecond, vlog.Discard())
	m.SetSteps([]string{"A", ".", "B"})
	m.Start()

	var got []string
	for i := 0; i < 7; i++ {
		clock.Advance(100 * time.Millisecond)
		got = append(got, rec.take()...)
	}
	assert.Equal(t, []string{"bdown A", "bup A", "bdown B", "bup B", "bdown A"}, got)
}

func TestMacroStopReleasesInFlight(t *testing.T) {
	clock := loop.NewManual(time.Unix(0, 0))
	rec := &recorder{}
	m := NewMacro(clock, rec, nil, 0, vlog.Discard())
	require.NoError(t, m.SetText("X Y"))
	m.Start()
	clock.Advance(DefaultMacroPeriod)
	assert.Equal(t, []string{"bdown X"}, rec.take())

	m.Stop()
	assert.Equal(t, []string{"bup X"}, rec.take())
	assert.False(t, m.Running())
	clock.Advance(time.Second)
	assert.Empty(t, rec.take())

	// restart begins at the first step again
	m.Start()
	clock.Advance(DefaultMacroPeriod)
	assert.Equal(t, []string{"bdown X"}, rec.take())
}

func TestMacroResolvesTokens(t *testing.T) {
	clock := loop.NewManual(time.Unix(0, 0))
	rec := &recorder{}
	m := NewMacro(clock, rec, strings.ToUpper, 0, vlog.Discard())
	require.NoError(t, m.SetText(`a 'b'`))
	m.Start()
	clock.Advance(4 * DefaultMacroPeriod)
	assert.Equal(t, []string{"bdown A", "bup A", "bdown B", "bup B"}, rec.take())
}

func TestMacroEmptyDoesNotStart(t *testing.T) {
	clock := loop.NewManual(time.Unix(0, 0))
	m := NewMacro(clock, &recorder{}, nil, 0, vlog.Discard())
	m.Start()
	assert.False(t, m.Running())
	assert.Zero(t, clock.Pending())
}

func TestTokenizeRejectsUnterminatedQuote(t *testing.T) {
	_, err := Tokenize(`A "B`)
	assert.Error(t, err)
}

func TestMacroSpeed(t *testing.T) {
	clock := loop.NewManual(time.Unix(0, 0))
	m := NewMacro(clock, &recorder{}, nil, 100*time.Millisecond, vlog.Discard())
	tests := []struct {
		delta int
		level int
		want  time.Duration
	}{
		{1, 1, 50 * time.Millisecond},
		{1, 2, 25 * time.Millisecond},
		{1, 2, 25 * time.Millisecond},
		{-3, -1, 200 * time.Millisecond},
		{-5, -2, 400 * time.Millisecond},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.level, m.AdjustSpeed(tt.delta))
		assert.Equal(t, tt.want, m.Period())
	}
}

func TestSlotsPlayOneAtATime(t *testing.T) {
	clock := loop.NewManual(time.Unix(0, 0))
	rec := &recorder{}
	s, err := NewSlots(clock, rec, nil, 0, vlog.Discard(), map[string]string{"m1": "A", "M2": "B"})
	require.NoError(t, err)
	assert.Equal(t, []string{"M1", "M2"}, s.Names())

	on, err := s.Toggle("M1")
	require.NoError(t, err)
	assert.True(t, on)
	clock.Advance(DefaultMacroPeriod)
	assert.Equal(t, []string{"bdown A"}, rec.take())

	on, err = s.Toggle("m2")
	require.NoError(t, err)
	assert.True(t, on)
	assert.Equal(t, []string{"bup A"}, rec.take())
	m1, _ := s.Get("M1")
	assert.False(t, m1.Running())

	// the pending tick keeps its period; the next one is faster
	assert.Equal(t, 1, s.AdjustSpeed(1))
	clock.Advance(DefaultMacroPeriod)
	assert.Equal(t, []string{"bdown B"}, rec.take())
	clock.Advance(DefaultMacroPeriod / 2)
	assert.Equal(t, []string{"bup B"}, rec.take())

	_, err = s.Toggle("M9")
	assert.Error(t, err)
}
