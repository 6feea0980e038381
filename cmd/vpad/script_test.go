package main

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soar/vgamepadnet/internal/channel"
	"github.com/soar/vgamepadnet/internal/channel/channeltest"
	"github.com/soar/vgamepadnet/internal/input"
	vlog "github.com/soar/vgamepadnet/internal/log"
	"github.com/soar/vgamepadnet/internal/loop"
	"github.com/soar/vgamepadnet/internal/pad"
)

func TestParseScript(t *testing.T) {
	src := `
# warm up
down LS 80 50
move LS 50 20
up ls
wait 250ms
tap a
turbo B
macro m1
speed +
mode DS4
log "hello there" friend
`
	steps, err := ParseScript(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, steps, 10)

	assert.Equal(t, Step{Line: 3, Op: "down", Args: []string{"LS", "80", "50"}}, steps[0])
	assert.Equal(t, 250*time.Millisecond, steps[3].Wait)
	assert.Equal(t, []string{"hello there", "friend"}, steps[9].Args)
}

func TestParseScriptErrors(t *testing.T) {
	tests := []struct {
		name string
		line string
	}{
		{"unknown op", "jump A"},
		{"missing args", "tap"},
		{"too many args", "up A B"},
		{"half a point", "down LS 10"},
		{"bad number", "move LS ten 5"},
		{"bad wait", "wait soon"},
		{"negative wait", "wait -1s"},
		{"bad mode", "mode n64"},
		{"bad speed", "speed fast"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			steps, err := ParseScript(strings.NewReader("tap A\n" + tt.line))
			assert.ErrorIs(t, err, ErrBadStep)
			assert.ErrorContains(t, err, "line 2")
			assert.Len(t, steps, 1, "valid lines are still returned")
		})
	}
}

type scriptFixture struct {
	clock *loop.Manual
	pad   *pad.Controller
	conn  *channeltest.Conn
}

func newScriptFixture(t *testing.T) *scriptFixture {
	t.Helper()
	clock := loop.NewManual(time.Unix(0, 0))
	d := &channeltest.Dialer{}
	ch := channel.New(clock, d, channel.Config{}, vlog.Discard())
	p, err := pad.New(clock, ch, pad.Config{
		Layout: defaultLayout(nil),
		Macros: map[string]string{"M1": "A"},
	}, vlog.Discard())
	require.NoError(t, err)
	p.Start()
	conn := d.Accept()
	clock.Advance(channel.DefaultFlushDelay)
	conn.Take()
	return &scriptFixture{clock: clock, pad: p, conn: conn}
}

func (f *scriptFixture) run(t *testing.T, src string) (done *bool) {
	t.Helper()
	steps, err := ParseScript(strings.NewReader(src))
	require.NoError(t, err)
	finished := false
	NewRunner(f.clock, f.pad, defaultLayout(nil), steps, vlog.Discard()).Start(func() { finished = true })
	return &finished
}

func TestRunnerTap(t *testing.T) {
	f := newScriptFixture(t)
	done := f.run(t, "tap a\nlog hi")
	assert.True(t, *done)
	f.clock.Advance(channel.DefaultFlushDelay)
	assert.Equal(t, []string{"set A 1", "set A 0", "log hi"}, f.conn.Take())
}

func TestRunnerWait(t *testing.T) {
	f := newScriptFixture(t)
	done := f.run(t, "down X\nwait 100ms\nup X")
	assert.False(t, *done)
	f.clock.Advance(channel.DefaultFlushDelay)
	assert.Equal(t, []string{"set X 1"}, f.conn.Take())

	f.clock.Advance(100 * time.Millisecond)
	assert.True(t, *done)
	assert.Equal(t, []string{"set X 0"}, f.conn.Take())
}

func TestRunnerStick(t *testing.T) {
	f := newScriptFixture(t)
	f.run(t, "down LS 100 50\nup LS")
	f.clock.Advance(channel.DefaultFlushDelay)
	lines := f.conn.Take()
	assert.Contains(t, lines, "set LSx 1")
	assert.Equal(t, "set LSx 0", lines[len(lines)-1])
}

func TestRunnerSkipsFailingSteps(t *testing.T) {
	f := newScriptFixture(t)
	done := f.run(t, "tap nothing\nturbo LS\nmacro M9\ntap B")
	assert.True(t, *done)
	f.clock.Advance(channel.DefaultFlushDelay)
	assert.Equal(t, []string{"set B 1", "set B 0"}, f.conn.Take())
}

func TestRunnerStop(t *testing.T) {
	f := newScriptFixture(t)
	steps, err := ParseScript(strings.NewReader("wait 300ms\ntap A"))
	require.NoError(t, err)
	r := NewRunner(f.clock, f.pad, defaultLayout(nil), steps, vlog.Discard())
	r.Start(nil)
	r.Stop()
	f.clock.Advance(400 * time.Millisecond)
	assert.Empty(t, f.conn.Take())
}

func TestDefaultLayout(t *testing.T) {
	layout := defaultLayout(map[string]input.Box{"a": {Left: 10, Width: 20, Height: 20}})
	assert.Equal(t, input.Box{Left: 10, Width: 20, Height: 20}, layout["A"])
	assert.Equal(t, input.Box{Width: 100, Height: 100}, layout["LS"])
}
