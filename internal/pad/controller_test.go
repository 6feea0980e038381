package pad

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soar/vgamepadnet/internal/channel"
	"github.com/soar/vgamepadnet/internal/channel/channeltest"
	"github.com/soar/vgamepadnet/internal/input"
	vlog "github.com/soar/vgamepadnet/internal/log"
	"github.com/soar/vgamepadnet/internal/loop"
	"github.com/soar/vgamepadnet/internal/protocol"
	"github.com/soar/vgamepadnet/internal/vibration"
)

type haptics struct {
	trains [][]int
}

func (h *haptics) Vibrate(p []int) { h.trains = append(h.trains, p) }

type fixture struct {
	pad    *Controller
	clock  *loop.Manual
	dialer *channeltest.Dialer
	out    *haptics
}

var square = input.Box{Left: 0, Top: 0, Width: 100, Height: 100}

func newFixture(t *testing.T, cfg Config) *fixture {
	t.Helper()
	clock := loop.NewManual(time.Unix(0, 0))
	d := &channeltest.Dialer{}
	ch := channel.New(clock, d, channel.Config{}, vlog.Discard())
	out := &haptics{}
	cfg.Haptics = out
	if cfg.Layout == nil {
		cfg.Layout = map[string]input.Box{}
		for _, c := range input.DefaultControls() {
			cfg.Layout[c.Symbol] = square
		}
	}
	p, err := New(clock, ch, cfg, vlog.Discard())
	require.NoError(t, err)
	return &fixture{pad: p, clock: clock, dialer: d, out: out}
}

func (f *fixture) connect() *channeltest.Conn {
	f.pad.Start()
	conn := f.dialer.Accept()
	f.clock.Advance(channel.DefaultFlushDelay)
	conn.Take()
	return conn
}

func (f *fixture) flush() {
	f.clock.Advance(channel.DefaultFlushDelay)
}

func TestOpenSendsResetModeAndState(t *testing.T) {
	f := newFixture(t, Config{Mode: protocol.ModeDS4})
	require.NoError(t, f.pad.Pointer("A", true, 50, 50))
	f.pad.Start()
	conn := f.dialer.Accept()
	f.flush()
	assert.Equal(t, []string{"reset", "mode ds4", "set A 1"}, conn.Take())

	conn.Drop(nil)
	f.clock.Advance(channel.DefaultReconnectDelay)
	conn2 := f.dialer.Accept()
	f.flush()
	assert.Equal(t, []string{"mode ds4", "set A 1"}, conn2.Take(), "reset only on first open")
}

func TestPointerRouting(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.connect()

	require.NoError(t, f.pad.Pointer("A", true, 10, 10))
	require.NoError(t, f.pad.Pointer("A", true, 20, 20))
	require.NoError(t, f.pad.Pointer("LS", true, 50, 0))
	require.NoError(t, f.pad.Pointer("LT", true, 50, 10))
	require.NoError(t, f.pad.Pointer("LT", true, 50, 60))
	f.flush()
	assert.Equal(t, []string{"set A 1", "set LSx 0", "set LSy 1", "set LT 0", "set LT 1"}, conn.Take())

	require.NoError(t, f.pad.Pointer("LS", false, 0, 0))
	require.NoError(t, f.pad.Pointer("A", false, 0, 0))
	f.flush()
	assert.Equal(t, []string{"set LSy 0", "set A 0"}, conn.Take())

	assert.ErrorIs(t, f.pad.Pointer("nope", true, 0, 0), ErrUnknownControl)
}

func TestDPadEdges(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.connect()

	require.NoError(t, f.pad.Pointer("DP", true, 50, 1))
	require.NoError(t, f.pad.Pointer("DP", true, 51, 2))
	require.NoError(t, f.pad.Pointer("DP", true, 99, 50))
	require.NoError(t, f.pad.Pointer("DP", false, 0, 0))
	f.flush()
	assert.Equal(t, []string{"dpad 0", "dpad 2", "dpad 8"}, conn.Take())
}

func TestApplyJoystickValues(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.connect()

	require.NoError(t, f.pad.Apply("RS", input.Value{Pressed: true, Vector: input.Vector{X: 3, Y: 4}}))
	require.NoError(t, f.pad.Apply("RT", input.Value{Scalar: 0.25}))
	require.NoError(t, f.pad.Apply("DP", input.Value{Pressed: true, Vector: input.Vector{X: -1}}))
	require.NoError(t, f.pad.Apply("DP", input.Value{Pressed: true, Vector: input.Vector{X: -1}}))
	f.flush()
	assert.Equal(t, []string{"set RSx 0.6", "set RSy 0.8", "set RT 0.25", "dpad 6"}, conn.Take())
}

func TestTurboThroughController(t *testing.T) {
	f := newFixture(t, Config{TurboPeriod: 50 * time.Millisecond})
	conn := f.connect()

	on, err := f.pad.ToggleTurbo("a")
	require.NoError(t, err)
	assert.True(t, on)
	f.clock.Advance(50 * time.Millisecond)
	on, err = f.pad.ToggleTurbo("A")
	require.NoError(t, err)
	assert.False(t, on)
	f.flush()
	assert.Equal(t, []string{"bdown A", "bup A"}, conn.Take())
	assert.Equal(t, "turbo A off", f.pad.Status().Message)

	_, err = f.pad.ToggleTurbo("LB")
	assert.Error(t, err)
}

func TestMacroThroughController(t *testing.T) {
	f := newFixture(t, Config{Macros: map[string]string{"M1": "a . ↑ bogus"}})
	conn := f.connect()

	on, err := f.pad.ToggleMacro("M1")
	require.NoError(t, err)
	assert.True(t, on)
	f.clock.Advance(8 * 100 * time.Millisecond)
	on, err = f.pad.ToggleMacro("M1")
	require.NoError(t, err)
	assert.False(t, on)
	f.flush()
	assert.Equal(t, []string{"bdown A", "bup A", "bdown up", "bup up"}, conn.Take())
}

func TestVibrationEndToEnd(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.connect()

	conn.Deliver("set large_motor 0.8 small_motor 0 led_number 2")
	f.clock.Advance(20 * time.Millisecond)

	require.NotEmpty(t, f.out.trains)
	train := f.out.trains[len(f.out.trains)-1]
	assert.Equal(t, vibration.Canonical{}.Pattern(vibration.Shape(0.8, vibration.DefaultK)), train)
	on := 0
	for i := 0; i < len(train); i += 2 {
		on += train[i]
	}
	assert.Greater(t, on, vibration.Sum(train)-on)
	assert.Equal(t, 2, f.pad.Status().LED)
	v, ok := f.pad.Echo("large_motor")
	assert.True(t, ok)
	assert.Equal(t, 0.8, v)
}

func TestLatencyAndStatus(t *testing.T) {
	f := newFixture(t, Config{})
	var seen []Status
	f.pad.OnStatus(func(s Status) { seen = append(seen, s) })
	conn := f.connect()

	conn.Deliver("set session_id 3")
	f.clock.Advance(time.Second - channel.DefaultFlushDelay)
	assert.Equal(t, []string{"ping"}, conn.Take())
	f.clock.Advance(12 * time.Millisecond)
	conn.Deliver("pong")

	st := f.pad.Status()
	assert.Equal(t, 3, st.SessionID)
	assert.Equal(t, "12ms", st.Latency)
	assert.Equal(t, channel.Open, st.Connection)
	assert.NotEmpty(t, seen)

	conn.Drop(nil)
	assert.Equal(t, "unknown", f.pad.Status().Latency)
}

func TestUnknownHostCommandIgnored(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.connect()
	conn.Deliver("vibrate 1\nset large_motor nope")
	f.clock.Advance(20 * time.Millisecond)
	assert.Empty(t, f.out.trains)
}

func TestNonFiniteMotorIgnored(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.connect()
	conn.Deliver("set large_motor NaN\nset small_motor Inf led_number +Inf")
	f.clock.Advance(100 * time.Millisecond)
	assert.Empty(t, f.out.trains)
	_, ok := f.pad.Echo("large_motor")
	assert.False(t, ok)
	assert.Zero(t, f.pad.Status().LED)

	conn.Deliver("set large_motor 1")
	f.clock.Advance(20 * time.Millisecond)
	require.NotEmpty(t, f.out.trains)
	assert.Equal(t, []int{100}, f.out.trains[len(f.out.trains)-1])
}

func TestModeSwitchResyncs(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.connect()
	require.NoError(t, f.pad.Pointer("B", true, 1, 1))
	f.flush()
	conn.Take()

	assert.Equal(t, protocol.ModeDS4, f.pad.ToggleMode())
	f.flush()
	assert.Equal(t, []string{"mode ds4", "set B 1"}, conn.Take())
	assert.Equal(t, "○", f.pad.Label("B"))
}

func TestCloseReleasesAndStops(t *testing.T) {
	f := newFixture(t, Config{})
	conn := f.connect()
	_, err := f.pad.ToggleTurbo("X")
	require.NoError(t, err)
	f.pad.Close()

	assert.Equal(t, []string{"bdown X", "bup X"}, conn.Take())
	assert.True(t, conn.Closed())
	assert.Zero(t, f.clock.Pending())
}
