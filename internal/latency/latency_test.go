package latency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/soar/vgamepadnet/internal/loop"
)

type fakeChannel struct {
	connected bool
	sent      []string
}

func (f *fakeChannel) SendNow(raw string) { f.sent = append(f.sent, raw) }
func (f *fakeChannel) Connected() bool    { return f.connected }

func setup(window int) (*Prober, *fakeChannel, *loop.Manual) {
	clock := loop.NewManual(time.Unix(0, 0))
	ch := &fakeChannel{connected: true}
	p := New(clock, ch, Config{Window: window})
	return p, ch, clock
}

func TestAnsweredProbeRecordsSample(t *testing.T) {
	p, ch, clock := setup(1)
	p.Start()
	clock.Advance(time.Second)
	assert.Equal(t, []string{"ping"}, ch.sent)

	clock.Advance(42 * time.Millisecond)
	p.OnResponse()
	v, ok := p.Value()
	assert.True(t, ok)
	assert.Equal(t, 42*time.Millisecond, v)
	assert.Equal(t, "42ms", p.String())

	// next probe one wait after the answer
	clock.Advance(999 * time.Millisecond)
	assert.Len(t, ch.sent, 1)
	clock.Advance(time.Millisecond)
	assert.Len(t, ch.sent, 2)
}

func TestWindowEvictsOldest(t *testing.T) {
	p, _, clock := setup(2)
	p.Start()
	for _, rtt := range []time.Duration{10, 20, 60} {
		clock.Advance(time.Second)
		clock.Advance(rtt * time.Millisecond)
		p.OnResponse()
	}
	assert.Equal(t, []time.Duration{20 * time.Millisecond, 60 * time.Millisecond}, p.Samples())
	v, _ := p.Value()
	assert.Equal(t, 40*time.Millisecond, v)
}

func TestTimeoutClearsWindow(t *testing.T) {
	p, ch, clock := setup(3)
	p.Start()
	clock.Advance(time.Second)
	clock.Advance(5 * time.Millisecond)
	p.OnResponse()
	clock.Advance(time.Second) // second ping
	clock.Advance(time.Second) // unanswered
	_, ok := p.Value()
	assert.False(t, ok)
	assert.Equal(t, "unknown", p.String())

	// a late pong is ignored
	p.OnResponse()
	assert.Empty(t, p.Samples())

	clock.Advance(time.Second)
	assert.Len(t, ch.sent, 3)
}

func TestStrayPongIgnored(t *testing.T) {
	p, _, _ := setup(1)
	p.OnResponse()
	assert.Empty(t, p.Samples())
}

func TestDisconnectedProbeClearsAndReschedules(t *testing.T) {
	p, ch, clock := setup(1)
	p.Start()
	clock.Advance(time.Second)
	clock.Advance(time.Millisecond)
	p.OnResponse()

	ch.connected = false
	_, ok := p.Value()
	assert.False(t, ok, "unknown while disconnected")

	clock.Advance(time.Second)
	assert.Empty(t, p.Samples())
	assert.Len(t, ch.sent, 1)
	assert.Equal(t, 1, clock.Pending())

	ch.connected = true
	clock.Advance(time.Second)
	assert.Len(t, ch.sent, 2)
}

func TestStopCancelsEverything(t *testing.T) {
	p, _, clock := setup(1)
	p.Start()
	clock.Advance(time.Second)
	p.Stop()
	assert.Zero(t, clock.Pending())
}
