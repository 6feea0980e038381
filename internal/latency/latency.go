// Package latency estimates round-trip time to the host with ping/pong
// probes.
package latency

import (
	"time"

	"github.com/soar/vgamepadnet/internal/loop"
	"github.com/soar/vgamepadnet/internal/protocol"
)

const DefaultWait = 1000 * time.Millisecond

// Channel is the part of the command channel the prober uses.
type Channel interface {
	SendNow(raw string)
	Connected() bool
}

type Config struct {
	// Wait is the pause between a probe's outcome and the next probe.
	Wait time.Duration
	// Timeout bounds how long a probe waits for its pong.
	Timeout time.Duration
	// Window is how many samples the estimate averages.
	Window int
}

type probe struct {
	sentAt  time.Time
	timeout loop.Timer
}

// Prober sends at most one probe at a time.
type Prober struct {
	sched    loop.Scheduler
	ch       Channel
	cfg      Config
	onChange func()

	samples []time.Duration
	pending *probe
	next    loop.Timer
	running bool
}

func New(sched loop.Scheduler, ch Channel, cfg Config) *Prober {
	if cfg.Wait <= 0 {
		cfg.Wait = DefaultWait
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = cfg.Wait
	}
	if cfg.Window <= 0 {
		cfg.Window = 1
	}
	return &Prober{sched: sched, ch: ch, cfg: cfg}
}

// OnChange registers a callback run whenever the estimate may have changed.
func (p *Prober) OnChange(f func()) {
	p.onChange = f
}

// Start schedules the first probe after one wait.
func (p *Prober) Start() {
	if p.running {
		return
	}
	p.running = true
	p.rearm()
}

func (p *Prober) Stop() {
	p.running = false
	if p.next != nil {
		p.next.Stop()
		p.next = nil
	}
	if p.pending != nil {
		p.pending.timeout.Stop()
		p.pending = nil
	}
}

// Probe sends a ping now. While disconnected it only clears the estimate.
func (p *Prober) Probe() {
	if p.next != nil {
		p.next.Stop()
		p.next = nil
	}
	if !p.ch.Connected() {
		if p.pending != nil {
			p.pending.timeout.Stop()
			p.pending = nil
		}
		p.clear()
		p.rearm()
		return
	}
	if p.pending != nil {
		return
	}
	pr := &probe{sentAt: p.sched.Now()}
	pr.timeout = p.sched.AfterFunc(p.cfg.Timeout, func() { p.expire(pr) })
	p.pending = pr
	p.ch.SendNow(protocol.Ping())
}

// OnResponse resolves the pending probe. A pong with no probe outstanding is
// ignored.
func (p *Prober) OnResponse() {
	pr := p.pending
	if pr == nil {
		return
	}
	p.pending = nil
	pr.timeout.Stop()
	p.samples = append(p.samples, p.sched.Now().Sub(pr.sentAt))
	if over := len(p.samples) - p.cfg.Window; over > 0 {
		p.samples = append(p.samples[:0], p.samples[over:]...)
	}
	p.changed()
	p.rearm()
}

func (p *Prober) expire(pr *probe) {
	if p.pending != pr {
		return
	}
	p.pending = nil
	p.clear()
	p.rearm()
}

// Value returns the mean round-trip time. ok is false when the estimate is
// unknown.
func (p *Prober) Value() (time.Duration, bool) {
	if len(p.samples) == 0 || !p.ch.Connected() {
		return 0, false
	}
	var sum time.Duration
	for _, s := range p.samples {
		sum += s
	}
	return sum / time.Duration(len(p.samples)), true
}

// Samples returns a copy of the current window.
func (p *Prober) Samples() []time.Duration {
	return append([]time.Duration(nil), p.samples...)
}

// String renders the estimate in milliseconds, or "unknown".
func (p *Prober) String() string {
	v, ok := p.Value()
	if !ok {
		return "unknown"
	}
	return v.Round(time.Millisecond).String()
}

func (p *Prober) clear() {
	if len(p.samples) == 0 {
		return
	}
	p.samples = p.samples[:0]
	p.changed()
}

func (p *Prober) rearm() {
	if !p.running {
		return
	}
	p.next = p.sched.AfterFunc(p.cfg.Wait, p.Probe)
}

func (p *Prober) changed() {
	if p.onChange != nil {
		p.onChange()
	}
}
