// Package channel owns the controller's connection to the host: it diffs
// protocol state against what was last sent, batches outbound lines into
// sequence-numbered frames and reconnects after failures.
//
// Every method must be called on the loop goroutine.
package channel

import (
	"log/slog"
	"time"

	vlog "github.com/soar/vgamepadnet/internal/log"
	"github.com/soar/vgamepadnet/internal/loop"
	"github.com/soar/vgamepadnet/internal/protocol"
)

const (
	DefaultFlushDelay     = 16 * time.Millisecond
	DefaultReconnectDelay = 1000 * time.Millisecond
)

// Status is the connection indicator.
type Status int

const (
	Connecting Status = iota
	Open
	Disconnected // waiting for the reconnect timer
	Stopped
)

func (s Status) String() string {
	switch s {
	case Connecting:
		return "connecting"
	case Open:
		return "open"
	case Disconnected:
		return "disconnected"
	case Stopped:
		return "stopped"
	}
	return "unknown"
}

type Config struct {
	FlushDelay     time.Duration
	ReconnectDelay time.Duration
}

// Handler receives channel events on the loop.
type Handler struct {
	// OnOpen runs before the state burst. Commands it sends precede the burst.
	OnOpen func()
	// OnLine is called once per inbound line.
	OnLine func(line string)
	// OnStatus is called on every status transition.
	OnStatus func(Status)
}

type Channel struct {
	sched  loop.Scheduler
	dialer Dialer
	cfg    Config
	logger *slog.Logger
	h      Handler

	state map[string]float64
	order []string

	queue []string
	flush loop.Timer
	seq   uint64

	conn      Conn
	attempt   uint64
	status    Status
	reconnect loop.Timer
}

func New(sched loop.Scheduler, dialer Dialer, cfg Config, logger *slog.Logger) *Channel {
	if cfg.FlushDelay <= 0 {
		cfg.FlushDelay = DefaultFlushDelay
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = DefaultReconnectDelay
	}
	return &Channel{
		sched:  sched,
		dialer: dialer,
		cfg:    cfg,
		logger: logger,
		state:  make(map[string]float64),
		status: Disconnected,
	}
}

func (c *Channel) SetHandler(h Handler) {
	c.h = h
}

// Start makes the first connection attempt.
func (c *Channel) Start() {
	if c.status == Stopped {
		return
	}
	c.dial()
}

func (c *Channel) Status() Status {
	return c.status
}

func (c *Channel) Connected() bool {
	return c.status == Open
}

// Seq returns the number of the last line written to a connection.
func (c *Channel) Seq() uint64 {
	return c.seq
}

// State returns the last value stored for name.
func (c *Channel) State(name string) (float64, bool) {
	v, ok := c.state[name]
	return v, ok
}

// SetState records value and queues a set line if it differs from the stored
// one. It reports whether a change was recorded.
func (c *Channel) SetState(name string, value float64) bool {
	old, ok := c.state[name]
	if ok && old == value {
		return false
	}
	if !ok {
		c.order = append(c.order, name)
	}
	c.state[name] = value
	c.SendCommand(protocol.Set(name, value))
	return true
}

// SendCommand queues raw for the next batched frame. Lines sent while the
// connection is down, or still queued when it goes down, are dropped.
// Sequence numbers are taken when a frame is written, so dropped lines
// leave no gap.
func (c *Channel) SendCommand(raw string) {
	if c.status != Open {
		vlog.Trace(c.logger, "dropping line while disconnected", "line", raw)
		return
	}
	c.queue = append(c.queue, raw)
	if c.flush == nil {
		c.flush = c.sched.AfterFunc(c.cfg.FlushDelay, c.Flush)
	}
}

// SendNow queues raw and flushes at once.
func (c *Channel) SendNow(raw string) {
	c.SendCommand(raw)
	c.Flush()
}

// Flush sends every queued line as one frame.
func (c *Channel) Flush() {
	if c.flush != nil {
		c.flush.Stop()
		c.flush = nil
	}
	if len(c.queue) == 0 || c.conn == nil {
		return
	}
	lines := make([]string, len(c.queue))
	for i, raw := range c.queue {
		c.seq++
		lines[i] = protocol.WithSeq(c.seq, raw)
	}
	c.queue = c.queue[:0]
	frame := protocol.JoinFrame(lines)
	vlog.Trace(c.logger, "send frame", "frame", frame)
	if err := c.conn.Send(frame); err != nil {
		c.logger.Warn("send failed", "error", err)
		c.lost(c.attempt, err)
	}
}

// Close ends the session. No reconnect follows.
func (c *Channel) Close() {
	if c.status == Stopped {
		return
	}
	c.attempt++
	c.dropQueue()
	if c.reconnect != nil {
		c.reconnect.Stop()
		c.reconnect = nil
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Debug("close connection", "error", err)
		}
		c.conn = nil
	}
	c.setStatus(Stopped)
}

func (c *Channel) dial() {
	c.attempt++
	c.setStatus(Connecting)
	c.dialer.Dial(&attempt{c: c, id: c.attempt})
}

func (c *Channel) opened(id uint64, conn Conn) {
	if id != c.attempt || c.status != Connecting {
		_ = conn.Close()
		return
	}
	c.conn = conn
	c.setStatus(Open)
	if c.h.OnOpen != nil {
		c.h.OnOpen()
	}
	c.burst()
}

// Resync resends the whole stored state as one set line.
func (c *Channel) Resync() {
	c.burst()
}

// burst resends the whole stored state so the host matches it.
func (c *Channel) burst() {
	if len(c.order) == 0 {
		return
	}
	pairs := make([]protocol.Pair, 0, len(c.order))
	for _, name := range c.order {
		pairs = append(pairs, protocol.Pair{Name: name, Value: c.state[name]})
	}
	c.SendCommand(protocol.SetMany(pairs))
}

func (c *Channel) received(id uint64, frame string) {
	if id != c.attempt || c.status != Open {
		return
	}
	vlog.Trace(c.logger, "recv frame", "frame", frame)
	for _, line := range protocol.SplitFrame(frame) {
		if c.h.OnLine != nil {
			c.h.OnLine(line)
		}
	}
}

func (c *Channel) lost(id uint64, err error) {
	if id != c.attempt || c.status == Stopped || c.status == Disconnected {
		return
	}
	if err != nil {
		c.logger.Info("connection lost", "error", err)
	} else {
		c.logger.Info("connection closed")
	}
	c.dropQueue()
	if c.conn != nil {
		_ = c.conn.Close()
		c.conn = nil
	}
	c.setStatus(Disconnected)
	c.reconnect = c.sched.AfterFunc(c.cfg.ReconnectDelay, func() {
		c.reconnect = nil
		c.dial()
	})
}

func (c *Channel) dropQueue() {
	if c.flush != nil {
		c.flush.Stop()
		c.flush = nil
	}
	c.queue = c.queue[:0]
}

func (c *Channel) setStatus(s Status) {
	if c.status == s {
		return
	}
	c.status = s
	if c.h.OnStatus != nil {
		c.h.OnStatus(s)
	}
}

// attempt forwards transport events for one dial onto the loop. Events from
// superseded attempts are ignored there.
type attempt struct {
	c  *Channel
	id uint64
}

func (a *attempt) OnOpen(conn Conn) {
	a.c.sched.Post(func() { a.c.opened(a.id, conn) })
}

func (a *attempt) OnMessage(frame string) {
	a.c.sched.Post(func() { a.c.received(a.id, frame) })
}

func (a *attempt) OnClose(err error) {
	a.c.sched.Post(func() { a.c.lost(a.id, err) })
}
