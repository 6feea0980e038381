// Package channeltest provides an in-memory transport for driving a
// channel.Channel in tests.
package channeltest

import (
	"errors"

	"github.com/soar/vgamepadnet/internal/channel"
	"github.com/soar/vgamepadnet/internal/protocol"
)

var ErrClosed = errors.New("fake connection closed")

// Dialer records dial attempts and lets the test decide their outcome.
type Dialer struct {
	Attempts int
	pending  []channel.Events
	conns    []*Conn
}

func (d *Dialer) Dial(ev channel.Events) {
	d.Attempts++
	d.pending = append(d.pending, ev)
}

// Accept opens the most recent pending attempt.
func (d *Dialer) Accept() *Conn {
	ev := d.pop()
	c := &Conn{ev: ev}
	d.conns = append(d.conns, c)
	ev.OnOpen(c)
	return c
}

// Refuse fails the most recent pending attempt.
func (d *Dialer) Refuse(err error) {
	d.pop().OnClose(err)
}

// Pending reports attempts that were neither accepted nor refused.
func (d *Dialer) Pending() int {
	return len(d.pending)
}

func (d *Dialer) pop() channel.Events {
	if len(d.pending) == 0 {
		panic("channeltest: no pending dial")
	}
	ev := d.pending[len(d.pending)-1]
	d.pending = d.pending[:len(d.pending)-1]
	return ev
}

// Conn captures every frame the channel sends.
type Conn struct {
	ev      channel.Events
	Frames  []string
	SendErr error
	closed  bool
	taken   int
}

func (c *Conn) Send(frame string) error {
	if c.closed {
		return ErrClosed
	}
	if c.SendErr != nil {
		return c.SendErr
	}
	c.Frames = append(c.Frames, frame)
	return nil
}

func (c *Conn) Close() error {
	c.closed = true
	return nil
}

func (c *Conn) Closed() bool {
	return c.closed
}

// Deliver hands an inbound frame to the channel.
func (c *Conn) Deliver(frame string) {
	c.ev.OnMessage(frame)
}

// Drop simulates the transport going away.
func (c *Conn) Drop(err error) {
	c.closed = true
	c.ev.OnClose(err)
}

// Lines returns every line sent so far.
func (c *Conn) Lines() []string {
	var out []string
	for _, f := range c.Frames {
		out = append(out, protocol.SplitFrame(f)...)
	}
	return out
}

// Take returns the lines sent since the previous Take, with their sequence
// numbers stripped.
func (c *Conn) Take() []string {
	all := c.Lines()
	out := make([]string, 0, len(all)-c.taken)
	for _, l := range all[c.taken:] {
		cmd, err := protocol.Parse(l)
		if err != nil || !cmd.HasSeq {
			out = append(out, l)
			continue
		}
		if cmd.Text == "" {
			out = append(out, cmd.Name)
		} else {
			out = append(out, cmd.Name+" "+cmd.Text)
		}
	}
	c.taken = len(all)
	return out
}
