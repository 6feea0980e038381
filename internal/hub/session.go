package hub

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/soar/vgamepadnet/internal/gamepad"
	"github.com/soar/vgamepadnet/internal/input"
	vlog "github.com/soar/vgamepadnet/internal/log"
	"github.com/soar/vgamepadnet/internal/protocol"
)

const (
	writeWait  = 10 * time.Second
	sendBuffer = 256
)

type SessionConfig struct {
	// Heartbeat is the ping interval. The read deadline is twice that.
	Heartbeat time.Duration
	// Mode is the device mode before the controller asks for one.
	Mode    protocol.Mode
	Drivers gamepad.DriverFactory
}

// Session is one connected controller driving its own virtual pad.
type Session struct {
	hub    *Hub
	b      *Broadcaster
	conn   *websocket.Conn
	cfg    SessionConfig
	logger *slog.Logger

	id        int
	send      chan string
	done      chan struct{}
	closeOnce sync.Once

	mu    sync.Mutex
	state gamepad.State

	// Owned by the read pump.
	driver  gamepad.Driver
	lastSeq uint64
	hasSeq  bool
}

func NewSession(h *Hub, b *Broadcaster, conn *websocket.Conn, cfg SessionConfig, logger *slog.Logger) *Session {
	if cfg.Mode == "" {
		cfg.Mode = protocol.ModeXbox
	}
	return &Session{
		hub:    h,
		b:      b,
		conn:   conn,
		cfg:    cfg,
		logger: logger,
		send:   make(chan string, sendBuffer),
		done:   make(chan struct{}),
	}
}

// Start takes a session id, creates the device, greets the controller with
// its id and starts both pumps.
func (s *Session) Start() error {
	id := s.hub.AddSession(s)
	s.logger = s.logger.With("session", id)
	s.state = gamepad.State{
		Connected: true,
		Mode:      string(s.cfg.Mode),
		Name:      fmt.Sprintf("session %d", id),
		SessionID: id,
	}
	d, err := s.cfg.Drivers(id, s.cfg.Mode, s.onFeedback)
	if err != nil {
		s.hub.RemoveSession(id)
		return fmt.Errorf("create driver: %w", err)
	}
	s.driver = d

	s.Reply(protocol.Set(protocol.FieldSessionID, float64(id)))
	s.b.Publish(s.State())
	go s.WritePump()
	go s.ReadPump()
	return nil
}

func (s *Session) ID() int {
	return s.id
}

// State returns a snapshot of the pad.
func (s *Session) State() gamepad.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Reply queues a line for the controller. Lines queued together go out in
// one frame.
func (s *Session) Reply(line string) {
	select {
	case s.send <- line:
	case <-s.done:
	default:
		s.logger.Warn("Send buffer full, dropping reply", "line", line)
	}
}

// Close ends the session. The pumps finish on their own.
func (s *Session) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// WritePump sends queued lines and heartbeat pings until the session closes.
func (s *Session) WritePump() {
	ticker := time.NewTicker(s.cfg.Heartbeat)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case line := <-s.send:
			lines := []string{line}
		drain:
			for {
				select {
				case more := <-s.send:
					lines = append(lines, more)
				default:
					break drain
				}
			}
			frame := protocol.JoinFrame(lines)
			vlog.Trace(s.logger, "Send", "frame", frame)
			_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, []byte(frame)); err != nil {
				s.logger.Debug("Write failed", "err", err)
				return
			}

		case <-ticker.C:
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				s.logger.Debug("Ping failed", "err", err)
				return
			}

		case <-s.done:
			msg := websocket.FormatCloseMessage(websocket.CloseGoingAway, "Server closed")
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			return
		}
	}
}

// ReadPump handles controller frames until the connection fails or the
// heartbeat deadline passes, then removes the device.
func (s *Session) ReadPump() {
	defer s.cleanup()

	wait := 2 * s.cfg.Heartbeat
	_ = s.conn.SetReadDeadline(time.Now().Add(wait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(wait))
	})

	for {
		typ, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.logger.Warn("Connection lost", "err", err)
			} else {
				s.logger.Debug("Connection closed", "err", err)
			}
			return
		}
		_ = s.conn.SetReadDeadline(time.Now().Add(wait))
		if typ != websocket.TextMessage {
			s.logger.Warn("Ignoring binary frame", "bytes", len(data))
			continue
		}
		s.HandleFrame(string(data))
	}
}

func (s *Session) cleanup() {
	s.Close()
	if err := s.driver.Close(); err != nil {
		s.logger.Warn("Driver close failed", "err", err)
	}
	s.hub.RemoveSession(s.id)
	s.mutate(func(st *gamepad.State) error {
		st.Connected = false
		st.ClearInputs()
		return nil
	})
	s.b.Publish(s.State())
}

// HandleFrame applies every line of a frame, then pushes the resulting
// state to the device and the viewers once.
func (s *Session) HandleFrame(frame string) {
	dirty := false
	for _, line := range protocol.SplitFrame(frame) {
		changed, err := s.handleLine(line)
		if err != nil {
			s.logger.Warn("Bad command", "line", line, "err", err)
		}
		dirty = dirty || changed
	}
	if !dirty {
		return
	}
	s.driver.Update(s.State())
	s.b.Publish(s.State())
}

func (s *Session) handleLine(line string) (bool, error) {
	cmd, err := protocol.Parse(line)
	if errors.Is(err, protocol.ErrEmpty) {
		return false, nil
	}
	vlog.Trace(s.logger, "Recv", "line", line)
	if cmd.HasSeq {
		if s.hasSeq && cmd.Seq != s.lastSeq+1 {
			s.logger.Debug("Sequence gap", "expected", s.lastSeq+1, "got", cmd.Seq)
		}
		s.lastSeq, s.hasSeq = cmd.Seq, true
	}

	switch cmd.Name {
	case protocol.CmdSet:
		pairs, perr := cmd.Pairs()
		var serr error
		s.mutate(func(st *gamepad.State) error {
			for _, p := range pairs {
				serr = errors.Join(serr, st.Set(p.Name, p.Value))
			}
			return nil
		})
		return len(pairs) > 0, errors.Join(perr, serr)

	case protocol.CmdButtonDown, protocol.CmdButtonUp:
		name, err := cmd.Arg(0)
		if err != nil {
			return false, err
		}
		v := 0.0
		if cmd.Name == protocol.CmdButtonDown {
			v = 1
		}
		return true, s.mutate(func(st *gamepad.State) error { return st.Set(name, v) })

	case protocol.CmdDPad:
		v, err := cmd.Float(0)
		if err != nil {
			return false, err
		}
		return true, s.mutate(func(st *gamepad.State) error { return st.SetDPad(input.Octant(int(v))) })

	case protocol.CmdReset:
		s.mutate(func(st *gamepad.State) error {
			st.ClearInputs()
			return nil
		})
		s.driver.Reset()
		return true, nil

	case protocol.CmdMode:
		arg, err := cmd.Arg(0)
		if err != nil {
			return false, err
		}
		m, err := protocol.ParseMode(arg)
		if err != nil {
			return false, err
		}
		return true, s.switchMode(m)

	case protocol.CmdPing:
		s.Reply(protocol.Pong())
		return false, nil

	case protocol.CmdLog:
		s.logger.Info("Client log", "text", cmd.Text)
		return false, nil
	}

	return s.handleDirect(cmd)
}

// handleDirect accepts the "<stick> <x> <y>" and "<trigger> <v>" forms.
func (s *Session) handleDirect(cmd protocol.Command) (bool, error) {
	unknown := fmt.Errorf("%w: %q", protocol.ErrUnknownCommand, cmd.Name)
	switch {
	case gamepad.IsStick(cmd.Name) && len(cmd.Args) == 2:
		x, err := cmd.Float(0)
		if err != nil {
			return false, err
		}
		y, err := cmd.Float(1)
		if err != nil {
			return false, err
		}
		return true, s.mutate(func(st *gamepad.State) error { return st.SetStick(cmd.Name, x, y) })

	case len(cmd.Args) == 1:
		v, err := cmd.Float(0)
		if err != nil {
			return false, err
		}
		handled := false
		err = s.mutate(func(st *gamepad.State) error {
			if !st.IsTrigger(cmd.Name) {
				return nil
			}
			handled = true
			return st.Set(cmd.Name, v)
		})
		if !handled {
			return false, unknown
		}
		return true, err
	}
	return false, unknown
}

// switchMode replaces the device with a fresh one in mode m. All inputs
// are released.
func (s *Session) switchMode(m protocol.Mode) error {
	d, err := s.cfg.Drivers(s.id, m, s.onFeedback)
	if err != nil {
		return fmt.Errorf("create %s driver: %w", m, err)
	}
	if err := s.driver.Close(); err != nil {
		s.logger.Warn("Driver close failed", "err", err)
	}
	s.driver = d
	s.mutate(func(st *gamepad.State) error {
		st.ClearInputs()
		st.Mode = string(m)
		return nil
	})
	s.logger.Info("Mode switched", "mode", m)
	return nil
}

// onFeedback runs on whatever goroutine the driver reports from.
func (s *Session) onFeedback(fb gamepad.Feedback) {
	s.mutate(func(st *gamepad.State) error {
		st.Feedback = fb
		return nil
	})
	s.Reply(protocol.SetMany([]protocol.Pair{
		{Name: protocol.FieldLargeMotor, Value: fb.LargeMotor},
		{Name: protocol.FieldSmallMotor, Value: fb.SmallMotor},
		{Name: protocol.FieldLEDNumber, Value: float64(fb.LED)},
	}))
	s.b.Publish(s.State())
}

func (s *Session) mutate(f func(*gamepad.State) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return f(&s.state)
}
