// Package pad ties the controller together: it turns input samples into
// protocol traffic on a channel and routes the host's replies to the
// latency prober, the vibration synthesizer and the status line.
//
// A Controller is owned by the loop goroutine. Input sources must Post into
// the loop before calling it.
package pad

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/soar/vgamepadnet/internal/channel"
	"github.com/soar/vgamepadnet/internal/input"
	"github.com/soar/vgamepadnet/internal/latency"
	"github.com/soar/vgamepadnet/internal/loop"
	"github.com/soar/vgamepadnet/internal/protocol"
	"github.com/soar/vgamepadnet/internal/repeat"
	"github.com/soar/vgamepadnet/internal/vibration"
)

var ErrUnknownControl = errors.New("unknown control")

type Config struct {
	Mode          protocol.Mode
	Controls      []input.Control
	Layout        map[string]input.Box
	Amplification input.Amplification
	TurboPeriod   time.Duration
	MacroPeriod   time.Duration
	// Macros maps slot names (M1..M4) to step text.
	Macros    map[string]string
	Latency   latency.Config
	Vibration vibration.Config
	Haptics   vibration.Output
}

type Controller struct {
	sched  loop.Scheduler
	ch     *channel.Channel
	logger *slog.Logger

	table    *input.Table
	trackers map[string]*input.Tracker
	latches  map[string]*input.DirectionLatch
	amp      input.Amplification

	turbo  *repeat.Turbo
	macros *repeat.Slots
	prober *latency.Prober
	synth  *vibration.Synthesizer

	opened   bool
	echo     map[string]float64
	status   Status
	onStatus func(Status)
}

func New(sched loop.Scheduler, ch *channel.Channel, cfg Config, logger *slog.Logger) (*Controller, error) {
	controls := cfg.Controls
	if controls == nil {
		controls = input.DefaultControls()
	}
	table, err := input.NewTable(controls...)
	if err != nil {
		return nil, fmt.Errorf("control table: %w", err)
	}
	if cfg.Mode == "" {
		cfg.Mode = protocol.ModeXbox
	}
	amp := cfg.Amplification
	if amp.Stick <= 0 {
		amp.Stick = input.DefaultAmplification.Stick
	}
	if amp.DPad <= 0 {
		amp.DPad = input.DefaultAmplification.DPad
	}
	haptics := cfg.Haptics
	if haptics == nil {
		haptics = vibration.Discard{}
	}

	c := &Controller{
		sched:    sched,
		ch:       ch,
		logger:   logger,
		table:    table,
		trackers: make(map[string]*input.Tracker),
		latches:  make(map[string]*input.DirectionLatch),
		amp:      amp,
		echo:     make(map[string]float64),
		status:   Status{Mode: cfg.Mode, Connection: ch.Status(), Latency: "unknown"},
	}
	for _, ctl := range table.Controls() {
		c.trackers[ctl.Symbol] = input.NewTracker(ctl, cfg.Layout[ctl.Symbol], amp)
	}
	c.turbo = repeat.NewTurbo(sched, cfg.TurboPeriod, ch.SendCommand)
	c.macros, err = repeat.NewSlots(sched, c, c.resolveSymbol, cfg.MacroPeriod, logger, cfg.Macros)
	if err != nil {
		return nil, err
	}
	c.prober = latency.New(sched, ch, cfg.Latency)
	c.prober.OnChange(c.refreshLatency)
	c.synth = vibration.New(sched, haptics, cfg.Vibration)

	ch.SetHandler(channel.Handler{
		OnOpen:   c.onOpen,
		OnLine:   c.onLine,
		OnStatus: c.onConnection,
	})
	return c, nil
}

// OnStatus registers a callback for status changes.
func (c *Controller) OnStatus(f func(Status)) {
	c.onStatus = f
}

func (c *Controller) Status() Status {
	return c.status
}

func (c *Controller) Table() *input.Table {
	return c.table
}

// Start connects and starts the prober and the synthesizer.
func (c *Controller) Start() {
	c.ch.Start()
	c.prober.Start()
	c.synth.Start()
}

// Close stops every timer and ends the session.
func (c *Controller) Close() {
	c.turbo.StopAll()
	c.macros.StopAll()
	c.ch.Flush()
	c.prober.Stop()
	c.synth.Stop()
	c.ch.Close()
}

// Pointer feeds one pointer sample for the control with the given symbol.
func (c *Controller) Pointer(symbol string, down bool, x, y float64) error {
	tr, ok := c.trackers[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownControl, symbol)
	}
	s := tr.Handle(down, x, y)
	c.route(tr.Control, s.Value, s.Octant, s.OctantChanged)
	return nil
}

// SetBox moves a control's bounding box.
func (c *Controller) SetBox(symbol string, box input.Box) error {
	tr, ok := c.trackers[symbol]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownControl, symbol)
	}
	tr.Box = box
	return nil
}

// Apply sets an already-normalized value, as produced by a physical joystick.
func (c *Controller) Apply(symbol string, v input.Value) error {
	ctl, ok := c.table.Lookup(symbol)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownControl, symbol)
	}
	var (
		o       input.Octant
		changed bool
	)
	if ctl.Kind == input.DPad {
		l, ok := c.latches[symbol]
		if !ok {
			l = &input.DirectionLatch{}
			c.latches[symbol] = l
		}
		o = input.Center
		if v.Pressed {
			o = input.Classify(v.Vector.X, v.Vector.Y)
		}
		changed = l.Update(o)
	}
	v.Vector = input.ClampUnit(v.Vector)
	v.Scalar = min(max(v.Scalar, 0), 1)
	c.route(ctl, v, o, changed)
	return nil
}

func (c *Controller) route(ctl input.Control, v input.Value, o input.Octant, octantChanged bool) {
	switch ctl.Kind {
	case input.Button:
		c.ch.SetState(ctl.Name, boolValue(v.Pressed))
	case input.Stick:
		c.ch.SetState(ctl.Name+"x", v.Vector.X)
		c.ch.SetState(ctl.Name+"y", v.Vector.Y)
	case input.Trigger:
		c.ch.SetState(ctl.Name, v.Scalar)
	case input.DPad:
		if octantChanged {
			c.ch.SendCommand(protocol.DPad(o))
		}
	}
}

// Down presses the control named by token. It implements repeat.Dispatcher.
func (c *Controller) Down(token string) {
	if name, ok := c.pressable(token); ok {
		c.ch.SendCommand(protocol.ButtonDown(name))
	}
}

// Up releases the control named by token.
func (c *Controller) Up(token string) {
	if name, ok := c.pressable(token); ok {
		c.ch.SendCommand(protocol.ButtonUp(name))
	}
}

func (c *Controller) pressable(token string) (string, bool) {
	ctl, ok := c.table.Resolve(token)
	if !ok {
		c.logger.Warn("unknown control", "token", token)
		return "", false
	}
	if ctl.Kind != input.Button && ctl.Kind != input.Trigger {
		c.logger.Warn("control cannot be pressed", "control", ctl.Symbol, "kind", ctl.Kind)
		return "", false
	}
	return ctl.Name, true
}

func (c *Controller) resolveSymbol(token string) string {
	if ctl, ok := c.table.Resolve(token); ok {
		return ctl.Symbol
	}
	return token
}

// ToggleTurbo switches auto-repeat for a turbo-eligible control.
func (c *Controller) ToggleTurbo(symbol string) (bool, error) {
	ctl, ok := c.table.Resolve(symbol)
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownControl, symbol)
	}
	if !ctl.Turbo {
		return false, fmt.Errorf("control %s has no turbo", ctl.Symbol)
	}
	on := c.turbo.Toggle(ctl.Name)
	c.setMessage(fmt.Sprintf("turbo %s %s", ctl.Symbol, onOff(on)))
	return on, nil
}

// ToggleMacro starts or stops a macro slot.
func (c *Controller) ToggleMacro(slot string) (bool, error) {
	on, err := c.macros.Toggle(slot)
	if err != nil {
		return false, err
	}
	c.setMessage(fmt.Sprintf("macro %s %s", slot, onOff(on)))
	return on, nil
}

// AdjustMacroSpeed changes the macro speed level by delta.
func (c *Controller) AdjustMacroSpeed(delta int) int {
	level := c.macros.AdjustSpeed(delta)
	c.setMessage(fmt.Sprintf("macro speed %+d", level))
	return level
}

// SetMode switches controller labeling and resynchronizes the host.
func (c *Controller) SetMode(m protocol.Mode) {
	if c.status.Mode == m {
		return
	}
	c.status.Mode = m
	c.notify()
	if c.ch.Connected() {
		c.ch.SendCommand(protocol.SetMode(m))
		c.ch.Resync()
	}
}

// ToggleMode flips between xbox and ds4.
func (c *Controller) ToggleMode() protocol.Mode {
	if c.status.Mode == protocol.ModeDS4 {
		c.SetMode(protocol.ModeXbox)
	} else {
		c.SetMode(protocol.ModeDS4)
	}
	return c.status.Mode
}

// Log forwards text to the host log.
func (c *Controller) Log(text string) {
	c.ch.SendCommand(protocol.Log(text))
}

// Label returns the label of a control in the current mode.
func (c *Controller) Label(symbol string) string {
	ctl, ok := c.table.Lookup(symbol)
	if !ok {
		return ""
	}
	return ctl.LabelFor(string(c.status.Mode))
}

// Echo returns the last value the host reported for name.
func (c *Controller) Echo(name string) (float64, bool) {
	v, ok := c.echo[name]
	return v, ok
}

func (c *Controller) Latency() (time.Duration, bool) {
	return c.prober.Value()
}

func (c *Controller) onOpen() {
	if !c.opened {
		c.opened = true
		c.ch.SendCommand(protocol.Reset())
	}
	c.ch.SendCommand(protocol.SetMode(c.status.Mode))
}

func (c *Controller) onConnection(s channel.Status) {
	c.status.Connection = s
	c.refreshLatency()
	c.notify()
}

func (c *Controller) onLine(line string) {
	cmd, err := protocol.Parse(line)
	if err != nil {
		c.logger.Warn("bad line from host", "line", line, "error", err)
		return
	}
	switch cmd.Name {
	case protocol.CmdSet:
		c.applyEcho(cmd)
	case protocol.CmdPong:
		c.prober.OnResponse()
	default:
		c.logger.Warn("unhandled host command", "line", line, "error", protocol.ErrUnknownCommand)
	}
}

func (c *Controller) applyEcho(cmd protocol.Command) {
	pairs, err := cmd.Pairs()
	if err != nil {
		c.logger.Warn("bad set from host", "error", err)
	}
	motors, status := false, false
	for _, p := range pairs {
		c.echo[p.Name] = p.Value
		switch p.Name {
		case protocol.FieldLargeMotor, protocol.FieldSmallMotor:
			motors = true
		case protocol.FieldLEDNumber:
			c.status.LED = int(p.Value)
			status = true
		case protocol.FieldSessionID:
			c.status.SessionID = int(p.Value)
			status = true
		}
	}
	if motors {
		c.synth.SetIntensity(c.echo[protocol.FieldLargeMotor], c.echo[protocol.FieldSmallMotor])
	}
	if status {
		c.notify()
	}
}

func (c *Controller) refreshLatency() {
	l := c.prober.String()
	if l == c.status.Latency {
		return
	}
	c.status.Latency = l
	c.notify()
}

func (c *Controller) setMessage(msg string) {
	c.status.Message = msg
	c.notify()
}

func (c *Controller) notify() {
	if c.onStatus != nil {
		c.onStatus(c.status)
	}
}

func boolValue(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}
