// Package sdlreader polls a physical controller through SDL3. It is kept
// apart from package joystick because loading the SDL bindings needs the
// shared library at init time.
package sdlreader

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"

	"github.com/jupiterrider/purego-sdl3/sdl"

	"github.com/soar/vgamepadnet/internal/input"
	"github.com/soar/vgamepadnet/internal/joystick"
	vlog "github.com/soar/vgamepadnet/internal/log"
)

const (
	DefaultDeadzone = 0.05
	DefaultPoll     = 16 * time.Millisecond // ~60Hz
)

type Config struct {
	Deadzone float64
	Poll     time.Duration
	// OnInit runs on the SDL thread right after SDL is initialized.
	OnInit func()
}

// EmitFunc receives every changed control. It is called on the SDL thread.
type EmitFunc func(symbol string, v input.Value)

type joystickInfo struct {
	joystick *sdl.Joystick
	mapping  *joystick.DeviceMapping
	name     string
	id       sdl.JoystickID
}

// sdlDevice adapts an open SDL joystick to joystick.Device.
type sdlDevice struct {
	js *sdl.Joystick
}

func (d sdlDevice) Axis(index int32) int16  { return sdl.GetJoystickAxis(d.js, index) }
func (d sdlDevice) Button(index int32) bool { return sdl.GetJoystickButton(d.js, index) }
func (d sdlDevice) NumButtons() int32       { return sdl.GetNumJoystickButtons(d.js) }

func (d sdlDevice) Hat() (uint8, bool) {
	if sdl.GetNumJoystickHats(d.js) == 0 {
		return 0, false
	}
	return sdl.GetJoystickHat(d.js, 0), true
}

// Reader polls the first connected joystick and reports what changed.
type Reader struct {
	cfg    Config
	emit   EmitFunc
	rumble *joystick.Rumble
	logger *slog.Logger

	joysticks map[sdl.JoystickID]*joystickInfo
	activeID  sdl.JoystickID // the first connected joystick
	hasActive bool
	prev      joystick.Frame
	rumbling  bool
}

// NewReader creates a reader. rumble may be nil when the device motors are
// not used for haptics.
func NewReader(cfg Config, emit EmitFunc, rumble *joystick.Rumble, logger *slog.Logger) *Reader {
	if cfg.Deadzone <= 0 {
		cfg.Deadzone = DefaultDeadzone
	}
	if cfg.Poll <= 0 {
		cfg.Poll = DefaultPoll
	}
	return &Reader{
		cfg:       cfg,
		emit:      emit,
		rumble:    rumble,
		logger:    logger,
		joysticks: make(map[sdl.JoystickID]*joystickInfo),
	}
}

// Run initializes SDL and runs the event and polling loop on a locked OS
// thread until ctx is done.
func (r *Reader) Run(ctx context.Context) error {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	if !sdl.Init(sdl.InitJoystick) {
		return fmt.Errorf("SDL init failed: %s", sdl.GetError())
	}
	defer sdl.Quit()

	r.logger.Info("SDL3 joystick subsystem initialized")
	if r.cfg.OnInit != nil {
		r.cfg.OnInit()
	}

	// Check for already-connected joysticks
	for _, id := range sdl.GetJoysticks() {
		r.openJoystick(id)
	}

	for {
		select {
		case <-ctx.Done():
			r.closeAll()
			if errors.Is(ctx.Err(), context.Canceled) {
				return nil
			}
			return ctx.Err()
		default:
		}

		r.processEvents()
		r.pollState()
		sdl.DelayNS(uint64(r.cfg.Poll.Nanoseconds()))
	}
}

func (r *Reader) processEvents() {
	var event sdl.Event
	for sdl.PollEvent(&event) {
		switch event.Type() {
		case sdl.EventJoystickAdded:
			r.openJoystick(event.JDevice().Which)

		case sdl.EventJoystickRemoved:
			r.removeJoystick(event.JDevice().Which)

		case sdl.EventJoystickButtonDown:
			be := event.JButton()
			vlog.Trace(r.logger, "Button down", "index", be.Button, "joystick", be.Which)

		case sdl.EventJoystickButtonUp:
			be := event.JButton()
			vlog.Trace(r.logger, "Button up", "index", be.Button, "joystick", be.Which)

		case sdl.EventJoystickHatMotion:
			he := event.JHat()
			vlog.Trace(r.logger, "Hat", "index", he.Hat, "value", he.Value, "joystick", he.Which)
		}
	}
}

func (r *Reader) openJoystick(instanceID sdl.JoystickID) {
	if _, exists := r.joysticks[instanceID]; exists {
		return
	}

	js := sdl.OpenJoystick(instanceID)
	if js == nil {
		r.logger.Warn("Failed to open joystick", "id", instanceID, "err", sdl.GetError())
		return
	}

	jsID := sdl.GetJoystickID(js)
	vendorID := sdl.GetJoystickVendor(js)
	productID := sdl.GetJoystickProduct(js)
	name := sdl.GetJoystickName(js)
	mapping := joystick.GetMapping(vendorID, productID)

	r.joysticks[jsID] = &joystickInfo{
		joystick: js,
		mapping:  mapping,
		name:     name,
		id:       jsID,
	}

	r.logger.Info("Joystick connected",
		"name", name,
		"vid", fmt.Sprintf("%04X", vendorID),
		"pid", fmt.Sprintf("%04X", productID),
		"mapping", mapping.Name,
		"axes", sdl.GetNumJoystickAxes(js),
		"buttons", sdl.GetNumJoystickButtons(js),
		"hats", sdl.GetNumJoystickHats(js))

	// Use the first connected joystick as active
	if !r.hasActive {
		r.activeID = jsID
		r.hasActive = true
		r.logger.Info("Active joystick set", "name", name, "id", jsID)
	}
}

func (r *Reader) removeJoystick(instanceID sdl.JoystickID) {
	info, exists := r.joysticks[instanceID]
	if !exists {
		return
	}

	r.logger.Info("Joystick disconnected", "name", info.name)
	sdl.CloseJoystick(info.joystick)
	delete(r.joysticks, instanceID)

	if !r.hasActive || r.activeID != instanceID {
		return
	}
	r.hasActive = false
	r.releaseAll()
	r.rumbling = false

	// Promote the next available joystick
	for id, js := range r.joysticks {
		if sdl.JoystickConnected(js.joystick) {
			r.activeID = id
			r.hasActive = true
			r.logger.Info("Active joystick switched", "name", js.name, "id", id)
			break
		}
	}
}

// releaseAll reports every control of the last frame as released.
func (r *Reader) releaseAll() {
	for sym := range r.prev {
		r.emit(sym, input.Value{})
	}
	r.prev = nil
}

func (r *Reader) closeAll() {
	for id, info := range r.joysticks {
		if r.rumbling {
			sdl.RumbleJoystick(info.joystick, 0, 0, 0)
		}
		sdl.CloseJoystick(info.joystick)
		delete(r.joysticks, id)
	}
}

func (r *Reader) pollState() {
	if !r.hasActive {
		return
	}

	info, exists := r.joysticks[r.activeID]
	if !exists || !sdl.JoystickConnected(info.joystick) {
		return
	}

	frame := joystick.ReadFrame(sdlDevice{js: info.joystick}, info.mapping, r.cfg.Deadzone)
	for _, sym := range frame.Changed(r.prev) {
		r.emit(sym, frame[sym])
	}
	r.prev = frame

	r.applyRumble(info.joystick)
}

func (r *Reader) applyRumble(js *sdl.Joystick) {
	if r.rumble == nil {
		return
	}
	on, left := r.rumble.Current()
	switch {
	case on:
		// Renewed every poll until the segment ends
		sdl.RumbleJoystick(js, 0xFFFF, 0xFFFF, uint32(left.Milliseconds())+1)
		r.rumbling = true
	case r.rumbling:
		sdl.RumbleJoystick(js, 0, 0, 0)
		r.rumbling = false
	}
}
