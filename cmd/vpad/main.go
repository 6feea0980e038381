// Command vpad is a headless controller. It connects to a vgamepadnet host
// and plays input from a script file or a local joystick.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soar/vgamepadnet/internal/channel"
	"github.com/soar/vgamepadnet/internal/config"
	"github.com/soar/vgamepadnet/internal/console"
	"github.com/soar/vgamepadnet/internal/input"
	"github.com/soar/vgamepadnet/internal/joystick"
	"github.com/soar/vgamepadnet/internal/joystick/sdlreader"
	"github.com/soar/vgamepadnet/internal/latency"
	vlog "github.com/soar/vgamepadnet/internal/log"
	"github.com/soar/vgamepadnet/internal/loop"
	"github.com/soar/vgamepadnet/internal/pad"
	"github.com/soar/vgamepadnet/internal/protocol"
	"github.com/soar/vgamepadnet/internal/vibration"
)

const closeTimeout = 2 * time.Second

var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	cfg, err := config.LoadClient(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, closers, err := vlog.SetupLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	if err := run(cfg, logger); err != nil {
		logger.Error("vpad failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Client, logger *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)
	interrupted := make(chan struct{})
	rearm := console.NotifyInterrupt(interrupted, logger)

	mode, err := protocol.ParseMode(cfg.Mode)
	if err != nil {
		return err
	}
	var steps []Step
	if cfg.Source == "script" {
		if steps, err = loadScript(cfg.Script); err != nil {
			return err
		}
	}

	layout := defaultLayout(boxes(cfg.Layout))
	l := loop.New(0)

	haptics, rumble := hapticOutput(cfg.Haptic, logger)

	ch := channel.New(l, &channel.WSDialer{URL: cfg.URL, Logger: logger}, channel.Config{
		FlushDelay:     cfg.FlushDelay,
		ReconnectDelay: cfg.ReconnectDelay,
	}, logger)
	p, err := pad.New(l, ch, pad.Config{
		Mode:   mode,
		Layout: layout,
		Amplification: input.Amplification{
			Stick: cfg.StickAmplification,
			DPad:  cfg.DPadAmplification,
		},
		TurboPeriod: cfg.TurboPeriod,
		MacroPeriod: cfg.MacroPeriod,
		Macros:      cfg.Macros,
		Latency: latency.Config{
			Wait:    cfg.Latency.Wait,
			Timeout: cfg.Latency.Timeout,
			Window:  cfg.Latency.Window,
		},
		Vibration: vibrationConfig(cfg.Vibration),
		Haptics:   haptics,
	}, logger)
	if err != nil {
		return err
	}

	var runner *Runner
	if steps != nil {
		runner = NewRunner(l, p, layout, steps, logger)
	}
	p.OnStatus(func(s pad.Status) {
		logger.Info("Status", "status", s.String())
		if runner != nil && s.Connection == channel.Open {
			runner.Start(func() { logger.Info("Script finished, press Ctrl+C to exit") })
		}
	})

	loopErr := make(chan error, 1)
	go func() {
		loopErr <- l.Run(ctx)
	}()
	l.Post(p.Start)

	readerErr := make(chan error, 1)
	if cfg.Source == "joystick" || rumble != nil {
		emit := func(string, input.Value) {}
		if cfg.Source == "joystick" {
			emit = func(symbol string, v input.Value) {
				l.Post(func() {
					if err := p.Apply(symbol, v); err != nil {
						logger.Debug("Joystick input ignored", "control", symbol, "error", err)
					}
				})
			}
		}
		reader := sdlreader.NewReader(sdlreader.Config{
			Deadzone: cfg.Joystick.Deadzone,
			Poll:     cfg.Joystick.Poll,
			OnInit:   rearm,
		}, emit, rumble, logger)
		go func() {
			readerErr <- reader.Run(ctx)
		}()
	}

	select {
	case <-sigCh:
		logger.Info("Shutting down")
	case <-interrupted:
		logger.Info("Shutting down")
	case err := <-readerErr:
		if err != nil {
			logger.Error("Joystick reader stopped", "error", err)
		}
	case err := <-loopErr:
		return err
	}

	closed := make(chan struct{})
	l.Post(func() {
		if runner != nil {
			runner.Stop()
		}
		p.Close()
		close(closed)
	})
	select {
	case <-closed:
	case <-time.After(closeTimeout):
		logger.Warn("Timed out closing the session")
	}
	cancel()
	if err := <-loopErr; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func loadScript(path string) ([]Step, error) {
	var r io.Reader = os.Stdin
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open script: %w", err)
		}
		defer f.Close()
		r = f
	}
	steps, err := ParseScript(r)
	if err != nil {
		return nil, err
	}
	if steps == nil {
		steps = []Step{}
	}
	return steps, nil
}

func hapticOutput(name string, logger *slog.Logger) (vibration.Output, *joystick.Rumble) {
	switch name {
	case "log":
		return &vibration.LogOutput{Logger: logger}, nil
	case "joystick":
		r := joystick.NewRumble()
		return r, r
	}
	return vibration.Discard{}, nil
}

func vibrationConfig(c config.Vibration) vibration.Config {
	vc := vibration.Config{Tick: c.Tick, Hold: c.Hold, K: c.K}
	switch c.Strategy {
	case "slotted":
		vc.Strategy = vibration.Slotted{Slots: c.Slots, Unit: c.Unit}
	default:
		vc.Strategy = vibration.Canonical{Total: c.Total, Grain: c.Grain}
	}
	return vc
}

func boxes(in map[string]config.Box) map[string]input.Box {
	out := make(map[string]input.Box, len(in))
	for k, b := range in {
		out[k] = input.Box{Left: b.Left, Top: b.Top, Width: b.Width, Height: b.Height}
	}
	return out
}

// defaultLayout resolves configured box names to control symbols and gives
// every other control a 100x100 box at the origin.
func defaultLayout(configured map[string]input.Box) map[string]input.Box {
	table := input.DefaultTable()
	layout := make(map[string]input.Box)
	for _, ctl := range table.Controls() {
		layout[ctl.Symbol] = input.Box{Width: 100, Height: 100}
	}
	for name, box := range configured {
		if ctl, ok := table.Resolve(name); ok {
			layout[ctl.Symbol] = box
		}
	}
	return layout
}
