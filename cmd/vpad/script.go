package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"github.com/soar/vgamepadnet/internal/input"
	"github.com/soar/vgamepadnet/internal/loop"
	"github.com/soar/vgamepadnet/internal/protocol"
)

var ErrBadStep = errors.New("bad script step")

// Pad is the part of the controller a script drives.
type Pad interface {
	Table() *input.Table
	Pointer(symbol string, down bool, x, y float64) error
	ToggleTurbo(symbol string) (bool, error)
	ToggleMacro(slot string) (bool, error)
	AdjustMacroSpeed(delta int) int
	SetMode(m protocol.Mode)
	Log(text string)
}

// Step is one script line.
type Step struct {
	Line int
	Op   string
	Args []string
	Wait time.Duration
}

// argument counts: min, max
var ops = map[string][2]int{
	"down":  {1, 3},
	"move":  {3, 3},
	"up":    {1, 1},
	"tap":   {1, 1},
	"wait":  {1, 1},
	"turbo": {1, 1},
	"macro": {1, 1},
	"mode":  {1, 1},
	"speed": {1, 1},
	"log":   {1, -1},
}

// ParseScript reads one step per line. Blank lines and lines starting with
// # are skipped.
func ParseScript(r io.Reader) ([]Step, error) {
	var (
		steps []Step
		errs  error
		n     int
	)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		n++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		step, err := parseStep(n, text)
		if err != nil {
			errs = errors.Join(errs, err)
			continue
		}
		steps = append(steps, step)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	return steps, errs
}

func parseStep(n int, text string) (Step, error) {
	tokens, err := shlex.Split(text)
	if err != nil {
		return Step{}, fmt.Errorf("line %d: %w", n, err)
	}
	step := Step{Line: n, Op: strings.ToLower(tokens[0]), Args: tokens[1:]}
	limits, ok := ops[step.Op]
	if !ok {
		return Step{}, fmt.Errorf("line %d: %w: unknown op %q", n, ErrBadStep, tokens[0])
	}
	if len(step.Args) < limits[0] || (limits[1] >= 0 && len(step.Args) > limits[1]) {
		return Step{}, fmt.Errorf("line %d: %w: wrong argument count for %s", n, ErrBadStep, step.Op)
	}
	switch step.Op {
	case "down":
		if len(step.Args) == 2 {
			return Step{}, fmt.Errorf("line %d: %w: down needs both x and y", n, ErrBadStep)
		}
		err = checkFloats(step.Args[1:])
	case "move":
		err = checkFloats(step.Args[1:])
	case "wait":
		step.Wait, err = time.ParseDuration(step.Args[0])
		if err == nil && step.Wait < 0 {
			err = errors.New("negative wait")
		}
	case "mode":
		_, err = protocol.ParseMode(step.Args[0])
	case "speed":
		if s := step.Args[0]; s != "+" && s != "-" {
			err = fmt.Errorf("speed takes + or -, got %q", s)
		}
	}
	if err != nil {
		return Step{}, fmt.Errorf("line %d: %w: %w", n, ErrBadStep, err)
	}
	return step, nil
}

func checkFloats(args []string) error {
	for _, a := range args {
		if _, err := strconv.ParseFloat(a, 64); err != nil {
			return err
		}
	}
	return nil
}

// Runner plays steps on the loop. A failing step is logged and skipped.
type Runner struct {
	sched  loop.Scheduler
	pad    Pad
	layout map[string]input.Box
	steps  []Step
	logger *slog.Logger

	started bool
	timer   loop.Timer
	done    func()
}

func NewRunner(sched loop.Scheduler, pad Pad, layout map[string]input.Box, steps []Step, logger *slog.Logger) *Runner {
	return &Runner{sched: sched, pad: pad, layout: layout, steps: steps, logger: logger}
}

// Start plays the script once. done runs after the last step.
func (r *Runner) Start(done func()) {
	if r.started {
		return
	}
	r.started = true
	r.done = done
	r.run(0)
}

func (r *Runner) Stop() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	r.done = nil
}

func (r *Runner) run(i int) {
	r.timer = nil
	for ; i < len(r.steps); i++ {
		step := r.steps[i]
		if step.Op == "wait" {
			next := i + 1
			r.timer = r.sched.AfterFunc(step.Wait, func() { r.run(next) })
			return
		}
		if err := r.exec(step); err != nil {
			r.logger.Warn("Script step failed", "line", step.Line, "op", step.Op, "error", err)
		}
	}
	if r.done != nil {
		r.done()
		r.done = nil
	}
}

func (r *Runner) exec(s Step) error {
	switch s.Op {
	case "down", "move":
		sym, box, err := r.control(s.Args[0])
		if err != nil {
			return err
		}
		x, y := center(box)
		if len(s.Args) == 3 {
			x, _ = strconv.ParseFloat(s.Args[1], 64)
			y, _ = strconv.ParseFloat(s.Args[2], 64)
		}
		return r.pad.Pointer(sym, true, x, y)
	case "up":
		sym, box, err := r.control(s.Args[0])
		if err != nil {
			return err
		}
		x, y := center(box)
		return r.pad.Pointer(sym, false, x, y)
	case "tap":
		sym, box, err := r.control(s.Args[0])
		if err != nil {
			return err
		}
		x, y := center(box)
		if err := r.pad.Pointer(sym, true, x, y); err != nil {
			return err
		}
		return r.pad.Pointer(sym, false, x, y)
	case "turbo":
		_, err := r.pad.ToggleTurbo(s.Args[0])
		return err
	case "macro":
		_, err := r.pad.ToggleMacro(s.Args[0])
		return err
	case "mode":
		m, err := protocol.ParseMode(s.Args[0])
		if err != nil {
			return err
		}
		r.pad.SetMode(m)
	case "speed":
		delta := 1
		if s.Args[0] == "-" {
			delta = -1
		}
		r.pad.AdjustMacroSpeed(delta)
	case "log":
		r.pad.Log(strings.Join(s.Args, " "))
	}
	return nil
}

func (r *Runner) control(token string) (string, input.Box, error) {
	ctl, ok := r.pad.Table().Resolve(token)
	if !ok {
		return "", input.Box{}, fmt.Errorf("unknown control %q", token)
	}
	return ctl.Symbol, r.layout[ctl.Symbol], nil
}

func center(b input.Box) (float64, float64) {
	return b.Left + b.Width/2, b.Top + b.Height/2
}
