// Package protocol encodes and parses the line-oriented text protocol spoken
// between a controller and the host.
//
// A frame is one websocket text message holding one or more newline
// separated lines. Controller lines may carry a leading decimal sequence
// number; host lines never do.
package protocol

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/soar/vgamepadnet/internal/input"
)

const (
	CmdSet        = "set"
	CmdButtonDown = "bdown"
	CmdButtonUp   = "bup"
	CmdDPad       = "dpad"
	CmdPing       = "ping"
	CmdPong       = "pong"
	CmdMode       = "mode"
	CmdReset      = "reset"
	CmdLog        = "log"
)

// Field names the host echoes back to the controller.
const (
	FieldLargeMotor = "large_motor"
	FieldSmallMotor = "small_motor"
	FieldLEDNumber  = "led_number"
	FieldSessionID  = "session_id"
)

var (
	ErrEmpty          = errors.New("empty command")
	ErrUnknownCommand = errors.New("unknown command")
	ErrBadArgument    = errors.New("bad argument")
)

// Mode selects controller labeling on both ends. It does not change the
// shape of the protocol.
type Mode string

const (
	ModeXbox Mode = "xbox"
	ModeDS4  Mode = "ds4"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case ModeXbox:
		return ModeXbox, nil
	case ModeDS4:
		return ModeDS4, nil
	}
	return "", fmt.Errorf("%w: mode %q", ErrBadArgument, s)
}

// Pair is one name/value entry of a set command.
type Pair struct {
	Name  string
	Value float64
}

// FormatFloat renders v in the shortest form that parses back exactly.
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

func Set(name string, v float64) string {
	return CmdSet + " " + name + " " + FormatFloat(v)
}

// SetMany joins several pairs into one set command. With no pairs it
// returns the bare "set", which the host accepts as a no-op.
func SetMany(pairs []Pair) string {
	var b strings.Builder
	b.WriteString(CmdSet)
	for _, p := range pairs {
		b.WriteByte(' ')
		b.WriteString(p.Name)
		b.WriteByte(' ')
		b.WriteString(FormatFloat(p.Value))
	}
	return b.String()
}

func ButtonDown(name string) string { return CmdButtonDown + " " + name }
func ButtonUp(name string) string   { return CmdButtonUp + " " + name }
func DPad(o input.Octant) string    { return CmdDPad + " " + strconv.Itoa(int(o)) }
func Ping() string                  { return CmdPing }
func Pong() string                  { return CmdPong }
func SetMode(m Mode) string         { return CmdMode + " " + string(m) }
func Reset() string                 { return CmdReset }

// Log forwards a free-text line to the host log. Newlines would split the
// frame, so they are flattened.
func Log(text string) string {
	return CmdLog + " " + strings.NewReplacer("\r", " ", "\n", " ").Replace(text)
}

// Vector is the direct stick form "<control> <x> <y>".
func Vector(name string, x, y float64) string {
	return name + " " + FormatFloat(x) + " " + FormatFloat(y)
}

// Scalar is the direct trigger form "<control> <value>".
func Scalar(name string, v float64) string {
	return name + " " + FormatFloat(v)
}

func WithSeq(seq uint64, line string) string {
	return strconv.FormatUint(seq, 10) + " " + line
}

func JoinFrame(lines []string) string {
	return strings.Join(lines, "\n")
}

// SplitFrame returns the non-blank lines of a frame.
func SplitFrame(frame string) []string {
	raw := strings.Split(frame, "\n")
	out := raw[:0]
	for _, l := range raw {
		l = strings.TrimRight(l, "\r")
		if strings.TrimSpace(l) == "" {
			continue
		}
		out = append(out, l)
	}
	return out
}
