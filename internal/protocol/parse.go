package protocol

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Command is one parsed protocol line.
type Command struct {
	Seq    uint64
	HasSeq bool
	Name   string
	Args   []string
	// Text is everything after the command name, unsplit. Used by log.
	Text string
}

// Parse splits a line into its optional sequence number, command name and
// arguments.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, ErrEmpty
	}
	var cmd Command
	head, rest := cut(line)
	if seq, err := strconv.ParseUint(head, 10, 64); err == nil {
		cmd.Seq = seq
		cmd.HasSeq = true
		if rest == "" {
			return Command{}, ErrEmpty
		}
		head, rest = cut(rest)
	}
	cmd.Name = head
	cmd.Text = rest
	cmd.Args = strings.Fields(rest)
	return cmd, nil
}

func cut(s string) (string, string) {
	head, rest, _ := strings.Cut(s, " ")
	return head, strings.TrimLeft(rest, " ")
}

// Float parses argument i.
func (c Command) Float(i int) (float64, error) {
	if i >= len(c.Args) {
		return 0, fmt.Errorf("%w: %s needs argument %d", ErrBadArgument, c.Name, i+1)
	}
	v, err := parseFinite(c.Args[i])
	if err != nil {
		return 0, fmt.Errorf("%w: %s argument %q", ErrBadArgument, c.Name, c.Args[i])
	}
	return v, nil
}

// Arg returns argument i or an error if it is missing.
func (c Command) Arg(i int) (string, error) {
	if i >= len(c.Args) {
		return "", fmt.Errorf("%w: %s needs argument %d", ErrBadArgument, c.Name, i+1)
	}
	return c.Args[i], nil
}

// parseFinite rejects NaN and the infinities, which ParseFloat accepts.
func parseFinite(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%q is not finite", s)
	}
	return v, nil
}

// Pairs decodes the name/value list of a set command. A trailing name
// without a value is ignored. Pairs parsed before a malformed value are
// returned along with the error.
func (c Command) Pairs() ([]Pair, error) {
	pairs := make([]Pair, 0, len(c.Args)/2)
	for i := 0; i+1 < len(c.Args); i += 2 {
		v, err := parseFinite(c.Args[i+1])
		if err != nil {
			return pairs, fmt.Errorf("%w: set %s %q", ErrBadArgument, c.Args[i], c.Args[i+1])
		}
		pairs = append(pairs, Pair{Name: c.Args[i], Value: v})
	}
	return pairs, nil
}
