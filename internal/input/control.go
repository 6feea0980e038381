package input

import (
	"fmt"
	"strings"
)

// Kind selects the normalization applied to a control's pointer samples.
type Kind int

const (
	Button Kind = iota
	Stick
	Trigger
	DPad
)

func (k Kind) String() string {
	switch k {
	case Button:
		return "button"
	case Stick:
		return "stick"
	case Trigger:
		return "trigger"
	case DPad:
		return "dpad"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(s) {
	case "button":
		return Button, nil
	case "stick":
		return Stick, nil
	case "trigger":
		return Trigger, nil
	case "dpad":
		return DPad, nil
	}
	return 0, fmt.Errorf("unknown control kind %q", s)
}

// Control is one input surface of the virtual gamepad.
type Control struct {
	Symbol   string // stable identity
	Kind     Kind
	Name     string // protocol field; sticks send Name+"x" and Name+"y"
	Label    string
	DS4Label string
	Turbo    bool // eligible for auto-repeat
}

// LabelFor returns the label shown in the given controller mode.
func (c Control) LabelFor(mode string) string {
	if mode == "ds4" && c.DS4Label != "" {
		return c.DS4Label
	}
	return c.Label
}

// Table is an ordered set of controls keyed by symbol.
type Table struct {
	order    []string
	bySymbol map[string]Control
	aliases  map[string]string
}

func NewTable(controls ...Control) (*Table, error) {
	t := &Table{
		bySymbol: make(map[string]Control, len(controls)),
		aliases:  make(map[string]string),
	}
	for _, c := range controls {
		if c.Symbol == "" {
			return nil, fmt.Errorf("control without symbol")
		}
		if _, dup := t.bySymbol[c.Symbol]; dup {
			return nil, fmt.Errorf("duplicate control %q", c.Symbol)
		}
		if c.Name == "" {
			c.Name = c.Symbol
		}
		t.order = append(t.order, c.Symbol)
		t.bySymbol[c.Symbol] = c
	}
	for _, sym := range t.order {
		c := t.bySymbol[sym]
		t.addAlias(c.Name, sym)
		t.addAlias(c.Symbol, sym)
		t.addAlias(c.Label, sym)
	}
	for alias, sym := range directionAliases {
		if _, ok := t.bySymbol[sym]; ok {
			t.aliases[alias] = sym
		}
	}
	return t, nil
}

// addAlias keeps the first control registered for an alias, so a plain
// button "LT" is never shadowed by the "LTb" shortcut that shares its name.
func (t *Table) addAlias(alias, symbol string) {
	if alias == "" {
		return
	}
	key := strings.ToLower(alias)
	if _, taken := t.aliases[key]; !taken {
		t.aliases[key] = symbol
	}
}

func (t *Table) Lookup(symbol string) (Control, bool) {
	c, ok := t.bySymbol[symbol]
	return c, ok
}

// Resolve maps a free-text token (symbol, protocol name, label or direction
// alias) to a control, case-insensitively.
func (t *Table) Resolve(token string) (Control, bool) {
	if c, ok := t.bySymbol[token]; ok {
		return c, true
	}
	sym, ok := t.aliases[strings.ToLower(token)]
	if !ok {
		return Control{}, false
	}
	return t.bySymbol[sym], true
}

// Controls returns the controls in registration order.
func (t *Table) Controls() []Control {
	out := make([]Control, 0, len(t.order))
	for _, sym := range t.order {
		out = append(out, t.bySymbol[sym])
	}
	return out
}

var directionAliases = map[string]string{
	"u": "up", "↑": "up", "^": "up", "north": "up",
	"d": "down", "↓": "down", "v": "down", "south": "down",
	"l": "left", "←": "left", "<": "left", "west": "left",
	"r": "right", "→": "right", ">": "right", "east": "right",
}

// DefaultControls is the stock controller layout.
func DefaultControls() []Control {
	return []Control{
		{Symbol: "LB", Kind: Button, Name: "LB", Label: "LB", DS4Label: "L1"},
		{Symbol: "RB", Kind: Button, Name: "RB", Label: "RB", DS4Label: "R1"},
		{Symbol: "LT", Kind: Trigger, Name: "LT", Label: "LT", DS4Label: "L2"},
		{Symbol: "RT", Kind: Trigger, Name: "RT", Label: "RT", DS4Label: "R2"},
		{Symbol: "LS", Kind: Stick, Name: "LS", Label: "LS", DS4Label: "L3"},
		{Symbol: "RS", Kind: Stick, Name: "RS", Label: "RS", DS4Label: "R3"},
		{Symbol: "up", Kind: Button, Name: "up", Label: "↑"},
		{Symbol: "down", Kind: Button, Name: "down", Label: "↓"},
		{Symbol: "left", Kind: Button, Name: "left", Label: "←"},
		{Symbol: "right", Kind: Button, Name: "right", Label: "→"},
		{Symbol: "DP", Kind: DPad, Name: "dpad", Label: "✣"},
		{Symbol: "A", Kind: Button, Name: "A", Label: "A", DS4Label: "✕", Turbo: true},
		{Symbol: "B", Kind: Button, Name: "B", Label: "B", DS4Label: "○", Turbo: true},
		{Symbol: "X", Kind: Button, Name: "X", Label: "X", DS4Label: "□", Turbo: true},
		{Symbol: "Y", Kind: Button, Name: "Y", Label: "Y", DS4Label: "△", Turbo: true},
		{Symbol: "back", Kind: Button, Name: "back", Label: "❐", DS4Label: "…"},
		{Symbol: "start", Kind: Button, Name: "start", Label: "☰"},
		{Symbol: "guide", Kind: Button, Name: "guide", Label: "⭙", DS4Label: "PS"},
		{Symbol: "LTb", Kind: Button, Name: "LT", Label: "LT", DS4Label: "L2"},
		{Symbol: "RTb", Kind: Button, Name: "RT", Label: "RT", DS4Label: "R2"},
		{Symbol: "LSb", Kind: Button, Name: "LS", Label: "LS", DS4Label: "L3"},
		{Symbol: "RSb", Kind: Button, Name: "RS", Label: "RS", DS4Label: "R3"},
	}
}

func DefaultTable() *Table {
	t, err := NewTable(DefaultControls()...)
	if err != nil {
		panic(err)
	}
	return t
}
