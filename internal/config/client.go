package config

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"
)

// Box is a control's bounding box in the client's coordinate space.
type Box struct {
	Left   float64 `mapstructure:"left"`
	Top    float64 `mapstructure:"top"`
	Width  float64 `mapstructure:"width"`
	Height float64 `mapstructure:"height"`
}

type Latency struct {
	Wait    time.Duration `mapstructure:"wait"`
	Timeout time.Duration `mapstructure:"timeout"`
	Window  int           `mapstructure:"window"`
}

type Vibration struct {
	Tick     time.Duration `mapstructure:"tick"`
	Hold     int           `mapstructure:"hold"`
	K        float64       `mapstructure:"k"`
	Strategy string        `mapstructure:"strategy"`
	Total    int           `mapstructure:"total"`
	Grain    int           `mapstructure:"grain"`
	Slots    int           `mapstructure:"slots"`
	Unit     int           `mapstructure:"unit"`
}

type Joystick struct {
	Deadzone float64       `mapstructure:"deadzone"`
	Poll     time.Duration `mapstructure:"poll"`
}

type Client struct {
	URL    string `mapstructure:"url"`
	Mode   string `mapstructure:"mode"`
	Source string `mapstructure:"source"`
	Script string `mapstructure:"script"`
	Haptic string `mapstructure:"haptic"`

	FlushDelay         time.Duration `mapstructure:"flush_delay"`
	ReconnectDelay     time.Duration `mapstructure:"reconnect_delay"`
	StickAmplification float64       `mapstructure:"stick_amplification"`
	DPadAmplification  float64       `mapstructure:"dpad_amplification"`
	TurboPeriod        time.Duration `mapstructure:"turbo_period"`
	MacroPeriod        time.Duration `mapstructure:"macro_period"`

	// Keys are case-insensitive control names and slot names.
	Layout map[string]Box    `mapstructure:"layout"`
	Macros map[string]string `mapstructure:"macros"`

	Latency   Latency   `mapstructure:"latency"`
	Vibration Vibration `mapstructure:"vibration"`
	Joystick  Joystick  `mapstructure:"joystick"`

	LogLevel string `mapstructure:"log_level"`
	LogFile  string `mapstructure:"log_file"`
}

func LoadClient(args []string) (*Client, error) {
	fs := pflag.NewFlagSet("vpad", pflag.ContinueOnError)
	fs.String("url", "", "host websocket URL, e.g. ws://host:35714/<prefix>/websocket")
	fs.String("mode", "", "controller mode: xbox or ds4")
	fs.String("source", "", "input source: script or joystick")
	fs.String("script", "", "script file for the script source (- for stdin)")
	fs.String("haptic", "", "haptic output: log, joystick or none")
	fs.Duration("flush-delay", 0, "outbound batching window")
	fs.Duration("reconnect-delay", 0, "pause before reconnecting")
	fs.String("log-level", "", "trace, debug, info, warn or error")
	fs.String("log-file", "", "also write logs to this file")

	cfg := &Client{}
	err := load(fs, args, map[string]any{
		"mode":                "xbox",
		"source":              "script",
		"script":              "-",
		"haptic":              "log",
		"flush_delay":         16 * time.Millisecond,
		"reconnect_delay":     time.Second,
		"stick_amplification": 1.5,
		"dpad_amplification":  1.0,
		"turbo_period":        50 * time.Millisecond,
		"macro_period":        100 * time.Millisecond,
		"latency.wait":        time.Second,
		"latency.timeout":     time.Second,
		"latency.window":      1,
		"vibration.tick":      10 * time.Millisecond,
		"vibration.hold":      10,
		"vibration.k":         0.7,
		"vibration.strategy":  "canonical",
		"vibration.total":     100,
		"vibration.grain":     5,
		"vibration.slots":     50,
		"vibration.unit":      10,
		"joystick.deadzone":   0.05,
		"joystick.poll":       16 * time.Millisecond,
		"log_level":           "info",
	}, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.URL == "" {
		return nil, fmt.Errorf("url is required")
	}
	switch cfg.Source {
	case "script", "joystick":
	default:
		return nil, fmt.Errorf("unknown source %q", cfg.Source)
	}
	switch cfg.Haptic {
	case "log", "joystick", "none":
	default:
		return nil, fmt.Errorf("unknown haptic output %q", cfg.Haptic)
	}
	switch cfg.Vibration.Strategy {
	case "canonical", "slotted":
	default:
		return nil, fmt.Errorf("unknown vibration strategy %q", cfg.Vibration.Strategy)
	}
	return cfg, nil
}
