package config

import (
	"fmt"
	"runtime"
	"time"

	"github.com/spf13/pflag"
)

const DefaultPort = 35714

type Server struct {
	Listen     string        `mapstructure:"listen"`
	PrefixFile string        `mapstructure:"prefix_file"`
	Driver     string        `mapstructure:"driver"`
	Heartbeat  time.Duration `mapstructure:"heartbeat"`
	Minify     bool          `mapstructure:"minify"`
	Tray       bool          `mapstructure:"tray"`
	LogLevel   string        `mapstructure:"log_level"`
	LogFile    string        `mapstructure:"log_file"`
}

func LoadServer(args []string) (*Server, error) {
	fs := pflag.NewFlagSet("vgamepadnet", pflag.ContinueOnError)
	fs.String("listen", "", "address to listen on")
	fs.String("prefix-file", "", "file holding the URL path prefix")
	fs.String("driver", "", "virtual pad driver: log or echo")
	fs.Duration("heartbeat", 0, "websocket ping interval")
	fs.Bool("minify", true, "minify the embedded viewer")
	fs.Bool("tray", runtime.GOOS == "windows", "show a tray icon")
	fs.String("log-level", "", "trace, debug, info, warn or error")
	fs.String("log-file", "", "also write logs to this file")

	cfg := &Server{}
	err := load(fs, args, map[string]any{
		"listen":      fmt.Sprintf("0.0.0.0:%d", DefaultPort),
		"prefix_file": "path_prefix.txt",
		"driver":      "log",
		"heartbeat":   2 * time.Second,
		"minify":      true,
		"tray":        runtime.GOOS == "windows",
		"log_level":   "info",
	}, cfg)
	if err != nil {
		return nil, err
	}
	if cfg.Heartbeat <= 0 {
		return nil, fmt.Errorf("heartbeat must be positive, got %s", cfg.Heartbeat)
	}
	switch cfg.Driver {
	case "log", "echo":
	default:
		return nil, fmt.Errorf("unknown driver %q", cfg.Driver)
	}
	return cfg, nil
}
