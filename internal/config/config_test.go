package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServerDefaults(t *testing.T) {
	cfg, err := LoadServer(nil)
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:35714", cfg.Listen)
	assert.Equal(t, "path_prefix.txt", cfg.PrefixFile)
	assert.Equal(t, "log", cfg.Driver)
	assert.Equal(t, 2*time.Second, cfg.Heartbeat)
	assert.True(t, cfg.Minify)
	assert.Equal(t, "info", cfg.LogLevel)
}

func TestServerPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "host.yaml")
	require.NoError(t, os.WriteFile(file, []byte("listen: 127.0.0.1:1\ndriver: echo\nheartbeat: 5s\n"), 0o644))
	t.Setenv("VGAMEPADNET_LISTEN", "127.0.0.1:2")

	cfg, err := LoadServer([]string{"--config", file, "--heartbeat", "3s"})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:2", cfg.Listen, "env beats file")
	assert.Equal(t, "echo", cfg.Driver, "file beats default")
	assert.Equal(t, 3*time.Second, cfg.Heartbeat, "flag beats file")
}

func TestServerRejectsUnknownDriver(t *testing.T) {
	_, err := LoadServer([]string{"--driver", "vigem"})
	assert.Error(t, err)
}

func TestClientRequiresURL(t *testing.T) {
	_, err := LoadClient(nil)
	assert.Error(t, err)
}

func TestClientDefaults(t *testing.T) {
	cfg, err := LoadClient([]string{"--url", "ws://localhost:35714/abc/websocket"})
	require.NoError(t, err)
	assert.Equal(t, "xbox", cfg.Mode)
	assert.Equal(t, 16*time.Millisecond, cfg.FlushDelay)
	assert.Equal(t, time.Second, cfg.ReconnectDelay)
	assert.Equal(t, 1.5, cfg.StickAmplification)
	assert.Equal(t, 50*time.Millisecond, cfg.TurboPeriod)
	assert.Equal(t, Latency{Wait: time.Second, Timeout: time.Second, Window: 1}, cfg.Latency)
	assert.Equal(t, 0.7, cfg.Vibration.K)
	assert.Equal(t, "canonical", cfg.Vibration.Strategy)
}

func TestClientFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "pad.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
url: ws://pad/x/websocket
latency:
  window: 4
vibration:
  strategy: slotted
macros:
  M1: "A . B"
layout:
  LS:
    left: 10
    top: 20
    width: 30
    height: 40
`), 0o644))
	t.Setenv("VGAMEPADNET_VIBRATION_HOLD", "3")

	cfg, err := LoadClient([]string{"--config", file})
	require.NoError(t, err)
	assert.Equal(t, 4, cfg.Latency.Window)
	assert.Equal(t, time.Second, cfg.Latency.Wait)
	assert.Equal(t, "slotted", cfg.Vibration.Strategy)
	assert.Equal(t, 3, cfg.Vibration.Hold)
	assert.Equal(t, "A . B", cfg.Macros["m1"])
	assert.Equal(t, Box{Left: 10, Top: 20, Width: 30, Height: 40}, cfg.Layout["ls"])
}
