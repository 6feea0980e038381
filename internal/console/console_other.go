//go:build !windows

package console

import "log/slog"

// NotifyInterrupt returns a no-op; os/signal delivers SIGINT on this
// platform.
func NotifyInterrupt(ch chan struct{}, logger *slog.Logger) func() {
	return func() {}
}
