//go:build windows

package console

import (
	"log/slog"
	"sync"
	"syscall"
)

var (
	kernel32                  = syscall.NewLazyDLL("kernel32.dll")
	procSetConsoleCtrlHandler = kernel32.NewProc("SetConsoleCtrlHandler")
)

const (
	ctrlCEvent     = 0
	ctrlBreakEvent = 1
)

// The callback outlives the call that created it, so its state is global.
var handler struct {
	once     sync.Once
	callback uintptr
	close    func()
}

// NotifyInterrupt closes ch on Ctrl+C or Ctrl+Break. The returned function
// registers the handler again; call it after a library such as SDL3 has
// installed its own.
func NotifyInterrupt(ch chan struct{}, logger *slog.Logger) func() {
	var once sync.Once
	handler.close = func() { once.Do(func() { close(ch) }) }
	handler.once.Do(func() {
		handler.callback = syscall.NewCallback(func(ctrlType uint32) uintptr {
			if ctrlType != ctrlCEvent && ctrlType != ctrlBreakEvent {
				return 0
			}
			if handler.close != nil {
				handler.close()
			}
			return 1
		})
	})

	register := func() {
		if ret, _, err := procSetConsoleCtrlHandler.Call(handler.callback, 1); ret == 0 {
			logger.Warn("Failed to set console control handler", "error", err)
		}
	}
	register()
	return register
}
