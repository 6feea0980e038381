package tray

import (
	_ "embed"
	"fmt"
	"log/slog"
	"os/exec"
	"runtime"
	"sync"
	"sync/atomic"

	"fyne.io/systray"
)

//go:embed icon.ico
var icon []byte

// ShutdownFunc is called when "Exit" is clicked
type ShutdownFunc func()

// Tray manages the system tray icon and menu
type Tray struct {
	links        []string
	shutdownFunc ShutdownFunc
	logger       *slog.Logger
	once         sync.Once
	shuttingDown atomic.Bool
	ready        atomic.Bool
	menuOpen     *systray.MenuItem
	menuSessions *systray.MenuItem
	menuExit     *systray.MenuItem
}

// New creates a new Tray instance. The first link is the one opened by
// the menu; all of them are listed.
func New(links []string, shutdownFn ShutdownFunc, logger *slog.Logger) *Tray {
	return &Tray{
		links:        links,
		shutdownFunc: shutdownFn,
		logger:       logger,
	}
}

// Run initializes and runs the system tray (blocks until Quit())
func (t *Tray) Run() {
	systray.Run(func() {
		t.onReady()
	}, func() {
		t.onExit()
	})
}

// Quit removes the tray icon, unblocking Run.
func (t *Tray) Quit() {
	t.shuttingDown.Store(true)
	systray.Quit()
}

// SetSessions shows the number of connected controllers.
func (t *Tray) SetSessions(n int) {
	if !t.ready.Load() {
		return
	}
	t.menuSessions.SetTitle(SessionsTitle(n))
}

func SessionsTitle(n int) string {
	if n == 1 {
		return "1 controller connected"
	}
	return fmt.Sprintf("%d controllers connected", n)
}

// onReady is called when the tray is ready
func (t *Tray) onReady() {
	systray.SetIcon(icon)
	systray.SetTitle("vgamepadnet")
	systray.SetTooltip(Tooltip(t.links))

	t.menuOpen = systray.AddMenuItem("Open Viewer", "Open the viewer page")
	for _, link := range t.links {
		item := systray.AddMenuItem(link, "Controller link")
		item.Disable()
	}
	systray.AddSeparator()
	t.menuSessions = systray.AddMenuItem(SessionsTitle(0), "")
	t.menuSessions.Disable()
	t.menuExit = systray.AddMenuItem("Exit", "Quit application")
	t.ready.Store(true)

	// Handle menu clicks in separate goroutines to prevent blocking
	go t.handleMenuClicks()

	t.logger.Info("System tray initialized")
}

// Tooltip is the hover text: the name and the first link.
func Tooltip(links []string) string {
	if len(links) == 0 {
		return "vgamepadnet"
	}
	return "vgamepadnet - " + links[0]
}

// handleMenuClicks processes menu item clicks without blocking
func (t *Tray) handleMenuClicks() {
	for {
		select {
		case <-t.menuOpen.ClickedCh:
			if !t.shuttingDown.Load() && len(t.links) > 0 {
				t.openBrowser(t.links[0])
			}
		case <-t.menuExit.ClickedCh:
			if t.shuttingDown.CompareAndSwap(false, true) {
				t.once.Do(t.shutdownFunc)
				systray.Quit()
				return
			}
		}
	}
}

// onExit is called when the tray is exiting
func (t *Tray) onExit() {
	t.shuttingDown.Store(true)
	t.logger.Info("System tray exiting")
}

// openBrowser opens the default web browser
func (t *Tray) openBrowser(url string) {
	var cmd *exec.Cmd

	switch runtime.GOOS {
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	case "darwin":
		cmd = exec.Command("open", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}

	if err := cmd.Start(); err != nil {
		t.logger.Warn("Failed to open browser", "url", url, "err", err)
	}
}
