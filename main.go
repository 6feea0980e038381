package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soar/vgamepadnet/internal/config"
	"github.com/soar/vgamepadnet/internal/gamepad"
	"github.com/soar/vgamepadnet/internal/hub"
	vlog "github.com/soar/vgamepadnet/internal/log"
	"github.com/soar/vgamepadnet/internal/server"
	"github.com/soar/vgamepadnet/internal/tray"
)

// Cross-platform signal handling: use os.Interrupt on all platforms
// On Windows: os.Interrupt is sent when Ctrl+C is pressed
// On Unix: os.Interrupt is equivalent to syscall.SIGINT
var shutdownSignals = []os.Signal{os.Interrupt, syscall.SIGTERM}

func main() {
	cfg, err := config.LoadServer(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	logger, closers, err := vlog.SetupLogger(cfg.LogLevel, cfg.LogFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	defer func() {
		for _, c := range closers {
			c.Close()
		}
	}()

	if err := run(cfg, logger); err != nil {
		logger.Error("vgamepadnet failed", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Server, logger *slog.Logger) error {
	// Create cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, shutdownSignals...)

	prefix, err := server.LoadPrefix(cfg.PrefixFile)
	if err != nil {
		return err
	}
	drivers, err := gamepad.NewDriverFactory(cfg.Driver, logger)
	if err != nil {
		return err
	}
	viewer, err := viewerFS()
	if err != nil {
		return err
	}
	assets, err := server.LoadAssets(viewer, cfg.Minify)
	if err != nil {
		return fmt.Errorf("load viewer: %w", err)
	}

	// Create and start hub
	h := hub.NewHub(logger)
	go h.Run(ctx)

	// Create broadcaster
	broadcaster := hub.NewBroadcaster(h, logger)
	go broadcaster.Run(ctx)

	ln, err := net.Listen("tcp", cfg.Listen)
	if err != nil {
		return err
	}
	srv := server.New(h, broadcaster, assets, server.Config{
		Prefix: prefix,
		Session: hub.SessionConfig{
			Heartbeat: cfg.Heartbeat,
			Drivers:   drivers,
		},
	}, logger)
	serverErrCh := make(chan error, 1)
	go func() {
		serverErrCh <- srv.Serve(ln)
	}()

	links := Links(ln.Addr(), prefix)
	for _, link := range links {
		logger.Info("Controller link", "url", link)
	}

	// Channel for tray-triggered shutdown
	shutdownRequested := make(chan struct{})

	var t *tray.Tray
	if cfg.Tray {
		t = tray.New(links, func() {
			close(shutdownRequested)
		}, logger)
		h.OnSessions(func(ids []int) { t.SetSessions(len(ids)) })
		go t.Run()
	} else {
		logger.Info("Press Ctrl+C to exit")
	}

	// Wait for shutdown signal, tray request, or server error
	select {
	case <-sigCh:
		logger.Info("Shutting down")
	case <-shutdownRequested:
		logger.Info("Shutdown requested from tray")
	case err := <-serverErrCh:
		if err != nil {
			logger.Error("HTTP server error", "err", err)
		}
	}
	if t != nil {
		t.Quit()
	}

	// Shutdown the HTTP server gracefully
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("HTTP server shutdown error", "err", err)
	}
	cancel()

	logger.Info("vgamepadnet stopped")
	return nil
}

// Links lists the controller page URL for every local address the
// listener is reachable on.
func Links(addr net.Addr, prefix string) []string {
	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return nil
	}
	ip := net.ParseIP(host)
	var hosts []string
	if ip != nil && !ip.IsUnspecified() {
		hosts = []string{host}
	} else {
		hosts = interfaceHosts()
	}

	links := make([]string, 0, len(hosts))
	for _, h := range hosts {
		links = append(links, linkFor(h, port, prefix))
	}
	return links
}

func linkFor(host, port, prefix string) string {
	return "http://" + net.JoinHostPort(host, port) + "/" + prefix + "/"
}

// interfaceHosts returns the IPv4 addresses of the machine, loopback last.
func interfaceHosts() []string {
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return []string{"127.0.0.1"}
	}
	var hosts, loopback []string
	for _, a := range addrs {
		ipnet, ok := a.(*net.IPNet)
		if !ok || ipnet.IP.To4() == nil {
			continue
		}
		if ipnet.IP.IsLoopback() {
			loopback = append(loopback, ipnet.IP.String())
			continue
		}
		hosts = append(hosts, ipnet.IP.String())
	}
	if len(loopback) == 0 {
		loopback = []string{"127.0.0.1"}
	}
	return append(hosts, loopback...)
}
