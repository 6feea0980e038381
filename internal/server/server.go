package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"

	"github.com/soar/vgamepadnet/internal/hub"
)

type Config struct {
	// Prefix is the secret first path segment of every route.
	Prefix  string
	Session hub.SessionConfig
}

type Server struct {
	hub         *hub.Hub
	broadcaster *hub.Broadcaster
	assets      http.Handler
	cfg         Config
	logger      *slog.Logger
	httpServer  *http.Server
}

func New(h *hub.Hub, b *hub.Broadcaster, assets http.Handler, cfg Config, logger *slog.Logger) *Server {
	s := &Server{
		hub:         h,
		broadcaster: b,
		assets:      assets,
		cfg:         cfg,
		logger:      logger,
	}
	s.httpServer = &http.Server{Handler: s.Handler()}
	return s
}

// Handler returns the routes, all under /<prefix>/.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	root := "/" + s.cfg.Prefix

	// Controller sessions
	mux.HandleFunc("GET "+root+"/websocket", s.handleController)
	// Viewer updates
	mux.HandleFunc("GET "+root+"/view", s.handleViewer)

	// Embedded viewer page
	mux.Handle("GET "+root+"/", http.StripPrefix(root, s.assets))
	mux.Handle("GET "+root, http.RedirectHandler(root+"/", http.StatusMovedPermanently))

	return mux
}

// Serve accepts connections on ln until Shutdown.
func (s *Server) Serve(ln net.Listener) error {
	s.logger.Info("HTTP server listening", "addr", ln.Addr().String())
	err := s.httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	// Hijacked websocket connections are not tracked by Shutdown
	s.hub.CloseSessions()
	return s.httpServer.Shutdown(ctx)
}
