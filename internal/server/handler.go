package server

import (
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/soar/vgamepadnet/internal/hub"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // the path prefix is the access control
	},
}

func (s *Server) handleController(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	session := hub.NewSession(s.hub, s.broadcaster, conn, s.cfg.Session, s.logger)
	if err := session.Start(); err != nil {
		s.logger.Error("Session start failed", "remote", r.RemoteAddr, "err", err)
		conn.Close()
		return
	}
	s.logger.Debug("Controller connected", "remote", r.RemoteAddr, "session", session.ID())
}

func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Warn("WebSocket upgrade failed", "remote", r.RemoteAddr, "err", err)
		return
	}

	viewer := hub.NewViewer(s.hub, conn, s.logger)

	// Queue the current state before the viewer can receive broadcasts
	s.broadcaster.SendInitialState(viewer)
	s.hub.Register(viewer)

	go viewer.WritePump()
	go viewer.ReadPump(s.broadcaster)
}
