package hub

import (
	"encoding/json"
	"log/slog"
	"sync/atomic"

	"github.com/gorilla/websocket"
)

// Viewer is a browser watching one controller session.
type Viewer struct {
	hub     *Hub
	conn    *websocket.Conn
	send    chan []byte
	session atomic.Int64 // session id this viewer is listening to
	logger  *slog.Logger
}

// NewViewer creates a new Viewer attached to the hub, watching session 1.
func NewViewer(hub *Hub, conn *websocket.Conn, logger *slog.Logger) *Viewer {
	v := &Viewer{
		hub:    hub,
		conn:   conn,
		send:   make(chan []byte, 256),
		logger: logger,
	}
	v.session.Store(1)
	return v
}

func (v *Viewer) Session() int {
	return int(v.session.Load())
}

func (v *Viewer) SetSession(id int) {
	v.session.Store(int64(id))
}

// WritePump sends messages from the send channel to the WebSocket connection.
func (v *Viewer) WritePump() {
	defer func() {
		v.conn.Close()
	}()

	for msg := range v.send {
		err := v.conn.WriteMessage(websocket.TextMessage, msg)
		if err != nil {
			break
		}
	}
}

// ReadPump reads viewer commands until the connection closes.
func (v *Viewer) ReadPump(b *Broadcaster) {
	defer func() {
		v.hub.Unregister(v)
		v.conn.Close()
	}()

	for {
		_, message, err := v.conn.ReadMessage()
		if err != nil {
			break
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			v.logger.Warn("Error parsing viewer message", "err", err)
			continue
		}

		switch msg.Type {
		case TypeSelectSession:
			if msg.SessionID < 1 {
				v.logger.Warn("Invalid session selected", "session", msg.SessionID)
				continue
			}
			v.SetSession(msg.SessionID)
			data, err := json.Marshal(NewSessionSelectedMessage(msg.SessionID, v.hub.Sessions()))
			if err != nil {
				continue
			}
			v.hub.sendTo(v, data)
			if state, ok := b.Snapshot(msg.SessionID); ok {
				if data, err := b.marshal(NewFullMessage(b.nextSeq(), &state)); err == nil {
					v.hub.sendTo(v, data)
				}
			}
			v.logger.Debug("Viewer switched session", "session", msg.SessionID)
		default:
			v.logger.Warn("Unknown viewer message", "type", msg.Type)
		}
	}
}
