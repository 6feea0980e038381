package channel

import (
	"log/slog"
	"net/http"

	"github.com/lxzan/gws"
)

// WSDialer connects to the host websocket endpoint.
type WSDialer struct {
	URL    string
	Header http.Header
	Logger *slog.Logger
}

func (d *WSDialer) Dial(ev Events) {
	go func() {
		h := &wsHandler{ev: ev, logger: d.Logger}
		conn, _, err := gws.NewClient(h, &gws.ClientOption{
			Addr:          d.URL,
			RequestHeader: d.Header,
		})
		if err != nil {
			ev.OnClose(err)
			return
		}
		conn.ReadLoop()
	}()
}

type wsHandler struct {
	gws.BuiltinEventHandler
	ev     Events
	logger *slog.Logger
}

func (h *wsHandler) OnOpen(socket *gws.Conn) {
	h.ev.OnOpen(&wsConn{c: socket})
}

func (h *wsHandler) OnClose(socket *gws.Conn, err error) {
	h.ev.OnClose(err)
}

// The host heartbeats with pings and drops sessions that stop answering.
func (h *wsHandler) OnPing(socket *gws.Conn, payload []byte) {
	if err := socket.WritePong(payload); err != nil {
		h.logger.Debug("write pong", "error", err)
	}
}

func (h *wsHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()
	if message.Opcode != gws.OpcodeText {
		h.logger.Warn("ignoring non-text frame", "opcode", message.Opcode)
		return
	}
	h.ev.OnMessage(string(message.Bytes()))
}

type wsConn struct {
	c *gws.Conn
}

func (w *wsConn) Send(frame string) error {
	return w.c.WriteString(frame)
}

func (w *wsConn) Close() error {
	w.c.WriteClose(1000, nil)
	return w.c.NetConn().Close()
}
