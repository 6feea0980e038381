package hub

import (
	"context"
	"log/slog"
	"slices"
	"sync"
)

// Hub tracks controller sessions and the viewers watching them.
type Hub struct {
	viewers    map[*Viewer]bool
	sessions   map[int]*Session
	register   chan *Viewer
	unregister chan *Viewer
	done       chan struct{}
	mu         sync.RWMutex
	logger     *slog.Logger
	onSessions func(ids []int)
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		viewers:    make(map[*Viewer]bool),
		sessions:   make(map[int]*Session),
		register:   make(chan *Viewer),
		unregister: make(chan *Viewer),
		done:       make(chan struct{}),
		logger:     logger,
	}
}

// Register adds a new viewer to the hub.
func (h *Hub) Register(v *Viewer) {
	select {
	case h.register <- v:
	case <-h.done:
	}
}

// Unregister removes a viewer from the hub.
func (h *Hub) Unregister(v *Viewer) {
	select {
	case h.unregister <- v:
	case <-h.done:
	}
}

// OnSessions sets a hook called with the connected session ids after
// every connect and disconnect. Set it before serving.
func (h *Hub) OnSessions(f func(ids []int)) {
	h.onSessions = f
}

func (h *Hub) sessionsChanged() {
	if h.onSessions != nil {
		h.onSessions(h.Sessions())
	}
}

// AddSession stores s under the smallest free id, starting at 1, and
// returns that id.
func (h *Hub) AddSession(s *Session) int {
	h.mu.Lock()
	id := 1
	for h.sessions[id] != nil {
		id++
	}
	h.sessions[id] = s
	s.id = id
	n := len(h.sessions)
	h.mu.Unlock()

	h.logger.Info("Session connected", "session", id, "total", n)
	h.sessionsChanged()
	return id
}

func (h *Hub) RemoveSession(id int) {
	h.mu.Lock()
	if _, ok := h.sessions[id]; !ok {
		h.mu.Unlock()
		return
	}
	delete(h.sessions, id)
	n := len(h.sessions)
	h.mu.Unlock()

	h.logger.Info("Session disconnected", "session", id, "total", n)
	h.sessionsChanged()
}

// Sessions returns the connected session ids in ascending order.
func (h *Hub) Sessions() []int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]int, 0, len(h.sessions))
	for id := range h.sessions {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

func (h *Hub) Session(id int) *Session {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.sessions[id]
}

// BroadcastToSession sends a message to every viewer watching session id.
func (h *Hub) BroadcastToSession(msg []byte, id int) {
	h.broadcast(msg, func(v *Viewer) bool { return v.Session() == id })
}

// BroadcastAll sends a message to every viewer.
func (h *Hub) BroadcastAll(msg []byte) {
	h.broadcast(msg, func(*Viewer) bool { return true })
}

func (h *Hub) broadcast(msg []byte, match func(*Viewer) bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for v := range h.viewers {
		if !match(v) {
			continue
		}
		select {
		case v.send <- msg:
		default:
			// Viewer send buffer full, disconnect
			go h.Unregister(v)
		}
	}
}

// sendTo queues msg for one viewer if it is still registered.
func (h *Hub) sendTo(v *Viewer, msg []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.viewers[v] {
		return
	}
	select {
	case v.send <- msg:
	default:
	}
}

// CloseSessions closes every controller connection. Used on shutdown.
func (h *Hub) CloseSessions() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, s := range h.sessions {
		s.Close()
	}
}

// Run starts the hub's main loop and returns when ctx is done.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for v := range h.viewers {
				delete(h.viewers, v)
				close(v.send)
			}
			h.mu.Unlock()
			return

		case v := <-h.register:
			h.mu.Lock()
			h.viewers[v] = true
			n := len(h.viewers)
			h.mu.Unlock()
			h.logger.Info("Viewer connected", "total", n)

		case v := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.viewers[v]; ok {
				delete(h.viewers, v)
				close(v.send)
			}
			n := len(h.viewers)
			h.mu.Unlock()
			h.logger.Info("Viewer disconnected", "total", n)
		}
	}
}
