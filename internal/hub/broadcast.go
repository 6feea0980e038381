package hub

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/soar/vgamepadnet/internal/gamepad"
)

const (
	fullSyncInterval = 5 * time.Second
	deltaCountSync   = 100
)

// Broadcaster turns session state changes into full and delta messages
// for the viewers of each session.
type Broadcaster struct {
	hub     *Hub
	changes chan gamepad.State
	logger  *slog.Logger

	mu         sync.Mutex
	lastStates map[int]gamepad.State
	seq        int64
}

func NewBroadcaster(h *Hub, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		hub:        h,
		changes:    make(chan gamepad.State, 256),
		logger:     logger,
		lastStates: make(map[int]gamepad.State),
	}
}

// Publish queues a session state. It never blocks; when the queue is full
// the update is dropped and the next periodic full sync repairs viewers.
func (b *Broadcaster) Publish(state gamepad.State) {
	select {
	case b.changes <- state:
	default:
		b.logger.Debug("Broadcast queue full, dropping update", "session", state.SessionID)
	}
}

// Run starts the broadcaster loop. Should be run in a goroutine.
func (b *Broadcaster) Run(ctx context.Context) {
	ticker := time.NewTicker(fullSyncInterval)
	defer ticker.Stop()

	var deltaCount int64

	for {
		select {
		case <-ctx.Done():
			return

		case state := <-b.changes:
			b.mu.Lock()
			last, known := b.lastStates[state.SessionID]
			switch {
			case !state.Connected:
				delete(b.lastStates, state.SessionID)
				b.mu.Unlock()
				if known {
					b.sendEvent(EventDisconnected, state)
				}
				continue
			case !known:
				b.lastStates[state.SessionID] = state
				b.mu.Unlock()
				b.sendEvent(EventConnected, state)
				continue
			}
			b.lastStates[state.SessionID] = state
			b.mu.Unlock()

			delta := gamepad.ComputeDelta(last, state)
			if delta.IsEmpty() {
				continue
			}

			deltaCount++

			// Send full sync periodically
			if deltaCount >= deltaCountSync {
				b.sendFull(state)
				deltaCount = 0
			} else {
				b.sendDelta(state.SessionID, delta)
			}

		case <-ticker.C:
			b.mu.Lock()
			states := make([]gamepad.State, 0, len(b.lastStates))
			for _, s := range b.lastStates {
				states = append(states, s)
			}
			b.mu.Unlock()
			for _, s := range states {
				b.sendFull(s)
			}
		}
	}
}

// SendInitialState queues the current state of the viewer's session. The
// viewer must not be registered yet.
func (b *Broadcaster) SendInitialState(v *Viewer) {
	b.mu.Lock()
	state, ok := b.lastStates[v.Session()]
	b.mu.Unlock()
	if !ok {
		state = gamepad.State{SessionID: v.Session()}
	}
	data, err := b.marshal(NewFullMessage(b.nextSeq(), &state))
	if err != nil {
		return
	}
	select {
	case v.send <- data:
	default:
	}
}

// Snapshot returns the last published state of a session.
func (b *Broadcaster) Snapshot(session int) (gamepad.State, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.lastStates[session]
	return s, ok
}

func (b *Broadcaster) nextSeq() int64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	return b.seq
}

func (b *Broadcaster) marshal(msg *WSMessage) ([]byte, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Error("Error marshaling message", "type", msg.Type, "err", err)
	}
	return data, err
}

func (b *Broadcaster) sendFull(state gamepad.State) {
	data, err := b.marshal(NewFullMessage(b.nextSeq(), &state))
	if err != nil {
		return
	}
	b.hub.BroadcastToSession(data, state.SessionID)
}

func (b *Broadcaster) sendDelta(session int, delta *gamepad.DeltaChanges) {
	data, err := b.marshal(NewDeltaMessage(b.nextSeq(), session, delta))
	if err != nil {
		return
	}
	b.hub.BroadcastToSession(data, session)
}

func (b *Broadcaster) sendEvent(event string, state gamepad.State) {
	data, err := b.marshal(NewEventMessage(b.nextSeq(), event, &state, b.hub.Sessions()))
	if err != nil {
		return
	}
	b.hub.BroadcastAll(data)
}
