package hub

import (
	"time"

	"github.com/soar/vgamepadnet/internal/gamepad"
)

const (
	TypeFull            = "full"
	TypeDelta           = "delta"
	TypeEvent           = "event"
	TypeSessionSelected = "session_selected"
	TypeSelectSession   = "select_session"

	EventConnected    = "connected"
	EventDisconnected = "disconnected"
)

// WSMessage is what viewers receive.
type WSMessage struct {
	Type      string                `json:"type"`
	Seq       int64                 `json:"seq"`
	Timestamp int64                 `json:"timestamp"` // unix ms
	SessionID int                   `json:"sessionId,omitempty"`
	Event     string                `json:"event,omitempty"`
	Data      *gamepad.State        `json:"data,omitempty"`
	Changes   *gamepad.DeltaChanges `json:"changes,omitempty"`
	Sessions  []int                 `json:"sessions,omitempty"`
}

// NewFullMessage creates a "full" type message containing the complete pad state.
func NewFullMessage(seq int64, state *gamepad.State) *WSMessage {
	return &WSMessage{
		Type:      TypeFull,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		SessionID: state.SessionID,
		Data:      state,
	}
}

// NewDeltaMessage creates a "delta" type message containing only changed fields.
func NewDeltaMessage(seq int64, session int, changes *gamepad.DeltaChanges) *WSMessage {
	return &WSMessage{
		Type:      TypeDelta,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		SessionID: session,
		Changes:   changes,
	}
}

// NewEventMessage announces a session coming or going. Sessions lists the
// ids connected after the event.
func NewEventMessage(seq int64, event string, state *gamepad.State, sessions []int) *WSMessage {
	return &WSMessage{
		Type:      TypeEvent,
		Seq:       seq,
		Timestamp: time.Now().UnixMilli(),
		SessionID: state.SessionID,
		Event:     event,
		Data:      state,
		Sessions:  sessions,
	}
}

func NewSessionSelectedMessage(session int, sessions []int) *WSMessage {
	return &WSMessage{
		Type:      TypeSessionSelected,
		Timestamp: time.Now().UnixMilli(),
		SessionID: session,
		Sessions:  sessions,
	}
}

// ClientMessage is what viewers send.
type ClientMessage struct {
	Type      string `json:"type"`
	SessionID int    `json:"sessionId,omitempty"`
}
