package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/soar/vgamepadnet/internal/gamepad"
	vlog "github.com/soar/vgamepadnet/internal/log"
)

func TestSessionIDAllocation(t *testing.T) {
	h := NewHub(vlog.Discard())
	var seen [][]int
	h.OnSessions(func(ids []int) { seen = append(seen, ids) })

	a, b, c := &Session{}, &Session{}, &Session{}
	assert.Equal(t, 1, h.AddSession(a))
	assert.Equal(t, 2, h.AddSession(b))
	h.RemoveSession(1)
	h.RemoveSession(1)
	assert.Equal(t, 1, h.AddSession(c))
	assert.Equal(t, 1, c.ID())
	assert.Same(t, c, h.Session(1))

	assert.Equal(t, [][]int{{1}, {1, 2}, {2}, {1, 2}}, seen)
}

func receive(t *testing.T, v *Viewer) WSMessage {
	t.Helper()
	select {
	case data := <-v.send:
		var msg WSMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no message")
	}
	return WSMessage{}
}

func TestBroadcasterRoutesBySession(t *testing.T) {
	logger := vlog.Discard()
	h := NewHub(logger)
	b := NewBroadcaster(h, logger)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)
	go b.Run(ctx)

	one := NewViewer(h, nil, logger)
	two := NewViewer(h, nil, logger)
	two.SetSession(2)
	b.SendInitialState(one)
	assert.Equal(t, TypeFull, receive(t, one).Type)
	h.Register(one)
	h.Register(two)

	st := gamepad.State{Connected: true, SessionID: 1, Mode: "xbox"}
	b.Publish(st)
	assert.Equal(t, EventConnected, receive(t, one).Event)
	assert.Equal(t, EventConnected, receive(t, two).Event)

	st.Buttons.Y = true
	b.Publish(st)
	msg := receive(t, one)
	assert.Equal(t, TypeDelta, msg.Type)
	require.NotNil(t, msg.Changes.Buttons)
	assert.True(t, msg.Changes.Buttons.Y)

	snap, ok := b.Snapshot(1)
	require.True(t, ok)
	assert.True(t, snap.Buttons.Y)

	st.Connected = false
	b.Publish(st)
	assert.Equal(t, EventDisconnected, receive(t, two).Event)
	assert.Empty(t, two.send, "deltas for session 1 never reach session 2 viewers")
	_, ok = b.Snapshot(1)
	assert.False(t, ok)
}
