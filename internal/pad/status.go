package pad

import (
	"fmt"

	"github.com/soar/vgamepadnet/internal/channel"
	"github.com/soar/vgamepadnet/internal/protocol"
)

// Status is what the controller shows the user about its session.
type Status struct {
	SessionID  int
	Mode       protocol.Mode
	Connection channel.Status
	Latency    string
	LED        int
	Message    string
}

func (s Status) String() string {
	return fmt.Sprintf("%d: %s [%s] latency=%s led=%d %s",
		s.SessionID, s.Mode, s.Connection, s.Latency, s.LED, s.Message)
}
