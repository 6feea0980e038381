package channel

// Conn is an open connection to the host.
type Conn interface {
	// Send writes one text frame.
	Send(frame string) error
	Close() error
}

// Events receives connection callbacks. Transports may call them from any
// goroutine. For one dial attempt a transport calls either OnOpen followed
// later by exactly one OnClose, or OnClose alone if the dial failed.
type Events interface {
	OnOpen(c Conn)
	OnMessage(frame string)
	OnClose(err error)
}

// Dialer starts a connection attempt in the background and reports its
// progress through ev. Dial must not block.
type Dialer interface {
	Dial(ev Events)
}
