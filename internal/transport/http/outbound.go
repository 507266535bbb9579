package http

import (
	"errors"
	"sync"

	"github.com/vovakirdan/rtclobby/internal/core"
)

var (
	// ErrOutboundFull means the connection is not draining its queue fast enough.
	ErrOutboundFull = errors.New("outbound queue full")
	// ErrOutboundClosed means the connection is gone.
	ErrOutboundClosed = errors.New("outbound closed")
)

// outbound is the core.Sender handed to the hub for one websocket.
// Send never blocks; the write loop drains queue.
type outbound struct {
	mu     sync.Mutex
	closed bool
	queue  chan core.Message
}

func newOutbound(size int) *outbound {
	if size <= 0 {
		size = 1
	}
	return &outbound{queue: make(chan core.Message, size)}
}

func (o *outbound) Send(msg core.Message) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrOutboundClosed
	}
	select {
	case o.queue <- msg:
		return nil
	default:
		return ErrOutboundFull
	}
}

// close rejects further sends. The queue itself stays open so a concurrent
// Send can never panic.
func (o *outbound) close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()
}
