// Package transport receives exchange datagrams and turns them into packets.
package transport

import (
	"context"
	"sync"
)

// Endpoint delivers whole datagrams.
type Endpoint interface {
	Recv(ctx context.Context) ([]byte, bool)
	Close()
}

// MemEndpoint is an in-process endpoint fed through Send.
type MemEndpoint struct {
	in     chan []byte
	closed chan struct{}
	once   sync.Once
}

func NewMemEndpoint(queue int) *MemEndpoint {
	return &MemEndpoint{
		in:     make(chan []byte, queue),
		closed: make(chan struct{}),
	}
}

// Send queues one datagram. It reports false when the endpoint is closed or
// its queue is full.
func (e *MemEndpoint) Send(frame []byte) bool {
	select {
	case <-e.closed:
		return false
	default:
	}
	select {
	case e.in <- clone(frame):
		return true
	default:
		return false
	}
}

func (e *MemEndpoint) Recv(ctx context.Context) ([]byte, bool) {
	select {
	case <-e.closed:
		return nil, false
	case <-ctx.Done():
		return nil, false
	case b := <-e.in:
		return b, true
	}
}

func (e *MemEndpoint) Close() {
	e.once.Do(func() { close(e.closed) })
}

func clone(b []byte) []byte {
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
