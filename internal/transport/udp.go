package transport

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
)

const maxDatagram = 64 * 1024

// UDPEndpoint reads datagrams from a unicast or multicast UDP socket.
type UDPEndpoint struct {
	c         *net.UDPConn
	in        chan []byte
	closed    chan struct{}
	closeOnce sync.Once
}

// ListenUDP binds addr. When addr names a multicast group the socket joins
// it on iface, or on the system default interface if iface is empty.
func ListenUDP(addr, iface string) (*UDPEndpoint, error) {
	ua, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", addr, err)
	}

	var c *net.UDPConn
	if ua.IP != nil && ua.IP.IsMulticast() {
		var ifi *net.Interface
		if iface != "" {
			ifi, err = net.InterfaceByName(iface)
			if err != nil {
				return nil, fmt.Errorf("interface %s: %w", iface, err)
			}
		}
		c, err = net.ListenMulticastUDP("udp", ifi, ua)
	} else {
		c, err = net.ListenUDP("udp", ua)
	}
	if err != nil {
		return nil, fmt.Errorf("listening on %s: %w", addr, err)
	}

	ep := &UDPEndpoint{
		c:      c,
		in:     make(chan []byte, 4096),
		closed: make(chan struct{}),
	}
	go ep.readLoop()
	return ep, nil
}

func (e *UDPEndpoint) Addr() string { return e.c.LocalAddr().String() }

// Close is safe to call more than once and from several goroutines.
func (e *UDPEndpoint) Close() {
	e.closeOnce.Do(func() {
		close(e.closed)
		_ = e.c.Close()
	})
}

func (e *UDPEndpoint) Recv(ctx context.Context) ([]byte, bool) {
	select {
	case <-e.closed:
		return nil, false
	case <-ctx.Done():
		return nil, false
	case b := <-e.in:
		return b, true
	}
}

// Send writes one datagram to addr from the bound socket.
func (e *UDPEndpoint) Send(addr string, frame []byte) error {
	select {
	case <-e.closed:
		return errors.New("endpoint closed")
	default:
	}
	ra, err := net.ResolveUDPAddr("udp", addr)
	if err != nil {
		return err
	}
	_, err = e.c.WriteToUDP(frame, ra)
	return err
}

func (e *UDPEndpoint) readLoop() {
	buf := make([]byte, maxDatagram)
	for {
		n, _, err := e.c.ReadFromUDP(buf)
		if err != nil {
			return
		}
		select {
		case e.in <- clone(buf[:n]):
		case <-e.closed:
			return
		}
	}
}
