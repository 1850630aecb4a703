package transport

import (
	"context"
	"net"
	"time"
)

// DefaultKeepAlive is the TCP keep-alive period for chat sockets, which
// sit idle whenever nobody is talking.
const DefaultKeepAlive = 30 * time.Second

// TCPDialer opens plain TCP connections to the chat server.
type TCPDialer struct {
	// Timeout bounds one dial; zero leaves it to the context.
	Timeout time.Duration
	// KeepAlive is the keep-alive probe period.  Zero selects
	// DefaultKeepAlive; negative disables probes.
	KeepAlive time.Duration
}

// Dial connects to address over TCP.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	keepAlive := d.KeepAlive
	if keepAlive == 0 {
		keepAlive = DefaultKeepAlive
	}
	dialer := net.Dialer{Timeout: d.Timeout, KeepAlive: keepAlive}
	return dialer.DialContext(ctx, network, address)
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }
