// Package tunnel carries TCP connections through an SSH gateway so a
// TLS client can reach hosts that are only visible from behind it.
package tunnel

import (
	"context"
	"net"
)

// Tunnel abstracts an encrypted channel through which TCP connections
// can be forwarded.
type Tunnel interface {
	// Connect establishes the tunnel to the gateway.
	Connect(ctx context.Context) error

	// Dial opens a connection to address through the tunnel.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Ping checks that the gateway still answers.
	Ping() error

	// Close tears down the tunnel and frees resources.
	Close() error

	// IsAlive reports whether the underlying connection is still up.
	IsAlive() bool
}

var _ Tunnel = (*SSHTunnel)(nil)
