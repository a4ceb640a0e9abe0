// Package transport provides TLS client and server sockets on top of
// pluggable connection establishment.
//
// A [Server] binds and listens eagerly; each call to [Server.Accept]
// completes one TLS handshake and hands back a [Client] that owns the
// accepted connection.  A [Client] can also be created with
// [NewClient] and connected outward through any [Dialer]: plain TCP
// or an SSH-tunnelled gateway.
package transport

import (
	"context"
	"net"
	"time"
)

// Dialer opens outbound network connections.  Implementations include
// a plain TCP dialer and an SSH-tunnelled dialer that routes traffic
// through an encrypted gateway.
type Dialer interface {
	// Dial establishes a connection to the given network address.
	Dial(ctx context.Context, network, address string) (net.Conn, error)

	// Close releases any long-lived resources held by the dialer
	// (e.g. an SSH session).  Stateless dialers return nil.
	Close() error
}

// ── Defaults ─────────────────────────────────────────────────────────

const (
	// DefaultTimeout is the per-operation deadline for new clients.
	// Servers start without one.
	DefaultTimeout = 15 * time.Second

	// DefaultBufferLength is how many bytes ReceiveData reads when the
	// caller does not ask for a specific amount.
	DefaultBufferLength = 1024

	// DefaultBacklog is the listen queue length of a Server.
	DefaultBacklog = 5

	// DefaultHandshakeTimeout bounds the server side of a handshake.
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultKeyFile and DefaultCertFile name the development key pair
	// used when a Server is created without explicit files.
	DefaultKeyFile  = "certs/server.key"
	DefaultCertFile = "certs/server.crt"
)

// setDeadline applies a relative deadline, or clears it when d is zero.
// Failures are ignored: the following I/O call reports a dead socket.
func setDeadline(set func(time.Time) error, d time.Duration) {
	var t time.Time
	if d > 0 {
		t = time.Now().Add(d)
	}
	set(t) //nolint:errcheck
}
