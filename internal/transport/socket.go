package transport

import (
	"io"
	"net"
	"strconv"
	"time"
)

// Endpoint is the host/port pair a socket is bound or connected to.
type Endpoint struct {
	Host string
	Port int
}

func (e Endpoint) String() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// endpointOf converts a net.Addr into an Endpoint.
func endpointOf(a net.Addr) (Endpoint, error) {
	host, port, err := net.SplitHostPort(a.String())
	if err != nil {
		return Endpoint{}, err
	}
	p, err := strconv.Atoi(port)
	if err != nil {
		return Endpoint{}, err
	}
	return Endpoint{Host: host, Port: p}, nil
}

// identity names a socket in log output, e.g. "client,127.0.0.1:9443".
func identity(role Role, e Endpoint) string {
	return role.String() + "," + e.Host + ":" + strconv.Itoa(e.Port)
}

// State is the lifecycle position of a socket.
type State int

const (
	StateUnconnected State = iota
	StateConnected
	StateListening
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUnconnected:
		return "unconnected"
	case StateConnected:
		return "connected"
	case StateListening:
		return "listening"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Socket is the capability set shared by clients and servers.
type Socket interface {
	Endpoint() Endpoint
	Identity() string
	State() State

	// SetTimeout sets the deadline applied to each blocking operation.
	// Zero disables it.
	SetTimeout(d time.Duration)
	Timeout() time.Duration

	// Close releases the socket.  A second Close returns
	// errors.ErrAlreadyClosed.
	Close() error
}

// Stream is a connected socket that exchanges bytes.
type Stream interface {
	Socket
	io.Reader
	io.Writer

	// SendData writes all of data.
	SendData(data []byte) error

	// ReceiveData reads at most n bytes (DefaultBufferLength when
	// n <= 0).  A zero-length result with a nil error means the peer
	// closed the connection.
	ReceiveData(n int) ([]byte, error)

	// CloseWrite ends the sending direction.
	CloseWrite() error

	// Shutdown ends both directions without releasing the socket.
	Shutdown() error
}

var (
	_ Stream = (*Client)(nil)
	_ Socket = (*Server)(nil)
)
