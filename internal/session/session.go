// Package session represents a single connection lifecycle, binding a
// TLS stream with local I/O endpoints and a logger.
//
// Capabilities never reach for os.Stdin or a raw socket directly; they
// use the session's Conn, Stdin and Stdout, which tests replace freely.
package session

import (
	"io"

	"github.com/google/uuid"

	"securesock/internal/logger"
	"securesock/internal/transport"
)

// Session encapsulates the runtime context for a single connection.
type Session struct {
	ID     string
	Conn   transport.Stream
	Stdin  io.Reader
	Stdout io.Writer
	Logger *logger.Logger
}

// New creates a Session bound to the given stream and I/O pair.  The
// session takes the stream's ID when it has one.
func New(conn transport.Stream, stdin io.Reader, stdout io.Writer, log *logger.Logger) *Session {
	id := ""
	if c, ok := conn.(interface{ ID() string }); ok {
		id = c.ID()
	}
	if id == "" {
		id = uuid.NewString()
	}
	if log == nil {
		log = logger.Default()
	}
	return &Session{
		ID:     id,
		Conn:   conn,
		Stdin:  stdin,
		Stdout: stdout,
		Logger: log,
	}
}
