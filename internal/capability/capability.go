// Package capability defines what happens over an established TLS
// stream.  Each Capability encapsulates a single behaviour (relay I/O,
// echo, execute a program) and operates on a Session rather than a
// concrete socket.
package capability

import (
	"context"

	"securesock/internal/session"
)

// Capability handles a single connection according to a specific
// behaviour.
type Capability interface {
	// Handle runs the capability against the given session.  It
	// blocks until the stream is done or the context is cancelled.
	Handle(ctx context.Context, sess *session.Session) error
}
