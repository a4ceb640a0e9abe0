package capability

import (
	"context"

	"securesock/internal/session"
	"securesock/util"
)

// Relay copies data bidirectionally between the stream and the
// session's stdin/stdout.  This is the default interactive / pipe mode.
type Relay struct{}

// Handle shuttles bytes between the stream and the local I/O endpoints
// until the peer closes or the context is cancelled.  End of stdin
// half-closes the stream so the peer can still answer.
func (r *Relay) Handle(ctx context.Context, sess *session.Session) error {
	return util.BidirectionalCopy(ctx, sess.Conn, sess.Stdin, sess.Stdout)
}
