package capability

import (
	"context"

	"securesock/internal/session"
)

// Echo sends every received chunk straight back to the peer.
type Echo struct {
	// BufferLength is the most bytes read per round (0 = the stream's
	// default buffer length).
	BufferLength int
}

// Handle echoes until the peer closes the stream (nil) or an I/O error
// occurs.  Cancelling ctx closes the stream.
func (e *Echo) Handle(ctx context.Context, sess *session.Session) error {
	stop := context.AfterFunc(ctx, func() { sess.Conn.Close() }) //nolint:errcheck
	defer stop()

	var total int
	for {
		data, err := sess.Conn.ReceiveData(e.BufferLength)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		if len(data) == 0 {
			sess.Logger.Info("echo finished after %d bytes", total)
			return nil
		}
		if err := sess.Conn.SendData(data); err != nil {
			return err
		}
		total += len(data)
	}
}
