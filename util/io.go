package util

import (
	"context"
	"errors"
	"io"
	"sync"

	sserr "securesock/internal/errors"
)

// HalfCloser is a stream whose sending direction can be shut on its
// own, letting the peer read EOF while replies are still drained.
type HalfCloser interface {
	CloseWrite() error
}

// BidirectionalCopy shuffles data between a connection and a local
// reader/writer pair (typically stdin/stdout) until the connection
// reaches EOF or the context is cancelled.  When r is exhausted the
// connection is half-closed if it supports it.  conn is closed before
// BidirectionalCopy returns.
func BidirectionalCopy(ctx context.Context, conn io.ReadWriteCloser, r io.Reader, w io.Writer) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	errCh := make(chan error, 2)

	// network → writer
	wg.Add(1)
	go func() {
		defer wg.Done()
		errCh <- copyPooled(w, conn)
		cancel()
	}()

	// reader → network
	wg.Add(1)
	go func() {
		defer wg.Done()
		err := copyPooled(conn, r)
		if hc, ok := conn.(HalfCloser); ok {
			hc.CloseWrite() //nolint:errcheck
		}
		errCh <- err
		// A clean EOF on r must not tear the connection down before
		// the peer has finished answering.
		if err != nil {
			cancel()
		}
	}()

	<-ctx.Done()
	conn.Close() //nolint:errcheck // unblocks pending reads and writes
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if !isHarmless(err) {
			return err
		}
	}
	return nil
}

func copyPooled(dst io.Writer, src io.Reader) error {
	buf := GetBuf()
	defer PutBuf(buf)
	_, err := io.CopyBuffer(dst, src, *buf)
	return err
}

// isHarmless returns true for errors that are expected during shutdown.
func isHarmless(err error) bool {
	if err == nil {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrClosedPipe) {
		return true
	}
	return sserr.IsClosed(err)
}
