package capability

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"securesock/internal/session"
	"securesock/internal/transport"
)

// BenchmarkRelay_TLSSession measures one complete relay session over a
// loopback TLS stream: connect, send the payload, read the echo back
// and shut down.
func BenchmarkRelay_TLSSession(b *testing.B) {
	srv, err := transport.NewServer("127.0.0.1", 0, "../../certs/server.key", "../../certs/server.crt",
		transport.WithLogger(quietLogger()))
	if err != nil {
		b.Fatal(err)
	}
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		for {
			peer, err := srv.Accept(ctx)
			if err != nil {
				return
			}
			if peer == nil {
				continue
			}
			go func(c *transport.Client) {
				defer c.Close()
				io.Copy(c, c) //nolint:errcheck
			}(peer)
		}
	}()

	port := srv.Endpoint().Port
	payload := bytes.Repeat([]byte("X"), 32*1024)
	relay := &Relay{}

	b.SetBytes(int64(len(payload)))
	b.ResetTimer()

	for i := 0; i < b.N; i++ {
		c, err := transport.NewClient("127.0.0.1", port,
			transport.WithLogger(quietLogger()), transport.WithTimeout(5*time.Second))
		if err != nil {
			b.Fatal(err)
		}
		if err := c.Connect(ctx); err != nil {
			b.Fatal(err)
		}
		sess := session.New(c, bytes.NewReader(payload), io.Discard, quietLogger())
		if err := relay.Handle(ctx, sess); err != nil {
			b.Fatal(err)
		}
		c.Close()
	}
}
