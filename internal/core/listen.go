package core

import (
	"context"
	"io"
	"os"
	"sync"
	"time"

	"securesock/internal/capability"
	sserr "securesock/internal/errors"
	"securesock/internal/logger"
	"securesock/internal/session"
	"securesock/internal/transport"
)

// ListenMode runs a TLS server and a capability on each accepted
// client.  With KeepOpen=true it spawns a goroutine per client;
// otherwise it handles one client and returns.
type ListenMode struct {
	Host     string // bind address ("" = all IPv4 interfaces)
	Port     int
	KeyFile  string // "" = transport.DefaultKeyFile
	CertFile string // "" = transport.DefaultCertFile
	Options  []transport.Option

	KeepOpen    bool
	IdleTimeout time.Duration
	Capability  capability.Capability
	Logger      *logger.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ListenMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ListenMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run binds the server and dispatches accepted clients to the
// capability until ctx is cancelled or, without KeepOpen, the first
// session ends.  Failed handshakes and accept timeouts do not stop the
// loop; under the abort policy a failed handshake does.
func (m *ListenMode) Run(ctx context.Context) error {
	srv, err := transport.NewServer(m.Host, m.Port, m.KeyFile, m.CertFile, m.Options...)
	if err != nil {
		return err
	}
	defer srv.Close() //nolint:errcheck

	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		client, err := srv.Accept(ctx)
		switch {
		case ctx.Err() != nil:
			if client != nil {
				client.Close() //nolint:errcheck
			}
			return nil
		case isAcceptTimeout(err):
			continue
		case err != nil:
			return err
		case client == nil:
			continue
		}

		client.SetTimeout(m.IdleTimeout)

		if !m.KeepOpen {
			return m.serve(ctx, client)
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := m.serve(ctx, client); err != nil {
				m.Logger.Warning("session with %s ended - %v", client.RemoteAddr(), err)
			}
		}()
	}
}

func (m *ListenMode) serve(ctx context.Context, client *transport.Client) error {
	defer client.Close() //nolint:errcheck

	sess := session.New(client, m.stdin(), m.stdout(), m.Logger)
	return m.Capability.Handle(ctx, sess)
}

// isAcceptTimeout reports an Accept that saw no connection in time, as
// opposed to a handshake that timed out.
func isAcceptTimeout(err error) bool {
	var te *sserr.TimeoutError
	return sserr.As(err, &te) && te.Op == "accept"
}
