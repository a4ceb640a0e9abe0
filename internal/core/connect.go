package core

import (
	"context"
	"io"
	"os"
	"time"

	"securesock/internal/capability"
	"securesock/internal/logger"
	"securesock/internal/session"
	"securesock/internal/transport"
)

// ConnectMode connects a TLS client to Host:Port and runs a capability
// on the resulting stream.  This is the default client mode.
type ConnectMode struct {
	Host    string
	Port    int
	Dialer  transport.Dialer
	Options []transport.Option

	// IdleTimeout replaces the connect timeout once the session runs.
	IdleTimeout time.Duration

	Capability capability.Capability
	Logger     *logger.Logger

	// Stdin/Stdout default to os.Stdin/os.Stdout when nil.
	// Override in tests for deterministic I/O.
	Stdin  io.Reader
	Stdout io.Writer
}

func (m *ConnectMode) stdin() io.Reader {
	if m.Stdin != nil {
		return m.Stdin
	}
	return os.Stdin
}

func (m *ConnectMode) stdout() io.Writer {
	if m.Stdout != nil {
		return m.Stdout
	}
	return os.Stdout
}

// Run connects, creates a session, and hands it to the capability.
// The client and the dialer are closed when Run returns.
func (m *ConnectMode) Run(ctx context.Context) error {
	dialer := m.Dialer
	if dialer == nil {
		dialer = &transport.TCPDialer{}
	}
	defer dialer.Close()

	opts := append(append([]transport.Option{}, m.Options...), transport.WithDialer(dialer))
	client, err := transport.NewClient(m.Host, m.Port, opts...)
	if err != nil {
		return err
	}
	defer client.Close() //nolint:errcheck // capabilities may close it first

	if err := client.Connect(ctx); err != nil {
		return err
	}
	client.SetTimeout(m.IdleTimeout)

	sess := session.New(client, m.stdin(), m.stdout(), m.Logger)
	return m.Capability.Handle(ctx, sess)
}
