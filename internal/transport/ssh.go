package transport

import (
	"context"
	"net"
	"sync"

	sserr "securesock/internal/errors"
	"securesock/internal/logger"
	"securesock/internal/metrics"
	"securesock/tunnel"
)

// SSHDialer routes the TCP leg of a TLS connection through an SSH
// gateway.  The gateway session is opened lazily on the first Dial,
// watched by a tunnel.Manager, and torn down on Close.
type SSHDialer struct {
	manager *tunnel.Manager
	config  *tunnel.SSHConfig
	log     *logger.Logger

	mu      sync.Mutex
	started bool
	closed  bool
}

// NewSSHDialer creates a dialer that forwards connections through an
// SSH tunnel.  The tunnel is not connected until the first Dial.
func NewSSHDialer(cfg *tunnel.SSHConfig, log *logger.Logger, m *metrics.Collector) *SSHDialer {
	t := tunnel.NewSSHTunnel(cfg, log)
	return &SSHDialer{
		manager: tunnel.NewManager(t, log, m),
		config:  cfg,
		log:     log,
	}
}

func (d *SSHDialer) start(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	switch {
	case d.closed:
		return sserr.ErrTunnelClosed
	case d.started:
		return nil
	}

	d.log.Info("establishing SSH tunnel to %s@%s:%d",
		d.config.User, d.config.Host, d.config.Port)
	if err := d.manager.Start(ctx); err != nil {
		return err
	}
	d.started = true
	return nil
}

// Dial connects to address through the SSH tunnel.
func (d *SSHDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if err := d.start(ctx); err != nil {
		return nil, err
	}
	return d.manager.Dial(ctx, network, address)
}

// Close tears down the underlying SSH tunnel.  Later Dials fail with
// errors.ErrTunnelClosed.
func (d *SSHDialer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.closed = true
	if !d.started {
		return nil
	}
	d.started = false
	return d.manager.Stop()
}
