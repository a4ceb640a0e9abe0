package tunnel

import (
	"context"
	"net"
	"strconv"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	sserr "securesock/internal/errors"
	"securesock/internal/logger"
)

// DefaultSSHPort is used when SSHConfig.Port is zero.
const DefaultSSHPort = 22

// SSHConfig holds everything needed to dial an SSH gateway.
type SSHConfig struct {
	User          string
	Host          string
	Port          int
	KeyPath       string
	PromptPass    bool
	UseAgent      bool
	StrictHostKey bool
	KnownHosts    string
	ConnTimeout   time.Duration
}

// Addr returns the gateway address as host:port.
func (c *SSHConfig) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// SSHTunnel implements [Tunnel] by opening an SSH connection and
// forwarding traffic with ssh.Client.Dial ("direct-tcpip" channels).
type SSHTunnel struct {
	config *SSHConfig
	log    *logger.Logger

	mu     sync.RWMutex
	client *ssh.Client
	alive  bool
}

// NewSSHTunnel creates a tunnel that is ready to [SSHTunnel.Connect].
func NewSSHTunnel(cfg *SSHConfig, log *logger.Logger) *SSHTunnel {
	if cfg.Port == 0 {
		cfg.Port = DefaultSSHPort
	}
	if cfg.ConnTimeout == 0 {
		cfg.ConnTimeout = 30 * time.Second
	}
	return &SSHTunnel{config: cfg, log: log.Named("ssh," + cfg.Addr())}
}

// Connect dials the SSH gateway and completes the handshake.
func (t *SSHTunnel) Connect(ctx context.Context) error {
	authMethods, err := BuildAuthMethods(t.config)
	if err != nil {
		return sserr.WrapSSH("auth", t.config.Host, t.config.Port, err)
	}

	hkCallback, err := hostKeyCallback(t.config)
	if err != nil {
		return sserr.WrapSSH("hostkey", t.config.Host, t.config.Port, err)
	}

	sshCfg := &ssh.ClientConfig{
		User:            t.config.User,
		Auth:            authMethods,
		HostKeyCallback: hkCallback,
		Timeout:         t.config.ConnTimeout,
	}

	addr := t.config.Addr()
	var dialer net.Dialer
	tcpConn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return sserr.Classify("dial", addr, err)
	}

	// ssh.NewClientConn has no context; bound it with a deadline.
	if dl, ok := ctx.Deadline(); ok {
		tcpConn.SetDeadline(dl) //nolint:errcheck
	} else {
		tcpConn.SetDeadline(time.Now().Add(t.config.ConnTimeout)) //nolint:errcheck
	}
	sshConn, chans, reqs, err := ssh.NewClientConn(tcpConn, addr, sshCfg)
	if err != nil {
		tcpConn.Close()
		return sserr.WrapSSH("handshake", t.config.Host, t.config.Port, err)
	}
	tcpConn.SetDeadline(time.Time{}) //nolint:errcheck

	client := ssh.NewClient(sshConn, chans, reqs)

	t.mu.Lock()
	t.client = client
	t.alive = true
	t.mu.Unlock()

	t.log.Info("tunnel established as %s", t.config.User)
	go t.monitor(client)
	return nil
}

// Dial forwards a connection through the tunnel.
func (t *SSHTunnel) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	t.mu.RLock()
	client, alive := t.client, t.alive
	t.mu.RUnlock()

	if !alive || client == nil {
		return nil, sserr.Wrap("dial", address, sserr.ErrTunnelClosed)
	}

	conn, err := client.DialContext(ctx, network, address)
	if err != nil {
		return nil, sserr.Classify("dial", address, err)
	}
	return conn, nil
}

// Ping sends an OpenSSH keepalive request and waits for the reply.
func (t *SSHTunnel) Ping() error {
	t.mu.RLock()
	client := t.client
	t.mu.RUnlock()
	if client == nil {
		return sserr.ErrTunnelClosed
	}
	_, _, err := client.SendRequest("keepalive@openssh.com", true, nil)
	return err
}

// Close shuts down the SSH connection.
func (t *SSHTunnel) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.alive = false
	if t.client != nil {
		err := t.client.Close()
		t.client = nil
		return err
	}
	return nil
}

// IsAlive reports whether the tunnel is still connected.
func (t *SSHTunnel) IsAlive() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.alive
}

// monitor blocks until the SSH connection closes and flips the alive flag.
func (t *SSHTunnel) monitor(client *ssh.Client) {
	err := client.Wait()

	t.mu.Lock()
	if t.client == client {
		t.alive = false
	}
	t.mu.Unlock()

	if err != nil {
		t.log.Warning("SSH tunnel closed: %v", err)
	} else {
		t.log.Info("SSH tunnel closed")
	}
}
