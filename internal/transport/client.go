package transport

import (
	"context"
	"crypto/tls"
	"io"
	"net"
	"sync"
	"time"

	"github.com/google/uuid"

	sserr "securesock/internal/errors"
	"securesock/internal/logger"
	"securesock/internal/metrics"
)

// Client is a TLS stream.  It is either created unconnected with
// [NewClient] and connected with [Client.Connect], or built around an
// already-handshaken connection with [WrapConn].
//
// The mutex guards state transitions only; it is never held across
// blocking I/O, so Close from another goroutine unblocks a pending
// read.
type Client struct {
	id       string
	endpoint Endpoint
	identity string
	config   *tls.Config
	dialer   Dialer
	log      *logger.Logger
	metrics  *metrics.Collector
	bufLen   int
	onClose  func()

	mu      sync.Mutex
	state   State
	conn    *tls.Conn
	timeout time.Duration
}

// NewClient returns an unconnected client for host:port.
func NewClient(host string, port int, opts ...Option) (*Client, error) {
	o := newOptions(opts)
	cfg, err := o.factory.Config(RoleClient, "", "")
	if err != nil {
		return nil, err
	}
	if cfg.ServerName == "" {
		// crypto/tls needs a name to verify against; IP literals are
		// matched against IP SANs and are not sent as SNI.
		cfg.ServerName = host
	}
	return newClient(Endpoint{Host: host, Port: port}, cfg, o), nil
}

// WrapConn builds a connected Client around conn, which must have
// completed (or be about to complete) its handshake.  The client takes
// ownership of conn and is identified by its local endpoint.
func WrapConn(conn *tls.Conn, opts ...Option) (*Client, error) {
	if conn == nil {
		return nil, sserr.Wrap("wrap", "", sserr.ErrNotConnected)
	}
	ep, err := endpointOf(conn.LocalAddr())
	if err != nil {
		return nil, sserr.Wrap("wrap", conn.LocalAddr().String(), err)
	}
	o := newOptions(opts)
	c := newClient(ep, nil, o)
	c.conn = conn
	c.state = StateConnected
	c.metrics.ConnectionOpened()
	return c, nil
}

func newClient(ep Endpoint, cfg *tls.Config, o *options) *Client {
	id := identity(RoleClient, ep)
	return &Client{
		id:       uuid.NewString(),
		endpoint: ep,
		identity: id,
		config:   cfg,
		dialer:   o.dialer,
		log:      o.logger.Named(id),
		metrics:  o.metrics,
		bufLen:   o.bufferLength,
		onClose:  o.closeHook,
		timeout:  o.timeout,
	}
}

// ── Accessors ────────────────────────────────────────────────────────

// ID is a random identifier unique to this client.
func (c *Client) ID() string { return c.id }

func (c *Client) Endpoint() Endpoint { return c.endpoint }

func (c *Client) Identity() string { return c.identity }

func (c *Client) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

func (c *Client) SetTimeout(d time.Duration) {
	c.mu.Lock()
	c.timeout = d
	c.mu.Unlock()
}

func (c *Client) Timeout() time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.timeout
}

// RemoteAddr returns the peer address, or nil when not connected.
func (c *Client) RemoteAddr() net.Addr {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	return c.conn.RemoteAddr()
}

// ConnectionState reports the negotiated TLS parameters.
func (c *Client) ConnectionState() tls.ConnectionState {
	c.mu.Lock()
	conn := c.conn
	c.mu.Unlock()
	if conn == nil {
		return tls.ConnectionState{}
	}
	return conn.ConnectionState()
}

// ── Lifecycle ────────────────────────────────────────────────────────

// Connect dials the endpoint and performs the TLS handshake.  Without
// a deadline on ctx the client timeout bounds the whole attempt.  On
// failure the cause is logged at FATAL and returned; the client stays
// unconnected and Connect may be called again.
func (c *Client) Connect(ctx context.Context) error {
	addr := c.endpoint.String()

	c.mu.Lock()
	switch c.state {
	case StateConnected:
		c.mu.Unlock()
		return sserr.ErrAlreadyConnected
	case StateClosed:
		c.mu.Unlock()
		return sserr.Wrap("connect", addr, sserr.ErrClosed)
	}
	timeout := c.timeout
	c.mu.Unlock()

	if _, ok := ctx.Deadline(); !ok && timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	raw, err := c.dialer.Dial(ctx, "tcp", addr)
	if err != nil {
		err = sserr.Classify("dial", addr, err)
		c.metrics.RecordError(err.Error())
		return c.connectFailed(err)
	}

	conn := tls.Client(raw, c.config)
	if err := conn.HandshakeContext(ctx); err != nil {
		raw.Close()
		err = sserr.ClassifyHandshake(addr, err)
		c.metrics.HandshakeFailed(err.Error())
		return c.connectFailed(err)
	}
	c.metrics.HandshakeCompleted()

	c.mu.Lock()
	if c.state != StateUnconnected {
		// Lost a race with Close or another Connect.
		state := c.state
		c.mu.Unlock()
		conn.Close()
		if state == StateClosed {
			return sserr.Wrap("connect", addr, sserr.ErrClosed)
		}
		return sserr.ErrAlreadyConnected
	}
	c.conn = conn
	c.state = StateConnected
	c.mu.Unlock()

	c.metrics.ConnectionOpened()
	c.log.Info("successfully connected to server")
	return nil
}

func (c *Client) connectFailed(err error) error {
	c.log.Fatal("exception occurred while connecting - %v", err)
	return err
}

// Close releases the connection.  It is safe to call from any
// goroutine; the second call returns errors.ErrAlreadyClosed.
func (c *Client) Close() error {
	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return sserr.ErrAlreadyClosed
	}
	conn := c.conn
	c.conn = nil
	c.state = StateClosed
	c.mu.Unlock()

	var err error
	if conn != nil {
		err = conn.Close()
		c.metrics.ConnectionClosed()
	}
	if c.onClose != nil {
		c.onClose()
	}
	c.log.Info("socket has been closed")

	if err != nil && !sserr.IsClosed(err) {
		return sserr.Classify("close", c.endpoint.String(), err)
	}
	return nil
}

// ── I/O ──────────────────────────────────────────────────────────────

// stream returns the live connection or the error an I/O call on a
// socket in the current state must fail with.
func (c *Client) stream(op string) (*tls.Conn, time.Duration, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.state {
	case StateConnected:
		return c.conn, c.timeout, nil
	case StateClosed:
		return nil, 0, sserr.Wrap(op, c.endpoint.String(), sserr.ErrClosed)
	default:
		return nil, 0, sserr.Wrap(op, c.endpoint.String(), sserr.ErrNotConnected)
	}
}

// SendData writes all of data, blocking until the kernel has accepted
// it or the timeout expires.
func (c *Client) SendData(data []byte) error {
	_, err := c.write(data)
	if err != nil {
		c.log.Warning("failed to send data - %v", err)
		c.metrics.RecordError(err.Error())
	}
	return err
}

// ReceiveData reads at most n bytes.  It returns a zero-length slice
// and a nil error once the peer has closed the connection.  TLS
// failures are logged at CRITICAL, everything else at WARNING; both
// are returned.
func (c *Client) ReceiveData(n int) ([]byte, error) {
	if n <= 0 {
		n = c.bufLen
	}
	buf := make([]byte, n)
	k, err := c.read(buf)
	if k > 0 {
		// A trailing error (e.g. close_notify) resurfaces on the next call.
		return buf[:k], nil
	}
	if err == nil || err == io.EOF {
		return []byte{}, nil
	}
	if sserr.IsTLS(err) {
		c.log.Critical("TLS error while receiving - %v", err)
	} else {
		c.log.Warning("failed to receive data - %v", err)
	}
	c.metrics.RecordError(err.Error())
	return nil, err
}

// Read implements io.Reader.  It returns io.EOF on a clean peer close
// and classified errors otherwise.  Nothing is logged.
func (c *Client) Read(p []byte) (int, error) {
	return c.read(p)
}

// Write implements io.Writer.  Nothing is logged.
func (c *Client) Write(p []byte) (int, error) {
	return c.write(p)
}

func (c *Client) read(p []byte) (int, error) {
	conn, timeout, err := c.stream("receive")
	if err != nil {
		return 0, err
	}
	setDeadline(conn.SetReadDeadline, timeout)
	n, err := conn.Read(p)
	c.metrics.BytesReceived(int64(n))
	if err != nil && err != io.EOF {
		err = sserr.Classify("receive", c.endpoint.String(), err)
	}
	return n, err
}

func (c *Client) write(p []byte) (int, error) {
	conn, timeout, err := c.stream("send")
	if err != nil {
		return 0, err
	}
	setDeadline(conn.SetWriteDeadline, timeout)
	n, err := conn.Write(p)
	c.metrics.BytesSent(int64(n))
	if err != nil {
		return n, sserr.Classify("send", c.endpoint.String(), err)
	}
	return n, nil
}

// CloseWrite sends a TLS close_notify and half-closes the TCP
// connection so the peer reads EOF.  Reading remains possible.
func (c *Client) CloseWrite() error {
	conn, _, err := c.stream("shutdown")
	if err != nil {
		return err
	}
	errs := []error{conn.CloseWrite()}
	if tcp, ok := conn.NetConn().(*net.TCPConn); ok {
		errs = append(errs, tcp.CloseWrite())
	}
	return c.shutdownErr(errs)
}

// readCloser is implemented by *net.TCPConn and other transports that
// can shut their receiving half on its own.
type readCloser interface {
	CloseRead() error
}

// Shutdown disables both directions without releasing the socket;
// Close must still be called.  Transports that cannot half-close their
// read side on their own (an SSH channel, for one) only get the write
// side shut: the peer sees EOF, and local reads stay possible until
// Close.
func (c *Client) Shutdown() error {
	conn, _, err := c.stream("shutdown")
	if err != nil {
		return err
	}
	errs := []error{conn.CloseWrite()}
	raw := conn.NetConn()
	if hc, ok := raw.(interface{ CloseWrite() error }); ok {
		errs = append(errs, hc.CloseWrite())
	}
	if rc, ok := raw.(readCloser); ok {
		errs = append(errs, rc.CloseRead())
	}
	return c.shutdownErr(errs)
}

func (c *Client) shutdownErr(errs []error) error {
	if err := sserr.Join(errs...); err != nil {
		return sserr.Classify("shutdown", c.endpoint.String(), err)
	}
	return nil
}
