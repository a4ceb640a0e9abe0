package transport

import (
	"context"
	"crypto/tls"
	"net"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	sserr "securesock/internal/errors"
	"securesock/internal/logger"
	"securesock/internal/metrics"
)

// deadliner is implemented by *net.TCPListener.
type deadliner interface {
	SetDeadline(t time.Time) error
}

// Server is a listening TLS socket.  It binds in [NewServer]; an outer
// loop calls [Server.Accept] for each connection.  Accept is meant to
// be called from one goroutine at a time.
type Server struct {
	endpoint   Endpoint
	identity   string
	config     *tls.Config
	log        *logger.Logger
	metrics    *metrics.Collector
	policy     AcceptPolicy
	handshake  time.Duration
	clientOpts []Option

	// slots caps open accepted clients; nil when unlimited.
	slots   *semaphore.Weighted
	closing context.Context
	stop    context.CancelFunc

	mu       sync.Mutex
	state    State
	ln       net.Listener
	deadline deadliner
	timeout  time.Duration
}

// NewServer loads the key pair, binds host:port and starts listening
// with the configured backlog.  Empty file names select DefaultKeyFile
// and DefaultCertFile.  Port 0 picks a free port; [Server.Endpoint]
// reports the one chosen.  On any failure no Server is returned.
//
// Unlike a Client, a Server has no timeout unless one is given with
// [WithTimeout]: Accept blocks until a connection arrives.
func NewServer(host string, port int, keyFile, certFile string, opts ...Option) (*Server, error) {
	o := newOptions(append([]Option{WithTimeout(0)}, opts...))
	if keyFile == "" {
		keyFile = DefaultKeyFile
	}
	if certFile == "" {
		certFile = DefaultCertFile
	}

	ep := Endpoint{Host: host, Port: port}
	cfg, err := o.factory.Config(RoleServer, keyFile, certFile)
	if err != nil {
		o.logger.Named(identity(RoleServer, ep)).Fatal("cannot build TLS config - %v", err)
		return nil, err
	}

	ln, err := listen("tcp", ep.String(), o.backlog)
	if err != nil {
		err = sserr.Classify("listen", ep.String(), err)
		o.logger.Named(identity(RoleServer, ep)).Fatal("cannot listen - %v", err)
		return nil, err
	}
	if bound, err := endpointOf(ln.Addr()); err == nil && port == 0 {
		ep.Port = bound.Port
	}

	dl, _ := ln.(deadliner)
	closing, stop := context.WithCancel(context.Background())

	id := identity(RoleServer, ep)
	s := &Server{
		endpoint:  ep,
		identity:  id,
		config:    cfg,
		log:       o.logger.Named(id),
		metrics:   o.metrics,
		policy:    o.acceptPolicy,
		handshake: o.handshakeTimeout,
		clientOpts: []Option{
			WithLogger(o.logger),
			WithMetrics(o.metrics),
			WithBufferLength(o.bufferLength),
		},
		closing:  closing,
		stop:     stop,
		state:    StateListening,
		ln:       ln,
		deadline: dl,
		timeout:  o.timeout,
	}
	if o.maxConns > 0 {
		s.slots = semaphore.NewWeighted(int64(o.maxConns))
	}
	s.log.Info("listening (backlog %d)", o.backlog)
	return s, nil
}

func (s *Server) Endpoint() Endpoint { return s.endpoint }

func (s *Server) Identity() string { return s.identity }

// Addr returns the bound listener address.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

func (s *Server) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// SetTimeout bounds how long Accept waits for a connection, including
// the wait for a free slot under [WithMaxConns].  Accepted clients
// start with the same timeout.  Zero waits indefinitely.
func (s *Server) SetTimeout(d time.Duration) {
	s.mu.Lock()
	s.timeout = d
	s.mu.Unlock()
}

func (s *Server) Timeout() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeout
}

// Accept waits for one connection and completes its TLS handshake.
//
// A failed handshake is logged at FATAL and the raw connection is
// closed.  Under AcceptContinue Accept then returns (nil, nil) and the
// caller should simply call it again; under AcceptAbort the error is
// returned.  Listener failures, an expired timeout and cancellation of
// ctx are always returned.
//
// With [WithMaxConns] Accept first waits for one of the slots to be
// released by an accepted client's Close.
func (s *Server) Accept(ctx context.Context) (*Client, error) {
	addr := s.endpoint.String()

	s.mu.Lock()
	if s.state != StateListening {
		s.mu.Unlock()
		return nil, sserr.Wrap("accept", addr, sserr.ErrClosed)
	}
	ln, dl, timeout := s.ln, s.deadline, s.timeout
	s.mu.Unlock()

	release, err := s.acquire(ctx, timeout)
	if err != nil {
		return nil, err
	}
	accepted := false
	defer func() {
		if !accepted {
			release()
		}
	}()

	if dl != nil {
		setDeadline(dl.SetDeadline, timeout)
		stop := context.AfterFunc(ctx, func() {
			dl.SetDeadline(time.Unix(1, 0)) //nolint:errcheck
		})
		defer stop()
	}

	raw, err := ln.Accept()
	if err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, sserr.Classify("accept", addr, ctx.Err())
		case s.State() == StateClosed:
			return nil, sserr.Wrap("accept", addr, sserr.ErrClosed)
		}
		return nil, sserr.Classify("accept", addr, err)
	}

	peer := raw.RemoteAddr().String()
	conn := tls.Server(raw, s.config)

	hctx := ctx
	if s.handshake > 0 {
		var cancel context.CancelFunc
		hctx, cancel = context.WithTimeout(ctx, s.handshake)
		defer cancel()
	}
	if err := conn.HandshakeContext(hctx); err != nil {
		raw.Close()
		err = sserr.ClassifyHandshake(peer, err)
		s.log.Fatal("exception occurred while accepting clients - %v", err)
		s.metrics.HandshakeFailed(err.Error())

		if ctx.Err() != nil {
			return nil, sserr.Classify("accept", addr, ctx.Err())
		}
		if s.policy == AcceptAbort {
			return nil, err
		}
		return nil, nil
	}
	s.metrics.HandshakeCompleted()

	// The wrapper is already connected: it never dials and never
	// builds a TLS config, so no factory or dialer is passed on.
	opts := append(append([]Option{}, s.clientOpts...), WithTimeout(timeout), withCloseHook(release))
	client, err := WrapConn(conn, opts...)
	if err != nil {
		conn.Close()
		return nil, err
	}
	accepted = true
	if host, port, err := net.SplitHostPort(peer); err == nil {
		s.log.Info("accepted %s,%s", host, port)
	}
	return client, nil
}

// Close stops listening.  Clients already accepted are unaffected.
// The second call returns errors.ErrAlreadyClosed.
func (s *Server) Close() error {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return sserr.ErrAlreadyClosed
	}
	ln := s.ln
	s.state = StateClosed
	s.mu.Unlock()

	s.stop()
	err := ln.Close()
	s.log.Info("socket has been closed")
	if err != nil && !sserr.IsClosed(err) {
		return sserr.Classify("close", s.endpoint.String(), err)
	}
	return nil
}

// acquire takes a connection slot, waiting at most timeout.  The
// returned func gives the slot back exactly once.
func (s *Server) acquire(ctx context.Context, timeout time.Duration) (func(), error) {
	if s.slots == nil {
		return func() {}, nil
	}
	actx, cancel := context.WithCancel(ctx)
	defer cancel()
	if timeout > 0 {
		actx, cancel = context.WithTimeout(actx, timeout)
		defer cancel()
	}
	stop := context.AfterFunc(s.closing, cancel)
	defer stop()

	addr := s.endpoint.String()
	if err := s.slots.Acquire(actx, 1); err != nil {
		switch {
		case ctx.Err() != nil:
			return nil, sserr.Classify("accept", addr, ctx.Err())
		case s.closing.Err() != nil:
			return nil, sserr.Wrap("accept", addr, sserr.ErrClosed)
		}
		return nil, sserr.Classify("accept", addr, err)
	}
	var once sync.Once
	return func() { once.Do(func() { s.slots.Release(1) }) }, nil
}
