package transport

import (
	"time"

	"securesock/internal/logger"
	"securesock/internal/metrics"
)

// AcceptPolicy decides what Server.Accept does when a handshake fails.
type AcceptPolicy int

const (
	// AcceptContinue logs the failure, closes the connection and
	// returns (nil, nil) so the caller simply calls Accept again.
	AcceptContinue AcceptPolicy = iota

	// AcceptAbort logs the failure and returns it.
	AcceptAbort
)

func (p AcceptPolicy) String() string {
	if p == AcceptAbort {
		return "abort"
	}
	return "continue"
}

// ParseAcceptPolicy accepts "continue" or "abort".
func ParseAcceptPolicy(s string) (AcceptPolicy, bool) {
	switch s {
	case "", "continue":
		return AcceptContinue, true
	case "abort":
		return AcceptAbort, true
	}
	return AcceptContinue, false
}

type options struct {
	factory          *Factory
	dialer           Dialer
	logger           *logger.Logger
	metrics          *metrics.Collector
	timeout          time.Duration
	bufferLength     int
	backlog          int
	maxConns         int
	acceptPolicy     AcceptPolicy
	handshakeTimeout time.Duration
	closeHook        func()
}

// Option configures a Client or Server.  Options that only make sense
// for one of them are ignored by the other.
type Option func(*options)

func newOptions(opts []Option) *options {
	o := &options{
		timeout:          DefaultTimeout,
		bufferLength:     DefaultBufferLength,
		backlog:          DefaultBacklog,
		handshakeTimeout: DefaultHandshakeTimeout,
	}
	for _, fn := range opts {
		fn(o)
	}
	if o.factory == nil {
		o.factory = &Factory{}
	}
	if o.dialer == nil {
		o.dialer = &TCPDialer{}
	}
	if o.logger == nil {
		o.logger = logger.Default()
	}
	return o
}

// WithFactory sets the trust settings used to build TLS configs.
func WithFactory(f *Factory) Option { return func(o *options) { o.factory = f } }

// WithDialer replaces the plain TCP dialer used by Client.Connect.
func WithDialer(d Dialer) Option { return func(o *options) { o.dialer = d } }

// WithLogger sets the logger sockets derive their named logger from.
func WithLogger(l *logger.Logger) Option { return func(o *options) { o.logger = l } }

// WithMetrics attaches a collector.  A nil collector disables metrics.
func WithMetrics(m *metrics.Collector) Option { return func(o *options) { o.metrics = m } }

// WithTimeout sets the initial per-operation timeout (0 disables it).
func WithTimeout(d time.Duration) Option { return func(o *options) { o.timeout = d } }

// WithBufferLength sets the default ReceiveData size.
func WithBufferLength(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.bufferLength = n
		}
	}
}

// WithBacklog sets the listen queue length.
func WithBacklog(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.backlog = n
		}
	}
}

// WithMaxConns caps the number of simultaneously open accepted
// connections (0 = unlimited).
func WithMaxConns(n int) Option { return func(o *options) { o.maxConns = n } }

// WithAcceptPolicy selects how Accept treats failed handshakes.
func WithAcceptPolicy(p AcceptPolicy) Option { return func(o *options) { o.acceptPolicy = p } }

// withCloseHook runs f once when the client is closed.
func withCloseHook(f func()) Option { return func(o *options) { o.closeHook = f } }

// WithHandshakeTimeout bounds each server-side handshake (0 disables).
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *options) { o.handshakeTimeout = d }
}
