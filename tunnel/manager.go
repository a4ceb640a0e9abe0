package tunnel

import (
	"context"
	"net"
	"sync"
	"time"

	"securesock/internal/logger"
	"securesock/internal/metrics"
	"securesock/internal/retry"
)

// DefaultHealthInterval is how often Manager pings the gateway.
const DefaultHealthInterval = 10 * time.Second

// Manager wraps a Tunnel and adds periodic health monitoring.  Each
// successful keepalive is recorded on the metrics collector.  A lost
// gateway session is re-established with exponential backoff; the
// monitor gives up once the backoff does.
type Manager struct {
	tunnel    Tunnel
	log       *logger.Logger
	metrics   *metrics.Collector
	interval  time.Duration
	reconnect *retry.Backoff

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
}

// NewManager returns a Manager for the given tunnel.
func NewManager(t Tunnel, log *logger.Logger, m *metrics.Collector) *Manager {
	return &Manager{
		tunnel:    t,
		log:       log,
		metrics:   m,
		interval:  DefaultHealthInterval,
		reconnect: retry.DefaultBackoff(),
	}
}

// Start connects the tunnel and begins background health checks.  The
// checks stop with Stop, not with ctx, which only bounds the connect.
func (m *Manager) Start(ctx context.Context) error {
	if err := m.tunnel.Connect(ctx); err != nil {
		return err
	}
	hctx, cancel := context.WithCancel(context.Background())
	m.mu.Lock()
	m.cancel = cancel
	m.mu.Unlock()

	go m.healthLoop(hctx)
	return nil
}

// Dial opens a connection through the managed tunnel.
func (m *Manager) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	return m.tunnel.Dial(ctx, network, address)
}

// Stop gracefully shuts down the tunnel.
func (m *Manager) Stop() error {
	m.mu.Lock()
	m.stopped = true
	if m.cancel != nil {
		m.cancel()
	}
	m.mu.Unlock()
	return m.tunnel.Close()
}

func (m *Manager) healthLoop(ctx context.Context) {
	tick := time.NewTicker(m.interval)
	defer tick.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-tick.C:
			m.mu.Lock()
			done := m.stopped
			m.mu.Unlock()
			if done {
				return
			}
			if !m.tunnel.IsAlive() {
				if err := m.restore(ctx); err != nil {
					if ctx.Err() != nil {
						return
					}
					m.log.Critical("SSH tunnel connection lost - %v", err)
					m.metrics.RecordError("ssh tunnel connection lost")
					return
				}
				continue
			}
			if err := m.tunnel.Ping(); err != nil {
				m.log.Warning("SSH keepalive failed: %v", err)
				m.metrics.RecordError("ssh keepalive: " + err.Error())
				continue
			}
			m.metrics.RecordHealthCheck()
		}
	}
}

// restore reconnects a dropped tunnel.
func (m *Manager) restore(ctx context.Context) error {
	m.log.Warning("SSH tunnel connection lost, reconnecting")
	b := *m.reconnect
	b.OnRetry = func(attempt int, err error, wait time.Duration) {
		m.log.Warning("reconnect attempt %d failed - %v (next in %v)", attempt, err, wait.Round(time.Millisecond))
	}
	err := b.Do(ctx, func(int) error {
		m.tunnel.Close() //nolint:errcheck // drop the dead client first
		return m.tunnel.Connect(ctx)
	})
	if err != nil {
		return err
	}
	m.log.Info("SSH tunnel re-established")
	return nil
}
