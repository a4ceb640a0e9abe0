package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "securesock"

// Register exposes the collector's counters on reg.  The values are
// read on every scrape, so nothing is duplicated.
func (c *Collector) Register(reg prometheus.Registerer) error {
	counter := func(name, help string, f func() int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(f()) })
	}
	gauge := func(name, help string, f func() int64) prometheus.Collector {
		return prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(f()) })
	}

	collectors := []prometheus.Collector{
		gauge("connections_active", "Currently open TLS connections", c.ActiveConnections),
		counter("connections_total", "TLS connections opened since start", c.TotalConnections),
		counter("received_bytes_total", "Application bytes received", c.TotalBytesIn),
		counter("sent_bytes_total", "Application bytes sent", c.TotalBytesOut),
		counter("handshakes_total", "Completed TLS handshakes", c.HandshakesCompleted),
		counter("handshake_failures_total", "Failed TLS handshakes", c.HandshakesFailed),
		counter("errors_total", "Errors of any kind", c.ErrorCount),
	}
	for _, col := range collectors {
		if err := reg.Register(col); err != nil {
			return err
		}
	}
	return nil
}

// Serve exposes the collector at http://addr/metrics until ctx is
// cancelled.  The listener is opened before Serve returns, so bind
// errors are reported synchronously.
func (c *Collector) Serve(ctx context.Context, addr string) (net.Addr, error) {
	reg := prometheus.NewRegistry()
	if err := c.Register(reg); err != nil {
		return nil, err
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx) //nolint:errcheck
	}()
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.RecordError("metrics: " + err.Error())
		}
	}()
	return ln.Addr(), nil
}
