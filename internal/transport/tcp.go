package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"
	"time"

	"securesock/util"
)

// TCPDialer establishes plain TCP connections for the TLS layer to
// run over, optionally binding to a specific source port.
type TCPDialer struct {
	Timeout   time.Duration
	KeepAlive time.Duration // 0 = Go default, negative disables
	LocalPort int           // optional source-port binding (0 = ephemeral)
	NoDNS     bool          // refuse host names, numeric IPs only
}

// Dial connects to address over TCP.
func (d *TCPDialer) Dial(ctx context.Context, network, address string) (net.Conn, error) {
	if d.NoDNS {
		host, port, err := net.SplitHostPort(address)
		if err != nil {
			return nil, err
		}
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid port %q", port)
		}
		if address, err = util.ResolveAddr(host, p, true); err != nil {
			return nil, err
		}
	}

	dialer := net.Dialer{Timeout: d.Timeout, KeepAlive: d.KeepAlive}
	if d.LocalPort > 0 {
		dialer.LocalAddr = &net.TCPAddr{Port: d.LocalPort}
	}
	return dialer.DialContext(ctx, network, address)
}

// Close is a no-op for stateless TCP dialers.
func (d *TCPDialer) Close() error { return nil }
