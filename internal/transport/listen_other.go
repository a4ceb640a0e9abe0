//go:build !unix

package transport

import "net"

// listen falls back to net.Listen; the platform picks the backlog.
func listen(network, address string, _ int) (net.Listener, error) {
	return net.Listen(network, address)
}
