package config

import (
	"time"

	"securesock/internal/transport"
)

// ── Default values ───────────────────────────────────────────────────
//
// All tuneable defaults live here so they are easy to audit and reuse
// across CLI flags, config file parsing, and environment variable
// loading.

const (
	// DefaultTimeout bounds connect, accept and each stream operation.
	DefaultTimeout = transport.DefaultTimeout

	// DefaultIdleTimeout is the per-operation deadline once a session
	// runs.  Zero lets an interactive session sit idle indefinitely.
	DefaultIdleTimeout time.Duration = 0

	// DefaultBufferLength is how many bytes are read per receive.
	DefaultBufferLength = transport.DefaultBufferLength

	// DefaultBacklog is the listen queue length.
	DefaultBacklog = transport.DefaultBacklog

	// DefaultHandshakeTimeout bounds each server-side TLS handshake.
	DefaultHandshakeTimeout = transport.DefaultHandshakeTimeout

	// DefaultKeyFile and DefaultCertFile are the development key pair.
	DefaultKeyFile  = transport.DefaultKeyFile
	DefaultCertFile = transport.DefaultCertFile

	// DefaultAcceptPolicy keeps a server running across bad handshakes.
	DefaultAcceptPolicy = "continue"

	// DefaultSSHPort is the standard SSH port.
	DefaultSSHPort = 22
)

// Default returns a Config populated with every default.
func Default() *Config {
	return &Config{
		Timeout:          DefaultTimeout,
		IdleTimeout:      DefaultIdleTimeout,
		BufferLength:     DefaultBufferLength,
		KeyFile:          DefaultKeyFile,
		CertFile:         DefaultCertFile,
		Backlog:          DefaultBacklog,
		AcceptPolicy:     DefaultAcceptPolicy,
		HandshakeTimeout: DefaultHandshakeTimeout,
	}
}
