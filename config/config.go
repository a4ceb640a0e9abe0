// Package config defines the runtime configuration for securesock and
// provides helpers for parsing tunnel specifications and ports.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	sserr "securesock/internal/errors"
	"securesock/internal/transport"
)

// Config holds every tuneable for a single securesock session.
type Config struct {
	// ── Connection ───────────────────────────────────────────────────
	Host         string
	Port         int // destination port (connect mode)
	LocalPort    int // -p: listen port, or source port when connecting
	Listen       bool
	KeepOpen     bool
	NoDNS        bool
	Timeout      time.Duration // connect / accept / per-operation deadline
	IdleTimeout  time.Duration // per-operation deadline once a session runs
	BufferLength int

	// ── TLS ──────────────────────────────────────────────────────────
	KeyFile  string
	CertFile string
	CAFile   string
	Verify   bool

	// ── Server ───────────────────────────────────────────────────────
	Backlog          int
	MaxConns         int
	AcceptPolicy     string
	HandshakeTimeout time.Duration

	// ── Behaviour ────────────────────────────────────────────────────
	Echo    bool
	Execute string // -e: program path
	Command string // -c: shell command

	// ── SSH tunnel ───────────────────────────────────────────────────
	TunnelSpec     string // raw user@host[:port] from -T
	TunnelEnabled  bool
	TunnelUser     string
	TunnelHost     string
	TunnelPort     int
	SSHKeyPath     string
	SSHPassword    bool // true → prompt interactively
	UseSSHAgent    bool
	StrictHostKey  bool
	KnownHostsPath string

	// ── Output ───────────────────────────────────────────────────────
	LogFile     string
	MetricsAddr string
}

// Trust returns the TLS trust policy selected by Verify.
func (c *Config) Trust() transport.TrustPolicy {
	if c.Verify {
		return transport.TrustVerify
	}
	return transport.TrustNone
}

// Policy returns the parsed accept policy.  Validate rejects unknown
// values, so an unvalidated config falls back to AcceptContinue.
func (c *Config) Policy() transport.AcceptPolicy {
	p, _ := transport.ParseAcceptPolicy(c.AcceptPolicy)
	return p
}

// ── Port helpers ─────────────────────────────────────────────────────

// ParsePort accepts a decimal port in 1-65535.
func ParsePort(spec string) (int, error) {
	port, err := strconv.Atoi(spec)
	if err != nil {
		return 0, fmt.Errorf("invalid port %q", spec)
	}
	if port < 1 || port > 65535 {
		return 0, fmt.Errorf("port %d out of range 1-65535", port)
	}
	return port, nil
}

// ── Tunnel-spec parser ───────────────────────────────────────────────

// tunnelRe matches [user@]host[:port].
var tunnelRe = regexp.MustCompile(`^(?:([^@]+)@)?([^:]+)(?::(\d+))?$`)

// ParseTunnelSpec extracts user, host, and port from a string such as
// "admin@bastion.example.com:2222".  Port defaults to 22.
func ParseTunnelSpec(spec string) (user, host string, port int, err error) {
	m := tunnelRe.FindStringSubmatch(spec)
	if m == nil {
		return "", "", 0, fmt.Errorf("invalid tunnel spec %q: expected [user@]host[:port]", spec)
	}
	user = m[1]
	host = m[2]
	port = DefaultSSHPort
	if m[3] != "" {
		port, err = strconv.Atoi(m[3])
		if err != nil || port < 1 || port > 65535 {
			return "", "", 0, fmt.Errorf("invalid tunnel port %q", m[3])
		}
	}
	return user, host, port, nil
}

// ApplyTunnelSpec parses TunnelSpec into the Tunnel* fields.
func (c *Config) ApplyTunnelSpec() error {
	if c.TunnelSpec == "" {
		return nil
	}
	user, host, port, err := ParseTunnelSpec(c.TunnelSpec)
	if err != nil {
		return &sserr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: "cannot parse", Err: err}
	}
	c.TunnelEnabled = true
	c.TunnelUser = user
	c.TunnelHost = host
	c.TunnelPort = port
	return nil
}

// ── Validation ───────────────────────────────────────────────────────

// Validate checks that the configuration is internally consistent.
// Every failure is a *errors.ConfigError naming the offending flag.
func (c *Config) Validate() error {
	if c.Listen {
		if c.LocalPort == 0 {
			return &sserr.ConfigError{
				Field:   "port",
				Message: "listen mode requires -p <port>",
				Hint:    "securesock -l -p 9443",
			}
		}
		if c.TunnelEnabled {
			return &sserr.ConfigError{
				Field:   "tunnel",
				Value:   c.TunnelSpec,
				Message: "listen mode through an SSH tunnel is not supported",
			}
		}
	} else {
		if c.Host == "" {
			return &sserr.ConfigError{
				Field:   "host",
				Message: "hostname is required",
				Hint:    "securesock [options] <host> <port> (use --help for usage)",
			}
		}
		if c.Port == 0 {
			return &sserr.ConfigError{Field: "port", Message: "destination port is required"}
		}
		if c.Echo {
			return &sserr.ConfigError{Field: "echo", Value: true, Message: "--echo only applies to listen mode"}
		}
	}

	if err := checkPort("port", c.Port); err != nil {
		return err
	}
	if err := checkPort("local-port", c.LocalPort); err != nil {
		return err
	}

	if c.Execute != "" && c.Command != "" {
		return &sserr.ConfigError{Field: "exec", Message: "-e and -c are mutually exclusive"}
	}
	if c.Echo && (c.Execute != "" || c.Command != "") {
		return &sserr.ConfigError{Field: "echo", Value: true, Message: "--echo and -e/-c are mutually exclusive"}
	}

	if c.Timeout < 0 {
		return &sserr.ConfigError{Field: "timeout", Value: c.Timeout, Message: "must not be negative"}
	}
	if c.IdleTimeout < 0 {
		return &sserr.ConfigError{Field: "idle-timeout", Value: c.IdleTimeout, Message: "must not be negative"}
	}
	if c.HandshakeTimeout < 0 {
		return &sserr.ConfigError{Field: "handshake-timeout", Value: c.HandshakeTimeout, Message: "must not be negative"}
	}
	if c.BufferLength < 1 {
		return &sserr.ConfigError{Field: "buffer", Value: c.BufferLength, Message: "must be at least 1"}
	}
	if c.Backlog < 1 {
		return &sserr.ConfigError{Field: "backlog", Value: c.Backlog, Message: "must be at least 1"}
	}
	if c.MaxConns < 0 {
		return &sserr.ConfigError{Field: "max-conns", Value: c.MaxConns, Message: "must not be negative", Hint: "0 means unlimited"}
	}
	if _, ok := transport.ParseAcceptPolicy(c.AcceptPolicy); !ok {
		return &sserr.ConfigError{
			Field:   "accept-policy",
			Value:   c.AcceptPolicy,
			Message: "unknown policy",
			Hint:    `use "continue" or "abort"`,
		}
	}
	if c.CAFile != "" && !c.Verify {
		return &sserr.ConfigError{
			Field:   "ca",
			Value:   c.CAFile,
			Message: "a CA bundle has no effect without peer verification",
			Hint:    "add --verify",
		}
	}

	if c.TunnelEnabled && c.TunnelHost == "" {
		return &sserr.ConfigError{Field: "tunnel", Value: c.TunnelSpec, Message: "tunnel host is required"}
	}
	return nil
}

func checkPort(field string, port int) error {
	if port < 0 || port > 65535 {
		return &sserr.ConfigError{Field: field, Value: port, Message: "out of range 1-65535"}
	}
	return nil
}
