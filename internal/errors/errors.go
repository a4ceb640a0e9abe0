// Package errors provides domain-specific error types for securesock.
//
// Every failure that leaves the transport layer is one of four kinds:
// ConfigError, TransportError, TLSError or TimeoutError.  Each carries
// the operation and address involved so callers can log or branch on
// it without parsing strings.
package errors

import (
	"errors"
	"fmt"
)

// ── Sentinel errors ──────────────────────────────────────────────────

var (
	ErrClosed           = New("socket is closed")
	ErrAlreadyClosed    = New("socket already closed")
	ErrNotConnected     = New("not connected")
	ErrAlreadyConnected = New("already connected")
	ErrTunnelClosed     = New("tunnel is closed")
)

// ── Structured error types ───────────────────────────────────────────

// TransportError is a failure of the underlying byte stream: dial,
// listen, accept, send or receive on a broken or closed socket.
type TransportError struct {
	Op   string // "dial", "listen", "accept", "send", "receive", "shutdown"
	Addr string
	Err  error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// TLSError is a handshake or record-layer failure.
type TLSError struct {
	Op   string // "handshake", "receive", "send"
	Addr string
	Err  error
}

func (e *TLSError) Error() string {
	return fmt.Sprintf("tls %s %s: %v", e.Op, e.Addr, e.Err)
}

func (e *TLSError) Unwrap() error { return e.Err }

// TimeoutError reports that a blocking operation exceeded its deadline.
type TimeoutError struct {
	Op   string
	Addr string
	Err  error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s %s: timed out: %v", e.Op, e.Addr, e.Err)
}

func (e *TimeoutError) Unwrap() error { return e.Err }

// Timeout satisfies net.Error.
func (e *TimeoutError) Timeout() bool { return true }

// SSHError represents an SSH-specific failure with host context.
type SSHError struct {
	Op   string // "handshake", "auth", "hostkey"
	Host string
	Port int
	Err  error
}

func (e *SSHError) Error() string {
	return fmt.Sprintf("ssh %s %s:%d: %v", e.Op, e.Host, e.Port, e.Err)
}

func (e *SSHError) Unwrap() error { return e.Err }

// ConfigError represents an invalid configuration value, including
// unreadable or mismatched key and certificate files.
type ConfigError struct {
	Field   string      // config field name
	Value   interface{} // the invalid value (nil if missing)
	Message string      // human-readable explanation
	Hint    string      // suggestion for the user (optional)
	Err     error       // underlying cause (optional)
}

func (e *ConfigError) Error() string {
	msg := fmt.Sprintf("config: --%s", e.Field)
	if e.Value != nil {
		msg += fmt.Sprintf("=%v", e.Value)
	}
	msg += ": " + e.Message
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	if e.Hint != "" {
		msg += "\n  hint: " + e.Hint
	}
	return msg
}

func (e *ConfigError) Unwrap() error { return e.Err }

// ── Constructors ─────────────────────────────────────────────────────

// Wrap creates a TransportError without classifying err.
func Wrap(op, addr string, err error) *TransportError {
	return &TransportError{Op: op, Addr: addr, Err: err}
}

// WrapSSH creates an SSHError.
func WrapSSH(op, host string, port int, err error) *SSHError {
	return &SSHError{Op: op, Host: host, Port: port, Err: err}
}

// ── Classification helpers ───────────────────────────────────────────

// IsTimeout reports whether err is, or wraps, a timeout.
func IsTimeout(err error) bool {
	if err == nil {
		return false
	}
	var te *TimeoutError
	if As(err, &te) {
		return true
	}
	return isTimeout(err)
}

// IsTLS reports whether err is, or wraps, a TLS protocol failure.
func IsTLS(err error) bool {
	if err == nil {
		return false
	}
	var te *TLSError
	if As(err, &te) {
		return true
	}
	return isTLS(err)
}

// IsClosed reports whether err means the socket was already closed,
// by us or by the runtime.
func IsClosed(err error) bool {
	return Is(err, ErrClosed) || isClosedConn(err)
}

// ── Re-exports for convenience ───────────────────────────────────────
//
// These allow callers to use securesock/internal/errors as a drop-in
// replacement for the standard library in common operations.

// As is [errors.As].
func As(err error, target interface{}) bool { return errors.As(err, target) }

// Is is [errors.Is].
func Is(err, target error) bool { return errors.Is(err, target) }

// New is [errors.New].
func New(text string) error { return errors.New(text) }

// Unwrap is [errors.Unwrap].
func Unwrap(err error) error { return errors.Unwrap(err) }

// Join is [errors.Join].
func Join(errs ...error) error { return errors.Join(errs...) }
