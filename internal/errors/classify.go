package errors

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"net"
	"os"
	"strings"
)

// Classify maps a raw error from the net or crypto/tls packages into
// the securesock taxonomy.  Errors that are already classified pass
// through unchanged so Classify can be applied at every layer.
//
// Typed checks run first; string matching is the fallback for errors
// the standard library does not export (e.g. received TLS alerts).
func Classify(op, addr string, err error) error {
	if err == nil {
		return nil
	}
	if isClassified(err) {
		return err
	}
	switch {
	case isTimeout(err):
		return &TimeoutError{Op: op, Addr: addr, Err: err}
	case isTLS(err):
		return &TLSError{Op: op, Addr: addr, Err: err}
	default:
		return &TransportError{Op: op, Addr: addr, Err: err}
	}
}

// ClassifyHandshake is Classify for the handshake phase: anything that
// is not a timeout is reported as a TLSError, including a peer that
// hangs up mid-handshake.
func ClassifyHandshake(addr string, err error) error {
	err = Classify("handshake", addr, err)
	var te *TransportError
	if As(err, &te) {
		return &TLSError{Op: "handshake", Addr: addr, Err: te.Err}
	}
	return err
}

func isClassified(err error) bool {
	var (
		te  *TransportError
		tl  *TLSError
		to  *TimeoutError
		ce  *ConfigError
		sse *SSHError
	)
	return As(err, &te) || As(err, &tl) || As(err, &to) || As(err, &ce) || As(err, &sse)
}

func isTimeout(err error) bool {
	if Is(err, os.ErrDeadlineExceeded) || Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	if As(err, &ne) && ne.Timeout() {
		return true
	}
	return strings.HasSuffix(err.Error(), "i/o timeout")
}

func isTLS(err error) bool {
	var (
		alert     tls.AlertError
		header    tls.RecordHeaderError
		verify    *tls.CertificateVerificationError
		authority x509.UnknownAuthorityError
		hostname  x509.HostnameError
		invalid   x509.CertificateInvalidError
	)
	switch {
	case As(err, &alert), As(err, &header), As(err, &verify),
		As(err, &authority), As(err, &hostname), As(err, &invalid):
		return true
	}
	// Received alerts surface as "remote error: tls: ..." with an
	// unexported type; local protocol violations as "tls: ...".
	return strings.Contains(err.Error(), "tls: ")
}

func isClosedConn(err error) bool {
	if err == nil {
		return false
	}
	if Is(err, net.ErrClosed) {
		return true
	}
	return strings.HasSuffix(err.Error(), "use of closed network connection")
}
