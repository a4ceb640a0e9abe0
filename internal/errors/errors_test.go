package errors

import (
	"context"
	"crypto/tls"
	"fmt"
	"io"
	"net"
	"os"
	"testing"
)

func TestTransportError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			name: "transport",
			err:  &TransportError{Op: "send", Addr: "127.0.0.1:9443", Err: io.ErrClosedPipe},
			want: "send 127.0.0.1:9443: io: read/write on closed pipe",
		},
		{
			name: "tls",
			err:  &TLSError{Op: "handshake", Addr: "10.0.0.1:443", Err: fmt.Errorf("bad certificate")},
			want: "tls handshake 10.0.0.1:443: bad certificate",
		},
		{
			name: "timeout",
			err:  &TimeoutError{Op: "receive", Addr: "h:1", Err: os.ErrDeadlineExceeded},
			want: "receive h:1: timed out: i/o timeout",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got %q, want %q", got, tt.want)
			}
		})
	}
}

func TestTransportError_Unwrap(t *testing.T) {
	err := Wrap("send", "x", ErrClosed)
	if !Is(err, ErrClosed) {
		t.Error("should unwrap to ErrClosed")
	}
	if !IsClosed(err) {
		t.Error("IsClosed should see through the wrapper")
	}
}

func TestSSHError_Format(t *testing.T) {
	err := WrapSSH("handshake", "bastion.example.com", 22, fmt.Errorf("connection refused"))
	want := "ssh handshake bastion.example.com:22: connection refused"
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestSSHError_Unwrap(t *testing.T) {
	inner := fmt.Errorf("auth fail")
	err := WrapSSH("auth", "host", 22, inner)
	if !Is(err, inner) {
		t.Error("should unwrap to inner error")
	}
}

func TestConfigError_Format(t *testing.T) {
	tests := []struct {
		name string
		err  ConfigError
		want string
	}{
		{
			name: "with value and hint",
			err: ConfigError{
				Field:   "port",
				Value:   99999,
				Message: "out of range 1-65535",
				Hint:    "use a port between 1 and 65535",
			},
			want: "config: --port=99999: out of range 1-65535\n  hint: use a port between 1 and 65535",
		},
		{
			name: "missing value no hint",
			err: ConfigError{
				Field:   "cert",
				Message: "required in server role",
			},
			want: "config: --cert: required in server role",
		},
		{
			name: "with cause",
			err: ConfigError{
				Field:   "key",
				Value:   "server.key",
				Message: "cannot load key pair",
				Err:     fmt.Errorf("no such file"),
			},
			want: "config: --key=server.key: cannot load key pair: no such file",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("got:\n%s\nwant:\n%s", got, tt.want)
			}
		})
	}
}

// timeoutErr is a net.Error that reports a timeout.
type timeoutErr struct{}

func (timeoutErr) Error() string   { return "deadline" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string // "transport", "tls", "timeout", "nil", "config"
	}{
		{"nil", nil, "nil"},
		{"deadline exceeded", os.ErrDeadlineExceeded, "timeout"},
		{"context deadline", context.DeadlineExceeded, "timeout"},
		{"net timeout", &net.OpError{Op: "read", Net: "tcp", Err: timeoutErr{}}, "timeout"},
		{"record header", tls.RecordHeaderError{Msg: "first record does not look like a TLS handshake"}, "tls"},
		{"alert", tls.AlertError(42), "tls"},
		{"remote alert", fmt.Errorf("remote error: tls: bad certificate"), "tls"},
		{"eof", io.EOF, "transport"},
		{"reset", fmt.Errorf("read: connection reset by peer"), "transport"},
		{"already classified", &ConfigError{Field: "key", Message: "bad"}, "config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify("receive", "127.0.0.1:1", tt.err)
			var kind string
			var (
				te *TransportError
				tl *TLSError
				to *TimeoutError
				ce *ConfigError
			)
			switch {
			case got == nil:
				kind = "nil"
			case As(got, &to):
				kind = "timeout"
			case As(got, &tl):
				kind = "tls"
			case As(got, &te):
				kind = "transport"
			case As(got, &ce):
				kind = "config"
			}
			if kind != tt.want {
				t.Errorf("Classify(%v) kind = %q, want %q", tt.err, kind, tt.want)
			}
			if tt.err != nil && !Is(got, tt.err) {
				t.Errorf("classified error should wrap the original")
			}
		})
	}
}

func TestClassify_Idempotent(t *testing.T) {
	first := Classify("send", "a:1", os.ErrDeadlineExceeded)
	second := Classify("receive", "b:2", first)
	if first != second {
		t.Errorf("re-classifying changed the error: %v -> %v", first, second)
	}
}

func TestClassifyHandshake(t *testing.T) {
	var tl *TLSError
	if err := ClassifyHandshake("a:1", io.EOF); !As(err, &tl) || !Is(err, io.EOF) {
		t.Errorf("EOF during handshake = %v, want TLSError wrapping EOF", err)
	}
	if err := ClassifyHandshake("a:1", os.ErrDeadlineExceeded); !IsTimeout(err) {
		t.Errorf("deadline during handshake = %v, want TimeoutError", err)
	}
}

func TestIsTimeout(t *testing.T) {
	if !IsTimeout(&TimeoutError{Op: "x", Err: io.EOF}) {
		t.Error("TimeoutError should be a timeout")
	}
	if !IsTimeout(fmt.Errorf("read tcp 1.2.3.4:5: i/o timeout")) {
		t.Error("i/o timeout suffix should be a timeout")
	}
	if IsTimeout(io.EOF) || IsTimeout(nil) {
		t.Error("EOF and nil are not timeouts")
	}
}

func TestIsTLS(t *testing.T) {
	if !IsTLS(&TLSError{Op: "handshake", Err: io.EOF}) {
		t.Error("TLSError should be TLS")
	}
	if IsTLS(io.EOF) || IsTLS(nil) {
		t.Error("EOF and nil are not TLS errors")
	}
}

func TestIsClosed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrClosed, true},
		{"net closed", &net.OpError{Op: "read", Err: net.ErrClosed}, true},
		{"string", fmt.Errorf("accept tcp [::]:80: use of closed network connection"), true},
		{"eof", io.EOF, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsClosed(tt.err); got != tt.want {
				t.Errorf("IsClosed() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSentinels(t *testing.T) {
	sentinels := []error{
		ErrClosed, ErrAlreadyClosed, ErrNotConnected,
		ErrAlreadyConnected, ErrTunnelClosed,
	}
	for i, a := range sentinels {
		for j, b := range sentinels {
			if i != j && Is(a, b) {
				t.Errorf("sentinel %d and %d should not match", i, j)
			}
		}
	}
}
