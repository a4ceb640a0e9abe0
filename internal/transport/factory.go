package transport

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"

	sserr "securesock/internal/errors"
)

// Role selects which side of the handshake a TLS config is built for.
type Role int

const (
	RoleClient Role = iota
	RoleServer
)

func (r Role) String() string {
	if r == RoleServer {
		return "server"
	}
	return "client"
}

// TrustPolicy states how a peer's certificate is treated.
type TrustPolicy int

const (
	// TrustNone performs no peer verification.  The connection is
	// encrypted but not authenticated: any certificate is accepted by
	// clients and servers do not ask for one.  Choose it only where
	// the network path itself is trusted.
	TrustNone TrustPolicy = iota

	// TrustVerify checks the peer chain against CAFile (or the system
	// roots when empty).  Clients also check the server name; servers
	// verify a client certificate when one is presented.
	TrustVerify
)

func (p TrustPolicy) String() string {
	if p == TrustVerify {
		return "verify"
	}
	return "none"
}

// Factory builds role-specific TLS configurations.  The zero value is
// usable and applies TrustNone.
//
// Protocol versions and cipher suites are left at the crypto/tls
// defaults.
type Factory struct {
	Trust  TrustPolicy
	CAFile string // PEM bundle for TrustVerify (optional)
}

// Config returns a TLS configuration for role.  The server role
// requires keyFile and certFile; the client role uses them as a client
// certificate when both are set.  Unreadable or mismatched files
// produce a *errors.ConfigError.
func (f *Factory) Config(role Role, keyFile, certFile string) (*tls.Config, error) {
	cfg := &tls.Config{}

	switch {
	case keyFile != "" && certFile != "":
		cert, err := tls.LoadX509KeyPair(certFile, keyFile)
		if err != nil {
			return nil, &sserr.ConfigError{
				Field:   "cert",
				Value:   certFile,
				Message: "cannot load key pair",
				Hint:    fmt.Sprintf("check that %s matches %s and both are PEM", keyFile, certFile),
				Err:     err,
			}
		}
		cfg.Certificates = []tls.Certificate{cert}
	case role == RoleServer && keyFile == "":
		return nil, &sserr.ConfigError{Field: "key", Message: "required in server role"}
	case role == RoleServer:
		return nil, &sserr.ConfigError{Field: "cert", Message: "required in server role"}
	}

	var pool *x509.CertPool
	if f.Trust == TrustVerify && f.CAFile != "" {
		var err error
		if pool, err = loadCertPool(f.CAFile); err != nil {
			return nil, err
		}
	}

	switch role {
	case RoleServer:
		if f.Trust == TrustVerify {
			cfg.ClientAuth = tls.VerifyClientCertIfGiven
			cfg.ClientCAs = pool
		} else {
			cfg.ClientAuth = tls.NoClientCert
		}
	default:
		if f.Trust == TrustVerify {
			cfg.RootCAs = pool
		} else {
			cfg.InsecureSkipVerify = true //nolint:gosec // TrustNone is an explicit choice
		}
	}
	return cfg, nil
}

func loadCertPool(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &sserr.ConfigError{Field: "ca", Value: path, Message: "cannot read CA bundle", Err: err}
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, &sserr.ConfigError{Field: "ca", Value: path, Message: "no PEM certificates found"}
	}
	return pool, nil
}
