package transport

import (
	"bytes"
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"math/big"
	"net"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"securesock/internal/logger"
)

// testPair is a self-signed key pair on disk, valid for 127.0.0.1.
type testPair struct {
	KeyFile  string
	CertFile string
}

func writeTestPair(t *testing.T) testPair {
	t.Helper()

	priv, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	template := &x509.Certificate{
		SerialNumber:          big.NewInt(time.Now().UnixNano()),
		Subject:               pkix.Name{CommonName: "securesock-test"},
		NotBefore:             time.Now().Add(-time.Hour),
		NotAfter:              time.Now().Add(24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature | x509.KeyUsageCertSign,
		ExtKeyUsage:           []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth, x509.ExtKeyUsageClientAuth},
		IPAddresses:           []net.IP{net.ParseIP("127.0.0.1")},
		DNSNames:              []string{"localhost"},
		BasicConstraintsValid: true,
		IsCA:                  true,
	}
	certDER, err := x509.CreateCertificate(rand.Reader, template, template, &priv.PublicKey, priv)
	if err != nil {
		t.Fatalf("create certificate: %v", err)
	}
	keyDER, err := x509.MarshalECPrivateKey(priv)
	if err != nil {
		t.Fatalf("marshal key: %v", err)
	}

	dir := t.TempDir()
	p := testPair{
		KeyFile:  filepath.Join(dir, "server.key"),
		CertFile: filepath.Join(dir, "server.crt"),
	}
	writePEM(t, p.KeyFile, "EC PRIVATE KEY", keyDER)
	writePEM(t, p.CertFile, "CERTIFICATE", certDER)
	return p
}

func writePEM(t *testing.T, path, typ string, der []byte) {
	t.Helper()
	data := pem.EncodeToMemory(&pem.Block{Type: typ, Bytes: der})
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
}

// syncBuffer is a goroutine-safe log sink.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger() (*logger.Logger, *syncBuffer) {
	buf := &syncBuffer{}
	return logger.New("", logger.WithOutput(buf), logger.WithColor(false)), buf
}

// startServer listens on 127.0.0.1 with a fresh key pair.
func startServer(t *testing.T, opts ...Option) (*Server, testPair) {
	t.Helper()
	pair := writeTestPair(t)
	log, _ := testLogger()
	opts = append([]Option{WithLogger(log)}, opts...)

	srv, err := NewServer("127.0.0.1", 0, pair.KeyFile, pair.CertFile, opts...)
	if err != nil {
		t.Fatalf("NewServer: %v", err)
	}
	t.Cleanup(func() { srv.Close() })
	return srv, pair
}

type acceptResult struct {
	client *Client
	err    error
}

// acceptAsync runs one Accept in the background.
func acceptAsync(ctx context.Context, srv *Server) <-chan acceptResult {
	ch := make(chan acceptResult, 1)
	go func() {
		c, err := srv.Accept(ctx)
		ch <- acceptResult{c, err}
	}()
	return ch
}

// connectedPair returns a connected client and its accepted peer.
func connectedPair(t *testing.T, srv *Server, opts ...Option) (client, peer *Client) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	accepted := acceptAsync(ctx, srv)

	log, _ := testLogger()
	opts = append([]Option{WithLogger(log)}, opts...)
	client, err := NewClient("127.0.0.1", srv.Endpoint().Port, opts...)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	if err := client.Connect(ctx); err != nil {
		t.Fatalf("Connect: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	res := <-accepted
	if res.err != nil || res.client == nil {
		t.Fatalf("Accept = (%v, %v)", res.client, res.err)
	}
	t.Cleanup(func() { res.client.Close() })
	return client, res.client
}
