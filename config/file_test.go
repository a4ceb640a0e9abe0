package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	sserr "securesock/internal/errors"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

// wantServer is what both the TOML and YAML fixtures describe.
func wantServer() *Config {
	cfg := Default()
	cfg.Listen = true
	cfg.LocalPort = 9443
	cfg.KeepOpen = true
	cfg.Echo = true
	cfg.Timeout = 30 * time.Second
	cfg.IdleTimeout = 5 * time.Minute
	cfg.KeyFile = "/etc/securesock/server.key"
	cfg.CertFile = "/etc/securesock/server.crt"
	cfg.CAFile = "/etc/securesock/ca.pem"
	cfg.Verify = true
	cfg.Backlog = 16
	cfg.MaxConns = 64
	cfg.AcceptPolicy = "abort"
	cfg.HandshakeTimeout = 3 * time.Second
	cfg.LogFile = "/var/log/securesock.log"
	cfg.MetricsAddr = "127.0.0.1:9100"
	return cfg
}

const serverTOML = `
listen = true
local_port = 9443
keep_open = true
echo = true
timeout = "30"
idle_timeout = "5m"

[tls]
key = "/etc/securesock/server.key"
cert = "/etc/securesock/server.crt"
ca = "/etc/securesock/ca.pem"
verify = true

[server]
backlog = 16
max_conns = 64
accept_policy = "abort"
handshake_timeout = "3s"

[output]
log_file = "/var/log/securesock.log"
metrics_addr = "127.0.0.1:9100"
`

const serverYAML = `
listen: true
local_port: 9443
keep_open: true
echo: true
timeout: "30"
idle_timeout: 5m
tls:
  key: /etc/securesock/server.key
  cert: /etc/securesock/server.crt
  ca: /etc/securesock/ca.pem
  verify: true
server:
  backlog: 16
  max_conns: 64
  accept_policy: abort
  handshake_timeout: 3s
output:
  log_file: /var/log/securesock.log
  metrics_addr: 127.0.0.1:9100
`

func TestLoadFile_Formats(t *testing.T) {
	tests := []struct {
		name string
		file string
		body string
	}{
		{"toml", "securesock.toml", serverTOML},
		{"yaml", "securesock.yaml", serverYAML},
		{"yml", "securesock.yml", serverYAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			if err := LoadFile(writeConfig(t, tt.file, tt.body), cfg); err != nil {
				t.Fatalf("LoadFile: %v", err)
			}
			if diff := cmp.Diff(wantServer(), cfg); diff != "" {
				t.Errorf("config mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFile_Tunnel(t *testing.T) {
	body := `
host = "db.internal"
port = 5432

[tunnel]
spec = "ops@bastion:2222"
ssh_key = "~/.ssh/id_ed25519"
agent = true
strict_hostkey = true
`
	cfg := Default()
	if err := LoadFile(writeConfig(t, "client.toml", body), cfg); err != nil {
		t.Fatal(err)
	}
	want := Default()
	want.Host = "db.internal"
	want.Port = 5432
	want.TunnelSpec = "ops@bastion:2222"
	want.SSHKeyPath = "~/.ssh/id_ed25519"
	want.UseSSHAgent = true
	want.StrictHostKey = true
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFile_KeepsUnsetValues(t *testing.T) {
	cfg := Default()
	cfg.Verify = true
	cfg.Host = "from-defaults"
	if err := LoadFile(writeConfig(t, "partial.yaml", "port: 9443\n"), cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Host != "from-defaults" || !cfg.Verify {
		t.Errorf("unset keys overwrote values: host=%q verify=%v", cfg.Host, cfg.Verify)
	}

	// An explicit false does override.
	if err := LoadFile(writeConfig(t, "off.yaml", "tls:\n  verify: false\n"), cfg); err != nil {
		t.Fatal(err)
	}
	if cfg.Verify {
		t.Error("explicit verify: false was ignored")
	}
}

func TestLoadFile_EmptyYAML(t *testing.T) {
	cfg := Default()
	if err := LoadFile(writeConfig(t, "empty.yaml", ""), cfg); err != nil {
		t.Fatalf("empty YAML: %v", err)
	}
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("empty file changed config:\n%s", diff)
	}
}

func TestLoadFile_Errors(t *testing.T) {
	tests := []struct {
		name      string
		file      string
		body      string
		wantField string
	}{
		{"unknown toml key", "bad.toml", "lisen = true\n", "config"},
		{"unknown yaml key", "bad.yaml", "lisen: true\n", "config"},
		{"broken toml", "broken.toml", "listen = \n", "config"},
		{"broken yaml", "broken.yaml", "listen: [\n", "config"},
		{"unsupported ext", "config.json", "{}", "config"},
		{"bad duration", "dur.toml", "timeout = \"soon\"\n", "timeout"},
		{"bad handshake duration", "hs.yaml", "server:\n  handshake_timeout: later\n", "handshake-timeout"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := LoadFile(writeConfig(t, tt.file, tt.body), Default())
			var ce *sserr.ConfigError
			if !sserr.As(err, &ce) {
				t.Fatalf("LoadFile error = %v, want ConfigError", err)
			}
			if ce.Field != tt.wantField {
				t.Errorf("Field = %q, want %q", ce.Field, tt.wantField)
			}
		})
	}
}

func TestLoadFile_Missing(t *testing.T) {
	err := LoadFile(filepath.Join(t.TempDir(), "nope.toml"), Default())
	if !sserr.Is(err, os.ErrNotExist) {
		t.Errorf("missing file error = %v, want ErrNotExist", err)
	}
}
