package config

// loader.go - configuration loading from environment variables.
//
// Precedence order (highest wins):
//   1. CLI flags  (handled by cmd/root.go)
//   2. Environment variables  (this file)
//   3. Config file  (file.go)
//   4. Defaults   (defaults.go)

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ── Environment variable mapping ─────────────────────────────────────
//
// Every supported env var uses the SECURESOCK_ prefix.  Boolean values
// accept "1", "true", "yes" (case-insensitive).  Durations accept
// either whole seconds ("15") or Go syntax ("1m30s").

// LoadFromEnv overlays environment variables onto cfg.  Only non-empty,
// well-formed env vars override the existing value.  Call it BEFORE
// CLI flag parsing so that flags take precedence.
func LoadFromEnv(cfg *Config) {
	if v := os.Getenv("SECURESOCK_HOST"); v != "" {
		cfg.Host = v
	}
	if v := envInt("SECURESOCK_PORT"); v > 0 {
		cfg.LocalPort = v
	}
	if envBool("SECURESOCK_LISTEN") {
		cfg.Listen = true
	}
	if envBool("SECURESOCK_NO_DNS") {
		cfg.NoDNS = true
	}
	if envBool("SECURESOCK_KEEP_OPEN") {
		cfg.KeepOpen = true
	}
	if v := envDuration("SECURESOCK_TIMEOUT"); v > 0 {
		cfg.Timeout = v
	}
	if v := envDuration("SECURESOCK_IDLE_TIMEOUT"); v > 0 {
		cfg.IdleTimeout = v
	}
	if v := envInt("SECURESOCK_BUFFER"); v > 0 {
		cfg.BufferLength = v
	}

	// TLS
	if v := os.Getenv("SECURESOCK_KEY"); v != "" {
		cfg.KeyFile = v
	}
	if v := os.Getenv("SECURESOCK_CERT"); v != "" {
		cfg.CertFile = v
	}
	if v := os.Getenv("SECURESOCK_CA"); v != "" {
		cfg.CAFile = v
	}
	if envBool("SECURESOCK_VERIFY") {
		cfg.Verify = true
	}

	// Server
	if v := envInt("SECURESOCK_BACKLOG"); v > 0 {
		cfg.Backlog = v
	}
	if v := envInt("SECURESOCK_MAX_CONNS"); v > 0 {
		cfg.MaxConns = v
	}
	if v := os.Getenv("SECURESOCK_ACCEPT_POLICY"); v != "" {
		cfg.AcceptPolicy = v
	}
	if v := envDuration("SECURESOCK_HANDSHAKE_TIMEOUT"); v > 0 {
		cfg.HandshakeTimeout = v
	}

	// SSH tunnel
	if v := os.Getenv("SECURESOCK_TUNNEL"); v != "" {
		cfg.TunnelSpec = v
	}
	if v := os.Getenv("SECURESOCK_SSH_KEY"); v != "" {
		cfg.SSHKeyPath = v
	}
	if envBool("SECURESOCK_SSH_PASSWORD") {
		cfg.SSHPassword = true
	}
	if envBool("SECURESOCK_SSH_AGENT") {
		cfg.UseSSHAgent = true
	}
	if envBool("SECURESOCK_STRICT_HOSTKEY") {
		cfg.StrictHostKey = true
	}
	if v := os.Getenv("SECURESOCK_KNOWN_HOSTS"); v != "" {
		cfg.KnownHostsPath = v
	}

	// Output
	if v := os.Getenv("SECURESOCK_LOG_FILE"); v != "" {
		cfg.LogFile = v
	}
	if v := os.Getenv("SECURESOCK_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
}

// ── helpers ──────────────────────────────────────────────────────────

func envInt(key string) int {
	v := os.Getenv(key)
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}

func envBool(key string) bool {
	v := strings.ToLower(os.Getenv(key))
	return v == "1" || v == "true" || v == "yes"
}

func envDuration(key string) time.Duration {
	d, _ := parseDuration(os.Getenv(key))
	return d
}

// parseDuration accepts whole seconds or time.ParseDuration syntax.
func parseDuration(v string) (time.Duration, error) {
	if v == "" {
		return 0, nil
	}
	if sec, err := strconv.Atoi(v); err == nil {
		return secondsDuration(sec), nil
	}
	return time.ParseDuration(v)
}

func secondsDuration(sec int) time.Duration {
	return time.Duration(sec) * time.Second
}
