package cmd

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	sserr "securesock/internal/errors"
)

// TestExecute_Version verifies --version prints a version string.
func TestExecute_Version(t *testing.T) {
	err := Execute(context.Background(), []string{"--version"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_Help verifies --help (and no args) returns without error.
func TestExecute_Help(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {}} {
		name := "no-args"
		if len(args) > 0 {
			name = args[0]
		}
		t.Run(name, func(t *testing.T) {
			err := Execute(context.Background(), args)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

// TestExecute_DryRun verifies --dry-run validates and exits cleanly.
func TestExecute_DryRun(t *testing.T) {
	err := Execute(context.Background(), []string{
		"-l", "-p", "9443", "--dry-run",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// TestExecute_DryRunInvalid verifies --dry-run still catches bad configs.
func TestExecute_DryRunInvalid(t *testing.T) {
	err := Execute(context.Background(), []string{
		"-l", "--dry-run", // listen without -p
	})
	if err == nil {
		t.Fatal("expected validation error")
	}
}

// TestExecute_InvalidFlags verifies unknown flags produce an error.
func TestExecute_InvalidFlags(t *testing.T) {
	err := Execute(context.Background(), []string{"--nonexistent-flag"})
	if err == nil {
		t.Fatal("expected error for unknown flag")
	}
}

// TestExecute_ConflictingFlags verifies -e and -c conflict is caught.
func TestExecute_ConflictingFlags(t *testing.T) {
	err := Execute(context.Background(), []string{
		"-e", "cat", "-c", "ls", "localhost", "9443", "--dry-run",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mutually exclusive")
}

// TestExecute_BadPort verifies a malformed destination port is a
// ConfigError.
func TestExecute_BadPort(t *testing.T) {
	err := Execute(context.Background(), []string{"localhost", "https", "--dry-run"})
	var ce *sserr.ConfigError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, "port", ce.Field)
}

// TestResolve_Positional covers the host/port arguments in both modes.
func TestResolve_Positional(t *testing.T) {
	cfg, _, err := resolve([]string{"example.com", "9443"}, "")
	require.NoError(t, err)
	assert.Equal(t, "example.com", cfg.Host)
	assert.Equal(t, 9443, cfg.Port)

	cfg, _, err = resolve([]string{"-l", "-p", "9443", "127.0.0.1"}, "")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1", cfg.Host)
	assert.Equal(t, 9443, cfg.LocalPort)

	_, _, err = resolve([]string{"-l", "-p", "9443", "a", "b"}, "")
	assert.Error(t, err)
}

// TestResolve_Precedence verifies flags > environment > file > defaults.
func TestResolve_Precedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "securesock.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen = true
local_port = 7000
timeout = "7s"
buffer = 2048

[server]
accept_policy = "abort"
`), 0o600))

	t.Setenv("SECURESOCK_PORT", "8000")
	t.Setenv("SECURESOCK_BUFFER", "4096")

	cfg, _, err := resolve([]string{"-p", "9000"}, path)
	require.NoError(t, err)

	assert.True(t, cfg.Listen, "file")
	assert.Equal(t, 7*time.Second, cfg.Timeout, "file")
	assert.Equal(t, "abort", cfg.AcceptPolicy, "file")
	assert.Equal(t, 4096, cfg.BufferLength, "environment over file")
	assert.Equal(t, 9000, cfg.LocalPort, "flag over environment")
}

// TestResolve_TimeoutSeconds verifies -w is whole seconds and only
// overrides when given.
func TestResolve_TimeoutSeconds(t *testing.T) {
	t.Setenv("SECURESOCK_TIMEOUT", "30")

	cfg, _, err := resolve([]string{"host", "9443"}, "")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, cfg.Timeout)

	cfg, _, err = resolve([]string{"-w", "3", "host", "9443"}, "")
	require.NoError(t, err)
	assert.Equal(t, 3*time.Second, cfg.Timeout)
}

// TestResolve_Tunnel verifies -T is parsed before validation.
func TestResolve_Tunnel(t *testing.T) {
	cfg, _, err := resolve([]string{"-T", "ops@bastion:2222", "db", "9443"}, "")
	require.NoError(t, err)
	assert.True(t, cfg.TunnelEnabled)
	assert.Equal(t, "ops", cfg.TunnelUser)
	assert.Equal(t, "bastion", cfg.TunnelHost)
	assert.Equal(t, 2222, cfg.TunnelPort)
}

// TestResolve_MissingConfigFile verifies a bad --config path fails.
func TestResolve_MissingConfigFile(t *testing.T) {
	_, _, err := resolve([]string{"host", "9443"}, filepath.Join(t.TempDir(), "nope.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
