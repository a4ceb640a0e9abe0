// Package cmd wires up the CLI flags and dispatches to the securesock
// core.
package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	flag "github.com/spf13/pflag"

	"securesock/config"
	"securesock/internal/core"
	sserr "securesock/internal/errors"
	"securesock/internal/logger"
	"securesock/internal/metrics"
)

// version is overridable at link time:
//
//	go build -ldflags "-X securesock/cmd.version=2.0.0"
var version = "1.0.0" //nolint:gochecknoglobals

// cliFlags holds the switches that are not part of config.Config.
type cliFlags struct {
	configPath  string
	timeoutSec  int
	dryRun      bool
	showVersion bool
	showHelp    bool
}

// Execute parses args and runs the appropriate securesock mode.
//
// Settings are layered defaults < config file < SECURESOCK_* environment
// < command-line flags.  The arguments are parsed twice: once to find
// --config, and again on top of the file and environment values so
// that only flags actually given override them.
func Execute(ctx context.Context, args []string) error {
	// ── first pass: locate the config file ───────────────────────
	var pre cliFlags
	fs := newFlagSet(config.Default(), &pre)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if pre.showHelp || len(args) == 0 {
		printUsage(fs)
		return nil
	}
	if pre.showVersion {
		fmt.Printf("securesock %s\n", version)
		return nil
	}

	cfg, cli, err := resolve(args, pre.configPath)
	if err != nil {
		return err
	}
	if cli.dryRun {
		return nil
	}

	// ── build components ─────────────────────────────────────────
	log := logger.New("securesock", logger.WithFile(cfg.LogFile))
	m := metrics.New()
	if cfg.MetricsAddr != "" {
		addr, err := m.Serve(ctx, cfg.MetricsAddr)
		if err != nil {
			return fmt.Errorf("metrics: %w", err)
		}
		log.Info("serving metrics on http://%s/metrics", addr)
	}

	mode, err := core.Build(cfg, log, m)
	if err != nil {
		return err
	}
	return mode.Run(ctx)
}

// ── helpers ──────────────────────────────────────────────────────────

// resolve layers the config file, the environment and args over the
// defaults, then validates the result.
func resolve(args []string, configPath string) (*config.Config, *cliFlags, error) {
	cfg := config.Default()
	if configPath != "" {
		if err := config.LoadFile(configPath, cfg); err != nil {
			return nil, nil, err
		}
	}
	config.LoadFromEnv(cfg)

	cli := &cliFlags{}
	fs := newFlagSet(cfg, cli)
	if err := fs.Parse(args); err != nil {
		return nil, nil, err
	}
	if fs.Changed("timeout") {
		cfg.Timeout = time.Duration(cli.timeoutSec) * time.Second
	}

	if err := parsePositional(cfg, fs.Args()); err != nil {
		return nil, nil, err
	}
	if err := cfg.ApplyTunnelSpec(); err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	return cfg, cli, nil
}

// newFlagSet binds every flag to cfg, using its current values as the
// defaults.
func newFlagSet(cfg *config.Config, cli *cliFlags) *flag.FlagSet {
	fs := flag.NewFlagSet("securesock", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	// ── connection ───────────────────────────────────────────────
	fs.BoolVarP(&cfg.Listen, "listen", "l", cfg.Listen, "Listen mode")
	fs.IntVarP(&cfg.LocalPort, "port", "p", cfg.LocalPort, "Local port number")
	fs.BoolVarP(&cfg.NoDNS, "no-dns", "n", cfg.NoDNS, "Numeric-only, no DNS resolution")
	fs.BoolVarP(&cfg.KeepOpen, "keep-open", "k", cfg.KeepOpen, "Accept multiple connections (with -l)")
	fs.IntVarP(&cli.timeoutSec, "timeout", "w", int(cfg.Timeout/time.Second), "Connect/accept timeout in seconds")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", cfg.IdleTimeout, "Per-operation timeout once connected (0 = none)")
	fs.IntVar(&cfg.BufferLength, "buffer", cfg.BufferLength, "Bytes read per receive")

	// ── TLS ──────────────────────────────────────────────────────
	fs.StringVar(&cfg.KeyFile, "key", cfg.KeyFile, "Server private key (PEM)")
	fs.StringVar(&cfg.CertFile, "cert", cfg.CertFile, "Server certificate (PEM)")
	fs.StringVar(&cfg.CAFile, "ca", cfg.CAFile, "CA bundle for peer verification (with --verify)")
	fs.BoolVar(&cfg.Verify, "verify", cfg.Verify, "Verify the peer certificate")

	// ── server ───────────────────────────────────────────────────
	fs.IntVar(&cfg.Backlog, "backlog", cfg.Backlog, "Listen queue length")
	fs.IntVar(&cfg.MaxConns, "max-conns", cfg.MaxConns, "Concurrent connection limit (0 = unlimited)")
	fs.StringVar(&cfg.AcceptPolicy, "accept-policy", cfg.AcceptPolicy, `Failed handshake handling: "continue" or "abort"`)
	fs.DurationVar(&cfg.HandshakeTimeout, "handshake-timeout", cfg.HandshakeTimeout, "Server-side TLS handshake timeout")

	// ── execution ────────────────────────────────────────────────
	fs.BoolVar(&cfg.Echo, "echo", cfg.Echo, "Echo received data back (with -l)")
	fs.StringVarP(&cfg.Execute, "exec", "e", cfg.Execute, "Execute program after connect")
	fs.StringVarP(&cfg.Command, "command", "c", cfg.Command, "Execute shell command after connect")

	// ── SSH tunnel ───────────────────────────────────────────────
	fs.StringVarP(&cfg.TunnelSpec, "tunnel", "T", cfg.TunnelSpec, "SSH tunnel via [user@]host[:port]")
	fs.StringVar(&cfg.SSHKeyPath, "ssh-key", cfg.SSHKeyPath, "SSH private key file")
	fs.BoolVar(&cfg.SSHPassword, "ssh-password", cfg.SSHPassword, "Prompt for SSH password")
	fs.BoolVar(&cfg.UseSSHAgent, "ssh-agent", cfg.UseSSHAgent, "Use SSH agent")
	fs.BoolVar(&cfg.StrictHostKey, "strict-hostkey", cfg.StrictHostKey, "Verify SSH host keys")
	fs.StringVar(&cfg.KnownHostsPath, "known-hosts", cfg.KnownHostsPath, "Custom known_hosts path")

	// ── output ───────────────────────────────────────────────────
	fs.StringVar(&cfg.LogFile, "log-file", cfg.LogFile, "Append every log line to this file")
	fs.StringVar(&cfg.MetricsAddr, "metrics-addr", cfg.MetricsAddr, "Serve Prometheus metrics on this address")

	fs.StringVar(&cli.configPath, "config", "", "Load settings from a TOML or YAML file")
	fs.BoolVar(&cli.dryRun, "dry-run", false, "Validate the configuration and exit")
	fs.BoolVar(&cli.showVersion, "version", false, "Print version and exit")
	fs.BoolVarP(&cli.showHelp, "help", "h", false, "Show this help")

	fs.Usage = func() { printUsage(fs) }
	return fs
}

func parsePositional(cfg *config.Config, remaining []string) error {
	if cfg.Listen {
		switch len(remaining) {
		case 0: // securesock -l -p PORT
		case 1:
			cfg.Host = remaining[0]
		default:
			return &sserr.ConfigError{
				Field:   "args",
				Value:   remaining,
				Message: "too many arguments for listen mode",
				Hint:    "securesock -l -p <port> [bind-address]",
			}
		}
		return nil
	}

	// Connect mode: host port
	switch len(remaining) {
	case 0:
		return nil // Validate reports the missing host
	case 1:
		cfg.Host = remaining[0]
		return nil
	case 2:
	default:
		return &sserr.ConfigError{Field: "args", Value: remaining, Message: "too many arguments for connect mode"}
	}
	cfg.Host = remaining[0]
	port, err := config.ParsePort(remaining[1])
	if err != nil {
		return &sserr.ConfigError{Field: "port", Value: remaining[1], Message: "invalid destination port", Err: err}
	}
	cfg.Port = port
	return nil
}

func printUsage(fs *flag.FlagSet) {
	fmt.Fprintf(os.Stderr, `securesock - TLS socket tool v%s

Usage:
  securesock [options] <host> <port>            Connect
  securesock -l -p <port> [options] [address]   Listen
  securesock -T user@gateway <host> <port>      Connect through SSH

Options:
`, version)
	fs.PrintDefaults()
	fmt.Fprintf(os.Stderr, `
Examples:
  securesock 127.0.0.1 9443                     TLS connect, no verification
  securesock --verify --ca ca.pem host 9443     Verified connect
  securesock -l -p 9443                         Listen with the dev key pair
  securesock -l -k -p 9443 --echo               Echo server
  securesock -T admin@bastion db-internal 9443  TLS over an SSH tunnel
  echo "hello" | securesock host 9443           Pipe data
`)
}
