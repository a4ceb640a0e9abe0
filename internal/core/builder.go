package core

import (
	"net"

	"securesock/config"
	"securesock/internal/capability"
	sserr "securesock/internal/errors"
	"securesock/internal/logger"
	"securesock/internal/metrics"
	"securesock/internal/transport"
	"securesock/tunnel"
)

// Build constructs the appropriate Mode from the given configuration.
// m may be nil.
func Build(cfg *config.Config, log *logger.Logger, m *metrics.Collector) (Mode, error) {
	if cfg.Listen {
		return buildListen(cfg, log, m)
	}
	return buildConnect(cfg, log, m)
}

// ── mode builders ────────────────────────────────────────────────────

func buildConnect(cfg *config.Config, log *logger.Logger, m *metrics.Collector) (Mode, error) {
	if cfg.NoDNS && net.ParseIP(cfg.Host) == nil {
		return nil, &sserr.ConfigError{
			Field:   "no-dns",
			Value:   cfg.Host,
			Message: "host is not a numeric IP address",
			Hint:    "drop -n or pass an IP address",
		}
	}

	return &ConnectMode{
		Host:        cfg.Host,
		Port:        cfg.Port,
		Dialer:      buildDialer(cfg, log, m),
		Options:     socketOptions(cfg, log, m),
		IdleTimeout: cfg.IdleTimeout,
		Capability:  buildCapability(cfg),
		Logger:      log,
	}, nil
}

func buildListen(cfg *config.Config, log *logger.Logger, m *metrics.Collector) (Mode, error) {
	opts := append(socketOptions(cfg, log, m),
		transport.WithBacklog(cfg.Backlog),
		transport.WithMaxConns(cfg.MaxConns),
		transport.WithAcceptPolicy(cfg.Policy()),
		transport.WithHandshakeTimeout(cfg.HandshakeTimeout),
	)

	return &ListenMode{
		Host:        cfg.Host,
		Port:        cfg.LocalPort,
		KeyFile:     cfg.KeyFile,
		CertFile:    cfg.CertFile,
		Options:     opts,
		KeepOpen:    cfg.KeepOpen,
		IdleTimeout: cfg.IdleTimeout,
		Capability:  buildCapability(cfg),
		Logger:      log,
	}, nil
}

// ── shared helpers ───────────────────────────────────────────────────

// socketOptions carries the settings common to clients and servers.
func socketOptions(cfg *config.Config, log *logger.Logger, m *metrics.Collector) []transport.Option {
	return []transport.Option{
		transport.WithFactory(&transport.Factory{Trust: cfg.Trust(), CAFile: cfg.CAFile}),
		transport.WithLogger(log),
		transport.WithMetrics(m),
		transport.WithTimeout(cfg.Timeout),
		transport.WithBufferLength(cfg.BufferLength),
	}
}

// buildDialer creates the right transport.Dialer for the given config.
func buildDialer(cfg *config.Config, log *logger.Logger, m *metrics.Collector) transport.Dialer {
	if cfg.TunnelEnabled {
		return transport.NewSSHDialer(&tunnel.SSHConfig{
			User:          cfg.TunnelUser,
			Host:          cfg.TunnelHost,
			Port:          cfg.TunnelPort,
			KeyPath:       cfg.SSHKeyPath,
			PromptPass:    cfg.SSHPassword,
			UseAgent:      cfg.UseSSHAgent,
			StrictHostKey: cfg.StrictHostKey,
			KnownHosts:    cfg.KnownHostsPath,
			ConnTimeout:   cfg.Timeout,
		}, log, m)
	}

	return &transport.TCPDialer{
		Timeout:   cfg.Timeout,
		LocalPort: cfg.LocalPort,
		NoDNS:     cfg.NoDNS,
	}
}

// buildCapability selects the per-connection behaviour.
func buildCapability(cfg *config.Config) capability.Capability {
	switch {
	case cfg.Execute != "" || cfg.Command != "":
		return &capability.Exec{Program: cfg.Execute, Command: cfg.Command}
	case cfg.Echo:
		return &capability.Echo{BufferLength: cfg.BufferLength}
	}
	return &capability.Relay{}
}
