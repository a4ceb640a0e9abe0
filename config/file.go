package config

// file.go - configuration loading from a TOML or YAML file.

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	sserr "securesock/internal/errors"
)

// fileConfig mirrors the on-disk layout.  Pointers distinguish "unset"
// from an explicit zero or false.
type fileConfig struct {
	Host         string `toml:"host" yaml:"host"`
	Port         int    `toml:"port" yaml:"port"`
	LocalPort    int    `toml:"local_port" yaml:"local_port"`
	Listen       *bool  `toml:"listen" yaml:"listen"`
	KeepOpen     *bool  `toml:"keep_open" yaml:"keep_open"`
	NoDNS        *bool  `toml:"no_dns" yaml:"no_dns"`
	Timeout      string `toml:"timeout" yaml:"timeout"`
	IdleTimeout  string `toml:"idle_timeout" yaml:"idle_timeout"`
	BufferLength int    `toml:"buffer" yaml:"buffer"`
	Echo         *bool  `toml:"echo" yaml:"echo"`
	Execute      string `toml:"exec" yaml:"exec"`
	Command      string `toml:"command" yaml:"command"`

	TLS struct {
		Key    string `toml:"key" yaml:"key"`
		Cert   string `toml:"cert" yaml:"cert"`
		CA     string `toml:"ca" yaml:"ca"`
		Verify *bool  `toml:"verify" yaml:"verify"`
	} `toml:"tls" yaml:"tls"`

	Server struct {
		Backlog          int    `toml:"backlog" yaml:"backlog"`
		MaxConns         int    `toml:"max_conns" yaml:"max_conns"`
		AcceptPolicy     string `toml:"accept_policy" yaml:"accept_policy"`
		HandshakeTimeout string `toml:"handshake_timeout" yaml:"handshake_timeout"`
	} `toml:"server" yaml:"server"`

	Tunnel struct {
		Spec          string `toml:"spec" yaml:"spec"`
		SSHKey        string `toml:"ssh_key" yaml:"ssh_key"`
		Password      *bool  `toml:"password" yaml:"password"`
		Agent         *bool  `toml:"agent" yaml:"agent"`
		StrictHostKey *bool  `toml:"strict_hostkey" yaml:"strict_hostkey"`
		KnownHosts    string `toml:"known_hosts" yaml:"known_hosts"`
	} `toml:"tunnel" yaml:"tunnel"`

	Output struct {
		LogFile     string `toml:"log_file" yaml:"log_file"`
		MetricsAddr string `toml:"metrics_addr" yaml:"metrics_addr"`
	} `toml:"output" yaml:"output"`
}

// LoadFile overlays the settings in path onto cfg.  The format follows
// the extension: .toml, or .yaml/.yml.  Unknown keys are rejected so a
// typo does not silently fall back to a default.
func LoadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return &sserr.ConfigError{Field: "config", Value: path, Message: "cannot read", Err: err}
	}

	var fc fileConfig
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		md, err := toml.Decode(string(data), &fc)
		if err != nil {
			return &sserr.ConfigError{Field: "config", Value: path, Message: "invalid TOML", Err: err}
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return &sserr.ConfigError{
				Field:   "config",
				Value:   path,
				Message: fmt.Sprintf("unknown key %q", undecoded[0].String()),
			}
		}
	case ".yaml", ".yml":
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
			return &sserr.ConfigError{Field: "config", Value: path, Message: "invalid YAML", Err: err}
		}
	default:
		return &sserr.ConfigError{
			Field:   "config",
			Value:   path,
			Message: fmt.Sprintf("unsupported format %q", ext),
			Hint:    "use a .toml, .yaml or .yml file",
		}
	}
	return fc.apply(cfg)
}

func (fc *fileConfig) apply(cfg *Config) error {
	setString(&cfg.Host, fc.Host)
	setInt(&cfg.Port, fc.Port)
	setInt(&cfg.LocalPort, fc.LocalPort)
	setBool(&cfg.Listen, fc.Listen)
	setBool(&cfg.KeepOpen, fc.KeepOpen)
	setBool(&cfg.NoDNS, fc.NoDNS)
	setInt(&cfg.BufferLength, fc.BufferLength)
	setBool(&cfg.Echo, fc.Echo)
	setString(&cfg.Execute, fc.Execute)
	setString(&cfg.Command, fc.Command)

	setString(&cfg.KeyFile, fc.TLS.Key)
	setString(&cfg.CertFile, fc.TLS.Cert)
	setString(&cfg.CAFile, fc.TLS.CA)
	setBool(&cfg.Verify, fc.TLS.Verify)

	setInt(&cfg.Backlog, fc.Server.Backlog)
	setInt(&cfg.MaxConns, fc.Server.MaxConns)
	setString(&cfg.AcceptPolicy, fc.Server.AcceptPolicy)

	setString(&cfg.TunnelSpec, fc.Tunnel.Spec)
	setString(&cfg.SSHKeyPath, fc.Tunnel.SSHKey)
	setBool(&cfg.SSHPassword, fc.Tunnel.Password)
	setBool(&cfg.UseSSHAgent, fc.Tunnel.Agent)
	setBool(&cfg.StrictHostKey, fc.Tunnel.StrictHostKey)
	setString(&cfg.KnownHostsPath, fc.Tunnel.KnownHosts)

	setString(&cfg.LogFile, fc.Output.LogFile)
	setString(&cfg.MetricsAddr, fc.Output.MetricsAddr)

	durations := []struct {
		field string
		raw   string
		dst   *time.Duration
	}{
		{"timeout", fc.Timeout, &cfg.Timeout},
		{"idle-timeout", fc.IdleTimeout, &cfg.IdleTimeout},
		{"handshake-timeout", fc.Server.HandshakeTimeout, &cfg.HandshakeTimeout},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := parseDuration(d.raw)
		if err != nil {
			return &sserr.ConfigError{Field: d.field, Value: d.raw, Message: "invalid duration", Hint: `e.g. "15" or "1m30s"`, Err: err}
		}
		*d.dst = v
	}
	return nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}
