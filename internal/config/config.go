// Package config loads the goje-client configuration.
//
// Values are layered, later sources winning: built-in defaults, the YAML
// config file, GOJE_* environment variables (optionally seeded from a .env
// file) and explicit overrides such as command line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/goje-timer/goje-go/pkg/connection"
	"github.com/goje-timer/goje-go/pkg/stream"
	"github.com/goje-timer/goje-go/pkg/transport"
)

// Config is the full client configuration.
type Config struct {
	// Address of the Goje HTTP server.
	Address string `yaml:"address" mapstructure:"address"`

	// Events are the stream event names carrying snapshots.
	Events []string `yaml:"events" mapstructure:"events"`

	// Nested posts snapshots in the {"Config","State"} layout.
	Nested bool `yaml:"nested" mapstructure:"nested"`

	TLS       TLSConfig       `yaml:"tls" mapstructure:"tls"`
	Ntfy      NtfyConfig      `yaml:"ntfy" mapstructure:"ntfy"`
	Hooks     HooksConfig     `yaml:"hooks" mapstructure:"hooks"`
	Reconnect ReconnectConfig `yaml:"reconnect" mapstructure:"reconnect"`

	// ProtocolLog is a .glog file receiving stream and API traffic.
	ProtocolLog string `yaml:"protocol-log" mapstructure:"protocol-log"`

	// LogLevel is one of debug, info, warn or error.
	LogLevel string `yaml:"log-level" mapstructure:"log-level"`
}

// TLSConfig holds the https client settings.
type TLSConfig struct {
	CAFile     string `yaml:"ca-file" mapstructure:"ca-file"`
	CertFile   string `yaml:"cert-file" mapstructure:"cert-file"`
	KeyFile    string `yaml:"key-file" mapstructure:"key-file"`
	ServerName string `yaml:"server-name" mapstructure:"server-name"`
	Insecure   bool   `yaml:"insecure" mapstructure:"insecure"`
}

// NtfyConfig enables push notifications when Address is set.
type NtfyConfig struct {
	Address string `yaml:"address" mapstructure:"address"`

	// Auth is "user:password" for basic auth.
	Auth string `yaml:"auth" mapstructure:"auth"`
}

// HooksConfig runs local commands and feeds a fifo from timer changes.
type HooksConfig struct {
	// ExecStart, ExecEnd and ExecPause are run with the timer JSON as their
	// only argument when a mode starts, a mode ends or the timer (un)pauses.
	ExecStart string `yaml:"exec-start" mapstructure:"exec-start"`
	ExecEnd   string `yaml:"exec-end" mapstructure:"exec-end"`
	ExecPause string `yaml:"exec-pause" mapstructure:"exec-pause"`

	// Fifo is a named pipe receiving one JSON line per timer change.
	Fifo string `yaml:"fifo" mapstructure:"fifo"`
}

// Enabled reports whether any exec hook is set.
func (h HooksConfig) Enabled() bool {
	return h.ExecStart != "" || h.ExecEnd != "" || h.ExecPause != ""
}

// ReconnectConfig tunes the event stream reconnection.
type ReconnectConfig struct {
	Initial time.Duration `yaml:"initial" mapstructure:"initial"`
	Max     time.Duration `yaml:"max" mapstructure:"max"`

	// IdleTimeout reconnects a silent stream. Zero disables it.
	IdleTimeout time.Duration `yaml:"idle-timeout" mapstructure:"idle-timeout"`
}

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return &Config{
		Address: "localhost:7900",
		Events:  append([]string(nil), stream.DefaultEvents...),
		Reconnect: ReconnectConfig{
			Initial: connection.InitialBackoff,
			Max:     connection.MaxBackoff,
		},
		LogLevel: "error",
	}
}

// Validate checks values that cannot be used as given.
func (c *Config) Validate() error {
	var errs []error
	if _, _, err := transport.NormalizeAddress(c.Address); err != nil {
		errs = append(errs, fmt.Errorf("address: %w", err))
	}
	if len(c.Events) == 0 {
		errs = append(errs, errors.New("events: at least one event name is required"))
	}
	if _, err := ParseLogLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}
	if c.Reconnect.Initial < 0 || c.Reconnect.Max < 0 || c.Reconnect.IdleTimeout < 0 {
		errs = append(errs, errors.New("reconnect: durations must not be negative"))
	}
	if (c.TLS.CertFile == "") != (c.TLS.KeyFile == "") {
		errs = append(errs, errors.New("tls: cert-file and key-file must be set together"))
	}
	return errors.Join(errs...)
}

// TransportTLS converts the TLS section.
func (c *Config) TransportTLS() transport.TLSConfig {
	return transport.TLSConfig{
		CAFile:             c.TLS.CAFile,
		CertFile:           c.TLS.CertFile,
		KeyFile:            c.TLS.KeyFile,
		ServerName:         c.TLS.ServerName,
		InsecureSkipVerify: c.TLS.Insecure,
	}
}

// Backoff converts the reconnect section.
func (c *Config) Backoff() connection.BackoffConfig {
	return connection.BackoffConfig{
		Initial: c.Reconnect.Initial,
		Max:     c.Reconnect.Max,
		Jitter:  connection.JitterFactor,
	}
}

// ParseLogLevel maps a level name to a slog level. An empty name is error,
// the quietest level.
func ParseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error", "":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf(`log-level must be one of "debug", "info", "warn" or "error", got %q`, s)
	}
}
