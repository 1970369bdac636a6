// Package cli implements the goje-client commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"github.com/goje-timer/goje-go/internal/config"
	"github.com/goje-timer/goje-go/pkg/api"
	"github.com/goje-timer/goje-go/pkg/log"
	"github.com/goje-timer/goje-go/pkg/stream"
	"github.com/goje-timer/goje-go/pkg/timer"
	"github.com/goje-timer/goje-go/pkg/transport"
)

// flagKeys maps flags to the config keys they override.
var flagKeys = map[string]string{
	"address":      "address",
	"log-level":    "log-level",
	"protocol-log": "protocol-log",
	"insecure":     "tls.insecure",
	"nested":       "nested",
	"ntfy":         "ntfy.address",
	"exec-start":   "hooks.exec-start",
	"exec-end":     "hooks.exec-end",
	"exec-pause":   "hooks.exec-pause",
	"fifo":         "hooks.fifo",
}

// app carries the flag values and everything set up from them for a single
// invocation.
type app struct {
	configPath  string
	envFiles    []string
	address     string
	logLevel    string
	protocolLog string
	insecure    bool
	nested      bool
	jsonOut     bool
	ntfy        string
	execStart   string
	execEnd     string
	execPause   string
	fifo        string

	cfg      *config.Config
	level    slog.Level
	logger   *slog.Logger
	file     *log.FileLogger
	protocol log.Logger
	http     *http.Client
	handle   *stream.Handle
	closers  []func()
}

func newRootCmd(a *app, version string) *cobra.Command {
	root := &cobra.Command{
		Use:   "goje-client",
		Short: "Control and watch a Goje Pomodoro timer",
		Long: `goje-client talks to a Goje server over HTTP.

The timer is followed over the server's event stream; commands post the
current timer to the server, which applies them and publishes the result.

Settings come from the config file, GOJE_* environment variables (also read
from .env) and flags, later sources winning.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Version:           version,
		PersistentPreRunE: a.setup,
	}

	f := root.PersistentFlags()
	f.StringVarP(&a.configPath, "config", "c", "", "config file (default <user config dir>/goje/config.yaml)")
	f.StringSliceVar(&a.envFiles, "env-file", nil, "load environment variables from these files (default .env)")
	f.StringVarP(&a.address, "address", "a", "", "Goje server address (default localhost:7900)")
	f.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	f.StringVar(&a.protocolLog, "protocol-log", "", "record stream and API traffic to this .glog file")
	f.BoolVar(&a.insecure, "insecure", false, "skip TLS certificate verification")
	f.BoolVar(&a.nested, "nested", false, "post timers in the nested Config/State layout")
	f.BoolVar(&a.jsonOut, "json", false, "print timers as JSON")

	root.AddCommand(newWatchCmd(a), newGetCmd(a), newShellCmd(a), newConfigCmd(a))
	for _, act := range actions {
		root.AddCommand(newActionCmd(a, act))
	}
	return root
}

// Execute runs the command line.
func Execute(version string) error {
	a := &app{}
	defer a.close()

	if err := newRootCmd(a, version).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return err
	}
	return nil
}

// setup loads the configuration and builds the shared clients.
func (a *app) setup(cmd *cobra.Command, _ []string) error {
	if err := config.LoadEnvFiles(a.envFiles...); err != nil {
		return err
	}

	values := map[string]any{
		"address":      a.address,
		"log-level":    a.logLevel,
		"protocol-log": a.protocolLog,
		"insecure":     a.insecure,
		"nested":       a.nested,
		"ntfy":         a.ntfy,
		"exec-start":   a.execStart,
		"exec-end":     a.execEnd,
		"exec-pause":   a.execPause,
		"fifo":         a.fifo,
	}
	overrides := make(map[string]any)
	for flag, key := range flagKeys {
		if f := cmd.Flags().Lookup(flag); f != nil && f.Changed {
			overrides[key] = values[flag]
		}
	}

	cfg, used, err := config.Load(config.Options{Path: a.configPath, Overrides: overrides})
	if err != nil {
		return err
	}
	a.cfg = cfg

	a.level, _ = config.ParseLogLevel(cfg.LogLevel)
	if cfg.ProtocolLog != "" {
		fl, err := log.NewFileLogger(cfg.ProtocolLog)
		if err != nil {
			return fmt.Errorf("protocol log: %w", err)
		}
		a.file = fl
		a.closers = append(a.closers, func() {
			if err := fl.Close(); err != nil {
				a.logger.Error("failed to close protocol log", "path", fl.Path(), "err", err)
			}
		})
	}
	a.initLoggers(cmd.ErrOrStderr())
	slog.SetDefault(a.logger)
	if used != "" {
		a.logger.Debug("loaded config", "path", used)
	}

	a.http, err = transport.NewHTTPClient(cfg.TransportTLS())
	return err
}

// initLoggers sends log output to w. At debug level protocol events are
// logged there as well as to the protocol log file.
func (a *app) initLoggers(w io.Writer) {
	a.logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: a.level}))

	var loggers []log.Logger
	if a.file != nil {
		loggers = append(loggers, a.file)
	}
	if a.level <= slog.LevelDebug {
		loggers = append(loggers, log.NewSlogAdapter(a.logger))
	}
	switch len(loggers) {
	case 0:
		a.protocol = nil
	case 1:
		a.protocol = loggers[0]
	default:
		a.protocol = log.NewMultiLogger(loggers...)
	}
}

// close releases everything opened by setup and the commands, newest first.
func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
	a.handle = nil
	a.file = nil
}

func (a *app) client() (*api.Client, error) {
	c, err := api.NewClient(api.Config{
		Address:        a.cfg.Address,
		HTTPClient:     a.http,
		Nested:         a.cfg.Nested,
		Logger:         a.logger,
		ProtocolLogger: a.protocol,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, func() { c.Close() })
	return c, nil
}

// openStream subscribes to the server's event stream. The subscription is
// shared by every caller until it is closed.
func (a *app) openStream() (*stream.Handle, error) {
	if a.handle != nil {
		select {
		case <-a.handle.Done():
		default:
			return a.handle, nil
		}
	}

	base, _, err := transport.NormalizeAddress(a.cfg.Address)
	if err != nil {
		return nil, err
	}
	es := transport.NewEventSource(transport.EventSourceConfig{
		URL:            transport.Endpoint(base, transport.PathStream),
		Client:         a.http,
		Backoff:        a.cfg.Backoff(),
		IdleTimeout:    a.cfg.Reconnect.IdleTimeout,
		Logger:         a.logger,
		ProtocolLogger: a.protocol,
	})
	ss := stream.New(es,
		stream.WithEvents(a.cfg.Events...),
		stream.WithLogger(a.logger),
		stream.WithProtocolLogger(a.protocol),
	)
	a.closers = append(a.closers, ss.Close)
	h, err := ss.Open()
	if err != nil {
		return nil, err
	}
	a.handle = h
	return h, nil
}

// current returns the timer a command starts from. Servers that do not
// answer GET /api/timer still publish the timer on the stream.
func (a *app) current(ctx context.Context, c *api.Client) (timer.Snapshot, error) {
	s, err := c.Get(ctx)
	var se *transport.StatusError
	switch {
	case err == nil && s != nil:
		return *s, nil
	case err != nil && !errors.As(err, &se):
		return timer.Snapshot{}, fmt.Errorf("%s: %w", stream.OfflineMessage, err)
	}

	a.logger.Debug("timer not served, waiting for the stream", "err", err)
	h, err := a.openStream()
	if err != nil {
		return timer.Snapshot{}, err
	}
	ctx, cancel := context.WithTimeout(ctx, transport.DefaultRequestTimeout)
	defer cancel()
	snap, err := h.WaitConnected(ctx)
	if err != nil {
		return timer.Snapshot{}, fmt.Errorf("%s: %w", stream.OfflineMessage, err)
	}
	return snap, nil
}

// printSnapshot writes s as a status line, or as JSON with --json.
func (a *app) printSnapshot(w io.Writer, s timer.Snapshot) error {
	if a.jsonOut {
		data, err := s.MarshalJSON()
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, string(data))
		return err
	}
	_, err := fmt.Fprintln(w, snapshotLine(s))
	return err
}
