package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/goje-timer/goje-go/internal/config"
	"github.com/goje-timer/goje-go/pkg/notify"
	"github.com/goje-timer/goje-go/pkg/stream"
)

func newActionCmd(a *app, act action) *cobra.Command {
	args := cobra.RangeArgs(act.minArgs, act.maxArgs)
	if act.maxArgs < 0 {
		args = cobra.MinimumNArgs(act.minArgs)
	}
	return &cobra.Command{
		Use:     act.usage(),
		Aliases: act.aliases,
		Short:   act.short,
		Args:    args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runAction(cmd.Context(), cmd.OutOrStdout(), act, args)
		},
	}
}

// runAction fetches the current timer, applies act and prints the server's
// answer.
func (a *app) runAction(ctx context.Context, w io.Writer, act action, args []string) error {
	c, err := a.client()
	if err != nil {
		return err
	}
	cur, err := a.current(ctx, c)
	if err != nil {
		return err
	}
	res, err := act.run(ctx, c, cur, args)
	if err != nil {
		return fmt.Errorf("%s: %w", act.name, err)
	}
	if res == nil {
		_, err := fmt.Fprintln(w, "ok")
		return err
	}
	return a.printSnapshot(w, *res)
}

func newGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Print the current timer",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.client()
			if err != nil {
				return err
			}
			s, err := a.current(cmd.Context(), c)
			if err != nil {
				return err
			}
			return a.printSnapshot(cmd.OutOrStdout(), s)
		},
	}
}

func newWatchCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow the timer until interrupted",
		Long: `watch prints a line whenever the timer changes.

With an ntfy topic configured (ntfy.address, GOJE_NTFY_ADDRESS or --ntfy)
a notification is sent when a mode starts and when the timer is paused or
resumed.

The exec hooks run a command with the timer as JSON in its first argument
when a mode starts, when a mode ends and when the timer (un)pauses. With
--fifo every timer update is written as a JSON line to a named pipe.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return a.watch(ctx, cmd.OutOrStdout())
		},
	}
	f := cmd.Flags()
	f.StringVar(&a.ntfy, "ntfy", "", "ntfy topic URL for notifications")
	f.StringVar(&a.execStart, "exec-start", "", "command to run when a mode starts")
	f.StringVar(&a.execEnd, "exec-end", "", "command to run when a mode ends")
	f.StringVar(&a.execPause, "exec-pause", "", "command to run when the timer (un)pauses")
	f.StringVarP(&a.fifo, "fifo", "f", "", "write timer updates to a named pipe at this path")
	return cmd
}

func (a *app) watch(ctx context.Context, w io.Writer) error {
	h, err := a.openStream()
	if err != nil {
		return err
	}
	updates, cancel := h.Subscribe(16)
	defer cancel()

	stopNotifier, err := a.startNotifier(ctx, h)
	if err != nil {
		return err
	}
	defer stopNotifier()

	var fifo *notify.Fifo
	if a.cfg.Hooks.Fifo != "" {
		fifo, err = notify.NewFifo(a.cfg.Hooks.Fifo, a.logger)
		if err != nil {
			return err
		}
		defer func() {
			if err := fifo.Close(); err != nil {
				a.logger.Error("failed to remove fifo", "path", fifo.Path(), "err", err)
			}
		}()
		a.logger.Info("writing timer to fifo", "path", fifo.Path())
	}

	var last string
	show := func(st stream.State) error {
		if fifo != nil {
			fifo.Observe(st)
		}
		if a.jsonOut {
			s, ok := st.Snapshot()
			if !ok {
				if st.Kind() == stream.KindDisconnected {
					a.logger.Warn(stream.OfflineMessage)
				}
				return nil
			}
			return a.printSnapshot(w, s)
		}
		line := statusLine(st)
		if line == last {
			return nil
		}
		last = line
		_, err := fmt.Fprintln(w, line)
		return err
	}

	if err := show(h.State()); err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-h.Done():
			return stream.ErrClosed
		case st, ok := <-updates:
			if !ok {
				return nil
			}
			if err := show(st); err != nil {
				return err
			}
		}
	}
}

// startNotifier sends ntfy notifications and runs the exec hooks for the
// transitions published on h. It does nothing when neither is configured.
func (a *app) startNotifier(ctx context.Context, h *stream.Handle) (func(), error) {
	var sink notify.Sink
	if a.cfg.Ntfy.Address != "" {
		ntfy, err := notify.NewNtfy(a.cfg.Ntfy.Address, a.cfg.Ntfy.Auth, a.http)
		if err != nil {
			return nil, fmt.Errorf("ntfy: %w", err)
		}
		a.logger.Info("sending notifications", "url", ntfy.URL())
		sink = ntfy
	}
	hooks := a.cfg.Hooks
	if sink == nil && !hooks.Enabled() {
		return func() {}, nil
	}

	n := notify.NewNotifier(sink, a.logger)
	if hooks.Enabled() {
		n.AddHook(&notify.Exec{Start: hooks.ExecStart, End: hooks.ExecEnd, Pause: hooks.ExecPause})
		a.logger.Info("running hooks", "start", hooks.ExecStart, "end", hooks.ExecEnd, "pause", hooks.ExecPause)
	}

	updates, cancel := h.Subscribe(8)
	n.Observe(ctx, h.State())
	go n.Watch(ctx, updates)
	return cancel, nil
}

func newConfigCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the client configuration and the timer settings",
	}

	var force bool
	initCmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write the default client configuration",
		Args:  cobra.MaximumNArgs(1),
		// The existing configuration may be the reason for running init.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(cmd *cobra.Command, args []string) error {
			path := a.configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				var err error
				if path, err = config.DefaultPath(); err != nil {
					return err
				}
			}
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}
			if err := config.WriteDefault(path); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "wrote", path)
			return nil
		},
	}
	initCmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print the effective client configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			data, err := yaml.Marshal(a.cfg)
			if err != nil {
				return fmt.Errorf("failed to marshal config: %w", err)
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	var (
		durations []string
		sessions  uint
		paused    bool
		tick      string
	)
	set, _ := findAction("set")
	setCmd := &cobra.Command{
		Use:   "set [<key>=<value>...]",
		Short: "Change the timer's cycle settings on the server",
		Example: `  goje-client config set --duration pomodoro=50m --duration short-break=10m
  goje-client config set --sessions 3 --paused=false
  goje-client config set long-break=20m tick=100ms`,
		RunE: func(cmd *cobra.Command, args []string) error {
			assignments := append(append([]string(nil), durations...), args...)
			if cmd.Flags().Changed("sessions") {
				assignments = append(assignments, fmt.Sprintf("sessions=%d", sessions))
			}
			if cmd.Flags().Changed("paused") {
				assignments = append(assignments, fmt.Sprintf("paused=%t", paused))
			}
			if cmd.Flags().Changed("tick") {
				assignments = append(assignments, "tick="+tick)
			}
			if len(assignments) == 0 {
				return errors.New("nothing to set")
			}
			return a.runAction(cmd.Context(), cmd.OutOrStdout(), set, assignments)
		},
	}
	setCmd.Flags().StringArrayVar(&durations, "duration", nil, "mode length as <mode>=<dur>, repeatable")
	setCmd.Flags().UintVar(&sessions, "sessions", 0, "pomodoros per cycle")
	setCmd.Flags().BoolVar(&paused, "paused", false, "start fresh cycles paused")
	setCmd.Flags().StringVar(&tick, "tick", "", "time taken off per server tick")

	cmd.AddCommand(initCmd, showCmd, setCmd)
	return cmd
}
