package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/goje-timer/goje-go/pkg/api"
	"github.com/goje-timer/goje-go/pkg/stream"
)

var errNotConnected = errors.New("not connected to the timer")

func newShellCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Interactive shell with a live status prompt",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runShell(cmd.Context())
		},
	}
}

// shell executes command lines against the timer the stream last published.
type shell struct {
	app    *app
	client *api.Client
	handle *stream.Handle
	out    io.Writer
}

func (a *app) runShell(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt(stream.Pending()),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	// Route logs through readline so they do not tear the prompt.
	a.initLoggers(rl.Stderr())

	c, err := a.client()
	if err != nil {
		return err
	}
	h, err := a.openStream()
	if err != nil {
		return err
	}
	sh := &shell{app: a, client: c, handle: h, out: rl.Stdout()}

	updates, cancel := h.Subscribe(1)
	defer cancel()
	rl.SetPrompt(prompt(h.State()))
	go func() {
		for st := range updates {
			rl.SetPrompt(prompt(st))
			rl.Refresh()
		}
	}()

	sh.printHelp()
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		line, err := rl.Readline()
		if err != nil {
			if err == readline.ErrInterrupt {
				continue
			}
			return nil
		}
		if quit := sh.exec(ctx, line); quit {
			return nil
		}
	}
}

// exec runs one command line and reports whether the shell should exit.
// Errors are printed, not returned.
func (sh *shell) exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return false
	}
	name := strings.ToLower(parts[0])
	args := parts[1:]

	switch name {
	case "help", "?":
		sh.printHelp()

	case "status", "s":
		fmt.Fprintln(sh.out, statusLine(sh.handle.State()))

	case "get":
		s, err := sh.app.current(ctx, sh.client)
		if err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
			return false
		}
		if err := sh.app.printSnapshot(sh.out, s); err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
		}

	case "quit", "exit", "q":
		fmt.Fprintln(sh.out, "Exiting...")
		return true

	default:
		act, ok := findAction(name)
		if !ok {
			fmt.Fprintf(sh.out, "Unknown command: %s (type 'help' for commands)\n", name)
			return false
		}
		if err := sh.run(ctx, act, args); err != nil {
			fmt.Fprintf(sh.out, "Error: %v\n", err)
		}
	}
	return false
}

// run applies act to the last published timer. The new timer shows up in
// the prompt once the server publishes it.
func (sh *shell) run(ctx context.Context, act action, args []string) error {
	if err := act.checkArgs(args); err != nil {
		return err
	}
	cur, ok := sh.handle.State().Snapshot()
	if !ok {
		return errNotConnected
	}
	_, err := act.run(ctx, sh.client, cur, args)
	return err
}

func (sh *shell) printHelp() {
	var b strings.Builder
	b.WriteString("\nGoje Commands:\n")
	for _, act := range actions {
		fmt.Fprintf(&b, "  %-44s - %s\n", act.usage(), act.short)
	}
	fmt.Fprintf(&b, "  %-44s - %s\n", "status", "Show the timer")
	fmt.Fprintf(&b, "  %-44s - %s\n", "get", "Fetch the timer from the server")
	fmt.Fprintf(&b, "  %-44s - %s\n", "help", "Show this help")
	fmt.Fprintf(&b, "  %-44s - %s\n", "quit", "Leave the shell")
	b.WriteString("\nSettings for set: pomodoro, short-break, long-break, sessions, paused, tick.\n")
	fmt.Fprintln(sh.out, b.String())
}
