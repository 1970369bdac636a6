package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/goje-timer/goje-go/pkg/api"
	"github.com/goje-timer/goje-go/pkg/duration"
	"github.com/goje-timer/goje-go/pkg/timer"
)

// action is a timer change offered both as a command and in the shell.
type action struct {
	name    string
	aliases []string
	args    string
	short   string
	minArgs int
	maxArgs int // -1 for no limit
	run     func(ctx context.Context, c *api.Client, cur timer.Snapshot, args []string) (*timer.Snapshot, error)
}

var actions = []action{
	{name: "pause", aliases: []string{"p"}, args: "[on|off]", short: "Toggle the pause state, or set it", maxArgs: 1, run: runPause},
	{name: "next", aliases: []string{"n"}, short: "Skip to the next mode", run: post((*api.Client).NextMode)},
	{name: "prev", aliases: []string{"previous"}, short: "Go back to the previous mode", run: post((*api.Client).PrevMode)},
	{name: "reset", aliases: []string{"r"}, short: "Restart the current mode", run: post((*api.Client).Reset)},
	{name: "init", short: "Start a fresh cycle", run: runInit},
	{name: "seek", args: "<dur>|+<dur>|-<dur>", short: "Set the remaining time, or move it", minArgs: 1, maxArgs: 1, run: runSeek},
	{name: "mode", args: "<pomodoro|short-break|long-break|0-2>", short: "Switch to a mode", minArgs: 1, maxArgs: 1, run: runMode},
	{name: "sessions", args: "<n>|+<n>|-<n>", short: "Set the finished sessions, or move them", minArgs: 1, maxArgs: 1, run: runSessions},
	{name: "set", args: "<key>=<value>...", short: "Change the cycle settings", minArgs: 1, maxArgs: -1, run: runSet},
}

// findAction looks up an action by name or alias.
func findAction(name string) (action, bool) {
	for _, act := range actions {
		if act.name == name {
			return act, true
		}
		for _, alias := range act.aliases {
			if alias == name {
				return act, true
			}
		}
	}
	return action{}, false
}

func (act action) usage() string {
	if act.args == "" {
		return act.name
	}
	return act.name + " " + act.args
}

func (act action) checkArgs(args []string) error {
	switch {
	case len(args) < act.minArgs, act.maxArgs >= 0 && len(args) > act.maxArgs:
		return fmt.Errorf("usage: %s", act.usage())
	}
	return nil
}

func post(fn func(*api.Client, context.Context, timer.Snapshot) (*timer.Snapshot, error)) func(context.Context, *api.Client, timer.Snapshot, []string) (*timer.Snapshot, error) {
	return func(ctx context.Context, c *api.Client, cur timer.Snapshot, _ []string) (*timer.Snapshot, error) {
		return fn(c, ctx, cur)
	}
}

func runPause(ctx context.Context, c *api.Client, cur timer.Snapshot, args []string) (*timer.Snapshot, error) {
	if len(args) == 0 {
		return c.Pause(ctx, cur)
	}
	want, err := parseOnOff(args[0])
	if err != nil {
		return nil, err
	}
	if want == cur.Paused {
		return &cur, nil
	}
	return c.Pause(ctx, cur)
}

func runInit(ctx context.Context, c *api.Client, cur timer.Snapshot, _ []string) (*timer.Snapshot, error) {
	return c.Set(ctx, cur.Reinitialized())
}

func runSeek(ctx context.Context, c *api.Client, cur timer.Snapshot, args []string) (*timer.Snapshot, error) {
	next, err := seekTarget(cur, args[0])
	if err != nil {
		return nil, err
	}
	return c.Set(ctx, next)
}

func runMode(ctx context.Context, c *api.Client, cur timer.Snapshot, args []string) (*timer.Snapshot, error) {
	m, err := timer.ParseMode(args[0])
	if err != nil {
		return nil, err
	}
	return c.Set(ctx, cur.WithMode(m).Restarted())
}

func runSessions(ctx context.Context, c *api.Client, cur timer.Snapshot, args []string) (*timer.Snapshot, error) {
	next, err := sessionsTarget(cur, args[0])
	if err != nil {
		return nil, err
	}
	return c.Set(ctx, next)
}

func runSet(ctx context.Context, c *api.Client, cur timer.Snapshot, args []string) (*timer.Snapshot, error) {
	cfg, err := applySettings(cur.Config, args)
	if err != nil {
		return nil, err
	}
	return c.Set(ctx, cur.WithConfig(cfg))
}

// parseOnOff reads the pause argument.
func parseOnOff(s string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "on", "true", "yes", "1":
		return true, nil
	case "off", "false", "no", "0", "resume":
		return false, nil
	}
	return false, fmt.Errorf("want on or off, got %q", s)
}

// parseDuration reads a duration in compact notation ("25m", "1h30m").
func parseDuration(s string) (time.Duration, error) {
	if strings.TrimSpace(s) == "" {
		return 0, errors.New("duration required")
	}
	d, err := duration.ParseStrict(s)
	if err != nil {
		return 0, fmt.Errorf("duration %q: %w", s, err)
	}
	return d, nil
}

// splitSign strips a leading + or - and returns it as 1 or -1, or 0 when
// the value is absolute.
func splitSign(s string) (int, string) {
	s = strings.TrimSpace(s)
	switch {
	case strings.HasPrefix(s, "+"):
		return 1, s[1:]
	case strings.HasPrefix(s, "-"):
		return -1, s[1:]
	}
	return 0, s
}

// seekTarget applies a seek argument: an absolute remaining time, or one
// relative to the current one when signed. The result never drops below
// zero.
func seekTarget(cur timer.Snapshot, arg string) (timer.Snapshot, error) {
	sign, text := splitSign(arg)
	d, err := parseDuration(text)
	if err != nil {
		return cur, err
	}
	if sign == 0 {
		return cur.WithDuration(d), nil
	}
	return cur.SeekAdd(time.Duration(sign) * d), nil
}

// sessionsTarget applies a sessions argument, absolute or signed.
func sessionsTarget(cur timer.Snapshot, arg string) (timer.Snapshot, error) {
	sign, text := splitSign(arg)
	n, err := strconv.ParseUint(text, 10, 31)
	if err != nil {
		return cur, fmt.Errorf("sessions: %q is not a number", arg)
	}
	if sign == 0 {
		return cur.WithFinishedSessions(uint(n)), nil
	}
	return cur.AddFinishedSessions(sign * int(n)), nil
}

// applySettings applies key=value assignments to c. Keys are a mode name
// (its duration), sessions, paused or tick.
func applySettings(c timer.Config, assignments []string) (timer.Config, error) {
	for _, a := range assignments {
		key, value, ok := strings.Cut(a, "=")
		if !ok {
			return c, fmt.Errorf("%q: want key=value", a)
		}
		key = strings.ToLower(strings.TrimSpace(key))
		value = strings.TrimSpace(value)

		switch key {
		case "sessions":
			n, err := strconv.ParseUint(value, 10, 31)
			if err != nil || n == 0 {
				return c, fmt.Errorf("sessions: %q is not a positive number", value)
			}
			c = c.WithSessions(uint(n))
		case "paused":
			paused, err := parseOnOff(value)
			if err != nil {
				return c, fmt.Errorf("paused: %w", err)
			}
			c = c.WithPaused(paused)
		case "tick":
			d, err := parseDuration(value)
			if err != nil {
				return c, fmt.Errorf("tick: %w", err)
			}
			if d <= 0 {
				return c, errors.New("tick: must be positive")
			}
			c = c.WithDurationPerTick(d)
		default:
			m, err := timer.ParseMode(key)
			if err != nil {
				return c, fmt.Errorf("unknown setting %q", key)
			}
			d, err := parseDuration(value)
			if err != nil {
				return c, fmt.Errorf("%s: %w", m, err)
			}
			c = c.WithDuration(m, d)
		}
	}
	return c, c.Validate()
}
