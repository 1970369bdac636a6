package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"time"
)

// DefaultExecTimeout bounds a single hook command.
const DefaultExecTimeout = 30 * time.Second

// Exec runs a local command per event. The command receives the timer as
// JSON in its only argument.
type Exec struct {
	Start string
	End   string
	Pause string

	// Timeout defaults to DefaultExecTimeout.
	Timeout time.Duration
}

func (e *Exec) command(ev Event) string {
	switch ev {
	case EventModeStart:
		return e.Start
	case EventModeEnd:
		return e.End
	case EventPause:
		return e.Pause
	default:
		return ""
	}
}

// Handle runs the command configured for c.Event and waits for it.
func (e *Exec) Handle(ctx context.Context, c Change) error {
	name := e.command(c.Event)
	if name == "" {
		return nil
	}
	data, err := json.Marshal(c.Snapshot)
	if err != nil {
		return err
	}

	timeout := e.Timeout
	if timeout <= 0 {
		timeout = DefaultExecTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out, err := exec.CommandContext(ctx, name, string(data)).CombinedOutput()
	if err != nil {
		if out = bytes.TrimSpace(out); len(out) > 0 {
			return fmt.Errorf("%s hook %s: %w: %s", c.Event, name, err, out)
		}
		return fmt.Errorf("%s hook %s: %w", c.Event, name, err)
	}
	return nil
}

var _ Hook = (*Exec)(nil)
