package notify

import (
	"context"
	"fmt"

	"github.com/goje-timer/goje-go/pkg/timer"
)

// Event is a timer transition that hooks react to.
type Event uint8

const (
	// EventModeStart fires when a mode becomes current.
	EventModeStart Event = iota

	// EventModeEnd fires when the current mode is left.
	EventModeEnd

	// EventPause fires when the timer pauses or resumes.
	EventPause
)

func (e Event) String() string {
	switch e {
	case EventModeStart:
		return "mode-start"
	case EventModeEnd:
		return "mode-end"
	case EventPause:
		return "pause"
	default:
		return fmt.Sprintf("Event(%d)", e)
	}
}

// Change is one transition with the snapshot it is reported with: the
// ending snapshot for EventModeEnd, the new one otherwise.
type Change struct {
	Event    Event
	Snapshot timer.Snapshot
}

// Hook reacts to timer transitions.
type Hook interface {
	Handle(ctx context.Context, c Change) error
}

// Changes returns the transitions from prev to cur in the order they
// happened.
func Changes(prev, cur timer.Snapshot) []Change {
	var out []Change
	if cur.Mode != prev.Mode {
		out = append(out,
			Change{Event: EventModeEnd, Snapshot: prev},
			Change{Event: EventModeStart, Snapshot: cur},
		)
	}
	if cur.Paused != prev.Paused {
		out = append(out, Change{Event: EventPause, Snapshot: cur})
	}
	return out
}
