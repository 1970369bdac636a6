package stream

import (
	"fmt"

	"github.com/goje-timer/goje-go/pkg/timer"
)

// OfflineMessage is shown while the server is unreachable.
const OfflineMessage = "Goje isn't running"

// Kind tags a State.
type Kind uint8

const (
	// KindPending means no event has arrived yet. Nothing is rendered.
	KindPending Kind = iota

	// KindDisconnected means the last transport report was an error.
	KindDisconnected

	// KindConnected means a snapshot is available.
	KindConnected
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindPending:
		return "PENDING"
	case KindDisconnected:
		return "DISCONNECTED"
	case KindConnected:
		return "CONNECTED"
	default:
		return "UNKNOWN"
	}
}

// State is the client's connection state. Only Connected states carry a
// snapshot. The zero value is Pending.
type State struct {
	kind     Kind
	snapshot timer.Snapshot
}

// Pending returns the state before the first event.
func Pending() State {
	return State{kind: KindPending}
}

// Disconnected returns the state after a transport error.
func Disconnected() State {
	return State{kind: KindDisconnected}
}

// Connected returns the state carrying s.
func Connected(s timer.Snapshot) State {
	return State{kind: KindConnected, snapshot: s}
}

// Kind returns the tag.
func (s State) Kind() Kind {
	return s.kind
}

// Snapshot returns the snapshot of a Connected state.
func (s State) Snapshot() (timer.Snapshot, bool) {
	if s.kind != KindConnected {
		return timer.Snapshot{}, false
	}
	return s.snapshot, true
}

// IsConnected reports whether s is Connected.
func (s State) IsConnected() bool {
	return s.kind == KindConnected
}

// String renders the state for logs.
func (s State) String() string {
	if s.kind != KindConnected {
		return s.kind.String()
	}
	return fmt.Sprintf("CONNECTED(%s %s)", s.snapshot.Mode, s.snapshot.Duration)
}
