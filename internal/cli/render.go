package cli

import (
	"fmt"
	"math"

	"github.com/goje-timer/goje-go/pkg/stream"
	"github.com/goje-timer/goje-go/pkg/timer"
)

// statusLine renders a stream state for the terminal.
func statusLine(st stream.State) string {
	switch st.Kind() {
	case stream.KindConnected:
		s, _ := st.Snapshot()
		return snapshotLine(s)
	case stream.KindDisconnected:
		return stream.OfflineMessage
	default:
		return "Connecting..."
	}
}

// snapshotLine renders s as "Short Break 04:59  1/4", marking a paused timer.
func snapshotLine(s timer.Snapshot) string {
	line := fmt.Sprintf("%s %s  %s", s.Mode, timer.NewClock(s), s.SessionsText())
	if s.Paused {
		line += "  (paused)"
	}
	return line
}

// prompt is the shell prompt. A connected timer also shows how much of the
// current mode has run.
func prompt(st stream.State) string {
	status := statusLine(st)
	if s, ok := st.Snapshot(); ok {
		status += fmt.Sprintf("  %d%%", int(math.Round(s.Progress()*100)))
	}
	return "[" + status + "] goje> "
}
