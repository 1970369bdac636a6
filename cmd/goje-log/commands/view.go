// Package commands implements the goje-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/goje-timer/goje-go/pkg/log"
	"github.com/goje-timer/goje-go/pkg/timer"
)

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [conn:id] DIRECTION LAYER Type
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	connID := shortenID(event.ConnectionID)
	dir := event.Direction.String()

	layerStr := event.Layer.String()
	if event.Category == log.CategoryControl {
		layerStr = "CTRL"
	}

	fmt.Fprintf(w, "%s [conn:%s] %-3s %s %s\n", ts, connID, dir, layerStr, typeLabel(event))

	switch {
	case event.Frame != nil:
		formatFrameDetails(w, event.Frame)
	case event.Message != nil:
		formatMessageDetails(w, event.Message)
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.ControlMsg != nil:
		formatControlDetails(w, event.ControlMsg)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// typeLabel names the payload an event carries.
func typeLabel(event log.Event) string {
	switch {
	case event.Frame != nil:
		return "Frame"
	case event.Message != nil:
		return event.Message.Type.String()
	case event.StateChange != nil:
		return "State"
	case event.ControlMsg != nil:
		return event.ControlMsg.Type.String()
	case event.Error != nil:
		return "Error"
	default:
		return "Unknown"
	}
}

// shortenID returns the first 8 characters of a connection or request ID.
func shortenID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatFrameDetails(w io.Writer, frame *log.FrameEvent) {
	fmt.Fprintf(w, "  Size: %d bytes\n", frame.Size)
	if frame.EventName != "" {
		fmt.Fprintf(w, "  Event: %s\n", frame.EventName)
	}
	if frame.EventID != "" {
		fmt.Fprintf(w, "  ID: %s\n", frame.EventID)
	}
	if len(frame.Data) > 0 {
		fmt.Fprintf(w, "  Data: %s", frame.Data)
		if frame.Truncated {
			fmt.Fprintf(w, " (truncated)")
		}
		fmt.Fprintln(w)
	}
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	switch msg.Type {
	case log.MessageTypeEvent:
		fmt.Fprintf(w, "  Event: %s\n", msg.Name)

	case log.MessageTypeRequest:
		fmt.Fprintf(w, "  RequestID: %s\n", shortenID(msg.RequestID))
		fmt.Fprintf(w, "  %s %s\n", msg.Method, msg.Path)

	case log.MessageTypeResponse:
		fmt.Fprintf(w, "  RequestID: %s\n", shortenID(msg.RequestID))
		fmt.Fprintf(w, "  %s %s\n", msg.Method, msg.Path)
		if msg.StatusCode != 0 {
			fmt.Fprintf(w, "  Status: %d\n", msg.StatusCode)
		}
		if msg.Latency != nil {
			fmt.Fprintf(w, "  Duration: %s\n", formatDuration(*msg.Latency))
		}
	}

	if msg.Snapshot != nil {
		fmt.Fprintf(w, "  Timer: %s\n", formatSnapshot(*msg.Snapshot))
	}
}

// formatSnapshot renders a timer as "Pomodoro 24:59 1/4 paused".
func formatSnapshot(s timer.Snapshot) string {
	out := fmt.Sprintf("%s %s %s", s.Mode, timer.NewClock(s), s.SessionsText())
	if s.Paused {
		out += " paused"
	}
	return out
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	fmt.Fprintf(w, "  Entity: %s\n", sc.Entity.String())
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatControlDetails(w io.Writer, ctrl *log.ControlMsgEvent) {
	if ctrl.Text != "" {
		fmt.Fprintf(w, "  Text: %s\n", ctrl.Text)
	}
	if ctrl.Delay != nil {
		fmt.Fprintf(w, "  Delay: %s\n", formatDuration(*ctrl.Delay))
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Layer: %s\n", err.Layer.String())
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Code != nil {
		fmt.Fprintf(w, "  Code: %d\n", *err.Code)
	}
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// RunView prints the events of path matching opts.
func RunView(path string, opts FilterOptions, output io.Writer) error {
	reader, err := opts.open(path)
	if err != nil {
		return err
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(output, event)
	}
	return nil
}
