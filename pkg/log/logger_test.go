package log

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goje-timer/goje-go/pkg/timer"
)

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	c := &captureLogger{}
	if OrNoop(c) != c {
		t.Error("OrNoop should return a non-nil logger unchanged")
	}
}

func TestMultiLogger(t *testing.T) {
	a, b := &captureLogger{}, &captureLogger{}
	m := NewMultiLogger(a, nil, b)
	if m.Len() != 2 {
		t.Fatalf("Len: got %d, want 2", m.Len())
	}

	m.Log(Event{ConnectionID: "x"})
	if len(a.all()) != 1 || len(b.all()) != 1 {
		t.Errorf("events not fanned out: %d, %d", len(a.all()), len(b.all()))
	}
}

func TestSlogAdapter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	adapter := NewSlogAdapter(logger)

	snap := timer.Initial(timer.DefaultConfig())
	adapter.Log(Event{
		ConnectionID: "stream-1",
		Layer:        LayerStream,
		Message:      &MessageEvent{Type: MessageTypeEvent, Name: "change", Snapshot: &snap},
	})
	adapter.Log(Event{
		ConnectionID: "stream-1",
		Category:     CategoryError,
		Error:        &ErrorEventData{Layer: LayerTransport, Message: "refused", Context: "connect"},
	})

	out := buf.String()
	for _, want := range []string{"msg=protocol", "conn_id=stream-1", "event=change", "mode=Pomodoro", "error_msg=refused"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRecorder(t *testing.T) {
	c := &captureLogger{}
	r := NewRecorder(c, "conn-1", "http://goje")
	fixed := time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	big := bytes.Repeat([]byte("a"), MaxFrameDataSize+10)
	r.Frame(DirectionIn, "timer", "7", big)
	r.StreamEvent("change", timer.Initial(timer.DefaultConfig()))
	r.StateChange(LayerStream, StateEntityStream, "PENDING", "CONNECTED", "")
	r.Control(ControlMsgRetry, "", 3*time.Second)
	r.Error(LayerAPI, "pause", errors.New("boom"), 500)
	r.Error(LayerAPI, "pause", nil, 0)

	events := c.all()
	if len(events) != 5 {
		t.Fatalf("got %d events, want 5", len(events))
	}
	for _, e := range events {
		if e.ConnectionID != "conn-1" || e.RemoteAddr != "http://goje" || !e.Timestamp.Equal(fixed) {
			t.Errorf("event not stamped: %+v", e)
		}
	}

	f := events[0].Frame
	if f == nil || !f.Truncated || len(f.Data) != MaxFrameDataSize || f.Size != len(big) {
		t.Errorf("frame not truncated correctly: %+v", f)
	}
	if events[1].Message == nil || events[1].Message.Name != "change" || events[1].Layer != LayerStream {
		t.Errorf("stream event: %+v", events[1])
	}
	if events[3].ControlMsg == nil || events[3].ControlMsg.Delay == nil || *events[3].ControlMsg.Delay != 3*time.Second {
		t.Errorf("control event: %+v", events[3])
	}
	if e := events[4].Error; e == nil || e.Code == nil || *e.Code != 500 || e.Message != "boom" {
		t.Errorf("error event: %+v", events[4])
	}
}

func TestNilRecorderDiscards(t *testing.T) {
	var r *Recorder
	r.Frame(DirectionIn, "change", "", []byte("{}"))
	r.Error(LayerStream, "decode", errors.New("x"), 0)
	if r.ConnectionID() != "" {
		t.Error("nil recorder should have empty connection ID")
	}
}
