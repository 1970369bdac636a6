package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goje-timer/goje-go/pkg/log"
	"github.com/goje-timer/goje-go/pkg/timer"
)

var baseTime = time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.glog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}
	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

// sessionEvents is a short client session: the stream connects and
// delivers a snapshot, then the client pauses the timer.
func sessionEvents() []log.Event {
	snap := timer.Initial(timer.DefaultConfig())
	paused := snap.WithPaused(true)
	latency := 1500 * time.Microsecond
	delay := time.Second
	code := 503

	return []log.Event{
		{
			Timestamp: baseTime, ConnectionID: "stream-0001-aaaa", Direction: log.DirectionIn,
			Layer: log.LayerTransport, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{Entity: log.StateEntityConnection, OldState: "DISCONNECTED", NewState: "CONNECTED"},
		},
		{
			Timestamp: baseTime.Add(time.Millisecond), ConnectionID: "stream-0001-aaaa", Direction: log.DirectionIn,
			Layer: log.LayerTransport, Category: log.CategoryMessage,
			Frame: &log.FrameEvent{Size: 12, Data: []byte(`{"Mode":0}`), EventName: "change", EventID: "1"},
		},
		{
			Timestamp: baseTime.Add(2 * time.Millisecond), ConnectionID: "stream-0001-aaaa", Direction: log.DirectionIn,
			Layer: log.LayerStream, Category: log.CategoryMessage,
			Message: &log.MessageEvent{Type: log.MessageTypeEvent, Name: "change", Snapshot: &snap},
		},
		{
			Timestamp: baseTime.Add(time.Second), ConnectionID: "api-0002-bbbb", Direction: log.DirectionOut,
			Layer: log.LayerAPI, Category: log.CategoryMessage,
			Message: &log.MessageEvent{Type: log.MessageTypeRequest, RequestID: "req-12345678", Method: "POST", Path: "/api/timer/pause", Snapshot: &snap},
		},
		{
			Timestamp: baseTime.Add(time.Second + latency), ConnectionID: "api-0002-bbbb", Direction: log.DirectionIn,
			Layer: log.LayerAPI, Category: log.CategoryMessage,
			Message: &log.MessageEvent{Type: log.MessageTypeResponse, RequestID: "req-12345678", Method: "POST", Path: "/api/timer/pause", StatusCode: 200, Snapshot: &paused, Latency: &latency},
		},
		{
			Timestamp: baseTime.Add(2 * time.Second), ConnectionID: "stream-0001-aaaa", Direction: log.DirectionIn,
			Layer: log.LayerTransport, Category: log.CategoryError,
			Error: &log.ErrorEventData{Layer: log.LayerTransport, Message: "unexpected status 503", Code: &code, Context: "connect"},
		},
		{
			Timestamp: baseTime.Add(3 * time.Second), ConnectionID: "stream-0001-aaaa", Direction: log.DirectionIn,
			Layer: log.LayerTransport, Category: log.CategoryControl,
			ControlMsg: &log.ControlMsgEvent{Type: log.ControlMsgReconnect, Delay: &delay},
		},
	}
}

func TestRunView(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunView(path, FilterOptions{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.123456Z [conn:stream-0] IN  TRANSPORT State",
		"  DISCONNECTED -> CONNECTED",
		"  Event: change",
		`  Data: {"Mode":0}`,
		"[conn:api-0002] OUT API REQUEST",
		"  RequestID: req-1234",
		"  POST /api/timer/pause",
		"  Status: 200",
		"  Duration: 1.500ms",
		"  Timer: Pomodoro 25:00 0/4 paused",
		"  Message: unexpected status 503",
		"  Code: 503",
		"IN  CTRL RECONNECT",
		"  Delay: 1.000s",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
}

func TestRunViewWithFilter(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunView(path, FilterOptions{Layer: "api", Direction: "out"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	output := buf.String()

	if n := strings.Count(output, "[conn:"); n != 1 {
		t.Errorf("expected 1 event, got %d:\n%s", n, output)
	}
	if !strings.Contains(output, "REQUEST") {
		t.Errorf("expected the request, got:\n%s", output)
	}
}

func TestRunViewEventName(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunView(path, FilterOptions{EventName: "change"}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	if n := strings.Count(buf.String(), "[conn:"); n != 2 {
		t.Errorf("expected frame and stream message, got %d events", n)
	}
}

func TestFilterOptionsErrors(t *testing.T) {
	tests := []FilterOptions{
		{Layer: "wire"},
		{Direction: "sideways"},
		{Category: "snapshot"},
		{TimeStart: "yesterday"},
		{TimeEnd: "2026-13-01"},
	}
	for _, opts := range tests {
		if _, err := opts.Build(); err == nil {
			t.Errorf("Build(%+v) expected error", opts)
		}
	}
}

func TestFilterOptionsTimeRange(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	opts := FilterOptions{
		TimeStart: baseTime.Add(time.Second).Format(time.RFC3339),
		TimeEnd:   baseTime.Add(3 * time.Second).Format(time.RFC3339),
	}

	var buf bytes.Buffer
	if err := RunView(path, opts, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	// RFC3339 drops the fraction, so the window is [10:15:33, 10:15:35).
	if n := strings.Count(buf.String(), "[conn:"); n != 3 {
		t.Errorf("expected 3 events in range, got %d:\n%s", n, buf.String())
	}
}

func TestRunExportJSONL(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunExport(path, "jsonl", "", FilterOptions{Layer: "api"}, &buf); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	var event struct {
		ConnectionID string
		Message      struct {
			Path     string
			Snapshot struct{ Paused bool }
		}
	}
	if err := json.Unmarshal([]byte(lines[1]), &event); err != nil {
		t.Fatalf("invalid JSON line: %v", err)
	}
	if event.ConnectionID != "api-0002-bbbb" || event.Message.Path != "/api/timer/pause" || !event.Message.Snapshot.Paused {
		t.Errorf("unexpected response line: %s", lines[1])
	}
}

func TestRunExportCSV(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	out := filepath.Join(t.TempDir(), "out.csv")

	if err := RunExport(path, "csv", out, FilterOptions{}, io.Discard); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	rows, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(rows) != 8 {
		t.Fatalf("expected header and 7 rows, got %d", len(rows))
	}
	if strings.Join(rows[0], ",") != strings.Join(csvHeader, ",") {
		t.Errorf("unexpected header: %v", rows[0])
	}

	response := rows[5]
	want := []string{"RESPONSE", "", "req-12345678", "POST", "/api/timer/pause", "200", "Pomodoro", "25m", "true", "0"}
	if got := response[5:]; strings.Join(got, ",") != strings.Join(want, ",") {
		t.Errorf("response row = %v, want %v", got, want)
	}
}

func TestRunExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	if err := RunExport(path, "xml", "", FilterOptions{}, io.Discard); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestRunFilter(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	out := filepath.Join(t.TempDir(), "stream.glog")

	var buf bytes.Buffer
	if err := RunFilter(path, out, FilterOptions{ConnID: "stream-0001-aaaa"}, &buf); err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Filtered 5 events") {
		t.Errorf("unexpected summary: %s", buf.String())
	}

	reader, err := log.NewReader(out)
	if err != nil {
		t.Fatal(err)
	}
	defer reader.Close()
	count := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatal(err)
		}
		if event.ConnectionID != "stream-0001-aaaa" {
			t.Errorf("unexpected connection %s", event.ConnectionID)
		}
		count++
	}
	if count != 5 {
		t.Errorf("expected 5 events, got %d", count)
	}
}

func TestRunStats(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunStats(path, FilterOptions{}, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	output := buf.String()

	for _, want := range []string{
		"Total Events: 7",
		"TRANSPORT:   4",
		"STREAM:      1",
		"API:         2",
		"ERROR:       1",
		"change:      1",
		"POST /api/timer/pause",
		"avg 1.500ms",
		"Connections: 2",
		"Snapshots: 1",
		"Snapshots: 2",
		"Reconnects: 1",
		"Errors: 1",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected %q in output:\n%s", want, output)
		}
	}
	if strings.Contains(output, "failed") {
		t.Errorf("no request failed:\n%s", output)
	}
}

func TestRunStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, FilterOptions{}, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestMissingFile(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.glog")
	if err := RunView(missing, FilterOptions{}, io.Discard); err == nil {
		t.Error("expected error for missing file")
	}
}
