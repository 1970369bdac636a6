package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goje-timer/goje-go/pkg/log"
	"github.com/goje-timer/goje-go/pkg/timer"
	"github.com/goje-timer/goje-go/pkg/transport"
)

type request struct {
	method      string
	path        string
	contentType string
	body        []byte
}

// server records requests and answers with a fixed status and body.
type server struct {
	*httptest.Server

	mu       sync.Mutex
	requests []request
	status   int
	body     string
}

func newServer(t *testing.T, status int, body string) *server {
	t.Helper()
	s := &server{status: status, body: body}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		s.mu.Lock()
		s.requests = append(s.requests, request{
			method:      r.Method,
			path:        r.URL.Path,
			contentType: r.Header.Get("Content-Type"),
			body:        data,
		})
		s.mu.Unlock()
		w.WriteHeader(s.status)
		io.WriteString(w, s.body)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *server) last(t *testing.T) request {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests)
	return s.requests[len(s.requests)-1]
}

func newClient(t *testing.T, cfg Config) *Client {
	t.Helper()
	c, err := NewClient(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCommandsPostSnapshot(t *testing.T) {
	srv := newServer(t, http.StatusOK, "")
	c := newClient(t, Config{Address: srv.URL})
	snap := timer.Initial(timer.DefaultConfig()).WithFinishedSessions(2)
	ctx := context.Background()

	tests := []struct {
		name string
		call func(context.Context, timer.Snapshot) (*timer.Snapshot, error)
		path string
	}{
		{"Set", c.Set, transport.PathTimer},
		{"PrevMode", c.PrevMode, transport.PathPrevMode},
		{"NextMode", c.NextMode, transport.PathNextMode},
		{"Pause", c.Pause, transport.PathPause},
		{"Reset", c.Reset, transport.PathReset},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call(ctx, snap)
			require.NoError(t, err)
			assert.Nil(t, got, "empty body yields no snapshot")

			req := srv.last(t)
			assert.Equal(t, http.MethodPost, req.method)
			assert.Equal(t, tt.path, req.path)
			assert.Equal(t, ContentType, req.contentType)

			sent, err := timer.Decode(req.body)
			require.NoError(t, err)
			assert.Equal(t, snap, sent)
		})
	}
}

func TestFlatBodyLayout(t *testing.T) {
	srv := newServer(t, http.StatusOK, "")
	c := newClient(t, Config{Address: srv.URL})

	_, err := c.Set(context.Background(), timer.Initial(timer.DefaultConfig()))
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(srv.last(t).body, &fields))
	assert.Contains(t, fields, "Duration")
	assert.Contains(t, fields, "Mode")
	assert.Contains(t, fields, "Config")
	assert.NotContains(t, fields, "State")
}

func TestNestedBodyLayout(t *testing.T) {
	srv := newServer(t, http.StatusOK, "")
	c := newClient(t, Config{Address: srv.URL, Nested: true})
	snap := timer.Initial(timer.DefaultConfig()).WithMode(timer.ShortBreak)

	_, err := c.NextMode(context.Background(), snap)
	require.NoError(t, err)

	var fields map[string]json.RawMessage
	body := srv.last(t).body
	require.NoError(t, json.Unmarshal(body, &fields))
	assert.Contains(t, fields, "State")
	assert.NotContains(t, fields, "Mode")

	sent, err := timer.Decode(body)
	require.NoError(t, err)
	assert.Equal(t, snap, sent)
}

func TestResponseSnapshotReturned(t *testing.T) {
	want := timer.Initial(timer.DefaultConfig()).WithMode(timer.LongBreak)
	data, err := json.Marshal(want)
	require.NoError(t, err)

	srv := newServer(t, http.StatusOK, string(data))
	c := newClient(t, Config{Address: srv.URL})

	got, err := c.NextMode(context.Background(), timer.Initial(timer.DefaultConfig()))
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestGet(t *testing.T) {
	want := timer.Initial(timer.DefaultConfig()).WithPaused(true)
	data, err := want.MarshalNested()
	require.NoError(t, err)

	srv := newServer(t, http.StatusOK, string(data))
	c := newClient(t, Config{Address: srv.URL})

	got, err := c.Get(context.Background())
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)

	req := srv.last(t)
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, transport.PathTimer, req.path)
	assert.Empty(t, req.body)
}

func TestStatusError(t *testing.T) {
	srv := newServer(t, http.StatusBadRequest, "bad mode\n")
	c := newClient(t, Config{Address: srv.URL})

	_, err := c.Pause(context.Background(), timer.Initial(timer.DefaultConfig()))
	require.Error(t, err)

	var se *transport.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusBadRequest, se.Code)
	assert.Equal(t, http.MethodPost, se.Method)
	assert.Equal(t, "bad mode", se.Body)
	assert.Equal(t, http.StatusBadRequest, transport.StatusCode(err))
}

func TestMalformedResponse(t *testing.T) {
	srv := newServer(t, http.StatusOK, `{"Mode":`)
	c := newClient(t, Config{Address: srv.URL})

	got, err := c.Reset(context.Background(), timer.Initial(timer.DefaultConfig()))
	assert.Error(t, err)
	assert.Nil(t, got)
}

func TestInvalidSnapshotNotSent(t *testing.T) {
	srv := newServer(t, http.StatusOK, "")
	c := newClient(t, Config{Address: srv.URL})

	tests := []struct {
		name string
		snap timer.Snapshot
	}{
		{"mode", timer.Initial(timer.DefaultConfig()).WithMode(timer.Mode(5))},
		{"sessions", timer.Initial(timer.DefaultConfig().WithSessions(0))},
		{"duration", timer.Initial(timer.DefaultConfig().WithDuration(timer.ShortBreak, -time.Second))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Set(context.Background(), tt.snap)
			assert.ErrorIs(t, err, ErrInvalidSnapshot)
		})
	}

	srv.mu.Lock()
	defer srv.mu.Unlock()
	assert.Empty(t, srv.requests)
}

func TestTransportError(t *testing.T) {
	srv := newServer(t, http.StatusOK, "")
	c := newClient(t, Config{Address: srv.URL})
	srv.Close()

	_, err := c.Set(context.Background(), timer.Initial(timer.DefaultConfig()))
	require.Error(t, err)
	assert.Zero(t, transport.StatusCode(err))
}

func TestTimeout(t *testing.T) {
	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-block:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(block)

	c := newClient(t, Config{Address: srv.URL, Timeout: 20 * time.Millisecond})
	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestClosedClient(t *testing.T) {
	srv := newServer(t, http.StatusOK, "")
	c := newClient(t, Config{Address: srv.URL})
	require.NoError(t, c.Close())

	_, err := c.Get(context.Background())
	assert.ErrorIs(t, err, ErrClientClosed)
}

func TestAddressNormalised(t *testing.T) {
	c := newClient(t, Config{Address: ":7800"})
	assert.Equal(t, "http://localhost:7800", c.BaseURL())

	_, err := NewClient(Config{Address: "  "})
	assert.ErrorIs(t, err, transport.ErrEmptyAddress)
}

type captureLogger struct {
	mu     sync.Mutex
	events []log.Event
}

func (c *captureLogger) Log(e log.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.events = append(c.events, e)
}

func TestProtocolLog(t *testing.T) {
	want := timer.Initial(timer.DefaultConfig())
	data, err := json.Marshal(want)
	require.NoError(t, err)
	srv := newServer(t, http.StatusOK, string(data))

	plog := &captureLogger{}
	c := newClient(t, Config{Address: srv.URL, ProtocolLogger: plog})
	_, err = c.Pause(context.Background(), want)
	require.NoError(t, err)

	plog.mu.Lock()
	defer plog.mu.Unlock()
	var req, resp *log.MessageEvent
	for _, e := range plog.events {
		if e.Message == nil {
			continue
		}
		assert.Equal(t, log.LayerAPI, e.Layer)
		switch e.Message.Type {
		case log.MessageTypeRequest:
			req = e.Message
			assert.Equal(t, log.DirectionOut, e.Direction)
		case log.MessageTypeResponse:
			resp = e.Message
			assert.Equal(t, log.DirectionIn, e.Direction)
		}
	}
	require.NotNil(t, req)
	require.NotNil(t, resp)
	assert.NotEmpty(t, req.RequestID)
	assert.Equal(t, req.RequestID, resp.RequestID)
	assert.Equal(t, transport.PathPause, req.Path)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, resp.Latency)
	require.NotNil(t, resp.Snapshot)
	assert.Equal(t, want, *resp.Snapshot)
}
