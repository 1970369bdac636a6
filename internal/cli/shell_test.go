package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goje-timer/goje-go/internal/config"
	"github.com/goje-timer/goje-go/internal/fakeserver"
	"github.com/goje-timer/goje-go/pkg/timer"
	"github.com/goje-timer/goje-go/pkg/transport"
)

// newTestShell connects a shell to url without a terminal.
func newTestShell(t *testing.T, url string) (*shell, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Address = url
	cfg.Reconnect.Initial = 10 * time.Millisecond
	cfg.Reconnect.Max = 40 * time.Millisecond

	a := &app{
		cfg:    cfg,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
		http:   &http.Client{},
	}
	t.Cleanup(a.close)

	c, err := a.client()
	require.NoError(t, err)
	h, err := a.openStream()
	require.NoError(t, err)

	out := &bytes.Buffer{}
	return &shell{app: a, client: c, handle: h, out: out}, out
}

func TestShellCommands(t *testing.T) {
	fake, url := startServer(t)
	sh, out := newTestShell(t, url)
	ctx := context.Background()

	require.Eventually(t, func() bool { return sh.handle.State().IsConnected() }, waitFor, 5*time.Millisecond)

	assert.False(t, sh.exec(ctx, "status"))
	assert.Equal(t, "Pomodoro 25:00  0/4\n", out.String())

	out.Reset()
	assert.False(t, sh.exec(ctx, "  P  "))
	assert.Empty(t, out.String())
	require.Eventually(t, func() bool {
		s, ok := sh.handle.State().Snapshot()
		return ok && s.Paused
	}, waitFor, 5*time.Millisecond)

	sh.exec(ctx, "seek -5m")
	require.Eventually(t, func() bool {
		s, ok := sh.handle.State().Snapshot()
		return ok && s.Duration == 20*time.Minute
	}, waitFor, 5*time.Millisecond)

	sh.exec(ctx, "set sessions=2")
	assert.Equal(t, uint(2), fake.Snapshot().Config.Sessions)

	paths := make([]string, 0, 3)
	for _, r := range fake.Requests() {
		paths = append(paths, r.Path)
	}
	assert.Equal(t, []string{transport.PathPause, transport.PathTimer, transport.PathTimer}, paths)
}

func TestShellGet(t *testing.T) {
	fake, url := startServer(t)
	fake.Push(fake.Snapshot().WithMode(timer.LongBreak).Restarted())
	sh, out := newTestShell(t, url)

	sh.exec(context.Background(), "get")
	assert.Equal(t, "Long Break 30:00  0/4\n", out.String())
}

func TestShellGetReusesStream(t *testing.T) {
	fake := fakeserver.New(timer.Initial(timer.DefaultConfig()).WithMode(timer.ShortBreak))
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet && r.URL.Path == transport.PathTimer {
			http.NotFound(w, r)
			return
		}
		fake.ServeHTTP(w, r)
	}))
	t.Cleanup(srv.Close)

	sh, out := newTestShell(t, srv.URL)
	require.Eventually(t, func() bool { return fake.Clients() == 1 }, waitFor, 5*time.Millisecond)

	for range 3 {
		sh.exec(context.Background(), "get")
	}
	assert.Equal(t, "Short Break 05:00  0/4\nShort Break 05:00  0/4\nShort Break 05:00  0/4\n", out.String())
	assert.Equal(t, 1, fake.Clients())
	assert.Same(t, sh.handle, sh.app.handle)
}

// failOnceWriter fails its first write.
type failOnceWriter struct {
	bytes.Buffer
	failed bool
}

func (w *failOnceWriter) Write(p []byte) (int, error) {
	if !w.failed {
		w.failed = true
		return 0, errors.New("broken pipe")
	}
	return w.Buffer.Write(p)
}

func TestShellGetPrintError(t *testing.T) {
	_, url := startServer(t)
	sh, _ := newTestShell(t, url)
	w := &failOnceWriter{}
	sh.out = w

	sh.exec(context.Background(), "get")
	assert.Equal(t, "Error: broken pipe\n", w.String())
}

func TestShellErrors(t *testing.T) {
	_, url := startServer(t)
	sh, out := newTestShell(t, url)
	ctx := context.Background()

	sh.exec(ctx, "rewind")
	assert.Contains(t, out.String(), "Unknown command: rewind")

	out.Reset()
	sh.exec(ctx, "seek")
	assert.Equal(t, "Error: usage: seek <dur>|+<dur>|-<dur>\n", out.String())

	require.Eventually(t, func() bool { return sh.handle.State().IsConnected() }, waitFor, 5*time.Millisecond)
	out.Reset()
	sh.exec(ctx, "mode lunch")
	assert.Contains(t, out.String(), "Error: invalid timer mode")
}

func TestShellNotConnected(t *testing.T) {
	sh, out := newTestShell(t, "127.0.0.1:1")

	sh.exec(context.Background(), "next")
	assert.Equal(t, "Error: "+errNotConnected.Error()+"\n", out.String())
}

func TestShellQuitAndHelp(t *testing.T) {
	_, url := startServer(t)
	sh, out := newTestShell(t, url)
	ctx := context.Background()

	assert.False(t, sh.exec(ctx, "help"))
	for _, act := range actions {
		assert.Contains(t, out.String(), act.usage())
	}
	assert.False(t, sh.exec(ctx, ""))
	assert.True(t, sh.exec(ctx, "exit"))
	assert.True(t, sh.exec(ctx, "q"))
}
