//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package notify

import (
	"bufio"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goje-timer/goje-go/pkg/stream"
	"github.com/goje-timer/goje-go/pkg/timer"
)

// writeScript creates a shell script appending its first argument to out.
func writeScript(t *testing.T, dir, out string) string {
	t.Helper()
	path := filepath.Join(dir, "hook.sh")
	script := "#!/bin/sh\nprintf '%s\\n' \"$1\" >> '" + out + "'\n"
	require.NoError(t, os.WriteFile(path, []byte(script), 0o755))
	return path
}

func TestExecRunsCommand(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "out")
	e := &Exec{End: writeScript(t, dir, out)}

	s := timer.Initial(timer.DefaultConfig()).WithMode(timer.LongBreak)
	require.NoError(t, e.Handle(context.Background(), Change{Event: EventModeEnd, Snapshot: s}))

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	var got timer.Snapshot
	require.NoError(t, json.Unmarshal([]byte(strings.TrimSpace(string(data))), &got))
	assert.Equal(t, s, got)
}

func TestExecCommandFails(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "fail.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\necho broken >&2\nexit 3\n"), 0o755))

	err := (&Exec{Pause: path}).Handle(context.Background(), Change{Event: EventPause})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pause hook")
	assert.Contains(t, err.Error(), "broken")
}

func TestFifo(t *testing.T) {
	path := filepath.Join(t.TempDir(), "goje.fifo")
	f, err := NewFifo(path, nil)
	require.NoError(t, err)
	assert.Equal(t, path, f.Path())

	fi, err := os.Stat(path)
	require.NoError(t, err)
	assert.NotZero(t, fi.Mode()&os.ModeNamedPipe)

	s := timer.Initial(timer.DefaultConfig())
	assert.ErrorIs(t, f.Write(s), ErrNoReader)

	r, err := os.OpenFile(path, os.O_RDONLY|syscall.O_NONBLOCK, 0)
	require.NoError(t, err)
	defer r.Close()

	f.Observe(stream.Disconnected())
	f.Observe(stream.Connected(s.WithPaused(true)))
	line, err := bufio.NewReader(r).ReadString('\n')
	require.NoError(t, err)

	var got timer.Snapshot
	require.NoError(t, json.Unmarshal([]byte(line), &got))
	assert.Equal(t, s.WithPaused(true), got)

	require.NoError(t, f.Close())
	assert.NoFileExists(t, path)
}

func TestFifoExisting(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "goje.fifo")
	require.NoError(t, syscall.Mkfifo(path, 0o600))

	f, err := NewFifo(path, nil)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	assert.FileExists(t, path, "a pipe not created by NewFifo is kept")

	regular := filepath.Join(dir, "plain")
	require.NoError(t, os.WriteFile(regular, nil, 0o644))
	_, err = NewFifo(regular, nil)
	assert.ErrorIs(t, err, ErrNotFifo)
}
