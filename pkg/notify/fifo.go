package notify

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goje-timer/goje-go/pkg/stream"
	"github.com/goje-timer/goje-go/pkg/timer"
)

// Fifo errors.
var (
	ErrNotFifo  = errors.New("not a named pipe")
	ErrNoReader = errors.New("no fifo reader")
)

const fifoWriteTimeout = time.Second

// Fifo writes every snapshot as one JSON line to a named pipe. Writes are
// skipped while no reader has the pipe open.
type Fifo struct {
	path    string
	created bool
	logger  *slog.Logger
}

// NewFifo uses the named pipe at path, creating it if missing. A nil
// logger uses slog.Default().
func NewFifo(path string, logger *slog.Logger) (*Fifo, error) {
	if logger == nil {
		logger = slog.Default()
	}
	f := &Fifo{path: path, logger: logger.With("component", "fifo", "path", path)}

	fi, err := os.Stat(path)
	switch {
	case err == nil:
		if fi.Mode()&os.ModeNamedPipe == 0 {
			return nil, fmt.Errorf("%s: %w", path, ErrNotFifo)
		}
	case errors.Is(err, os.ErrNotExist):
		if err := mkfifo(path); err != nil {
			return nil, fmt.Errorf("create fifo: %w", err)
		}
		f.created = true
	default:
		return nil, err
	}
	return f, nil
}

// Path returns the pipe path.
func (f *Fifo) Path() string {
	return f.path
}

// Write sends s to the pipe. It returns ErrNoReader when no reader has
// the pipe open.
func (f *Fifo) Write(s timer.Snapshot) error {
	data, err := json.Marshal(s)
	if err != nil {
		return err
	}

	file, err := os.OpenFile(f.path, os.O_WRONLY|openNonblock, 0)
	if err != nil {
		if isNoReader(err) {
			return ErrNoReader
		}
		return err
	}
	defer file.Close()

	// Not every platform can poll pipes; the deadline is best effort.
	_ = file.SetWriteDeadline(time.Now().Add(fifoWriteTimeout))
	_, err = file.Write(append(data, '\n'))
	return err
}

// Observe writes the snapshot of a connected state.
func (f *Fifo) Observe(st stream.State) {
	s, ok := st.Snapshot()
	if !ok {
		return
	}
	switch err := f.Write(s); {
	case errors.Is(err, ErrNoReader):
		f.logger.Debug("no fifo reader, snapshot skipped")
	case err != nil:
		f.logger.Error("writing to fifo failed", "err", err)
	}
}

// Close removes the pipe if NewFifo created it.
func (f *Fifo) Close() error {
	if !f.created {
		return nil
	}
	f.created = false
	return os.Remove(f.path)
}
