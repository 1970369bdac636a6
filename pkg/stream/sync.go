package stream

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/goje-timer/goje-go/pkg/log"
	"github.com/goje-timer/goje-go/pkg/timer"
	"github.com/goje-timer/goje-go/pkg/transport"
)

// ErrClosed is returned by Open after Close.
var ErrClosed = errors.New("stream closed")

// DefaultEvents are the event names that carry timer snapshots.
var DefaultEvents = []string{"change", "pause", "timer"}

// Source is a single-use event subscription, such as a
// *transport.EventSource.
type Source interface {
	Subscribe(h transport.Handler) error
	Close()
}

// Option configures a Sync.
type Option func(*Sync)

// WithEvents replaces the set of event names that carry snapshots.
func WithEvents(names ...string) Option {
	return func(s *Sync) {
		s.events = make(map[string]struct{}, len(names))
		for _, n := range names {
			s.events[n] = struct{}{}
		}
	}
}

// WithLogger sets the operational logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sync) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithProtocolLogger records decoded snapshots, state changes and decode
// errors.
func WithProtocolLogger(l log.Logger) Option {
	return func(s *Sync) {
		s.protocol = l
	}
}

// Sync derives the client's State from a stream of snapshot events.
type Sync struct {
	source   Source
	events   map[string]struct{}
	logger   *slog.Logger
	protocol log.Logger

	mu     sync.Mutex
	handle *Handle
	closed bool
}

// New creates a Sync reading from source. Nothing is subscribed until Open.
func New(source Source, opts ...Option) *Sync {
	s := &Sync{
		source: source,
		logger: slog.Default(),
	}
	WithEvents(DefaultEvents...)(s)
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Open subscribes to the source and returns the handle publishing State.
// Further calls return the same handle without subscribing again.
func (s *Sync) Open() (*Handle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, ErrClosed
	}
	if s.handle != nil {
		return s.handle, nil
	}

	connID := uuid.NewString()
	if cs, ok := s.source.(interface{ ConnectionID() string }); ok {
		connID = cs.ConnectionID()
	}
	h := newHandle(s, log.NewRecorder(s.protocol, connID, ""))
	if err := s.source.Subscribe(transport.Handler{
		OnMessage: h.onMessage,
		OnError:   h.onError,
	}); err != nil {
		return nil, err
	}
	s.handle = h
	s.logger.Debug("stream opened", "conn_id", connID)
	return h, nil
}

// Close releases the subscription. It is safe to call Close multiple times.
func (s *Sync) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	h := s.handle
	s.mu.Unlock()

	s.source.Close()
	if h != nil {
		h.shutdown()
	}
}

// Handle is an open subscription. Its methods are safe for concurrent use.
type Handle struct {
	sync  *Sync
	rec   *log.Recorder
	state atomic.Pointer[State]

	mu        sync.Mutex
	observers map[string]chan State
	closed    bool
	done      chan struct{}
}

func newHandle(s *Sync, rec *log.Recorder) *Handle {
	h := &Handle{
		sync:      s,
		rec:       rec,
		observers: make(map[string]chan State),
		done:      make(chan struct{}),
	}
	pending := Pending()
	h.state.Store(&pending)
	return h
}

// State returns the latest published state.
func (h *Handle) State() State {
	return *h.state.Load()
}

// Subscribe returns a channel receiving every published state from now on
// and a function to stop receiving. A slow receiver misses intermediate
// states but always gets the latest one. The channel is closed on cancel
// or when the handle closes.
func (h *Handle) Subscribe(buffer int) (<-chan State, func()) {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan State, buffer)
	id := uuid.NewString()

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	h.observers[id] = ch
	h.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			h.mu.Lock()
			defer h.mu.Unlock()
			if c, ok := h.observers[id]; ok {
				delete(h.observers, id)
				close(c)
			}
		})
	}
}

// WaitConnected blocks until a snapshot is available or ctx is done.
func (h *Handle) WaitConnected(ctx context.Context) (timer.Snapshot, error) {
	updates, cancel := h.Subscribe(1)
	defer cancel()

	if snap, ok := h.State().Snapshot(); ok {
		return snap, nil
	}
	for {
		select {
		case <-ctx.Done():
			return timer.Snapshot{}, ctx.Err()
		case st, ok := <-updates:
			if !ok {
				return timer.Snapshot{}, ErrClosed
			}
			if snap, ok := st.Snapshot(); ok {
				return snap, nil
			}
		}
	}
}

// Done is closed when the handle is closed.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Close closes the owning Sync.
func (h *Handle) Close() {
	h.sync.Close()
}

func (h *Handle) onMessage(msg transport.Message) {
	if _, ok := h.sync.events[msg.Event]; !ok {
		h.sync.logger.Debug("ignoring event", "event", msg.Event)
		return
	}

	snap, err := timer.Decode(msg.Data)
	if err != nil {
		h.sync.logger.Error("malformed snapshot", "event", msg.Event, "err", err)
		h.rec.Error(log.LayerStream, "decode "+msg.Event, err, 0)
		return
	}
	h.rec.StreamEvent(msg.Event, snap)
	h.publish(Connected(snap))
}

func (h *Handle) onError(err error) {
	h.sync.logger.Warn("stream error", "err", err)
	h.publish(Disconnected())
}

func (h *Handle) publish(st State) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	prev := h.state.Swap(&st)
	if prev.Kind() != st.Kind() {
		h.rec.StateChange(log.LayerStream, log.StateEntityStream, prev.Kind().String(), st.Kind().String(), "")
		h.sync.logger.Info("stream state", "state", st.Kind().String())
	}

	for _, ch := range h.observers {
		offer(ch, st)
	}
}

// offer delivers st, evicting the oldest queued state if ch is full.
func offer(ch chan State, st State) {
	select {
	case ch <- st:
		return
	default:
	}
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- st:
	default:
	}
}

func (h *Handle) shutdown() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.observers {
		delete(h.observers, id)
		close(ch)
	}
	close(h.done)
}
