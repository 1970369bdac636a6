package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goje-timer/goje-go/pkg/connection"
	"github.com/goje-timer/goje-go/pkg/log"
)

// Handler receives stream callbacks. Callbacks are never invoked
// concurrently with each other. Nil callbacks are skipped.
type Handler struct {
	// OnOpen is called when a connection is established.
	OnOpen func()

	// OnMessage is called for every dispatched event.
	OnMessage func(msg Message)

	// OnError is called when an attempt fails or an open stream is lost.
	OnError func(err error)
}

// EventSourceConfig configures an EventSource.
type EventSourceConfig struct {
	// URL is the full stream URL.
	URL string

	// Client performs requests. Default: a new http.Client.
	Client *http.Client

	// Backoff configures reconnection delays.
	Backoff connection.BackoffConfig

	// ConnectTimeout bounds waiting for response headers. Default: 30s.
	ConnectTimeout time.Duration

	// IdleTimeout reconnects a stream that delivers no line for this long.
	// Zero disables idle detection.
	IdleTimeout time.Duration

	// MaxEventSize limits a single event's data. Default: 1 MiB.
	MaxEventSize int

	// Logger receives operational logs. Default: slog.Default().
	Logger *slog.Logger

	// ProtocolLogger receives frame level events.
	ProtocolLogger log.Logger
}

// EventSource is a reconnecting server-sent event subscription.
type EventSource struct {
	cfg     EventSourceConfig
	client  *http.Client
	logger  *slog.Logger
	rec     *log.Recorder
	connID  string
	manager *connection.Manager

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// callbacks serialises handler invocations from the reader goroutine
	// and the reconnect loop.
	callbacks sync.Mutex

	mu          sync.Mutex
	handler     Handler
	subscribed  bool
	closed      bool
	lastEventID string
	body        io.ReadCloser
	cancelBody  context.CancelFunc
}

// NewEventSource creates an EventSource. Nothing is sent until Subscribe.
func NewEventSource(cfg EventSourceConfig) *EventSource {
	if cfg.Client == nil {
		cfg.Client = &http.Client{}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Backoff.Jitter == 0 && cfg.Backoff.Initial == 0 {
		cfg.Backoff.Jitter = connection.JitterFactor
	}

	ctx, cancel := context.WithCancel(context.Background())
	es := &EventSource{
		cfg:    cfg,
		client: cfg.Client,
		connID: uuid.NewString(),
		ctx:    ctx,
		cancel: cancel,
	}
	es.logger = cfg.Logger.With("component", "eventsource", "conn_id", es.connID)
	es.rec = log.NewRecorder(cfg.ProtocolLogger, es.connID, cfg.URL)

	es.manager = connection.NewManagerWithOptions(es.connect, connection.Options{
		Backoff:        cfg.Backoff,
		ConnectTimeout: cfg.ConnectTimeout,
	})
	es.manager.OnStateChange(func(from, to connection.State) {
		es.rec.StateChange(log.LayerTransport, log.StateEntityConnection, from.String(), to.String(), "")
	})
	es.manager.OnConnected(es.startReader)
	es.manager.OnConnectFailed(func(err error) {
		es.logger.Debug("connect failed", "url", cfg.URL, "err", err)
		es.rec.Error(log.LayerTransport, "connect", err, StatusCode(err))
		es.reportError(err)
	})
	es.manager.OnReconnecting(func(attempt int, delay time.Duration) {
		es.logger.Debug("reconnecting", "attempt", attempt, "delay", delay)
		es.rec.Control(log.ControlMsgReconnect, "", delay)
	})
	return es
}

// URL returns the stream URL.
func (es *EventSource) URL() string {
	return es.cfg.URL
}

// ConnectionID returns the identifier used in protocol logs.
func (es *EventSource) ConnectionID() string {
	return es.connID
}

// State returns the current connection state.
func (es *EventSource) State() connection.State {
	return es.manager.State()
}

// LastEventID returns the last event ID received.
func (es *EventSource) LastEventID() string {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.lastEventID
}

// Subscribe starts connecting in the background and delivers callbacks to h
// until Close. An EventSource accepts a single subscription.
func (es *EventSource) Subscribe(h Handler) error {
	es.mu.Lock()
	if es.closed {
		es.mu.Unlock()
		return ErrClosed
	}
	if es.subscribed {
		es.mu.Unlock()
		return ErrAlreadySubscribed
	}
	es.subscribed = true
	es.handler = h
	es.mu.Unlock()

	es.logger.Debug("subscribing", "url", es.cfg.URL)
	return es.manager.Start()
}

// Close ends the subscription and releases the connection. It is safe to
// call Close multiple times but not from inside a Handler callback.
func (es *EventSource) Close() {
	es.mu.Lock()
	if es.closed {
		es.mu.Unlock()
		return
	}
	es.closed = true
	es.mu.Unlock()

	es.cancel()
	es.manager.Close()
	es.wg.Wait()

	// A connection that completed while closing never got a reader.
	es.mu.Lock()
	if es.body != nil {
		es.body.Close()
		es.cancelBody()
		es.body, es.cancelBody = nil, nil
	}
	es.mu.Unlock()
	es.logger.Debug("closed")
}

func (es *EventSource) isClosed() bool {
	es.mu.Lock()
	defer es.mu.Unlock()
	return es.closed
}

// connect performs one request and keeps the response body for the reader.
func (es *EventSource) connect(ctx context.Context) error {
	reqCtx, cancel := context.WithCancel(es.ctx)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, es.cfg.URL, nil)
	if err != nil {
		cancel()
		return err
	}
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if id := es.LastEventID(); id != "" {
		req.Header.Set("Last-Event-ID", id)
	}

	// The attempt context only bounds waiting for headers; the body lives
	// until the stream is lost or the source is closed.
	stop := context.AfterFunc(ctx, cancel)
	resp, err := es.client.Do(req)
	if !stop() {
		if err == nil {
			resp.Body.Close()
		}
		cancel()
		return fmt.Errorf("connect %s: %w", es.cfg.URL, ctx.Err())
	}
	if err != nil {
		cancel()
		return fmt.Errorf("connect %s: %w", es.cfg.URL, err)
	}

	if resp.StatusCode != http.StatusOK {
		se := NewStatusError(resp)
		resp.Body.Close()
		cancel()
		return se
	}
	if mt, _, _ := mime.ParseMediaType(resp.Header.Get("Content-Type")); mt != "text/event-stream" {
		resp.Body.Close()
		cancel()
		return fmt.Errorf("%w: %q", ErrNotEventStream, resp.Header.Get("Content-Type"))
	}

	es.mu.Lock()
	es.body = resp.Body
	es.cancelBody = cancel
	es.mu.Unlock()
	return nil
}

// startReader runs once per successful connection.
func (es *EventSource) startReader() {
	es.mu.Lock()
	body, cancel := es.body, es.cancelBody
	es.body, es.cancelBody = nil, nil
	es.mu.Unlock()
	if body == nil {
		return
	}

	es.wg.Add(1)
	go es.read(body, cancel)
}

func (es *EventSource) read(body io.ReadCloser, cancel context.CancelFunc) {
	defer es.wg.Done()
	defer cancel()
	defer body.Close()

	dec := NewDecoderWithMaxSize(body, es.cfg.MaxEventSize)
	dec.SetRecorder(es.rec)
	dec.SetLastEventID(es.LastEventID())
	dec.OnRetry = func(d time.Duration) {
		es.logger.Debug("server retry", "delay", d)
		es.manager.SetRetry(d)
	}

	watchdog := newIdleWatchdog(es.cfg.IdleTimeout, cancel)
	defer watchdog.Stop()
	dec.OnLine = watchdog.Touch

	es.logger.Info("event stream connected", "url", es.cfg.URL)
	es.dispatch(func(h Handler) {
		if h.OnOpen != nil {
			h.OnOpen()
		}
	})

	for {
		msg, err := dec.Next()
		if err != nil {
			switch {
			case watchdog.Fired():
				err = ErrIdleTimeout
			case errors.Is(err, io.EOF):
				err = ErrStreamEnded
			}
			es.lost(err)
			return
		}

		es.mu.Lock()
		es.lastEventID = msg.ID
		es.mu.Unlock()

		es.dispatch(func(h Handler) {
			if h.OnMessage != nil {
				h.OnMessage(msg)
			}
		})
	}
}

func (es *EventSource) lost(err error) {
	if es.isClosed() {
		return
	}
	es.logger.Warn("event stream lost", "url", es.cfg.URL, "err", err)
	es.rec.Error(log.LayerTransport, "read", err, 0)
	es.reportError(err)
	es.manager.NotifyConnectionLost(err)
}

func (es *EventSource) reportError(err error) {
	es.dispatch(func(h Handler) {
		if h.OnError != nil {
			h.OnError(err)
		}
	})
}

func (es *EventSource) dispatch(fn func(h Handler)) {
	es.callbacks.Lock()
	defer es.callbacks.Unlock()
	if es.isClosed() {
		return
	}
	es.mu.Lock()
	h := es.handler
	es.mu.Unlock()
	fn(h)
}
