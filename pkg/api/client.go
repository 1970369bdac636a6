package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/goje-timer/goje-go/pkg/log"
	"github.com/goje-timer/goje-go/pkg/timer"
	"github.com/goje-timer/goje-go/pkg/transport"
)

// ContentType is sent with every command body.
const ContentType = "application/json; charset=UTF-8"

// maxResponseBody caps how much of a response is read.
const maxResponseBody = 1 << 20

// Client errors.
var (
	ErrInvalidSnapshot = errors.New("invalid snapshot")
	ErrClientClosed    = errors.New("client is closed")
)

// Config configures a Client.
type Config struct {
	// Address is the server address, normalised with
	// transport.NormalizeAddress.
	Address string

	// HTTPClient performs requests. Default: a new http.Client.
	HTTPClient *http.Client

	// Timeout bounds each request. Default: transport.DefaultRequestTimeout.
	Timeout time.Duration

	// Nested posts snapshots with the state fields under "State", for
	// servers that only accept that layout.
	Nested bool

	// Logger receives operational logs. Default: slog.Default().
	Logger *slog.Logger

	// ProtocolLogger receives request and response events.
	ProtocolLogger log.Logger
}

// Client issues timer commands.
type Client struct {
	base   string
	http   *http.Client
	nested bool
	logger *slog.Logger
	rec    *log.Recorder

	mu      sync.RWMutex
	timeout time.Duration
	closed  bool
}

// NewClient creates a Client for cfg.Address.
func NewClient(cfg Config) (*Client, error) {
	base, assumed, err := transport.NormalizeAddress(cfg.Address)
	if err != nil {
		return nil, err
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = transport.DefaultRequestTimeout
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	connID := uuid.NewString()
	c := &Client{
		base:    base,
		http:    cfg.HTTPClient,
		nested:  cfg.Nested,
		logger:  cfg.Logger.With("component", "api", "conn_id", connID),
		rec:     log.NewRecorder(cfg.ProtocolLogger, connID, base),
		timeout: cfg.Timeout,
	}
	if assumed {
		c.logger.Warn("no scheme in server address, assuming http", "address", base)
	}
	return c, nil
}

// BaseURL returns the normalised server URL.
func (c *Client) BaseURL() string {
	return c.base
}

// SetTimeout sets the per request timeout.
func (c *Client) SetTimeout(timeout time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.timeout = timeout
}

// Close makes further commands fail with ErrClientClosed and releases idle
// connections.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.http.CloseIdleConnections()
	return nil
}

// Get fetches the current timer.
func (c *Client) Get(ctx context.Context) (*timer.Snapshot, error) {
	return c.do(ctx, http.MethodGet, transport.PathTimer, nil)
}

// Set replaces the timer state with s.
func (c *Client) Set(ctx context.Context, s timer.Snapshot) (*timer.Snapshot, error) {
	return c.post(ctx, transport.PathTimer, s)
}

// PrevMode asks the server to switch to the mode before s.Mode.
func (c *Client) PrevMode(ctx context.Context, s timer.Snapshot) (*timer.Snapshot, error) {
	return c.post(ctx, transport.PathPrevMode, s)
}

// NextMode asks the server to switch to the mode after s.Mode.
func (c *Client) NextMode(ctx context.Context, s timer.Snapshot) (*timer.Snapshot, error) {
	return c.post(ctx, transport.PathNextMode, s)
}

// Pause asks the server to toggle the pause state of s.
func (c *Client) Pause(ctx context.Context, s timer.Snapshot) (*timer.Snapshot, error) {
	return c.post(ctx, transport.PathPause, s)
}

// Reset asks the server to restart the current mode of s.
func (c *Client) Reset(ctx context.Context, s timer.Snapshot) (*timer.Snapshot, error) {
	return c.post(ctx, transport.PathReset, s)
}

func (c *Client) post(ctx context.Context, path string, s timer.Snapshot) (*timer.Snapshot, error) {
	if err := s.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
	}
	return c.do(ctx, http.MethodPost, path, &s)
}

// do performs one request. A 2xx response with a body is decoded as a
// snapshot; an empty body yields (nil, nil).
func (c *Client) do(ctx context.Context, method, path string, body *timer.Snapshot) (*timer.Snapshot, error) {
	c.mu.RLock()
	if c.closed {
		c.mu.RUnlock()
		return nil, ErrClientClosed
	}
	timeout := c.timeout
	c.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var payload []byte
	if body != nil {
		var err error
		if c.nested {
			payload, err = body.MarshalNested()
		} else {
			payload, err = body.MarshalJSON()
		}
		if err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}
	}

	url := transport.Endpoint(c.base, path)
	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", ContentType)
	}
	req.Header.Set("Accept", "application/json")

	reqID := uuid.NewString()
	c.rec.Message(log.DirectionOut, log.LayerAPI, log.MessageEvent{
		Type:      log.MessageTypeRequest,
		RequestID: reqID,
		Method:    method,
		Path:      path,
		Snapshot:  body,
	})
	if body != nil {
		c.rec.Frame(log.DirectionOut, "", "", payload)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.rec.Error(log.LayerAPI, method+" "+path, err, 0)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		se := transport.NewStatusError(resp)
		c.recordResponse(reqID, method, path, resp.StatusCode, start, nil)
		c.rec.Error(log.LayerAPI, method+" "+path, se, se.Code)
		c.logger.Warn("command failed", "method", method, "path", path, "status", se.Code)
		return nil, se
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.rec.Error(log.LayerAPI, method+" "+path, err, resp.StatusCode)
		return nil, fmt.Errorf("%s %s: read response: %w", method, path, err)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		c.recordResponse(reqID, method, path, resp.StatusCode, start, nil)
		c.logger.Debug("command sent", "method", method, "path", path, "status", resp.StatusCode)
		return nil, nil
	}

	c.rec.Frame(log.DirectionIn, "", "", data)
	snap, err := timer.Decode(data)
	if err != nil {
		c.rec.Error(log.LayerAPI, method+" "+path, err, resp.StatusCode)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	c.recordResponse(reqID, method, path, resp.StatusCode, start, &snap)
	c.logger.Debug("command sent", "method", method, "path", path, "status", resp.StatusCode, "mode", snap.Mode)
	return &snap, nil
}

func (c *Client) recordResponse(reqID, method, path string, status int, start time.Time, snap *timer.Snapshot) {
	latency := time.Since(start)
	c.rec.Message(log.DirectionIn, log.LayerAPI, log.MessageEvent{
		Type:       log.MessageTypeResponse,
		RequestID:  reqID,
		Method:     method,
		Path:       path,
		StatusCode: status,
		Snapshot:   snap,
		Latency:    &latency,
	})
}
