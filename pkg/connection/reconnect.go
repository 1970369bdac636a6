package connection

import (
	"context"
	"errors"
	"sync"
	"time"
)

// Connection errors.
var (
	ErrConnectionClosed = errors.New("connection closed")
	ErrAlreadyConnected = errors.New("already connected")
	ErrAlreadyStarted   = errors.New("already started")
)

// DefaultConnectTimeout bounds a single connection attempt.
const DefaultConnectTimeout = 30 * time.Second

// State represents the connection state.
type State uint8

const (
	// StateDisconnected indicates no active connection.
	StateDisconnected State = iota

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting

	// StateConnected indicates an active connection.
	StateConnected

	// StateReconnecting indicates the manager is waiting to retry.
	StateReconnecting

	// StateClosed indicates the connection manager has been closed.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateConnected:
		return "CONNECTED"
	case StateReconnecting:
		return "RECONNECTING"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// ConnectFunc establishes the connection. It returns once the connection is
// usable; the caller later reports its loss through NotifyConnectionLost.
type ConnectFunc func(ctx context.Context) error

// Options configures a Manager.
type Options struct {
	// Backoff configures reconnection delays.
	Backoff BackoffConfig

	// ConnectTimeout bounds each attempt. Default: 30s.
	ConnectTimeout time.Duration

	// DisableReconnect stops the manager after the first loss or failure.
	DisableReconnect bool
}

// Manager manages connection lifecycle with automatic reconnection.
type Manager struct {
	mu sync.RWMutex

	state     State
	lastErr   error
	backoff   *Backoff
	connectFn ConnectFunc
	timeout   time.Duration

	autoReconnect bool
	started       bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// reconnectCh wakes the loop; the value says whether to wait first.
	reconnectCh chan bool

	onStateChange   func(oldState, newState State)
	onConnected     func()
	onDisconnected  func(err error)
	onReconnecting  func(attempt int, delay time.Duration)
	onConnectFailed func(err error)
}

// NewManager creates a connection manager with default options.
func NewManager(connectFn ConnectFunc) *Manager {
	return NewManagerWithOptions(connectFn, Options{
		Backoff: BackoffConfig{Jitter: JitterFactor},
	})
}

// NewManagerWithOptions creates a connection manager.
func NewManagerWithOptions(connectFn ConnectFunc, opts Options) *Manager {
	ctx, cancel := context.WithCancel(context.Background())
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = DefaultConnectTimeout
	}
	return &Manager{
		state:         StateDisconnected,
		backoff:       NewBackoffWithConfig(opts.Backoff),
		connectFn:     connectFn,
		timeout:       timeout,
		autoReconnect: !opts.DisableReconnect,
		ctx:           ctx,
		cancel:        cancel,
		reconnectCh:   make(chan bool, 1),
	}
}

// State returns the current connection state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected returns true if currently connected.
func (m *Manager) IsConnected() bool {
	return m.State() == StateConnected
}

// LastError returns the most recent connection failure or loss.
func (m *Manager) LastError() error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.lastErr
}

// SetAutoReconnect enables or disables automatic reconnection.
func (m *Manager) SetAutoReconnect(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoReconnect = enabled
}

// SetRetry sets the initial reconnection delay, as requested by a server's
// SSE retry field.
func (m *Manager) SetRetry(d time.Duration) {
	m.backoff.SetInitial(d)
}

// Start launches the background loop and makes the first connection attempt
// immediately. Failed attempts are retried with backoff.
func (m *Manager) Start() error {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return ErrConnectionClosed
	}
	if m.started {
		m.mu.Unlock()
		return ErrAlreadyStarted
	}
	m.started = true
	m.mu.Unlock()

	m.wg.Add(1)
	go m.loop()
	m.trigger(false)
	return nil
}

// Connect makes one synchronous connection attempt without retrying.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	switch m.state {
	case StateConnected:
		m.mu.Unlock()
		return ErrAlreadyConnected
	case StateClosed:
		m.mu.Unlock()
		return ErrConnectionClosed
	}
	m.mu.Unlock()

	if m.attempt(ctx) {
		return nil
	}
	return m.LastError()
}

// NotifyConnectionLost reports that the established connection ended.
// Reconnection starts if enabled and the loop is running.
func (m *Manager) NotifyConnectionLost(err error) {
	m.mu.Lock()
	if m.state != StateConnected {
		m.mu.Unlock()
		return
	}
	if err == nil {
		err = ErrConnectionClosed
	}
	m.lastErr = err
	reconnect := m.autoReconnect && m.started
	next := StateDisconnected
	if reconnect {
		next = StateReconnecting
	}
	m.state = next
	onState, onDisc := m.onStateChange, m.onDisconnected
	m.mu.Unlock()

	if onState != nil {
		onState(StateConnected, next)
	}
	if onDisc != nil {
		onDisc(err)
	}
	if reconnect {
		m.trigger(true)
	}
}

// Close stops reconnection and waits for the loop to exit.
// It is safe to call Close multiple times.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}
	old := m.state
	m.state = StateClosed
	onState := m.onStateChange
	m.mu.Unlock()

	if onState != nil {
		onState(old, StateClosed)
	}
	m.cancel()
	m.wg.Wait()
}

// Done is closed once the manager is closed.
func (m *Manager) Done() <-chan struct{} {
	return m.ctx.Done()
}

func (m *Manager) trigger(wait bool) {
	select {
	case m.reconnectCh <- wait:
	default:
	}
}

func (m *Manager) loop() {
	defer m.wg.Done()
	for {
		select {
		case <-m.ctx.Done():
			return
		case wait := <-m.reconnectCh:
			m.connectWithBackoff(wait)
		}
	}
}

// connectWithBackoff retries until connected, closed or reconnection is
// disabled.
func (m *Manager) connectWithBackoff(wait bool) {
	for {
		if wait {
			delay := m.backoff.Next()
			m.mu.RLock()
			onReconnecting := m.onReconnecting
			m.mu.RUnlock()
			if onReconnecting != nil {
				onReconnecting(m.backoff.Attempts(), delay)
			}

			t := time.NewTimer(delay)
			select {
			case <-m.ctx.Done():
				t.Stop()
				return
			case <-t.C:
			}
		}
		wait = true

		ctx, cancel := context.WithTimeout(m.ctx, m.timeout)
		ok := m.attempt(ctx)
		cancel()
		if ok {
			return
		}

		m.mu.RLock()
		stop := m.state == StateClosed || !m.autoReconnect
		m.mu.RUnlock()
		if stop {
			return
		}
	}
}

// attempt runs connectFn once and records the outcome.
func (m *Manager) attempt(ctx context.Context) bool {
	m.mu.Lock()
	if m.state == StateClosed || m.state == StateConnected {
		connected := m.state == StateConnected
		m.mu.Unlock()
		return connected
	}
	old := m.state
	m.state = StateConnecting
	onState := m.onStateChange
	m.mu.Unlock()

	if onState != nil {
		onState(old, StateConnecting)
	}

	err := m.connectFn(ctx)

	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return false
	}
	if err != nil {
		m.lastErr = err
		next := StateDisconnected
		if m.autoReconnect && m.started {
			next = StateReconnecting
		}
		m.state = next
		onState, onFailed := m.onStateChange, m.onConnectFailed
		m.mu.Unlock()

		if onState != nil {
			onState(StateConnecting, next)
		}
		if onFailed != nil {
			onFailed(err)
		}
		return false
	}

	m.state = StateConnected
	m.lastErr = nil
	m.backoff.Reset()
	onState, onConnected := m.onStateChange, m.onConnected
	m.mu.Unlock()

	if onState != nil {
		onState(StateConnecting, StateConnected)
	}
	if onConnected != nil {
		onConnected()
	}
	return true
}

// OnStateChange sets a callback for state changes.
func (m *Manager) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnConnected sets a callback for successful connection.
func (m *Manager) OnConnected(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnected = fn
}

// OnDisconnected sets a callback for loss of an established connection.
func (m *Manager) OnDisconnected(fn func(err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnected = fn
}

// OnReconnecting sets a callback invoked before each delayed attempt.
func (m *Manager) OnReconnecting(fn func(attempt int, delay time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnecting = fn
}

// OnConnectFailed sets a callback for failed connection attempts.
func (m *Manager) OnConnectFailed(fn func(err error)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnectFailed = fn
}

// BackoffAttempts returns the current number of reconnection attempts.
func (m *Manager) BackoffAttempts() int {
	return m.backoff.Attempts()
}
