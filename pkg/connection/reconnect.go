package connection

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/warren-mq/warren-go/pkg/log"
)

// redialTimeout bounds a single redial attempt. A broker that accepts
// the TCP connection but never answers still frees the slot for the
// next backoff round.
const redialTimeout = 30 * time.Second

// Connection errors.
var (
	ErrConnectionClosed  = errors.New("connection closed")
	ErrReconnectDisabled = errors.New("reconnection disabled")
	ErrConnectTimeout    = errors.New("connection timeout")
	ErrAlreadyConnected  = errors.New("already connected")
	ErrNotConnected      = errors.New("not connected")
)

// State represents the redial manager state.
type State uint8

const (
	// StateDisconnected indicates no active connection.
	StateDisconnected State = iota

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting

	// StateConnected indicates an active connection.
	StateConnected

	// StateReconnecting indicates automatic redialing is in progress.
	StateReconnecting

	// StateClosed indicates the manager has been shut down.
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

// ConnectFunc dials the broker and returns once the connection is
// usable or the attempt failed. A torn-down transport connection cannot
// be revived, so each call must build a fresh one.
type ConnectFunc func(ctx context.Context) error

// Manager drives a ConnectFunc through the connection lifecycle and
// redials with backoff when the connection drops. The transport layer
// itself retries nothing; this is the layer that does.
type Manager struct {
	mu sync.RWMutex

	state         State
	backoff       *Backoff
	connectFn     ConnectFunc
	autoReconnect bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Coalescing signal for the redial loop. A single pending redial is
	// enough; further losses while one is queued change nothing.
	reconnectCh chan struct{}

	onStateChange  func(oldState, newState State)
	onConnected    func()
	onDisconnected func()
	onReconnecting func(attempt int, delay time.Duration)

	// Event logging (optional)
	logger log.Logger
	connID string
}

// NewManager creates a redial manager around connectFn.
// Auto-reconnect starts enabled.
func NewManager(connectFn ConnectFunc) *Manager {
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		state:         StateDisconnected,
		backoff:       NewBackoff(),
		connectFn:     connectFn,
		autoReconnect: true,
		ctx:           ctx,
		cancel:        cancel,
		reconnectCh:   make(chan struct{}, 1),
	}
}

// State returns the current manager state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// IsConnected returns true while a connection is up.
func (m *Manager) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state == StateConnected
}

// SetAutoReconnect enables or disables automatic redialing.
func (m *Manager) SetAutoReconnect(enabled bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.autoReconnect = enabled
}

// Connect performs the initial dial. It fails rather than queueing when
// a connection is already up or the manager is closed.
func (m *Manager) Connect(ctx context.Context) error {
	m.mu.Lock()
	if m.state == StateConnected {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	if m.state == StateClosed {
		m.mu.Unlock()
		return ErrConnectionClosed
	}

	oldState := m.state
	m.state = StateConnecting
	m.mu.Unlock()

	m.notifyStateChange(oldState, StateConnecting, "")

	err := m.connectFn(ctx)

	m.mu.Lock()
	if err != nil {
		m.state = StateDisconnected
		m.mu.Unlock()
		m.notifyStateChange(StateConnecting, StateDisconnected, err.Error())
		return err
	}

	m.state = StateConnected
	m.backoff.Reset()
	m.mu.Unlock()

	m.notifyStateChange(StateConnecting, StateConnected, "")
	if m.onConnected != nil {
		m.onConnected()
	}

	return nil
}

// Disconnect drops the connection on request. With auto-reconnect
// enabled the manager starts redialing immediately.
func (m *Manager) Disconnect() {
	m.connectionDown("disconnect requested")
}

// NotifyConnectionLost reports a detected connection loss, typically
// from the transport engine's error callback. Triggers redialing when
// auto-reconnect is enabled.
func (m *Manager) NotifyConnectionLost() {
	m.connectionDown("connection lost")
}

// connectionDown moves a connected manager to RECONNECTING or
// DISCONNECTED depending on the redial policy.
func (m *Manager) connectionDown(reason string) {
	m.mu.Lock()
	if m.state != StateConnected {
		m.mu.Unlock()
		return
	}

	oldState := m.state
	autoReconnect := m.autoReconnect

	if autoReconnect {
		m.state = StateReconnecting
	} else {
		m.state = StateDisconnected
	}
	m.mu.Unlock()

	m.notifyStateChange(oldState, m.State(), reason)
	if m.onDisconnected != nil {
		m.onDisconnected()
	}

	if autoReconnect {
		m.triggerReconnect()
	}
}

// StartReconnectLoop starts the background redial loop. Must be called
// once before connection losses can trigger redials.
func (m *Manager) StartReconnectLoop() {
	m.wg.Add(1)
	go m.reconnectLoop()
}

// Close shuts the manager down and waits for the redial loop to exit.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.state == StateClosed {
		m.mu.Unlock()
		return
	}

	oldState := m.state
	m.state = StateClosed
	m.mu.Unlock()

	m.notifyStateChange(oldState, StateClosed, "manager closed")

	m.cancel()
	m.wg.Wait()
}

func (m *Manager) triggerReconnect() {
	select {
	case m.reconnectCh <- struct{}{}:
	default:
		// Already pending
	}
}

func (m *Manager) reconnectLoop() {
	defer m.wg.Done()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-m.reconnectCh:
			m.attemptReconnect()
		}
	}
}

// attemptReconnect redials until one attempt succeeds or the manager is
// closed, waiting out the backoff schedule between attempts.
func (m *Manager) attemptReconnect() {
	for {
		m.mu.RLock()
		state := m.state
		m.mu.RUnlock()

		if state == StateClosed || state == StateConnected {
			return
		}

		delay := m.backoff.Next()
		attempts := m.backoff.Attempts()

		if m.onReconnecting != nil {
			m.onReconnecting(attempts, delay)
		}

		select {
		case <-m.ctx.Done():
			return
		case <-time.After(delay):
		}

		// The state may have moved while waiting: a Close, or a
		// concurrent Connect that already succeeded.
		m.mu.Lock()
		if m.state == StateClosed || m.state == StateConnected {
			m.mu.Unlock()
			return
		}
		m.mu.Unlock()

		ctx, cancel := context.WithTimeout(m.ctx, redialTimeout)
		err := m.connectFn(ctx)
		cancel()

		if err == nil {
			m.mu.Lock()
			oldState := m.state
			m.state = StateConnected
			m.backoff.Reset()
			m.mu.Unlock()

			m.notifyStateChange(oldState, StateConnected, "redial succeeded")
			if m.onConnected != nil {
				m.onConnected()
			}
			return
		}
	}
}

// OnStateChange sets a callback for state changes.
func (m *Manager) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnConnected sets a callback invoked after every successful dial,
// initial or redial.
func (m *Manager) OnConnected(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onConnected = fn
}

// OnDisconnected sets a callback for connection loss.
func (m *Manager) OnDisconnected(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnected = fn
}

// OnReconnecting sets a callback invoked before each redial attempt.
func (m *Manager) OnReconnecting(fn func(attempt int, delay time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnecting = fn
}

// BackoffAttempts returns the number of redial attempts since the last
// successful connection.
func (m *Manager) BackoffAttempts() int {
	return m.backoff.Attempts()
}

// SetLogger configures redial event logging, tagged with the
// connection ID the manager redials for. Pass nil to disable.
func (m *Manager) SetLogger(logger log.Logger, connID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.logger = logger
	m.connID = connID
}

// notifyStateChange invokes the state callback and emits a redial
// state event.
func (m *Manager) notifyStateChange(oldState, newState State, reason string) {
	m.mu.RLock()
	logger := m.logger
	connID := m.connID
	onStateChange := m.onStateChange
	m.mu.RUnlock()

	if onStateChange != nil {
		onStateChange(oldState, newState)
	}
	if logger != nil {
		logger.Log(log.Event{
			Timestamp:    time.Now(),
			ConnectionID: connID,
			Layer:        log.LayerConnection,
			Category:     log.CategoryState,
			StateChange: &log.StateChangeEvent{
				Entity:   log.StateEntityRedial,
				OldState: oldState.String(),
				NewState: newState.String(),
				Reason:   reason,
			},
		})
	}
}
