package connection

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Connection errors.
var (
	ErrManagerClosed     = errors.New("connection manager closed")
	ErrAlreadyRunning    = errors.New("connection manager already running")
	ErrRetriesExhausted  = errors.New("reconnection attempts exhausted")
	ErrSessionTerminated = errors.New("session terminated")
)

// TerminalError is returned by Manager.Run when a connection closed for a
// fatal reason. No further attempt is made.
type TerminalError struct {
	Verdict Verdict
}

func (e *TerminalError) Error() string {
	return fmt.Sprintf("session terminated: %s", e.Verdict.Reason)
}

// Is reports ErrSessionTerminated as a match.
func (e *TerminalError) Is(target error) bool {
	return target == ErrSessionTerminated
}

// State represents the manager state.
type State uint8

const (
	// StateDisconnected indicates no attempt is running.
	StateDisconnected State = iota

	// StateConnecting indicates a connection attempt is in progress.
	StateConnecting

	// StateReconnecting indicates the manager is waiting to start the next attempt.
	StateReconnecting

	// StateTerminated indicates a fatal disconnect stopped the manager.
	StateTerminated

	// StateClosed indicates the manager has stopped.
	StateClosed
)

// String returns a human-readable state name.
func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "DISCONNECTED"
	case StateConnecting:
		return "CONNECTING"
	case StateReconnecting:
		return "RECONNECTING"
	case StateTerminated:
		return "TERMINATED"
	case StateClosed:
		return "CLOSED"
	default:
		return "UNKNOWN"
	}
}

// AttemptFunc runs one complete connection attempt and blocks until the
// connection closes. A non-nil error stops the manager.
type AttemptFunc func(ctx context.Context, attempt int) (Outcome, error)

// Manager runs connection attempts one after another and decides after each
// close whether and when to start the next one.
type Manager struct {
	mu sync.RWMutex

	state   State
	running bool

	backoff   *Backoff
	attemptFn AttemptFunc
	policy    Policy

	// after is replaced in tests to control time.
	after func(time.Duration) <-chan time.Time
	now   func() time.Time

	attempts int

	onStateChange  func(oldState, newState State)
	onDisconnected func(v Verdict)
	onReconnecting func(attempt int, delay time.Duration)
}

// NewManager creates a new connection manager.
func NewManager(attemptFn AttemptFunc, policy Policy) *Manager {
	return &Manager{
		state:     StateDisconnected,
		backoff:   NewBackoffWithConfig(policy.Backoff),
		attemptFn: attemptFn,
		policy:    policy,
		after:     time.After,
		now:       time.Now,
	}
}

// State returns the current manager state.
func (m *Manager) State() State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.state
}

// Run starts the first attempt and keeps reconnecting after transient
// closes. It returns when an attempt fails with an error, a fatal disconnect
// occurs (*TerminalError), the retry ceiling is hit (ErrRetriesExhausted) or
// ctx is cancelled.
func (m *Manager) Run(ctx context.Context) error {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return ErrAlreadyRunning
	}
	if m.state == StateClosed || m.state == StateTerminated {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	m.running = true
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		m.running = false
		m.mu.Unlock()
	}()

	since := m.now()
	for {
		m.mu.Lock()
		m.attempts++
		attempt := m.attempts
		m.mu.Unlock()

		m.setState(StateConnecting)
		outcome, err := m.attemptFn(ctx, attempt)
		if err != nil {
			m.setState(StateClosed)
			return err
		}
		if ctx.Err() != nil {
			m.setState(StateClosed)
			return ctx.Err()
		}
		m.setState(StateDisconnected)

		if outcome.Opened {
			m.backoff.Reset()
			since = m.now()
		}

		verdict := Classify(outcome.Reason)
		if fn := m.disconnectedCallback(); fn != nil {
			fn(verdict)
		}

		if !verdict.Reconnect {
			m.setState(StateTerminated)
			return &TerminalError{Verdict: verdict}
		}

		if m.policy.MaxAttempts > 0 && m.backoff.Attempts() >= m.policy.MaxAttempts {
			m.setState(StateClosed)
			return fmt.Errorf("%w: %d attempts", ErrRetriesExhausted, m.backoff.Attempts())
		}
		if m.policy.MaxElapsed > 0 && m.now().Sub(since) >= m.policy.MaxElapsed {
			m.setState(StateClosed)
			return fmt.Errorf("%w: reconnecting for %s", ErrRetriesExhausted, m.policy.MaxElapsed)
		}

		delay := m.backoff.Next()
		m.setState(StateReconnecting)
		if fn := m.reconnectingCallback(); fn != nil {
			fn(attempt+1, delay)
		}

		select {
		case <-ctx.Done():
			m.setState(StateClosed)
			return ctx.Err()
		case <-m.after(delay):
		}
	}
}

func (m *Manager) setState(newState State) {
	m.mu.Lock()
	oldState := m.state
	m.state = newState
	fn := m.onStateChange
	m.mu.Unlock()

	if fn != nil && oldState != newState {
		fn(oldState, newState)
	}
}

func (m *Manager) disconnectedCallback() func(Verdict) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.onDisconnected
}

func (m *Manager) reconnectingCallback() func(int, time.Duration) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.onReconnecting
}

// OnStateChange sets a callback for state changes.
func (m *Manager) OnStateChange(fn func(oldState, newState State)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onStateChange = fn
}

// OnDisconnected sets a callback invoked once per closed connection with the
// classifier's verdict.
func (m *Manager) OnDisconnected(fn func(v Verdict)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onDisconnected = fn
}

// OnReconnecting sets a callback for scheduled reconnection attempts.
func (m *Manager) OnReconnecting(fn func(attempt int, delay time.Duration)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onReconnecting = fn
}
