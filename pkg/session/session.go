package session

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/whatsbot/whatsbot-go/pkg/command"
	"github.com/whatsbot/whatsbot-go/pkg/connection"
	"github.com/whatsbot/whatsbot-go/pkg/log"
)

// Config holds the collaborators of a session.
type Config struct {
	Store      CredentialStore
	Engine     Engine
	Prompter   Prompter
	Reporter   Reporter
	Dispatcher *command.Dispatcher

	// Logger receives operational logs. Defaults to a discarding logger.
	Logger *slog.Logger

	// EventLog receives session events. Defaults to log.NoopLogger.
	EventLog log.Logger

	Hooks Hooks

	// Attempt is the 1-based attempt number, used for logging only.
	Attempt int
}

func (c *Config) applyDefaults() {
	if c.Reporter == nil {
		c.Reporter = NopReporter{}
	}
	if c.Dispatcher == nil {
		c.Dispatcher = command.Default()
	}
	if c.Logger == nil {
		c.Logger = slog.New(slog.DiscardHandler)
	}
	c.EventLog = log.OrNoop(c.EventLog)
}

// Session is one connection attempt.
type Session struct {
	cfg    Config
	id     string
	logger *slog.Logger
	conn   Conn

	// Guards the fields written by the engine's credential callback.
	mu      sync.Mutex
	creds   Credentials
	account string

	// Owned by the Run goroutine.
	state                State
	opened               bool
	pairingCodeRequested bool
	pairing              *pairingTask

	closeOnce sync.Once
	closeErr  error
}

type pairingResult struct {
	code string
	err  error
}

type pairingTask struct {
	flow   *PairingFlow
	cancel context.CancelFunc
	done   chan pairingResult
}

// Bootstrap loads credentials, resolves the protocol version and creates the
// engine connection with a credential listener that forwards every change to
// the store. No network activity happens before Run.
func Bootstrap(ctx context.Context, cfg Config) (*Session, error) {
	if cfg.Store == nil {
		return nil, ErrNoCredentialStore
	}
	if cfg.Engine == nil {
		return nil, ErrNoEngine
	}
	cfg.applyDefaults()

	s := &Session{
		cfg:   cfg,
		id:    uuid.NewString(),
		state: StateClosed,
	}
	s.logger = cfg.Logger.With("attempt", cfg.Attempt, "attempt_id", s.id)
	if cfg.Hooks.OnStart != nil {
		cfg.Hooks.OnStart(s.id)
	}

	creds, err := cfg.Store.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	s.creds = creds
	s.logger.Debug("credentials loaded", "registered", creds.Registered())
	s.emit(log.ComponentSession, log.CategoryCredentials, func(e *log.Event) {
		e.Credentials = &log.CredentialsEvent{Action: log.CredentialsLoaded, Registered: creds.Registered()}
	})

	info, err := cfg.Engine.Version(ctx)
	if err != nil {
		s.logger.Warn("latest version lookup failed, using built-in version", "err", err)
	}
	if !info.Version.IsZero() {
		cfg.Reporter.Version(info)
		s.logger.Info("web client version", "version", info.Version.String(), "latest", info.Latest)
	}

	conn, err := cfg.Engine.NewConn(creds, s.credentialsChanged)
	if err != nil {
		return nil, fmt.Errorf("create connection: %w", err)
	}
	s.conn = conn

	return s, nil
}

// ID returns the attempt ID.
func (s *Session) ID() string {
	return s.id
}

// State returns the connection state. It must be called from the goroutine
// running Run, or after Run returned.
func (s *Session) State() State {
	return s.state
}

// PairingRequested reports whether this attempt started the pairing flow.
func (s *Session) PairingRequested() bool {
	return s.pairingCodeRequested
}

// Registered reports whether the current credentials identify a linked device.
func (s *Session) Registered() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds != nil && s.creds.Registered()
}

// credentialsChanged runs on engine goroutines.
func (s *Session) credentialsChanged(creds Credentials) {
	s.mu.Lock()
	s.creds = creds
	s.mu.Unlock()

	if err := s.cfg.Store.Save(creds); err != nil {
		s.logger.Error("saving credentials failed", "err", err)
		s.emit(log.ComponentEngine, log.CategoryError, func(e *log.Event) {
			e.Error = &log.ErrorEventData{Message: err.Error(), Context: "save credentials"}
		})
		return
	}
	s.emit(log.ComponentEngine, log.CategoryCredentials, func(e *log.Event) {
		e.Credentials = &log.CredentialsEvent{Action: log.CredentialsSaved, Registered: creds.Registered()}
	})
}

// Run connects and processes events until the connection closes, the
// pairing flow fails or ctx is cancelled. A connect failure or an event
// stream that ends without Closed counts as a close without reason.
func (s *Session) Run(ctx context.Context) (connection.Outcome, error) {
	defer s.stopPairing()

	if err := s.conn.Connect(ctx); err != nil {
		if ctx.Err() != nil {
			return s.outcome(connection.ReasonNone), ctx.Err()
		}
		s.logger.Warn("connect failed", "err", err)
		s.emit(log.ComponentEngine, log.CategoryError, func(e *log.Event) {
			e.Error = &log.ErrorEventData{Message: err.Error(), Context: "connect"}
		})
		s.setState(StateClosed, "connect failed")
		return s.outcome(connection.ReasonNone), nil
	}

	events := s.conn.Events()
	for {
		var pairingDone <-chan pairingResult
		if s.pairing != nil {
			pairingDone = s.pairing.done
		}

		select {
		case <-ctx.Done():
			s.setState(StateClosed, "cancelled")
			return s.outcome(connection.ReasonNone), ctx.Err()

		case res := <-pairingDone:
			s.pairing.done = nil
			if res.err != nil {
				s.logger.Error("pairing failed", "err", res.err)
				s.setState(StateClosed, "pairing failed")
				return s.outcome(connection.ReasonNone), res.err
			}
			s.logger.Info("pairing code issued")

		case ev, ok := <-events:
			if !ok {
				s.logger.Warn("event stream ended without close")
				s.setState(StateClosed, "event stream ended")
				return s.outcome(connection.ReasonNone), nil
			}
			if closed, done := s.handle(ctx, ev); done {
				return s.outcome(closed.Reason), nil
			}
		}
	}
}

// handle processes one event. It returns true when the attempt is over.
func (s *Session) handle(ctx context.Context, ev Event) (Closed, bool) {
	switch ev := ev.(type) {
	case Connecting:
		s.setState(StateConnecting, "")
		s.cfg.Reporter.Connecting()
		s.maybeStartPairing(ctx)

	case PairingChallenge:
		s.logger.Debug("pairing challenge received", "codes", ev.Codes)
		s.maybeStartPairing(ctx)

	case Paired:
		s.setAccount(ev.JID)
		s.logger.Info("device linked", "jid", ev.JID)
		s.cfg.Reporter.Linked(ev.JID)
		s.emit(log.ComponentPairing, log.CategoryPairing, func(e *log.Event) {
			e.Pairing = &log.PairingEvent{Stage: log.PairingLinked}
		})

	case Open:
		if ev.JID != "" {
			s.setAccount(ev.JID)
		}
		s.opened = true
		s.setState(StateOpen, "")
		s.cfg.Reporter.Open(s.cfg.Dispatcher.Names())
		if s.cfg.Hooks.OnOpen != nil {
			s.cfg.Hooks.OnOpen(ev.JID)
		}

	case Incoming:
		s.handleMessage(ctx, ev.Message)

	case Closed:
		s.logger.Info("connection closed", "reason", ev.Reason.String())
		s.stopPairing()
		s.setState(StateClosed, ev.Reason.String())
		return ev, true
	}
	return Closed{}, false
}

// maybeStartPairing starts the pairing flow at most once per attempt and only
// for unregistered credentials. The flag is set before the task starts.
func (s *Session) maybeStartPairing(ctx context.Context) {
	if s.pairingCodeRequested || s.Registered() {
		return
	}
	s.pairingCodeRequested = true

	flow := NewPairingFlow(PairingConfig{
		Prompter:      s.cfg.Prompter,
		Requester:     s.conn,
		Reporter:      s.cfg.Reporter,
		EventLog:      s.cfg.EventLog,
		AttemptID:     s.id,
		OnStateChange: s.cfg.Hooks.OnPairing,
	})

	pctx, cancel := context.WithCancel(ctx)
	task := &pairingTask{
		flow:   flow,
		cancel: cancel,
		done:   make(chan pairingResult, 1),
	}
	s.pairing = task

	s.logger.Info("starting pairing flow")
	go func() {
		code, err := flow.Run(pctx)
		task.done <- pairingResult{code: code, err: err}
	}()
}

// stopPairing cancels a running pairing task and waits for it to return.
func (s *Session) stopPairing() {
	task := s.pairing
	if task == nil {
		return
	}
	s.pairing = nil
	task.cancel()
	if task.done != nil {
		<-task.done
	}
}

func (s *Session) handleMessage(ctx context.Context, msg Message) {
	if s.state != StateOpen {
		s.logger.Debug("message ignored before open", "chat", msg.Chat)
		return
	}

	s.cfg.Reporter.Incoming(msg)
	if msg.Text == "" {
		return
	}

	cmd, ok, err := s.cfg.Dispatcher.Dispatch(ctx, s.conn, msg.Chat, msg.Text)
	if !ok {
		return
	}

	s.emit(log.ComponentCommand, log.CategoryCommand, func(e *log.Event) {
		e.Command = &log.CommandEvent{
			Direction: log.DirectionIn,
			Command:   cmd.Name,
			Chat:      msg.Chat,
			Sender:    msg.Sender,
			Group:     msg.Group,
		}
	})

	if err != nil {
		s.logger.Warn("reply failed", "command", cmd.Name, "chat", msg.Chat, "err", err)
		s.emit(log.ComponentCommand, log.CategoryCommand, func(e *log.Event) {
			e.Command = &log.CommandEvent{
				Direction: log.DirectionOut,
				Command:   cmd.Name,
				Chat:      msg.Chat,
				Group:     msg.Group,
				Error:     err.Error(),
			}
		})
		return
	}

	s.cfg.Reporter.Replied(cmd.Name)
	s.emit(log.ComponentCommand, log.CategoryCommand, func(e *log.Event) {
		e.Command = &log.CommandEvent{
			Direction: log.DirectionOut,
			Command:   cmd.Name,
			Chat:      msg.Chat,
			Group:     msg.Group,
		}
	})
	if s.cfg.Hooks.OnCommand != nil {
		s.cfg.Hooks.OnCommand(cmd.Name)
	}
}

func (s *Session) setState(newState State, reason string) {
	old := s.state
	if old == newState {
		return
	}
	s.state = newState
	s.logger.Debug("session state changed", "old", old.String(), "new", newState.String())
	s.emit(log.ComponentSession, log.CategoryState, func(e *log.Event) {
		e.StateChange = &log.StateChangeEvent{
			Entity:   log.StateEntitySession,
			OldState: old.String(),
			NewState: newState.String(),
			Reason:   reason,
		}
	})
	if s.cfg.Hooks.OnStateChange != nil {
		s.cfg.Hooks.OnStateChange(old, newState)
	}
}

func (s *Session) setAccount(jid string) {
	s.mu.Lock()
	s.account = jid
	s.mu.Unlock()
}

func (s *Session) outcome(reason connection.Reason) connection.Outcome {
	return connection.Outcome{Opened: s.opened, Reason: reason}
}

func (s *Session) emit(c log.Component, cat log.Category, fill func(*log.Event)) {
	s.mu.Lock()
	account := s.account
	s.mu.Unlock()

	e := log.Event{
		Timestamp: time.Now(),
		AttemptID: s.id,
		Component: c,
		Category:  cat,
		Account:   account,
	}
	fill(&e)
	s.cfg.EventLog.Log(e)
}

// Close closes the engine connection. It is safe to call more than once.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		if s.conn != nil {
			s.closeErr = s.conn.Close()
		}
	})
	return s.closeErr
}

// NewAttemptFunc returns a connection.AttemptFunc that bootstraps, runs and
// closes a fresh Session for every attempt.
func NewAttemptFunc(cfg Config) connection.AttemptFunc {
	return func(ctx context.Context, attempt int) (connection.Outcome, error) {
		c := cfg
		c.Attempt = attempt

		s, err := Bootstrap(ctx, c)
		if err != nil {
			return connection.Outcome{}, err
		}
		defer s.Close()

		return s.Run(ctx)
	}
}
