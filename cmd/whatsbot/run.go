package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/whatsbot/whatsbot-go/internal/logging"
	"github.com/whatsbot/whatsbot-go/pkg/command"
	"github.com/whatsbot/whatsbot-go/pkg/config"
	"github.com/whatsbot/whatsbot-go/pkg/connection"
	"github.com/whatsbot/whatsbot-go/pkg/console"
	"github.com/whatsbot/whatsbot-go/pkg/log"
	"github.com/whatsbot/whatsbot-go/pkg/metrics"
	"github.com/whatsbot/whatsbot-go/pkg/persistence"
	"github.com/whatsbot/whatsbot-go/pkg/session"
	"github.com/whatsbot/whatsbot-go/pkg/whatsapp"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Connect to WhatsApp and answer commands",
	Long: `Connects with the stored credentials, or starts the pairing-code flow
when the device is not linked yet, and keeps the connection alive until
interrupted or logged out.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return run(ctx, cfg, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.String("phone", "", "Phone number for headless pairing (country code and number)")
	flags.String("event-log", "", "Record session events to this file ("+log.FileExt+")")
	flags.String("metrics-addr", "", "Serve /metrics and /healthz on this address")
	flags.Bool("exit-on-terminal", false, "Exit with status 2 after a fatal disconnect instead of idling")
}

func run(ctx context.Context, cfg config.Config, out io.Writer) error {
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return err
	}
	logger := logging.New(level, nil)

	con := console.New(out, console.WithAuthDir(cfg.AuthDir))
	con.Banner()

	store, err := whatsapp.OpenSQLStore(cfg.AuthDir, logger)
	if err != nil {
		con.Fatal(err)
		return reported(exitFailure, err)
	}
	defer store.Close()

	events, closeEvents, err := openEventLog(cfg.EventLog, logger)
	if err != nil {
		con.Fatal(err)
		return reported(exitFailure, err)
	}
	defer closeEvents()

	r := newRunner(cfg, logger, con, metrics.New(), persistence.NewStateStoreInDir(cfg.AuthDir), events)
	r.begin()

	engineCfg := whatsapp.DefaultConfig()
	engineCfg.ClientDisplayName = cfg.Pairing.ClientDisplayName
	engineCfg.ShowPushNotification = cfg.Pairing.ShowPushNotification
	engineCfg.FetchLatestVersion = cfg.FetchLatestVersion
	engineCfg.Logger = logger

	var prompter session.Prompter
	if cfg.Pairing.Phone != "" {
		prompter = console.StaticPrompter(cfg.Pairing.Phone)
	} else {
		tty := console.NewPrompter()
		defer tty.Close()
		prompter = tty
	}

	attempt := session.NewAttemptFunc(session.Config{
		Store:      store,
		Engine:     whatsapp.NewEngine(engineCfg),
		Prompter:   prompter,
		Reporter:   con,
		Dispatcher: command.Default(),
		Logger:     logger,
		EventLog:   events,
		Hooks:      r.hooks(),
	})
	mgr := r.manager(attempt)

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			logger.Info("serving metrics", "addr", cfg.Metrics.Addr)
			if err := metrics.Serve(gctx, cfg.Metrics.Addr, metrics.NewHandler(r.metrics)); err != nil {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		return r.finish(gctx, mgr.Run(gctx))
	})
	return g.Wait()
}

// openEventLog returns the session event sink: debug log lines, plus the
// CBOR file when path is set.
func openEventLog(path string, logger *slog.Logger) (log.Logger, func(), error) {
	adapter := log.NewSlogAdapter(logger)
	if path == "" {
		return adapter, func() {}, nil
	}

	file, err := log.NewFileLogger(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open event log: %w", err)
	}
	logger.Info("recording session events", "path", path)
	return log.NewMultiLogger(file, adapter), func() { _ = file.Close() }, nil
}

// runner connects the reconnection manager and the sessions it starts to the
// console, metrics, the persisted bot state and the event log.
type runner struct {
	cfg     config.Config
	logger  *slog.Logger
	console *console.Console
	metrics *metrics.Metrics
	states  *persistence.StateStore
	events  log.Logger
	now     func() time.Time

	mu        sync.Mutex
	attemptID string
	account   string
	opened    bool

	// pending holds a reconnecting verdict until its delay is known.
	pending *connection.Verdict
}

func newRunner(cfg config.Config, logger *slog.Logger, con *console.Console, m *metrics.Metrics, states *persistence.StateStore, events log.Logger) *runner {
	return &runner{
		cfg:     cfg,
		logger:  logger,
		console: con,
		metrics: m,
		states:  states,
		events:  log.OrNoop(events),
		now:     time.Now,
	}
}

// begin resets the per-run counters of the persisted state.
func (r *runner) begin() {
	r.updateState(func(st *persistence.BotState) {
		st.StartedAt = r.now()
		st.Attempts = 0
		st.Reconnects = 0
		st.CommandsHandled = 0
		st.Terminated = false
	})
}

func (r *runner) manager(attempt connection.AttemptFunc) *connection.Manager {
	mgr := connection.NewManager(func(ctx context.Context, n int) (connection.Outcome, error) {
		r.metrics.AttemptStarted()
		r.updateState(func(st *persistence.BotState) { st.Attempts++ })
		return attempt(ctx, n)
	}, r.cfg.Reconnect.Policy())

	mgr.OnStateChange(r.managerStateChanged)
	mgr.OnDisconnected(r.disconnected)
	mgr.OnReconnecting(r.reconnecting)
	return mgr
}

func (r *runner) hooks() session.Hooks {
	mh := r.metrics.Hooks()
	return session.Hooks{
		OnStart: func(id string) {
			r.mu.Lock()
			r.attemptID = id
			r.opened = false
			r.mu.Unlock()
		},
		OnStateChange: mh.OnStateChange,
		OnOpen: func(jid string) {
			r.mu.Lock()
			r.opened = true
			if jid != "" {
				r.account = jid
			}
			r.mu.Unlock()
			r.updateState(func(st *persistence.BotState) {
				if jid != "" {
					st.Account = jid
				}
				st.LastOpenAt = r.now()
			})
		},
		OnCommand: func(name string) {
			mh.OnCommand(name)
			r.updateState(func(st *persistence.BotState) { st.CommandsHandled++ })
		},
		OnPairing: mh.OnPairing,
	}
}

func (r *runner) managerStateChanged(oldState, newState connection.State) {
	r.logger.Debug("connection manager state changed", "old", oldState.String(), "new", newState.String())
	r.emit(log.CategoryState, func(e *log.Event) {
		e.StateChange = &log.StateChangeEvent{
			Entity:   log.StateEntityManager,
			OldState: oldState.String(),
			NewState: newState.String(),
		}
	})
}

func (r *runner) disconnected(v connection.Verdict) {
	r.console.Disconnected(v)
	r.metrics.Disconnected(v)
	r.logger.Info("connection closed",
		"reason", v.Reason.String(),
		"class", v.Class.String(),
		"reconnect", v.Reconnect)

	r.updateState(func(st *persistence.BotState) {
		st.LastDisconnect = &persistence.DisconnectRecord{
			At:              r.now(),
			Reason:          int(v.Reason),
			Class:           v.Class.String(),
			Reconnect:       v.Reconnect,
			WipeCredentials: v.WipeCredentials,
		}
		st.Terminated = !v.Reconnect
	})

	if v.Reconnect {
		r.mu.Lock()
		r.pending = &v
		r.mu.Unlock()
		return
	}
	r.emitDisconnect(v, 0, 0)
}

func (r *runner) reconnecting(attempt int, delay time.Duration) {
	r.console.Reconnecting(attempt, delay)
	r.metrics.Reconnecting(delay)
	r.logger.Info("reconnecting", "attempt", attempt, "delay", delay)
	r.updateState(func(st *persistence.BotState) { st.Reconnects++ })

	if v := r.takePending(); v != nil {
		r.emitDisconnect(*v, attempt, delay)
	}
}

func (r *runner) takePending() *connection.Verdict {
	r.mu.Lock()
	defer r.mu.Unlock()
	v := r.pending
	r.pending = nil
	return v
}

// finish turns the manager result into the command result. A terminal
// session idles until ctx is done unless ExitOnTerminal is set.
func (r *runner) finish(ctx context.Context, err error) error {
	if v := r.takePending(); v != nil {
		r.emitDisconnect(*v, 0, 0)
	}

	var terminal *connection.TerminalError
	var invalid *session.InvalidPhoneNumberError
	var pairing *session.PairingError
	switch {
	case err == nil || errors.Is(err, context.Canceled):
		r.logger.Info("shutting down")
		return nil

	case errors.As(err, &terminal):
		r.console.Terminated(terminal.Verdict)
		if r.cfg.ExitOnTerminal {
			return reported(exitTerminated, err)
		}
		r.logger.Info("session terminated, waiting for signal", "reason", terminal.Verdict.Reason.String())
		<-ctx.Done()
		return nil

	case errors.As(err, &invalid), errors.As(err, &pairing):
		// The pairing flow already explained the failure.
		r.emitError(err, "pairing")
		return reported(exitFailure, err)

	default:
		r.emitError(err, "run")
		r.console.Fatal(err)
		return reported(exitFailure, err)
	}
}

func (r *runner) emitDisconnect(v connection.Verdict, next int, delay time.Duration) {
	r.mu.Lock()
	opened := r.opened
	r.mu.Unlock()

	d := &log.DisconnectEvent{
		Reason:          int(v.Reason),
		Class:           v.Class.String(),
		Reconnect:       v.Reconnect,
		WipeCredentials: v.WipeCredentials,
		Opened:          opened,
	}
	if next > 0 {
		d.Delay = &delay
		d.NextAttempt = next
	}
	r.emit(log.CategoryDisconnect, func(e *log.Event) { e.Disconnect = d })
}

func (r *runner) emitError(err error, op string) {
	r.emit(log.CategoryError, func(e *log.Event) {
		e.Error = &log.ErrorEventData{Message: err.Error(), Context: op}
	})
}

func (r *runner) emit(cat log.Category, fill func(*log.Event)) {
	r.mu.Lock()
	e := log.Event{
		Timestamp: r.now(),
		AttemptID: r.attemptID,
		Component: log.ComponentConnection,
		Category:  cat,
		Account:   r.account,
	}
	r.mu.Unlock()

	fill(&e)
	r.events.Log(e)
}

func (r *runner) updateState(fn func(*persistence.BotState)) {
	if err := r.states.Update(fn); err != nil {
		r.logger.Warn("saving bot state failed", "path", r.states.Path(), "err", err)
	}
}
