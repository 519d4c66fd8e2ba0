// Package metrics exposes bot counters and a health endpoint over HTTP.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/whatsbot/whatsbot-go/pkg/connection"
	"github.com/whatsbot/whatsbot-go/pkg/session"
)

const namespace = "whatsbot"

// ShutdownTimeout bounds graceful server shutdown.
const ShutdownTimeout = 5 * time.Second

// Metrics holds the bot's collectors on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	attempts     prometheus.Counter
	disconnects  *prometheus.CounterVec
	reconnects   prometheus.Counter
	backoff      prometheus.Histogram
	commands     *prometheus.CounterVec
	pairingCodes prometheus.Counter
	connected    prometheus.Gauge

	open atomic.Bool
}

// New creates and registers the collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		attempts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "connection_attempts_total",
			Help:      "Connection attempts started.",
		}),
		disconnects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "disconnects_total",
			Help:      "Closed connections by reason code and class.",
		}, []string{"reason", "class"}),
		reconnects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reconnects_total",
			Help:      "Scheduled reconnections.",
		}),
		backoff: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "reconnect_delay_seconds",
			Help:      "Delay before each scheduled reconnection.",
			Buckets:   []float64{1, 5, 10, 20, 40, 60, 120},
		}),
		commands: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "commands_total",
			Help:      "Commands answered by name.",
		}, []string{"command"}),
		pairingCodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pairing_codes_total",
			Help:      "Pairing codes displayed to the operator.",
		}),
		connected: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected",
			Help:      "1 while the connection is open.",
		}),
	}

	m.registry.MustRegister(
		m.attempts,
		m.disconnects,
		m.reconnects,
		m.backoff,
		m.commands,
		m.pairingCodes,
		m.connected,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) AttemptStarted() {
	m.attempts.Inc()
}

func (m *Metrics) Disconnected(v connection.Verdict) {
	m.disconnects.WithLabelValues(v.Reason.Code(), v.Class.String()).Inc()
}

func (m *Metrics) Reconnecting(delay time.Duration) {
	m.reconnects.Inc()
	m.backoff.Observe(delay.Seconds())
}

func (m *Metrics) CommandHandled(name string) {
	m.commands.WithLabelValues(name).Inc()
}

// SessionState tracks whether the connection is open.
func (m *Metrics) SessionState(_, newState session.State) {
	open := newState == session.StateOpen
	m.open.Store(open)
	if open {
		m.connected.Set(1)
	} else {
		m.connected.Set(0)
	}
}

func (m *Metrics) PairingState(s session.PairingState) {
	if s == session.PairingCompleted {
		m.pairingCodes.Inc()
	}
}

// Open reports whether the last observed session state was open.
func (m *Metrics) Open() bool {
	return m.open.Load()
}

// Hooks returns session hooks feeding these metrics.
func (m *Metrics) Hooks() session.Hooks {
	return session.Hooks{
		OnStateChange: m.SessionState,
		OnCommand:     m.CommandHandled,
		OnPairing:     m.PairingState,
	}
}

// NewHandler serves /metrics and /healthz. Health is 200 while the
// connection is open and 503 otherwise.
func NewHandler(m *Metrics) http.Handler {
	r := chi.NewRouter()
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		if !m.Open() {
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte("disconnected\n"))
			return
		}
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

// Serve listens on addr and serves h until ctx is cancelled.
func Serve(ctx context.Context, addr string, h http.Handler) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return ServeListener(ctx, ln, h)
}

// ServeListener serves h on ln until ctx is cancelled, then shuts down
// gracefully. It returns nil after a clean shutdown.
func ServeListener(ctx context.Context, ln net.Listener, h http.Handler) error {
	srv := &http.Server{
		Handler:           h,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errc := make(chan error, 1)
	go func() { errc <- srv.Serve(ln) }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errc; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
