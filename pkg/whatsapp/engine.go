package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"

	"github.com/whatsbot/whatsbot-go/pkg/session"
	"github.com/whatsbot/whatsbot-go/pkg/version"
)

// DefaultClientDisplayName is shown on the phone's linked devices screen.
const DefaultClientDisplayName = "Chrome (Mac OS)"

// DefaultVersionTimeout bounds the published version lookup.
const DefaultVersionTimeout = 10 * time.Second

// Config configures the engine.
type Config struct {
	// ClientDisplayName is announced when requesting a pairing code.
	ClientDisplayName string

	// ShowPushNotification asks the phone to show a notification for the
	// pairing code.
	ShowPushNotification bool

	// FetchLatestVersion enables the published version lookup.
	FetchLatestVersion bool

	// HTTPClient is used for the version lookup. Nil means a client with
	// DefaultVersionTimeout.
	HTTPClient *http.Client

	Logger *slog.Logger
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		ClientDisplayName:    DefaultClientDisplayName,
		ShowPushNotification: true,
		FetchLatestVersion:   true,
	}
}

// Engine creates whatsmeow connections. It implements session.Engine.
type Engine struct {
	cfg Config
	log *slog.Logger

	mu     sync.Mutex
	latest *session.VersionInfo
}

// NewEngine creates an engine.
func NewEngine(cfg Config) *Engine {
	if cfg.ClientDisplayName == "" {
		cfg.ClientDisplayName = DefaultClientDisplayName
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: DefaultVersionTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Engine{cfg: cfg, log: cfg.Logger}
}

// Version returns the web client version to announce. When the lookup is
// enabled the published version is fetched once and cached until a
// connection is rejected as outdated; a newer published version replaces
// the built-in one for all later connections.
func (e *Engine) Version(ctx context.Context) (session.VersionInfo, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.latest != nil {
		return *e.latest, nil
	}

	builtin := store.GetWAVersion()
	info := session.VersionInfo{Version: version.FromParts(builtin)}
	if !e.cfg.FetchLatestVersion {
		return info, nil
	}

	latest, err := whatsmeow.GetLatestVersion(withContext(ctx, e.cfg.HTTPClient))
	if err != nil {
		return info, fmt.Errorf("fetch latest version: %w", err)
	}
	if builtin.LessThan(*latest) {
		store.SetWAVersion(*latest)
		e.log.Debug("using published web version", "builtin", builtin.String(), "latest", latest.String())
	}

	info = session.VersionInfo{Version: version.FromParts(store.GetWAVersion()), Latest: true}
	e.latest = &info
	return info, nil
}

// NewConn creates a connection for a device loaded from SQLStore.
func (e *Engine) NewConn(creds session.Credentials, onChange func(session.Credentials)) (session.Conn, error) {
	dev, ok := creds.(*Device)
	if !ok || dev.Device == nil {
		return nil, ErrForeignCredentials
	}
	if onChange == nil {
		return nil, errors.New("credential change callback is required")
	}

	client := whatsmeow.NewClient(dev.Device, NewLogger(e.log, "Client"))
	client.EnableAutoReconnect = false

	c := newConn(client, dev, onChange, e.cfg, e.log)
	c.outdated = e.forgetVersion
	return c, nil
}

// forgetVersion drops the cached version so the next Version call asks
// again.
func (e *Engine) forgetVersion() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.latest != nil {
		e.log.Info("client outdated, version lookup will be repeated")
	}
	e.latest = nil
}

// withContext returns a copy of hc whose requests carry ctx.
func withContext(ctx context.Context, hc *http.Client) *http.Client {
	c := *hc
	base := c.Transport
	if base == nil {
		base = http.DefaultTransport
	}
	c.Transport = &ctxTransport{ctx: ctx, base: base}
	return &c
}

type ctxTransport struct {
	ctx  context.Context
	base http.RoundTripper
}

func (t *ctxTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return t.base.RoundTrip(req.WithContext(t.ctx))
}

var _ session.Engine = (*Engine)(nil)
