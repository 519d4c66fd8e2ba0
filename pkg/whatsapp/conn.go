package whatsapp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/proto/waE2E"
	"go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"google.golang.org/protobuf/proto"

	"github.com/whatsbot/whatsbot-go/pkg/connection"
	"github.com/whatsbot/whatsbot-go/pkg/session"
)

// eventBuffer is the capacity of the session event channel.
const eventBuffer = 64

// ErrConnClosed is returned by operations on a closed connection.
var ErrConnClosed = errors.New("connection closed")

// client is the subset of *whatsmeow.Client used by conn.
type client interface {
	Connect() error
	Disconnect()
	PairPhone(phone string, showPushNotification bool, clientType whatsmeow.PairClientType, clientDisplayName string) (string, error)
	SendMessage(ctx context.Context, to types.JID, message *waE2E.Message, extra ...whatsmeow.SendRequestExtra) (whatsmeow.SendResponse, error)
	AddEventHandler(handler whatsmeow.EventHandler) uint32
	RemoveEventHandler(id uint32) bool
}

type conn struct {
	client   client
	device   *Device
	onChange func(session.Credentials)
	cfg      Config
	log      *slog.Logger

	// outdated is called when the server rejects the announced version.
	outdated func()

	handlerID uint32

	events chan session.Event

	// done is closed first on Close so blocked emitters give up.
	done chan struct{}

	// ready is closed on the first pairing challenge. Pairing codes can only
	// be requested after the server offered one.
	ready     chan struct{}
	readyOnce sync.Once

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
}

func newConn(c client, dev *Device, onChange func(session.Credentials), cfg Config, logger *slog.Logger) *conn {
	cn := &conn{
		client:   c,
		device:   dev,
		onChange: onChange,
		cfg:      cfg,
		log:      logger,
		events:   make(chan session.Event, eventBuffer),
		done:     make(chan struct{}),
		ready:    make(chan struct{}),
	}
	cn.handlerID = c.AddEventHandler(cn.handle)
	return cn
}

func (c *conn) Events() <-chan session.Event {
	return c.events
}

// Connect dials the server and returns once the handshake finished. The
// outcome of authentication arrives as events.
func (c *conn) Connect(ctx context.Context) error {
	select {
	case <-c.done:
		return ErrConnClosed
	default:
	}
	c.emit(session.Connecting{})

	errc := make(chan error, 1)
	go func() { errc <- c.client.Connect() }()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-c.done:
		return ErrConnClosed
	}
}

// RequestPairingCode asks the server for a code linking phone. It waits for
// the first pairing challenge before sending the request.
func (c *conn) RequestPairingCode(ctx context.Context, phone string) (string, error) {
	select {
	case <-c.ready:
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.done:
		return "", ErrConnClosed
	}

	type result struct {
		code string
		err  error
	}
	resc := make(chan result, 1)
	go func() {
		code, err := c.client.PairPhone(phone, c.cfg.ShowPushNotification, whatsmeow.PairClientChrome, c.cfg.ClientDisplayName)
		resc <- result{code, err}
	}()

	select {
	case r := <-resc:
		return r.code, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	case <-c.done:
		return "", ErrConnClosed
	}
}

func (c *conn) SendText(ctx context.Context, chat, text string) error {
	to, err := types.ParseJID(chat)
	if err != nil {
		return fmt.Errorf("parse chat %q: %w", chat, err)
	}
	_, err = c.client.SendMessage(ctx, to, &waE2E.Message{Conversation: proto.String(text)})
	return err
}

// Close disconnects and closes the event channel. It is idempotent.
func (c *conn) Close() error {
	c.closeOnce.Do(func() {
		close(c.done)
		c.client.RemoveEventHandler(c.handlerID)
		c.client.Disconnect()

		c.mu.Lock()
		c.closed = true
		close(c.events)
		c.mu.Unlock()
	})
	return nil
}

func (c *conn) handle(evt any) {
	switch e := evt.(type) {
	case *events.QR:
		c.readyOnce.Do(func() { close(c.ready) })
	case *events.StreamError:
		c.log.Debug("stream error", "code", e.Code)
		return
	case *events.KeepAliveTimeout:
		c.log.Debug("keepalive timeout", "errors", e.ErrorCount)
		return
	case *events.CATRefreshError:
		c.log.Warn("token refresh failed", "error", e.Error)
		return
	}

	ev, ok := translate(evt)
	if !ok {
		return
	}

	switch e := ev.(type) {
	case session.Paired:
		c.onChange(c.device)
	case session.Open:
		ev = session.Open{JID: c.device.JID()}
		c.onChange(c.device)
	case session.Closed:
		if e.Reason == connection.ReasonClientOutdated && c.outdated != nil {
			c.outdated()
		}
	}

	c.emit(ev)
}

func (c *conn) emit(ev session.Event) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return
	}
	select {
	case c.events <- ev:
	case <-c.done:
	}
}

var _ session.Conn = (*conn)(nil)
