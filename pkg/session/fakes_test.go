package session_test

import (
	"context"
	"sync"

	"github.com/whatsbot/whatsbot-go/pkg/session"
	"github.com/whatsbot/whatsbot-go/pkg/version"
)

type fakeCreds struct {
	registered bool
}

func (c fakeCreds) Registered() bool { return c.registered }

// fakeConn is a Conn driven by the test through its event channel.
type fakeConn struct {
	events chan session.Event

	connectErr error
	pairCode   string
	pairErr    error

	mu        sync.Mutex
	requests  []string
	sent      []sentText
	sendErr   error
	closed    bool
	connected bool

	// requested receives the phone number of each pairing request.
	requested chan string
}

type sentText struct {
	chat string
	text string
}

func newFakeConn(events ...session.Event) *fakeConn {
	c := &fakeConn{
		events:    make(chan session.Event, 32),
		pairCode:  "abcd-efgh",
		requested: make(chan string, 8),
	}
	for _, ev := range events {
		c.events <- ev
	}
	return c
}

func (c *fakeConn) Events() <-chan session.Event { return c.events }

func (c *fakeConn) Connect(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.connectErr != nil {
		return c.connectErr
	}
	c.connected = true
	return nil
}

func (c *fakeConn) RequestPairingCode(ctx context.Context, phone string) (string, error) {
	c.mu.Lock()
	c.requests = append(c.requests, phone)
	c.mu.Unlock()
	c.requested <- phone
	if c.pairErr != nil {
		return "", c.pairErr
	}
	return c.pairCode, nil
}

func (c *fakeConn) SendText(ctx context.Context, chat, text string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.sendErr != nil {
		return c.sendErr
	}
	c.sent = append(c.sent, sentText{chat: chat, text: text})
	return nil
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	return nil
}

func (c *fakeConn) Requests() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.requests...)
}

func (c *fakeConn) Sent() []sentText {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]sentText(nil), c.sent...)
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeEngine hands out queued connections, one per NewConn call.
type fakeEngine struct {
	mu         sync.Mutex
	conns      []*fakeConn
	created    int
	info       session.VersionInfo
	versionErr error
	newConnErr error
	onChange   func(session.Credentials)
}

func newFakeEngine(conns ...*fakeConn) *fakeEngine {
	return &fakeEngine{
		conns: conns,
		info:  session.VersionInfo{Version: version.Version{Major: 2, Minor: 3000, Patch: 1019}, Latest: true},
	}
}

func (e *fakeEngine) Version(ctx context.Context) (session.VersionInfo, error) {
	return e.info, e.versionErr
}

func (e *fakeEngine) NewConn(creds session.Credentials, onChange func(session.Credentials)) (session.Conn, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.newConnErr != nil {
		return nil, e.newConnErr
	}
	e.onChange = onChange
	conn := e.conns[e.created]
	e.created++
	return conn, nil
}

func (e *fakeEngine) Created() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.created
}

// recordingReporter records the names of the calls it receives.
type recordingReporter struct {
	mu    sync.Mutex
	calls []string
	errs  []error
	codes []string
}

func (r *recordingReporter) record(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, name)
}

func (r *recordingReporter) Version(session.VersionInfo) { r.record("version") }
func (r *recordingReporter) Connecting()                 { r.record("connecting") }
func (r *recordingReporter) PairingInstructions()        { r.record("instructions") }
func (r *recordingReporter) PhoneAccepted(string)        { r.record("phone") }
func (r *recordingReporter) Linked(string)               { r.record("linked") }
func (r *recordingReporter) Open([]string)               { r.record("open") }
func (r *recordingReporter) Incoming(session.Message)    { r.record("incoming") }
func (r *recordingReporter) Replied(string)              { r.record("replied") }

func (r *recordingReporter) PairingCode(code string) {
	r.mu.Lock()
	r.codes = append(r.codes, code)
	r.mu.Unlock()
	r.record("code")
}

func (r *recordingReporter) PairingFailed(err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.mu.Unlock()
	r.record("pairing-failed")
}

func (r *recordingReporter) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recordingReporter) Count(name string) int {
	n := 0
	for _, c := range r.Calls() {
		if c == name {
			n++
		}
	}
	return n
}
