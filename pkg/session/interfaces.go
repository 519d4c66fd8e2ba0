package session

import (
	"context"

	"github.com/whatsbot/whatsbot-go/pkg/version"
)

// Credentials is an opaque persisted authentication bundle.
type Credentials interface {
	// Registered reports whether the bundle identifies a linked device.
	Registered() bool
}

// CredentialStore loads and saves credentials. Save must be idempotent.
type CredentialStore interface {
	Load(ctx context.Context) (Credentials, error)
	Save(creds Credentials) error
}

// Conn is one engine connection. Events are delivered in emission order and
// the channel is closed after the connection is closed.
type Conn interface {
	Events() <-chan Event
	Connect(ctx context.Context) error
	RequestPairingCode(ctx context.Context, phone string) (string, error)
	SendText(ctx context.Context, chat, text string) error
	Close() error
}

// VersionInfo describes the web client version the engine will announce.
type VersionInfo struct {
	Version version.Version

	// Latest reports whether Version is the newest published version.
	Latest bool
}

// Engine builds connections.
type Engine interface {
	// Version returns the version to announce. On error the returned info
	// still holds the engine's built-in version.
	Version(ctx context.Context) (VersionInfo, error)

	// NewConn creates a connection for creds. onChange is called after every
	// credential mutation. The connection's event handler is registered
	// before NewConn returns.
	NewConn(creds Credentials, onChange func(Credentials)) (Conn, error)
}

// Prompter asks the operator for a line of input.
type Prompter interface {
	Prompt(ctx context.Context, label string) (string, error)
}

// Reporter renders operator-facing status output. The pairing methods are
// called from the pairing task, so implementations must be safe for
// concurrent use.
type Reporter interface {
	Version(info VersionInfo)
	Connecting()
	PairingInstructions()
	PhoneAccepted(phone string)
	PairingCode(code string)
	PairingFailed(err error)
	Linked(jid string)
	Open(commands []string)
	Incoming(msg Message)
	Replied(command string)
}

// NopReporter discards all output.
type NopReporter struct{}

func (NopReporter) Version(VersionInfo)  {}
func (NopReporter) Connecting()          {}
func (NopReporter) PairingInstructions() {}
func (NopReporter) PhoneAccepted(string) {}
func (NopReporter) PairingCode(string)   {}
func (NopReporter) PairingFailed(error)  {}
func (NopReporter) Linked(string)        {}
func (NopReporter) Open([]string)        {}
func (NopReporter) Incoming(Message)     {}
func (NopReporter) Replied(string)       {}

var _ Reporter = NopReporter{}

// Hooks observe a session. All fields are optional. OnPairing is called from
// the pairing task, the others from the goroutine running the attempt.
type Hooks struct {
	// OnStart receives the attempt ID once Bootstrap assigned it.
	OnStart       func(attemptID string)
	OnStateChange func(oldState, newState State)
	OnOpen        func(jid string)
	OnCommand     func(name string)
	OnPairing     func(state PairingState)
}
