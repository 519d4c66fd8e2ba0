package session

import "github.com/whatsbot/whatsbot-go/pkg/connection"

// Event is a lifecycle or message event emitted by a Conn.
type Event interface {
	isEvent()
}

// Connecting is emitted when the engine starts dialling.
type Connecting struct{}

// PairingChallenge is emitted when the server offers pairing material to an
// unregistered device.
type PairingChallenge struct {
	// Codes is the number of challenge codes offered.
	Codes int
}

// Paired is emitted when the phone accepted the pairing code.
type Paired struct {
	JID string
}

// Open is emitted when the connection is authenticated and ready.
type Open struct {
	JID string
}

// Closed is emitted once when the connection ends. Reason is
// connection.ReasonNone when the engine supplied none.
type Closed struct {
	Reason connection.Reason
}

// Incoming carries an inbound chat message.
type Incoming struct {
	Message Message
}

func (Connecting) isEvent()       {}
func (PairingChallenge) isEvent() {}
func (Paired) isEvent()           {}
func (Open) isEvent()             {}
func (Closed) isEvent()           {}
func (Incoming) isEvent()         {}

// Kind is the payload kind of an inbound message.
type Kind uint8

const (
	// KindOther is any payload without extractable text.
	KindOther Kind = iota
	// KindConversation is a plain text message.
	KindConversation
	// KindExtendedText is a text message with context (reply, link preview).
	KindExtendedText
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindConversation:
		return "conversation"
	case KindExtendedText:
		return "extended-text"
	default:
		return "other"
	}
}

// Message is an inbound chat message. It is consumed once and not retained.
type Message struct {
	ID       string
	Chat     string
	Sender   string
	PushName string
	Group    bool
	FromMe   bool
	Kind     Kind

	// Text is the extracted text, empty for KindOther.
	Text string
}

// State is the connection state as seen by the session.
type State uint8

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return "unknown"
	}
}
