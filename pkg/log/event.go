package log

import (
	"time"
)

// Event represents a session log event.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// AttemptID uniquely identifies the connection attempt (UUID).
	// Empty for events emitted outside an attempt.
	AttemptID string `cbor:"2,keyasint,omitempty"`

	// Component that emitted the event.
	Component Component `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Account is the linked account JID (populated once known).
	Account string `cbor:"5,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	StateChange *StateChangeEvent `cbor:"10,keyasint,omitempty"`
	Pairing     *PairingEvent     `cbor:"11,keyasint,omitempty"`
	Disconnect  *DisconnectEvent  `cbor:"12,keyasint,omitempty"`
	Command     *CommandEvent     `cbor:"13,keyasint,omitempty"`
	Credentials *CredentialsEvent `cbor:"14,keyasint,omitempty"`
	Error       *ErrorEventData   `cbor:"15,keyasint,omitempty"`
}

// Component indicates which part of the bot emitted the event.
type Component uint8

const (
	// ComponentConnection is the reconnection manager.
	ComponentConnection Component = 0
	// ComponentSession is the per-attempt session state machine.
	ComponentSession Component = 1
	// ComponentPairing is the pairing-code flow.
	ComponentPairing Component = 2
	// ComponentCommand is the command dispatcher.
	ComponentCommand Component = 3
	// ComponentEngine is the protocol engine adapter.
	ComponentEngine Component = 4
)

// String returns the component name.
func (c Component) String() string {
	switch c {
	case ComponentConnection:
		return "CONNECTION"
	case ComponentSession:
		return "SESSION"
	case ComponentPairing:
		return "PAIRING"
	case ComponentCommand:
		return "COMMAND"
	case ComponentEngine:
		return "ENGINE"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryState indicates a state change.
	CategoryState Category = 0
	// CategoryPairing indicates a pairing stage.
	CategoryPairing Category = 1
	// CategoryDisconnect indicates a classified disconnect.
	CategoryDisconnect Category = 2
	// CategoryCommand indicates a command exchange.
	CategoryCommand Category = 3
	// CategoryCredentials indicates a credential update.
	CategoryCredentials Category = 4
	// CategoryError indicates an error event.
	CategoryError Category = 5
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryState:
		return "STATE"
	case CategoryPairing:
		return "PAIRING"
	case CategoryDisconnect:
		return "DISCONNECT"
	case CategoryCommand:
		return "COMMAND"
	case CategoryCredentials:
		return "CREDENTIALS"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseCategory returns the category with the given name (case-sensitive,
// as returned by String).
func ParseCategory(name string) (Category, bool) {
	for c := CategoryState; c <= CategoryError; c++ {
		if c.String() == name {
			return c, true
		}
	}
	return 0, false
}

// StateChangeEvent captures connection and session lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityManager indicates a reconnection manager state change.
	StateEntityManager StateEntity = 0
	// StateEntitySession indicates a session state change.
	StateEntitySession StateEntity = 1
	// StateEntityPairing indicates a pairing flow state change.
	StateEntityPairing StateEntity = 2
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityManager:
		return "MANAGER"
	case StateEntitySession:
		return "SESSION"
	case StateEntityPairing:
		return "PAIRING"
	default:
		return "UNKNOWN"
	}
}

// PairingEvent captures a stage of the pairing-code flow.
type PairingEvent struct {
	// Stage reached.
	Stage PairingStage `cbor:"1,keyasint"`

	// Phone is the masked phone number, once entered.
	Phone string `cbor:"2,keyasint,omitempty"`

	// Error describes a failed stage.
	Error string `cbor:"3,keyasint,omitempty"`
}

// PairingStage identifies a step of the pairing-code flow.
type PairingStage uint8

const (
	// PairingPrompted means the operator was asked for a phone number.
	PairingPrompted PairingStage = 0
	// PairingRequested means a code was requested for a valid number.
	PairingRequested PairingStage = 1
	// PairingCodeIssued means the code was shown to the operator.
	PairingCodeIssued PairingStage = 2
	// PairingFailed means the flow ended with an error.
	PairingFailed PairingStage = 3
	// PairingLinked means the phone accepted the code.
	PairingLinked PairingStage = 4
)

// String returns the pairing stage name.
func (p PairingStage) String() string {
	switch p {
	case PairingPrompted:
		return "PROMPTED"
	case PairingRequested:
		return "REQUESTED"
	case PairingCodeIssued:
		return "CODE_ISSUED"
	case PairingFailed:
		return "FAILED"
	case PairingLinked:
		return "LINKED"
	default:
		return "UNKNOWN"
	}
}

// DisconnectEvent captures the classifier's verdict for a closed connection.
type DisconnectEvent struct {
	// Reason is the engine status code (0 when absent).
	Reason int `cbor:"1,keyasint"`

	// Class is the classifier's class name.
	Class string `cbor:"2,keyasint"`

	// Reconnect reports whether a new attempt is scheduled.
	Reconnect bool `cbor:"3,keyasint,omitempty"`

	// WipeCredentials reports whether the operator was told to wipe credentials.
	WipeCredentials bool `cbor:"4,keyasint,omitempty"`

	// Opened reports whether the attempt reached the open state.
	Opened bool `cbor:"5,keyasint,omitempty"`

	// Delay before the next attempt. Stored as nanoseconds.
	Delay *time.Duration `cbor:"6,keyasint,omitempty"`

	// NextAttempt is the number of the scheduled attempt.
	NextAttempt int `cbor:"7,keyasint,omitempty"`
}

// CommandEvent captures a command received or a reply sent.
type CommandEvent struct {
	// Direction distinguishes the incoming command from the outgoing reply.
	Direction Direction `cbor:"1,keyasint"`

	// Command is the matched command literal.
	Command string `cbor:"2,keyasint"`

	// Chat is the conversation JID.
	Chat string `cbor:"3,keyasint"`

	// Sender is the author JID.
	Sender string `cbor:"4,keyasint,omitempty"`

	// Group reports whether the chat is a group.
	Group bool `cbor:"5,keyasint,omitempty"`

	// Error describes a failed reply.
	Error string `cbor:"6,keyasint,omitempty"`
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// CredentialsEvent captures a credential lifecycle action.
type CredentialsEvent struct {
	// Action performed.
	Action CredentialsAction `cbor:"1,keyasint"`

	// Registered reports whether the credentials identify a linked device.
	Registered bool `cbor:"2,keyasint,omitempty"`
}

// CredentialsAction identifies a credential lifecycle action.
type CredentialsAction uint8

const (
	// CredentialsLoaded means credentials were read at attempt start.
	CredentialsLoaded CredentialsAction = 0
	// CredentialsSaved means the engine reported a change that was persisted.
	CredentialsSaved CredentialsAction = 1
	// CredentialsWiped means the stored credentials were deleted.
	CredentialsWiped CredentialsAction = 2
)

// String returns the action name.
func (a CredentialsAction) String() string {
	switch a {
	case CredentialsLoaded:
		return "LOADED"
	case CredentialsSaved:
		return "SAVED"
	case CredentialsWiped:
		return "WIPED"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors from any component.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Code is the error code (if applicable).
	Code *int `cbor:"2,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"3,keyasint,omitempty"`
}
