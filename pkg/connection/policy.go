package connection

import "time"

// Class groups disconnect reasons by how the bot must react to them.
type Class uint8

const (
	// ClassTransient covers any reason not listed below, including none.
	ClassTransient Class = iota

	// ClassLoggedOut means the device was unlinked. Fatal.
	ClassLoggedOut

	// ClassBadSession means the stored credentials are unusable. Fatal.
	ClassBadSession

	// ClassClosedByPeer means the server closed the connection, typically
	// after an expired pairing code or with too many linked devices.
	ClassClosedByPeer
)

// String returns a human-readable class name.
func (c Class) String() string {
	switch c {
	case ClassTransient:
		return "transient"
	case ClassLoggedOut:
		return "logged-out"
	case ClassBadSession:
		return "bad-session"
	case ClassClosedByPeer:
		return "closed-by-peer"
	default:
		return "unknown"
	}
}

// Fatal reports whether the class ends the session for good.
func (c Class) Fatal() bool {
	return c == ClassLoggedOut || c == ClassBadSession
}

// Verdict is the classifier's decision for one closed connection.
type Verdict struct {
	Reason Reason
	Class  Class

	// Reconnect is true when a new attempt must be scheduled.
	Reconnect bool

	// WipeCredentials is true when the operator should delete the persisted
	// credentials and restart.
	WipeCredentials bool

	// Hints lists likely causes to show the operator.
	Hints []string
}

// Classify maps a disconnect reason to a verdict.
func Classify(reason Reason) Verdict {
	switch reason {
	case ReasonLoggedOut:
		return Verdict{
			Reason: reason,
			Class:  ClassLoggedOut,
			Hints: []string{
				"the device was unlinked from the phone",
			},
		}
	case ReasonBadSession:
		return Verdict{
			Reason:          reason,
			Class:           ClassBadSession,
			WipeCredentials: true,
			Hints: []string{
				"the stored session is invalid or corrupt",
			},
		}
	case ReasonConnectionClosed:
		return Verdict{
			Reason:          reason,
			Class:           ClassClosedByPeer,
			Reconnect:       true,
			WipeCredentials: true,
			Hints: []string{
				"pairing code expired (more than 60 seconds)",
				"wrong phone number",
				"too many linked devices",
			},
		}
	default:
		return Verdict{
			Reason:    reason,
			Class:     ClassTransient,
			Reconnect: true,
		}
	}
}

// Outcome describes how one connection attempt ended.
type Outcome struct {
	// Opened is true if the attempt reached the open state.
	Opened bool

	// Reason is the close reason reported by the engine.
	Reason Reason
}

// Policy bounds automatic reconnection.
type Policy struct {
	Backoff BackoffConfig

	// MaxAttempts caps consecutive reconnections without reaching open.
	// Zero means unlimited.
	MaxAttempts int

	// MaxElapsed caps the time spent reconnecting since the last open.
	// Zero means unlimited.
	MaxElapsed time.Duration
}

// DefaultPolicy returns the default policy: a fixed delay, no ceiling.
func DefaultPolicy() Policy {
	return Policy{Backoff: DefaultBackoffConfig()}
}
