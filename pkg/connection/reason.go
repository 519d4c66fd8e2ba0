package connection

import "strconv"

// Reason is the status code reported by the protocol engine when a
// connection closes. Codes follow the WhatsApp Web stream status values.
type Reason int

// Known disconnect reasons.
const (
	// ReasonNone means the engine supplied no reason.
	ReasonNone Reason = 0

	ReasonLoggedOut           Reason = 401
	ReasonForbidden           Reason = 403
	ReasonClientOutdated      Reason = 405
	ReasonConnectionLost      Reason = 408
	ReasonMultideviceMismatch Reason = 411

	// ReasonConnectionClosed means the server closed the connection.
	ReasonConnectionClosed Reason = 428

	ReasonConnectionReplaced Reason = 440

	// ReasonBadSession means the local session state was rejected or is corrupt.
	ReasonBadSession Reason = 500

	ReasonUnavailableService Reason = 503
	ReasonRestartRequired    Reason = 515
)

var reasonNames = map[Reason]string{
	ReasonNone:                "none",
	ReasonLoggedOut:           "logged out",
	ReasonForbidden:           "forbidden",
	ReasonClientOutdated:      "client outdated",
	ReasonConnectionLost:      "connection lost",
	ReasonMultideviceMismatch: "multi-device mismatch",
	ReasonConnectionClosed:    "connection closed",
	ReasonConnectionReplaced:  "connection replaced",
	ReasonBadSession:          "bad session",
	ReasonUnavailableService:  "service unavailable",
	ReasonRestartRequired:     "restart required",
}

// String returns the reason name with its code, e.g. "logged out (401)".
func (r Reason) String() string {
	if r == ReasonNone {
		return "none"
	}
	name, ok := reasonNames[r]
	if !ok {
		name = "unknown"
	}
	return name + " (" + strconv.Itoa(int(r)) + ")"
}

// Code returns the numeric code, or "-" when no reason was supplied.
func (r Reason) Code() string {
	if r == ReasonNone {
		return "-"
	}
	return strconv.Itoa(int(r))
}
