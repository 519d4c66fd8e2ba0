package log

import (
	"testing"
	"time"
)

func TestNoopLoggerDoesNotPanic(t *testing.T) {
	logger := NoopLogger{}

	event := Event{
		Timestamp: time.Now(),
		AttemptID: "test-attempt",
		Category:  CategoryState,
	}

	// Test with nil payloads
	logger.Log(event)

	event.StateChange = &StateChangeEvent{Entity: StateEntitySession, NewState: "open"}
	logger.Log(event)

	event.StateChange = nil
	event.Pairing = &PairingEvent{Stage: PairingPrompted}
	logger.Log(event)

	event.Pairing = nil
	event.Error = &ErrorEventData{Message: "test error"}
	logger.Log(event)
}

func TestLoggerInterfaceSatisfaction(t *testing.T) {
	var _ Logger = NoopLogger{}
	var _ Logger = &NoopLogger{}
}

func TestOrNoop(t *testing.T) {
	if _, ok := OrNoop(nil).(NoopLogger); !ok {
		t.Error("OrNoop(nil) should return NoopLogger")
	}
	m := &mockLogger{}
	if OrNoop(m) != Logger(m) {
		t.Error("OrNoop should return a non-nil logger unchanged")
	}
}
