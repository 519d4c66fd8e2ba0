package main

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/whatsbot/whatsbot-go/pkg/connection"
	"github.com/whatsbot/whatsbot-go/pkg/session"
)

func TestExitCode(t *testing.T) {
	terminal := &connection.TerminalError{Verdict: connection.Classify(connection.ReasonLoggedOut)}

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"success", nil, exitOK},
		{"signal", fmt.Errorf("run: %w", context.Canceled), exitOK},
		{"invalid phone", &session.InvalidPhoneNumberError{Digits: 4}, exitFailure},
		{"pairing", &session.PairingError{Phone: "212612345678", Err: errors.New("rate limited")}, exitFailure},
		{"exhausted", fmt.Errorf("%w: 3 attempts", connection.ErrRetriesExhausted), exitFailure},
		{"terminal", reported(exitTerminated, terminal), exitTerminated},
		{"startup", reported(exitFailure, errors.New("open store")), exitFailure},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestReportedErrorsKeepTheirCause(t *testing.T) {
	terminal := &connection.TerminalError{Verdict: connection.Classify(connection.ReasonBadSession)}
	err := reported(exitTerminated, terminal)

	assert.True(t, isReported(err))
	assert.ErrorIs(t, err, connection.ErrSessionTerminated)
	assert.Equal(t, terminal.Error(), err.Error())
	assert.False(t, isReported(terminal))
}
