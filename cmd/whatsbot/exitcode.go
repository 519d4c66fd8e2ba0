package main

import (
	"context"
	"errors"
)

// Process exit codes.
const (
	exitOK         = 0
	exitFailure    = 1
	exitTerminated = 2
)

// exitError carries an exit code. Reported errors were already shown to the
// operator and are not printed again.
type exitError struct {
	code     int
	err      error
	reported bool
}

func (e *exitError) Error() string {
	return e.err.Error()
}

func (e *exitError) Unwrap() error {
	return e.err
}

// reported wraps an error the console already explained.
func reported(code int, err error) error {
	return &exitError{code: code, err: err, reported: true}
}

func isReported(err error) bool {
	var ee *exitError
	return errors.As(err, &ee) && ee.reported
}

// exitCode maps a command error to the process exit code. Cancellation by
// signal is a clean exit.
func exitCode(err error) int {
	if err == nil || errors.Is(err, context.Canceled) {
		return exitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFailure
}
