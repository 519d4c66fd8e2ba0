package session

import (
	"errors"
	"fmt"
)

// Session errors.
var (
	ErrInvalidPhoneNumber = errors.New("invalid phone number")
	ErrPairingStarted     = errors.New("pairing flow already started")
	ErrNoCredentialStore  = errors.New("no credential store configured")
	ErrNoEngine           = errors.New("no engine configured")
)

// InvalidPhoneNumberError reports a phone number whose digit count is out of
// range. It matches ErrInvalidPhoneNumber.
type InvalidPhoneNumberError struct {
	Digits int
}

func (e *InvalidPhoneNumberError) Error() string {
	return fmt.Sprintf("invalid phone number: %d digits, %d-%d required", e.Digits, MinPhoneDigits, MaxPhoneDigits)
}

// Is reports ErrInvalidPhoneNumber as a match.
func (e *InvalidPhoneNumberError) Is(target error) bool {
	return target == ErrInvalidPhoneNumber
}

// PairingError reports a failed pairing-code request.
type PairingError struct {
	// Phone is the cleaned number, empty if the prompt itself failed.
	Phone string
	Err   error
}

func (e *PairingError) Error() string {
	if e.Phone == "" {
		return fmt.Sprintf("pairing failed: %v", e.Err)
	}
	return fmt.Sprintf("pairing code request for %s failed: %v", MaskPhoneNumber(e.Phone), e.Err)
}

func (e *PairingError) Unwrap() error {
	return e.Err
}
