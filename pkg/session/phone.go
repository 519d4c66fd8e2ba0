package session

import (
	"strings"
	"time"
)

// Phone number bounds, in digits.
const (
	MinPhoneDigits = 10
	MaxPhoneDigits = 15
)

// PairingCodeTTL is how long the server accepts a pairing code. It is shown
// to the operator and not enforced locally.
const PairingCodeTTL = 60 * time.Second

// CleanPhoneNumber strips every character that is not an ASCII digit.
func CleanPhoneNumber(input string) string {
	var b strings.Builder
	b.Grow(len(input))
	for i := 0; i < len(input); i++ {
		if c := input[i]; c >= '0' && c <= '9' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// NormalizePhoneNumber cleans input and checks the digit count.
func NormalizePhoneNumber(input string) (string, error) {
	phone := CleanPhoneNumber(input)
	if len(phone) < MinPhoneDigits || len(phone) > MaxPhoneDigits {
		return "", &InvalidPhoneNumberError{Digits: len(phone)}
	}
	return phone, nil
}

// FormatPairingCode returns the code as displayed to the operator.
func FormatPairingCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// MaskPhoneNumber hides all but the first two and last two digits.
func MaskPhoneNumber(phone string) string {
	if len(phone) <= 4 {
		return strings.Repeat("*", len(phone))
	}
	return phone[:2] + strings.Repeat("*", len(phone)-4) + phone[len(phone)-2:]
}
