package notify

import (
	"errors"
	"strings"
)

var ErrInvalidPhone = errors.New("invalid phone number")

// NormalizePhone reduces an Indian mobile number to its 10 digits, dropping
// separators, a +91 or 91 country prefix and a leading trunk zero.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range strings.TrimSpace(raw) {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == ' ' || r == '-' || r == '(' || r == ')' || r == '+':
		default:
			return "", ErrInvalidPhone
		}
	}
	digits := b.String()

	switch {
	case len(digits) == 12 && strings.HasPrefix(digits, "91"):
		digits = digits[2:]
	case len(digits) == 11 && strings.HasPrefix(digits, "0"):
		digits = digits[1:]
	}
	if len(digits) != 10 {
		return "", ErrInvalidPhone
	}
	return digits, nil
}

// WithCountryCode renders a normalised number as +91XXXXXXXXXX.
func WithCountryCode(phone string) string { return "+91" + phone }
