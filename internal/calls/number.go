package calls

import (
	"strings"

	"framing-command-center/internal/apperr"
)

// MinDialDigits is the shortest dialable input, a bare US number.
const MinDialDigits = 10

// NormalizeE164 turns free-form dial input into an E.164-shaped string.
//
//	10 digits                -> +1 + digits
//	11 digits starting with 1 -> + + digits
//	anything else >= 10       -> + + digits
//
// Fewer than 10 digits is a validation error.
func NormalizeE164(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()

	switch {
	case len(digits) < MinDialDigits:
		return "", apperr.Validation("phone number", "must contain at least 10 digits")
	case len(digits) == 10:
		return "+1" + digits, nil
	default:
		return "+" + digits, nil
	}
}
