package orders

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

const orderNumberPrefix = "JF"

// NewOrderNumber derives an order number from t's Unix milliseconds.
// Two orders created in the same millisecond collide; storage rejects the
// second with ErrDuplicateOrder.
func NewOrderNumber(t time.Time) string {
	return fmt.Sprintf("%s%d", orderNumberPrefix, t.UnixMilli())
}

var orderNumberPattern = regexp.MustCompile(`(?i)\bJF\d+\b`)

// FindOrderNumber extracts the first order number in free text, e.g. an SMS body.
func FindOrderNumber(text string) (string, bool) {
	m := orderNumberPattern.FindString(text)
	if m == "" {
		return "", false
	}
	return strings.ToUpper(m), true
}
