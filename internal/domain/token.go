package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// TokenStatus enumerates lifecycle states for queue tokens.
type TokenStatus string

const (
	TokenStatusWaiting TokenStatus = "waiting"
	TokenStatusServing TokenStatus = "serving"
	TokenStatusServed  TokenStatus = "served"
)

// Token is a customer's place in a queue.
type Token struct {
	ID             string
	Queue          string
	SequenceNumber int64
	CustomerName   string
	CustomerMobile string
	Service        string
	Status         TokenStatus
	CreatedAt      time.Time
	ServedAt       *time.Time
	UpdatedAt      time.Time
}

// DisplayCode renders the board code for a token, e.g. "M12" for
// male queue token 12.
func (t *Token) DisplayCode() string {
	if t.Queue == "" {
		return fmt.Sprintf("%d", t.SequenceNumber)
	}
	return strings.ToUpper(t.Queue[:1]) + fmt.Sprintf("%d", t.SequenceNumber)
}

// Lifecycle is linear: waiting -> serving -> served. No skips, no
// reverse transitions; served is terminal.
var nextStatus = map[TokenStatus]TokenStatus{
	TokenStatusWaiting: TokenStatusServing,
	TokenStatusServing: TokenStatusServed,
}

// ValidTransition reports whether a token may move from one status to the next.
func ValidTransition(from, to TokenStatus) bool {
	return nextStatus[from] == to
}

// Terminal reports whether a status admits no further transitions.
func Terminal(status TokenStatus) bool {
	return status == TokenStatusServed
}

var mobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// ValidMobile checks the 10-digit numeric mobile format.
func ValidMobile(mobile string) bool {
	return mobilePattern.MatchString(mobile)
}
