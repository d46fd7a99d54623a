package events

import (
	"time"

	"github.com/spec-kit/salon-token-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTokenIssued  EventType = "token_issued"
	EventTokenServing EventType = "token_serving"
	EventTokenServed  EventType = "token_served"
)

// Event represents a queue change emitted by the queue engine. Events for
// the same token are published in lifecycle order.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	Queue     string      `json:"queue"`
	TokenID   string      `json:"token_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TokenIssuedPayload payload.
type TokenIssuedPayload struct {
	SequenceNumber int64  `json:"sequence_number"`
	DisplayCode    string `json:"display_code"`
	Service        string `json:"service"`
}

// TokenStatusPayload payload for serving/served transitions.
type TokenStatusPayload struct {
	SequenceNumber int64              `json:"sequence_number"`
	DisplayCode    string             `json:"display_code"`
	OldStatus      domain.TokenStatus `json:"old_status"`
	NewStatus      domain.TokenStatus `json:"new_status"`
}
