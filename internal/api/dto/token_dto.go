package dto

import (
	"time"

	"github.com/spec-kit/salon-token-service/internal/domain"
)

// SubmitTokenRequest payload.
type SubmitTokenRequest struct {
	Queue   string `json:"queue"`
	Service string `json:"service"`
	Name    string `json:"name"`
	Mobile  string `json:"mobile"`
}

// TokenResponse is the wire shape of a token.
type TokenResponse struct {
	ID             string             `json:"id"`
	Queue          string             `json:"queue"`
	SequenceNumber int64              `json:"sequence_number"`
	DisplayCode    string             `json:"display_code"`
	Name           string             `json:"name"`
	Mobile         string             `json:"mobile"`
	Service        string             `json:"service"`
	Status         domain.TokenStatus `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	ServedAt       *time.Time         `json:"served_at,omitempty"`
	UpdatedAt      time.Time          `json:"updated_at"`
}

// FromToken maps a domain token to its response shape.
func FromToken(token *domain.Token) TokenResponse {
	return TokenResponse{
		ID:             token.ID,
		Queue:          token.Queue,
		SequenceNumber: token.SequenceNumber,
		DisplayCode:    token.DisplayCode(),
		Name:           token.CustomerName,
		Mobile:         token.CustomerMobile,
		Service:        token.Service,
		Status:         token.Status,
		CreatedAt:      token.CreatedAt,
		ServedAt:       token.ServedAt,
		UpdatedAt:      token.UpdatedAt,
	}
}

// LoginRequest payload.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse payload.
type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// OTPSendRequest payload.
type OTPSendRequest struct {
	Mobile string `json:"mobile"`
}

// OTPVerifyRequest payload.
type OTPVerifyRequest struct {
	Mobile string `json:"mobile"`
	Code   string `json:"code"`
}
