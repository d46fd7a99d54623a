package repository

import (
	"context"
	"strings"

	"github.com/spec-kit/salon-token-service/internal/domain"
	apperrors "github.com/spec-kit/salon-token-service/pkg/util"
)

// TokenDraft carries the fields captured at token creation.
type TokenDraft struct {
	Queue          string
	CustomerName   string
	CustomerMobile string
	Service        string
}

// TokenStore encapsulates token persistence. Serve and ServeNext perform the
// demote-then-promote pair atomically, so at most one token per queue is ever
// in the serving state.
type TokenStore interface {
	// Insert validates the draft, allocates the next sequence number for
	// its queue and persists the token in waiting status. Allocation and
	// insert commit together; an aborted insert never burns a number.
	Insert(ctx context.Context, draft TokenDraft) (*domain.Token, error)
	GetByID(ctx context.Context, id string) (*domain.Token, error)
	// FindServing returns the serving token for a queue, or nil when none.
	FindServing(ctx context.Context, queue string) (*domain.Token, error)
	// ListWaiting returns waiting tokens ascending by sequence number.
	ListWaiting(ctx context.Context, queue string) ([]domain.Token, error)
	// FindMostRecent returns the latest-created token in a queue regardless
	// of status, or nil when the queue has never issued one.
	FindMostRecent(ctx context.Context, queue string) (*domain.Token, error)
	// Serve promotes the identified token to serving, demoting the queue's
	// current serving token (if a different one) to served. Returns the
	// promoted token and the demoted token (nil when none was serving).
	// Fails with ErrAlreadyServed when the target is terminal.
	Serve(ctx context.Context, id string) (promoted, demoted *domain.Token, err error)
	// ServeNext serves the waiting token with the smallest sequence number,
	// or returns ErrNoTokensWaiting without mutating anything.
	ServeNext(ctx context.Context, queue string) (promoted, demoted *domain.Token, err error)
}

// ValidateDraft applies the store-level validation contract: required
// fields, 10-digit numeric mobile, configured queue category, offered
// service label.
func ValidateDraft(queues domain.QueueSet, draft *TokenDraft) error {
	draft.Queue = strings.ToLower(strings.TrimSpace(draft.Queue))
	draft.CustomerName = strings.TrimSpace(draft.CustomerName)
	draft.CustomerMobile = strings.TrimSpace(draft.CustomerMobile)
	draft.Service = strings.TrimSpace(draft.Service)

	if draft.Queue == "" || draft.CustomerName == "" || draft.CustomerMobile == "" || draft.Service == "" {
		return apperrors.NewValidationError("queue, service, name and mobile are required", nil)
	}
	if !queues.Contains(draft.Queue) {
		return apperrors.NewValidationError("unknown queue category", map[string]any{
			"queue":      draft.Queue,
			"categories": queues.Categories(),
		})
	}
	if !domain.ValidMobile(draft.CustomerMobile) {
		return apperrors.NewValidationError("mobile must be a 10-digit number", nil)
	}
	if !queues.HasService(draft.Queue, draft.Service) {
		return apperrors.NewValidationError("service not offered for queue", map[string]any{
			"queue":    draft.Queue,
			"service":  draft.Service,
			"services": queues.ServicesFor(draft.Queue),
		})
	}
	return nil
}
