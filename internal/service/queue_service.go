package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/salon-token-service/internal/domain"
	"github.com/spec-kit/salon-token-service/internal/events"
	"github.com/spec-kit/salon-token-service/internal/repository"
	apperrors "github.com/spec-kit/salon-token-service/pkg/util"
)

// QueueService is the queue engine: it owns the token lifecycle and the
// at-most-one-serving invariant per queue. All persistence goes through
// the injected TokenStore; all fan-out goes through the dispatcher.
type QueueService struct {
	store      repository.TokenStore
	queues     domain.QueueSet
	otp        *OTPService
	dispatcher events.Dispatcher
}

// QueueDependencies bundles collaborators for the queue service.
type QueueDependencies struct {
	Store      repository.TokenStore
	Queues     domain.QueueSet
	OTP        *OTPService
	Dispatcher events.Dispatcher
}

// SubmitTokenInput describes a token submission.
type SubmitTokenInput struct {
	Queue   string
	Service string
	Name    string
	Mobile  string
}

// NewQueueService constructs the service.
func NewQueueService(deps QueueDependencies) *QueueService {
	return &QueueService{
		store:      deps.Store,
		queues:     deps.Queues,
		otp:        deps.OTP,
		dispatcher: deps.Dispatcher,
	}
}

// Queues returns the configured queue set.
func (s *QueueService) Queues() domain.QueueSet {
	return s.queues
}

// SubmitToken validates the submission, allocates the next sequence number
// and persists the token in waiting status. The returned token's number is
// unique within its queue and strictly greater than all prior numbers.
func (s *QueueService) SubmitToken(ctx context.Context, input SubmitTokenInput) (*domain.Token, error) {
	draft := repository.TokenDraft{
		Queue:          input.Queue,
		CustomerName:   input.Name,
		CustomerMobile: input.Mobile,
		Service:        input.Service,
	}

	if s.otp != nil && s.otp.Required() {
		verified, err := s.otp.IsVerified(ctx, strings.TrimSpace(input.Mobile))
		if err != nil {
			return nil, apperrors.NewStoreUnavailable(err)
		}
		if !verified {
			return nil, apperrors.NewValidationError("mobile not verified", nil)
		}
	}

	token, err := s.store.Insert(ctx, draft)
	if err != nil {
		return nil, mapStoreError(err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventTokenIssued,
		Queue:   token.Queue,
		TokenID: token.ID,
		Payload: events.TokenIssuedPayload{
			SequenceNumber: token.SequenceNumber,
			DisplayCode:    token.DisplayCode(),
			Service:        token.Service,
		},
	})
	return token, nil
}

// ServeSpecific promotes the identified token to serving. A different
// token currently serving in the same queue is demoted to served first;
// its served_at keeps the value from its own promotion. Serving a token
// that is already served is a state-machine violation.
func (s *QueueService) ServeSpecific(ctx context.Context, tokenID string) (*domain.Token, error) {
	promoted, demoted, err := s.store.Serve(ctx, tokenID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	s.publishServeEvents(ctx, promoted, demoted)
	return promoted, nil
}

// ServeNext advances the queue to the waiting token with the smallest
// sequence number. An empty queue returns repository.ErrNoTokensWaiting,
// which is a normal signal rather than a failure.
func (s *QueueService) ServeNext(ctx context.Context, queue string) (*domain.Token, error) {
	queue, err := s.normalizeQueue(queue)
	if err != nil {
		return nil, err
	}
	promoted, demoted, err := s.store.ServeNext(ctx, queue)
	if err != nil {
		if errors.Is(err, repository.ErrNoTokensWaiting) {
			return nil, err
		}
		return nil, mapStoreError(err)
	}
	s.publishServeEvents(ctx, promoted, demoted)
	return promoted, nil
}

// GetToken returns a token by id.
func (s *QueueService) GetToken(ctx context.Context, tokenID string) (*domain.Token, error) {
	token, err := s.store.GetByID(ctx, tokenID)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return token, nil
}

// CurrentServing returns the queue's serving token, or nil when none.
func (s *QueueService) CurrentServing(ctx context.Context, queue string) (*domain.Token, error) {
	queue, err := s.normalizeQueue(queue)
	if err != nil {
		return nil, err
	}
	token, err := s.store.FindServing(ctx, queue)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return token, nil
}

// MostRecentIssued returns the token most recently issued in a queue
// regardless of status, for "last issued" displays.
func (s *QueueService) MostRecentIssued(ctx context.Context, queue string) (*domain.Token, error) {
	queue, err := s.normalizeQueue(queue)
	if err != nil {
		return nil, err
	}
	token, err := s.store.FindMostRecent(ctx, queue)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return token, nil
}

// ListWaiting returns a queue's waiting tokens in serving order.
func (s *QueueService) ListWaiting(ctx context.Context, queue string) ([]domain.Token, error) {
	queue, err := s.normalizeQueue(queue)
	if err != nil {
		return nil, err
	}
	tokens, err := s.store.ListWaiting(ctx, queue)
	if err != nil {
		return nil, mapStoreError(err)
	}
	return tokens, nil
}

func (s *QueueService) normalizeQueue(queue string) (string, error) {
	queue = strings.ToLower(strings.TrimSpace(queue))
	if !s.queues.Contains(queue) {
		return "", apperrors.NewValidationError("unknown queue category", map[string]any{
			"queue":      queue,
			"categories": s.queues.Categories(),
		})
	}
	return queue, nil
}

// publishServeEvents emits the demotion before the promotion so observers
// never see a token's served event ahead of its serving event.
func (s *QueueService) publishServeEvents(ctx context.Context, promoted, demoted *domain.Token) {
	if demoted != nil {
		s.publish(ctx, events.Event{
			Type:    events.EventTokenServed,
			Queue:   demoted.Queue,
			TokenID: demoted.ID,
			Payload: events.TokenStatusPayload{
				SequenceNumber: demoted.SequenceNumber,
				DisplayCode:    demoted.DisplayCode(),
				OldStatus:      domain.TokenStatusServing,
				NewStatus:      domain.TokenStatusServed,
			},
		})
	}
	if promoted != nil {
		s.publish(ctx, events.Event{
			Type:    events.EventTokenServing,
			Queue:   promoted.Queue,
			TokenID: promoted.ID,
			Payload: events.TokenStatusPayload{
				SequenceNumber: promoted.SequenceNumber,
				DisplayCode:    promoted.DisplayCode(),
				OldStatus:      domain.TokenStatusWaiting,
				NewStatus:      domain.TokenStatusServing,
			},
		})
	}
}

func (s *QueueService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// mapStoreError converts store sentinels into the user-visible taxonomy.
// Validation errors from the store already carry their domain code.
func mapStoreError(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrTokenNotFound):
		return apperrors.NewNotFound("token", nil)
	case errors.Is(err, repository.ErrAlreadyServed):
		return apperrors.NewInvalidTransition("token already served", nil)
	case errors.Is(err, repository.ErrAllocationUnavailable):
		return apperrors.NewAllocationUnavailable(err)
	case errors.Is(err, repository.ErrStoreUnavailable):
		return apperrors.NewStoreUnavailable(err)
	default:
		return err
	}
}
