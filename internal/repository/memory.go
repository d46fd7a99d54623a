package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/salon-token-service/internal/domain"
)

// MemoryTokenStore is a mutex-guarded TokenStore used when no database is
// configured, and by tests. The single lock gives the same per-queue
// atomicity the postgres store gets from its transactions.
type MemoryTokenStore struct {
	mu        sync.Mutex
	queues    domain.QueueSet
	tokens    map[string]*domain.Token
	sequences map[string]int64
	now       func() time.Time
}

// NewMemoryTokenStore instantiates the store.
func NewMemoryTokenStore(queues domain.QueueSet) *MemoryTokenStore {
	return &MemoryTokenStore{
		queues:    queues,
		tokens:    make(map[string]*domain.Token),
		sequences: make(map[string]int64),
		now:       time.Now,
	}
}

func (s *MemoryTokenStore) Insert(ctx context.Context, draft TokenDraft) (*domain.Token, error) {
	if err := ValidateDraft(s.queues, &draft); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sequences[draft.Queue]++
	now := s.now()
	token := &domain.Token{
		ID:             uuid.NewString(),
		Queue:          draft.Queue,
		SequenceNumber: s.sequences[draft.Queue],
		CustomerName:   draft.CustomerName,
		CustomerMobile: draft.CustomerMobile,
		Service:        draft.Service,
		Status:         domain.TokenStatusWaiting,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	s.tokens[token.ID] = token
	return copyToken(token), nil
}

func (s *MemoryTokenStore) GetByID(ctx context.Context, id string) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	token, ok := s.tokens[id]
	if !ok {
		return nil, ErrTokenNotFound
	}
	return copyToken(token), nil
}

func (s *MemoryTokenStore) FindServing(ctx context.Context, queue string) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if token := s.servingLocked(queue); token != nil {
		return copyToken(token), nil
	}
	return nil, nil
}

func (s *MemoryTokenStore) ListWaiting(ctx context.Context, queue string) ([]domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var waiting []domain.Token
	for _, token := range s.tokens {
		if token.Queue == queue && token.Status == domain.TokenStatusWaiting {
			waiting = append(waiting, *token)
		}
	}
	sort.Slice(waiting, func(i, j int) bool {
		return waiting[i].SequenceNumber < waiting[j].SequenceNumber
	})
	return waiting, nil
}

func (s *MemoryTokenStore) FindMostRecent(ctx context.Context, queue string) (*domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *domain.Token
	for _, token := range s.tokens {
		if token.Queue != queue {
			continue
		}
		if latest == nil || token.SequenceNumber > latest.SequenceNumber {
			latest = token
		}
	}
	if latest == nil {
		return nil, nil
	}
	return copyToken(latest), nil
}

func (s *MemoryTokenStore) Serve(ctx context.Context, id string) (*domain.Token, *domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, ok := s.tokens[id]
	if !ok {
		return nil, nil, ErrTokenNotFound
	}
	return s.serveLocked(target)
}

func (s *MemoryTokenStore) ServeNext(ctx context.Context, queue string) (*domain.Token, *domain.Token, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var next *domain.Token
	for _, token := range s.tokens {
		if token.Queue != queue || token.Status != domain.TokenStatusWaiting {
			continue
		}
		if next == nil || token.SequenceNumber < next.SequenceNumber {
			next = token
		}
	}
	if next == nil {
		return nil, nil, ErrNoTokensWaiting
	}
	return s.serveLocked(next)
}

func (s *MemoryTokenStore) serveLocked(target *domain.Token) (*domain.Token, *domain.Token, error) {
	if target.Status == domain.TokenStatusServed {
		return nil, nil, ErrAlreadyServed
	}
	if target.Status == domain.TokenStatusServing {
		return copyToken(target), nil, nil
	}

	now := s.now()
	var demoted *domain.Token
	if current := s.servingLocked(target.Queue); current != nil && current.ID != target.ID {
		current.Status = domain.TokenStatusServed
		current.UpdatedAt = now
		demoted = copyToken(current)
	}

	target.Status = domain.TokenStatusServing
	servedAt := now
	target.ServedAt = &servedAt
	target.UpdatedAt = now
	return copyToken(target), demoted, nil
}

func (s *MemoryTokenStore) servingLocked(queue string) *domain.Token {
	for _, token := range s.tokens {
		if token.Queue == queue && token.Status == domain.TokenStatusServing {
			return token
		}
	}
	return nil
}

func copyToken(token *domain.Token) *domain.Token {
	dup := *token
	if token.ServedAt != nil {
		servedAt := *token.ServedAt
		dup.ServedAt = &servedAt
	}
	return &dup
}
