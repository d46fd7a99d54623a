package repository

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// OTPStore holds one-time codes and verification marks keyed by mobile
// number. Entries expire; there is no process-lifetime state.
type OTPStore interface {
	SetCode(ctx context.Context, mobile, code string, ttl time.Duration) error
	GetCode(ctx context.Context, mobile string) (string, error)
	DeleteCode(ctx context.Context, mobile string) error
	MarkVerified(ctx context.Context, mobile string, ttl time.Duration) error
	IsVerified(ctx context.Context, mobile string) (bool, error)
}

const (
	otpCodePrefix     = "otp:code:"
	otpVerifiedPrefix = "otp:verified:"
)

type redisOTPStore struct {
	client *redis.Client
}

// NewRedisOTPStore backs OTP state with Redis TTL keys.
func NewRedisOTPStore(client *redis.Client) OTPStore {
	return &redisOTPStore{client: client}
}

func (s *redisOTPStore) SetCode(ctx context.Context, mobile, code string, ttl time.Duration) error {
	return s.client.Set(ctx, otpCodePrefix+mobile, code, ttl).Err()
}

func (s *redisOTPStore) GetCode(ctx context.Context, mobile string) (string, error) {
	code, err := s.client.Get(ctx, otpCodePrefix+mobile).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return code, err
}

func (s *redisOTPStore) DeleteCode(ctx context.Context, mobile string) error {
	return s.client.Del(ctx, otpCodePrefix+mobile).Err()
}

func (s *redisOTPStore) MarkVerified(ctx context.Context, mobile string, ttl time.Duration) error {
	return s.client.Set(ctx, otpVerifiedPrefix+mobile, "1", ttl).Err()
}

func (s *redisOTPStore) IsVerified(ctx context.Context, mobile string) (bool, error) {
	_, err := s.client.Get(ctx, otpVerifiedPrefix+mobile).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

type memoryOTPEntry struct {
	value     string
	expiresAt time.Time
}

// MemoryOTPStore keeps OTP state in process memory. Used by tests and when
// Redis is not configured.
type MemoryOTPStore struct {
	mu      sync.Mutex
	entries map[string]memoryOTPEntry
	now     func() time.Time
}

// NewMemoryOTPStore instantiates the in-memory store.
func NewMemoryOTPStore() *MemoryOTPStore {
	return &MemoryOTPStore{
		entries: make(map[string]memoryOTPEntry),
		now:     time.Now,
	}
}

func (s *MemoryOTPStore) SetCode(ctx context.Context, mobile, code string, ttl time.Duration) error {
	s.set(otpCodePrefix+mobile, code, ttl)
	return nil
}

func (s *MemoryOTPStore) GetCode(ctx context.Context, mobile string) (string, error) {
	return s.get(otpCodePrefix + mobile), nil
}

func (s *MemoryOTPStore) DeleteCode(ctx context.Context, mobile string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, otpCodePrefix+mobile)
	return nil
}

func (s *MemoryOTPStore) MarkVerified(ctx context.Context, mobile string, ttl time.Duration) error {
	s.set(otpVerifiedPrefix+mobile, "1", ttl)
	return nil
}

func (s *MemoryOTPStore) IsVerified(ctx context.Context, mobile string) (bool, error) {
	return s.get(otpVerifiedPrefix+mobile) != "", nil
}

func (s *MemoryOTPStore) set(key, value string, ttl time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memoryOTPEntry{value: value, expiresAt: s.now().Add(ttl)}
}

func (s *MemoryOTPStore) get(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[key]
	if !ok || s.now().After(entry.expiresAt) {
		delete(s.entries, key)
		return ""
	}
	return entry.value
}
