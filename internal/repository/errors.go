package repository

import "errors"

var (
	// ErrTokenNotFound is returned when a token id does not exist.
	ErrTokenNotFound = errors.New("token not found")
	// ErrNoTokensWaiting signals an empty queue from ServeNext. It is a
	// normal empty-queue result, not a failure.
	ErrNoTokensWaiting = errors.New("no tokens waiting")
	// ErrAlreadyServed is returned when a serve targets a terminal token.
	ErrAlreadyServed = errors.New("token already served")
	// ErrStoreUnavailable wraps transient store failures (timeouts,
	// broken connections). Safe to retry at the access boundary.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrAllocationUnavailable wraps failures of the sequence counter.
	// Callers must not substitute a non-unique number.
	ErrAllocationUnavailable = errors.New("sequence allocation unavailable")
	// ErrAdminNotFound is returned when an admin lookup misses.
	ErrAdminNotFound = errors.New("admin not found")
)
