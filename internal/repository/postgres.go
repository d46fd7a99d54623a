package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/salon-token-service/internal/config"
	"github.com/spec-kit/salon-token-service/internal/domain"
	"github.com/spec-kit/salon-token-service/internal/persistence"
)

const tokenColumns = `id, queue, sequence_number, customer_name, customer_mobile, service, status, created_at, served_at, updated_at`

// PostgresTokenStore implements TokenStore on a pgx pool. Every mutation
// runs in a single transaction; serve transactions additionally lock the
// queue's sequence row, which serializes all advancement per queue.
type PostgresTokenStore struct {
	pool         *pgxpool.Pool
	queues       domain.QueueSet
	timeout      time.Duration
	retries      int
	retryBackoff time.Duration
}

// NewPostgresTokenStore instantiates the store.
func NewPostgresTokenStore(pool *pgxpool.Pool, queues domain.QueueSet, cfg config.PostgresConfig) *PostgresTokenStore {
	return &PostgresTokenStore{
		pool:         pool,
		queues:       queues,
		timeout:      cfg.QueryTimeout(),
		retries:      cfg.RetryAttempts,
		retryBackoff: cfg.RetryBackoff(),
	}
}

func (s *PostgresTokenStore) Insert(ctx context.Context, draft TokenDraft) (*domain.Token, error) {
	if err := ValidateDraft(s.queues, &draft); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, mapStoreErr(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	seq, err := nextSequenceNumber(ctx, tx, draft.Queue)
	if err != nil {
		err = fmt.Errorf("%w: %v", ErrAllocationUnavailable, err)
		return nil, err
	}

	row := tx.QueryRow(ctx, `
        INSERT INTO tokens (id, queue, sequence_number, customer_name, customer_mobile, service, status)
        VALUES ($1,$2,$3,$4,$5,$6,$7)
        RETURNING `+tokenColumns,
		uuid.NewString(), draft.Queue, seq, draft.CustomerName, draft.CustomerMobile, draft.Service, domain.TokenStatusWaiting)
	token, err := scanToken(row)
	if err != nil {
		return nil, mapStoreErr(err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, mapStoreErr(err)
	}
	return token, nil
}

func (s *PostgresTokenStore) GetByID(ctx context.Context, id string) (*domain.Token, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrTokenNotFound
	}
	var token *domain.Token
	err := s.read(ctx, func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE id = $1`, id)
		found, err := scanToken(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrTokenNotFound
			}
			return mapStoreErr(err)
		}
		token = found
		return nil
	})
	return token, err
}

func (s *PostgresTokenStore) FindServing(ctx context.Context, queue string) (*domain.Token, error) {
	var token *domain.Token
	err := s.read(ctx, func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE queue = $1 AND status = $2`, queue, domain.TokenStatusServing)
		found, err := scanToken(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return mapStoreErr(err)
		}
		token = found
		return nil
	})
	return token, err
}

func (s *PostgresTokenStore) ListWaiting(ctx context.Context, queue string) ([]domain.Token, error) {
	var tokens []domain.Token
	err := s.read(ctx, func(ctx context.Context) error {
		rows, err := s.pool.Query(ctx, `
            SELECT `+tokenColumns+` FROM tokens
            WHERE queue = $1 AND status = $2
            ORDER BY sequence_number ASC`, queue, domain.TokenStatusWaiting)
		if err != nil {
			return mapStoreErr(err)
		}
		defer rows.Close()
		tokens = tokens[:0]
		for rows.Next() {
			token, err := scanToken(rows)
			if err != nil {
				return mapStoreErr(err)
			}
			tokens = append(tokens, *token)
		}
		return mapStoreErr(rows.Err())
	})
	if err != nil {
		return nil, err
	}
	return tokens, nil
}

func (s *PostgresTokenStore) FindMostRecent(ctx context.Context, queue string) (*domain.Token, error) {
	var token *domain.Token
	err := s.read(ctx, func(ctx context.Context) error {
		row := s.pool.QueryRow(ctx, `
            SELECT `+tokenColumns+` FROM tokens
            WHERE queue = $1
            ORDER BY created_at DESC, sequence_number DESC
            LIMIT 1`, queue)
		found, err := scanToken(row)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil
			}
			return mapStoreErr(err)
		}
		token = found
		return nil
	})
	return token, err
}

func (s *PostgresTokenStore) Serve(ctx context.Context, id string) (*domain.Token, *domain.Token, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, nil, ErrTokenNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, mapStoreErr(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	var queue string
	if err = tx.QueryRow(ctx, `SELECT queue FROM tokens WHERE id = $1`, id).Scan(&queue); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrTokenNotFound
			return nil, nil, err
		}
		err = mapStoreErr(err)
		return nil, nil, err
	}
	if err = lockQueue(ctx, tx, queue); err != nil {
		return nil, nil, err
	}

	promoted, demoted, err := serveLocked(ctx, tx, id, queue)
	if err != nil {
		return nil, nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, nil, mapStoreErr(err)
	}
	return promoted, demoted, nil
}

func (s *PostgresTokenStore) ServeNext(ctx context.Context, queue string) (*domain.Token, *domain.Token, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, mapStoreErr(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	if err = lockQueue(ctx, tx, queue); err != nil {
		return nil, nil, err
	}

	var id string
	err = tx.QueryRow(ctx, `
        SELECT id FROM tokens
        WHERE queue = $1 AND status = $2
        ORDER BY sequence_number ASC
        LIMIT 1`, queue, domain.TokenStatusWaiting).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = ErrNoTokensWaiting
			return nil, nil, err
		}
		err = mapStoreErr(err)
		return nil, nil, err
	}

	promoted, demoted, err := serveLocked(ctx, tx, id, queue)
	if err != nil {
		return nil, nil, err
	}
	if err = tx.Commit(ctx); err != nil {
		return nil, nil, mapStoreErr(err)
	}
	return promoted, demoted, nil
}

// serveLocked performs the demote-then-promote pair. The caller must hold
// the queue's sequence row lock.
func serveLocked(ctx context.Context, tx pgx.Tx, id, queue string) (*domain.Token, *domain.Token, error) {
	row := tx.QueryRow(ctx, `SELECT `+tokenColumns+` FROM tokens WHERE id = $1`, id)
	target, err := scanToken(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil, ErrTokenNotFound
		}
		return nil, nil, mapStoreErr(err)
	}
	if target.Status == domain.TokenStatusServed {
		return nil, nil, ErrAlreadyServed
	}
	if target.Status == domain.TokenStatusServing {
		// Already at the counter; nothing to change.
		return target, nil, nil
	}

	// Demote whoever is currently serving. served_at keeps the value set
	// when the token entered serving; only status moves forward.
	row = tx.QueryRow(ctx, `
        UPDATE tokens SET status = $1, updated_at = NOW()
        WHERE queue = $2 AND status = $3 AND id <> $4
        RETURNING `+tokenColumns,
		domain.TokenStatusServed, queue, domain.TokenStatusServing, id)
	demoted, err := scanToken(row)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, nil, mapStoreErr(err)
	}

	row = tx.QueryRow(ctx, `
        UPDATE tokens SET status = $1, served_at = NOW(), updated_at = NOW()
        WHERE id = $2
        RETURNING `+tokenColumns,
		domain.TokenStatusServing, id)
	promoted, err := scanToken(row)
	if err != nil {
		return nil, nil, mapStoreErr(err)
	}
	return promoted, demoted, nil
}

// nextSequenceNumber allocates the queue's next number with an atomic
// upsert. The row lock it takes doubles as the per-queue serialization
// point shared with lockQueue.
func nextSequenceNumber(ctx context.Context, tx pgx.Tx, queue string) (int64, error) {
	var next int64
	row := tx.QueryRow(ctx, `
        INSERT INTO queue_sequences (queue, last_number)
        VALUES ($1, 1)
        ON CONFLICT (queue)
        DO UPDATE SET last_number = queue_sequences.last_number + 1
        RETURNING last_number`, queue)
	if err := row.Scan(&next); err != nil {
		return 0, err
	}
	return next, nil
}

func lockQueue(ctx context.Context, tx pgx.Tx, queue string) error {
	var n int64
	err := tx.QueryRow(ctx, `SELECT last_number FROM queue_sequences WHERE queue = $1 FOR UPDATE`, queue).Scan(&n)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return mapStoreErr(err)
	}
	// No sequence row means no token was ever issued; there is nothing to
	// serialize against yet.
	return nil
}

func (s *PostgresTokenStore) read(ctx context.Context, fn func(context.Context) error) error {
	return persistence.WithRetry(ctx, s.retries, s.retryBackoff, isTransient, func(ctx context.Context) error {
		ctx, cancel := context.WithTimeout(ctx, s.timeout)
		defer cancel()
		return fn(ctx)
	})
}

func isTransient(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

func mapStoreErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*domain.Token, error) {
	var token domain.Token
	if err := row.Scan(
		&token.ID,
		&token.Queue,
		&token.SequenceNumber,
		&token.CustomerName,
		&token.CustomerMobile,
		&token.Service,
		&token.Status,
		&token.CreatedAt,
		&token.ServedAt,
		&token.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &token, nil
}
