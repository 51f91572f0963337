package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"banking-ledger/internal/core/domain"
	"banking-ledger/internal/core/ports"
	"banking-ledger/pkg/apperror"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
)

const idempotencyTTL = 24 * time.Hour

// idempotencyGuard implements the two-layer replay check shared by the money
// movement services: Redis first, the idempotency_logs table as backup.
type idempotencyGuard struct {
	repo  ports.IdempotencyRepository
	cache ports.IdempotencyCache // nil = DB only
	log   zerolog.Logger
}

// lookup returns the stored response for key, or nil when key is unseen.
func (g idempotencyGuard) lookup(ctx context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	// Layer 1: Redis idempotency check
	if g.cache != nil {
		cached, err := g.cache.Get(ctx, key)
		if err != nil {
			g.log.Warn().Err(err).Str("key", key).Msg("redis idempotency check failed, falling through to DB")
		}
		if cached != nil {
			return cached, nil
		}
	}

	// Layer 2: DB idempotency check
	entry, err := g.repo.Get(ctx, key)
	if err != nil {
		return nil, wrapErr("db idempotency check", err)
	}
	if entry == nil {
		return nil, nil
	}
	return entry.ResponseJSON, nil
}

// save writes the idempotency log inside tx and returns the marshaled response.
func (g idempotencyGuard) save(ctx context.Context, tx pgx.Tx, key string, accountID, txID uuid.UUID, resp any) ([]byte, error) {
	if key == "" {
		return nil, nil
	}

	respJSON, err := json.Marshal(resp)
	if err != nil {
		return nil, apperror.InternalError(fmt.Errorf("marshal response: %w", err))
	}

	entry := &domain.IdempotencyLog{
		Key:           key,
		AccountID:     accountID,
		TransactionID: txID,
		ResponseJSON:  respJSON,
		CreatedAt:     time.Now().UTC(),
	}
	if err := g.repo.Create(ctx, tx, entry); err != nil {
		return nil, wrapErr("save idempotency log", err)
	}
	return respJSON, nil
}

// remember caches a committed response in Redis (best-effort).
func (g idempotencyGuard) remember(ctx context.Context, key string, respJSON []byte) {
	if key == "" || g.cache == nil {
		return
	}
	if err := g.cache.Set(ctx, key, respJSON, idempotencyTTL); err != nil {
		g.log.Warn().Err(err).Str("key", key).Msg("failed to cache idempotency in redis")
	}
}

// replay decodes a stored response into out.
func replay(cached []byte, out any) error {
	if err := json.Unmarshal(cached, out); err != nil {
		return apperror.InternalError(fmt.Errorf("unmarshal cached response: %w", err))
	}
	return nil
}

// publish ships events after commit. Failures never undo committed state.
func publish(ctx context.Context, pub ports.EventPublisher, log zerolog.Logger, events ...domain.LedgerEvent) {
	if pub == nil || len(events) == 0 {
		return
	}
	if err := pub.Publish(ctx, events...); err != nil {
		log.Warn().Err(err).Str("event", string(events[0].Type)).Msg("failed to publish ledger event")
	}
}
