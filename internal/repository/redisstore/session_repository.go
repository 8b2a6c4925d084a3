package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"subscription-cancel-be/internal/repository/contract"
	"subscription-cancel-be/pkg/wizard"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix   = "cancel_wizard:session:"
	claimPrefix = "cancel_wizard:finalized:"
)

// SessionRepository stores wizard sessions as JSON with a sliding TTL.
type SessionRepository struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ contract.WizardSessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(rdb *redis.Client, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{rdb: rdb, ttl: ttl}
}

func key(id string) string {
	return keyPrefix + id
}

func (r *SessionRepository) Save(ctx context.Context, session *wizard.Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal wizard session: %w", err)
	}
	if err := r.rdb.Set(ctx, key(session.ID), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save wizard session %s: %w", session.ID, err)
	}
	return nil
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*wizard.Session, error) {
	data, err := r.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load wizard session %s: %w", id, err)
	}

	var session wizard.Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to decode wizard session %s: %w", id, err)
	}
	return &session, nil
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, key(id)).Err()
}

// ClaimFinalize sets the claim key with SETNX, so only the first instance to
// reach a recording step performs the cancellation write.
func (r *SessionRepository) ClaimFinalize(ctx context.Context, id string) (bool, error) {
	ok, err := r.rdb.SetNX(ctx, claimPrefix+id, "1", r.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim finalize for wizard session %s: %w", id, err)
	}
	return ok, nil
}

// NewClient parses a redis:// URL, falling back to treating it as host:port.
func NewClient(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		opt = &redis.Options{Addr: url}
	}
	return redis.NewClient(opt)
}
