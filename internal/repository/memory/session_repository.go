package memory

import (
	"context"
	"time"

	"subscription-cancel-be/internal/repository/contract"
	"subscription-cancel-be/pkg/wizard"

	"github.com/patrickmn/go-cache"
)

const (
	cleanupInterval = 10 * time.Minute
	claimPrefix     = "finalized:"
)

// SessionRepository holds wizard sessions in process memory. Sessions are
// copied on the way in and out so callers never share state.
type SessionRepository struct {
	cache *cache.Cache
}

var _ contract.WizardSessionRepository = (*SessionRepository)(nil)

func NewSessionRepository(ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &SessionRepository{
		cache: cache.New(ttl, cleanupInterval),
	}
}

func (r *SessionRepository) Save(_ context.Context, session *wizard.Session) error {
	r.cache.Set(session.ID, session.Clone(), cache.DefaultExpiration)
	return nil
}

func (r *SessionRepository) Get(_ context.Context, id string) (*wizard.Session, error) {
	if x, found := r.cache.Get(id); found {
		return x.(*wizard.Session).Clone(), nil
	}
	return nil, nil
}

func (r *SessionRepository) Delete(_ context.Context, id string) error {
	r.cache.Delete(id)
	return nil
}

// ClaimFinalize relies on cache.Add failing for a key that is already set.
func (r *SessionRepository) ClaimFinalize(_ context.Context, id string) (bool, error) {
	return r.cache.Add(claimPrefix+id, struct{}{}, cache.DefaultExpiration) == nil, nil
}
