package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"subscription-cancel-be/internal/entity"
	"subscription-cancel-be/internal/repository/contract"
	"subscription-cancel-be/internal/repository/specification"
	"subscription-cancel-be/internal/repository/unitofwork"
	"subscription-cancel-be/pkg/events"

	"github.com/google/uuid"
)

// fakeStore is an in-memory stand-in for the postgres tables. Specifications
// are interpreted by type.
type fakeStore struct {
	mu            sync.Mutex
	users         []*entity.User
	subscriptions []*entity.UserSubscription
	cancellations []*entity.Cancellation

	findUserErr error
	findSubErr  error
	insertErr   error
	updateErr   error
	updateCalls int
	updateLoses bool // UpdateStatus reports no row changed
}

func newFakeStore() *fakeStore {
	return &fakeStore{}
}

func (f *fakeStore) addUser(email string, priceCents int, status entity.SubscriptionStatus) (*entity.User, *entity.UserSubscription) {
	u := &entity.User{Id: uuid.New(), Email: email, CreatedAt: time.Now()}
	f.users = append(f.users, u)
	if status == "" {
		return u, nil
	}
	s := &entity.UserSubscription{
		Id:           uuid.New(),
		UserId:       u.Id,
		MonthlyPrice: priceCents,
		Status:       status,
		CreatedAt:    time.Now(),
	}
	f.subscriptions = append(f.subscriptions, s)
	return u, s
}

func (f *fakeStore) subscription(id uuid.UUID) *entity.UserSubscription {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.subscriptions {
		if s.Id == id {
			return s
		}
	}
	return nil
}

func (f *fakeStore) recorded() []*entity.Cancellation {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*entity.Cancellation(nil), f.cancellations...)
}

type fakeFactory struct{ store *fakeStore }

func (f fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUnitOfWork{store: f.store}
}

type fakeUnitOfWork struct{ store *fakeStore }

func (u *fakeUnitOfWork) Begin(ctx context.Context) error { return nil }
func (u *fakeUnitOfWork) Commit() error                   { return nil }
func (u *fakeUnitOfWork) Rollback() error                 { return nil }

func (u *fakeUnitOfWork) UserRepository() contract.UserRepository {
	return &fakeUserRepo{u.store}
}

func (u *fakeUnitOfWork) SubscriptionRepository() contract.SubscriptionRepository {
	return &fakeSubscriptionRepo{u.store}
}

func (u *fakeUnitOfWork) CancellationRepository() contract.CancellationRepository {
	return &fakeCancellationRepo{u.store}
}

type fakeUserRepo struct{ s *fakeStore }

func (r *fakeUserRepo) Create(ctx context.Context, user *entity.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users = append(r.s.users, user)
	return nil
}

func (r *fakeUserRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.User, error) {
	users, err := r.FindAll(ctx, specs...)
	if err != nil || len(users) == 0 {
		return nil, err
	}
	return users[0], nil
}

func (r *fakeUserRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findUserErr != nil {
		return nil, r.s.findUserErr
	}
	var out []*entity.User
	for _, u := range r.s.users {
		keep := true
		for _, spec := range specs {
			if byEmail, ok := spec.(specification.ByEmail); ok {
				keep = keep && u.Email == strings.ToLower(strings.TrimSpace(byEmail.Email))
			}
		}
		if keep {
			out = append(out, u)
		}
	}
	for _, spec := range specs {
		if order, ok := spec.(specification.OrderBy); ok && order.Field == "email" {
			sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
		}
	}
	return out, nil
}

type fakeSubscriptionRepo struct{ s *fakeStore }

func (r *fakeSubscriptionRepo) CreateSubscription(ctx context.Context, sub *entity.UserSubscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.subscriptions = append(r.s.subscriptions, sub)
	return nil
}

func (r *fakeSubscriptionRepo) FindOneSubscription(ctx context.Context, specs ...specification.Specification) (*entity.UserSubscription, error) {
	subs, err := r.FindAllSubscriptions(ctx, specs...)
	if err != nil || len(subs) == 0 {
		return nil, err
	}
	c := *subs[0]
	return &c, nil
}

func (r *fakeSubscriptionRepo) FindAllSubscriptions(ctx context.Context, specs ...specification.Specification) ([]*entity.UserSubscription, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.findSubErr != nil {
		return nil, r.s.findSubErr
	}
	var out []*entity.UserSubscription
	for _, sub := range r.s.subscriptions {
		keep := true
		for _, spec := range specs {
			if owned, ok := spec.(specification.UserOwnedBy); ok {
				keep = keep && sub.UserId == owned.UserID
			}
		}
		if keep {
			out = append(out, sub)
		}
	}
	for _, spec := range specs {
		if _, ok := spec.(specification.Latest); ok {
			sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
			if len(out) > 1 {
				out = out[:1]
			}
		}
	}
	return out, nil
}

func (r *fakeSubscriptionRepo) UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.SubscriptionStatus) (bool, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.updateCalls++
	if r.s.updateErr != nil {
		return false, r.s.updateErr
	}
	if r.s.updateLoses || !from.CanMoveTo(to) {
		return false, nil
	}
	for _, sub := range r.s.subscriptions {
		if sub.Id == id && sub.Status == from {
			sub.Status = to
			sub.UpdatedAt = time.Now()
			return true, nil
		}
	}
	return false, nil
}

type fakeCancellationRepo struct{ s *fakeStore }

func (r *fakeCancellationRepo) Create(ctx context.Context, c *entity.Cancellation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if r.s.insertErr != nil {
		return r.s.insertErr
	}
	c.CreatedAt = time.Now()
	r.s.cancellations = append(r.s.cancellations, c)
	return nil
}

func (r *fakeCancellationRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Cancellation, error) {
	return r.s.recorded(), nil
}

func (r *fakeCancellationRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return int64(len(r.s.recorded())), nil
}

// recordingPublisher keeps published events in order.
type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, event events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return p.err
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.EventType())
	}
	return out
}
