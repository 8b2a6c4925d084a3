package unitofwork

import (
	"context"

	"subscription-cancel-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	UserRepository() contract.UserRepository
	SubscriptionRepository() contract.SubscriptionRepository
	CancellationRepository() contract.CancellationRepository
}
