package contract

import (
	"context"

	"subscription-cancel-be/internal/entity"
	"subscription-cancel-be/internal/repository/specification"

	"github.com/google/uuid"
)

type SubscriptionRepository interface {
	CreateSubscription(ctx context.Context, subscription *entity.UserSubscription) error
	FindOneSubscription(ctx context.Context, specs ...specification.Specification) (*entity.UserSubscription, error)
	FindAllSubscriptions(ctx context.Context, specs ...specification.Specification) ([]*entity.UserSubscription, error)

	// UpdateStatus moves a subscription from one status to another only if it
	// is still in the from status. The bool reports whether a row changed.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to entity.SubscriptionStatus) (bool, error)
}
