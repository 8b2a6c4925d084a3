package service

import (
	"context"

	"subscription-cancel-be/internal/entity"
	"subscription-cancel-be/internal/pkg/apperror"
	"subscription-cancel-be/internal/pkg/metrics"
	"subscription-cancel-be/internal/repository/specification"
	"subscription-cancel-be/internal/repository/unitofwork"

	"github.com/google/uuid"
)

const (
	msgUserNotFound   = "user not found"
	msgNoSubscription = "no subscription"
)

// findUser resolves an email to its user. A missing user is a NotFound error.
func findUser(ctx context.Context, uow unitofwork.UnitOfWork, m *metrics.Metrics, email string) (*entity.User, error) {
	user, err := uow.UserRepository().FindOne(ctx, specification.ByEmail{Email: email})
	if err != nil {
		m.GatewayError("find_user")
		return nil, apperror.Gateway("find user", err)
	}
	if user == nil {
		return nil, apperror.NotFound(msgUserNotFound)
	}
	return user, nil
}

// findLatestSubscription returns the most recently created subscription of
// the user, or nil when there is none.
func findLatestSubscription(ctx context.Context, uow unitofwork.UnitOfWork, m *metrics.Metrics, userID uuid.UUID) (*entity.UserSubscription, error) {
	sub, err := uow.SubscriptionRepository().FindOneSubscription(ctx,
		specification.UserOwnedBy{UserID: userID},
		specification.Latest{},
	)
	if err != nil {
		m.GatewayError("find_subscription")
		return nil, apperror.Gateway("find subscription", err)
	}
	return sub, nil
}

// markPendingCancellation moves an active subscription forward. It reports
// whether this call changed the row.
func markPendingCancellation(ctx context.Context, uow unitofwork.UnitOfWork, m *metrics.Metrics, sub *entity.UserSubscription) (bool, error) {
	updated, err := uow.SubscriptionRepository().UpdateStatus(ctx, sub.Id,
		entity.SubscriptionStatusActive,
		entity.SubscriptionStatusPendingCancellation,
	)
	if err != nil {
		m.GatewayError("update_subscription_status")
		return false, apperror.Gateway("update subscription status", err)
	}
	if updated {
		m.StatusChanged(string(entity.SubscriptionStatusActive), string(entity.SubscriptionStatusPendingCancellation))
	}
	return updated, nil
}

func pendingCancellationEvent(user *entity.User, sub *entity.UserSubscription, source string) map[string]interface{} {
	return map[string]interface{}{
		"entity_type":     "subscription",
		"entity_id":       sub.Id.String(),
		"user_id":         user.Id.String(),
		"email":           user.Email,
		"previous_status": string(entity.SubscriptionStatusActive),
		"status":          string(entity.SubscriptionStatusPendingCancellation),
		"source":          source,
	}
}
