package service

import (
	"context"
	"strings"

	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/internal/entity"
	"subscription-cancel-be/internal/pkg/apperror"
	"subscription-cancel-be/internal/pkg/logger"
	"subscription-cancel-be/internal/pkg/metrics"
	"subscription-cancel-be/internal/pkg/serverutils"
	"subscription-cancel-be/internal/repository/unitofwork"
	"subscription-cancel-be/pkg/events"
)

const statusNone = "none"

type ISubscriptionService interface {
	Status(ctx context.Context, req dto.SubscriptionStatusQuery) (*dto.SubscriptionStatusResponse, error)
	RequestCancel(ctx context.Context, req dto.SubscriptionCancelRequest) (*dto.SubscriptionCancelResponse, error)
}

type subscriptionService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	metrics    *metrics.Metrics
	logger     logger.ILogger
}

func NewSubscriptionService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	m *metrics.Metrics,
	log logger.ILogger,
) ISubscriptionService {
	return &subscriptionService{
		uowFactory: uowFactory,
		publisher:  publisher,
		metrics:    m,
		logger:     log,
	}
}

// Status reports the latest subscription of the user, or "none".
func (s *subscriptionService) Status(ctx context.Context, req dto.SubscriptionStatusQuery) (*dto.SubscriptionStatusResponse, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	if s.uowFactory == nil {
		return nil, apperror.ErrNotConfigured
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := findUser(ctx, uow, s.metrics, req.Email)
	if err != nil {
		return nil, err
	}
	sub, err := findLatestSubscription(ctx, uow, s.metrics, user.Id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return &dto.SubscriptionStatusResponse{Status: statusNone}, nil
	}

	price := sub.MonthlyPrice
	return &dto.SubscriptionStatusResponse{Status: string(sub.Status), MonthlyPrice: &price}, nil
}

// RequestCancel is idempotent: a subscription already past active is
// reported with already=true and left alone.
func (s *subscriptionService) RequestCancel(ctx context.Context, req dto.SubscriptionCancelRequest) (*dto.SubscriptionCancelResponse, error) {
	if s.uowFactory == nil {
		return nil, apperror.ErrNotConfigured
	}
	req.Email = strings.TrimSpace(req.Email)
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	user, err := findUser(ctx, uow, s.metrics, req.Email)
	if err != nil {
		return nil, err
	}
	sub, err := findLatestSubscription(ctx, uow, s.metrics, user.Id)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, apperror.NotFound(msgNoSubscription)
	}

	if sub.Status != entity.SubscriptionStatusActive {
		return &dto.SubscriptionCancelResponse{Status: string(sub.Status), Already: true}, nil
	}

	updated, err := markPendingCancellation(ctx, uow, s.metrics, sub)
	if err != nil {
		return nil, err
	}
	if !updated {
		// Someone else moved it between the read and the conditional update.
		current, err := findLatestSubscription(ctx, uow, s.metrics, user.Id)
		if err != nil {
			return nil, err
		}
		status := string(entity.SubscriptionStatusPendingCancellation)
		if current != nil {
			status = string(current.Status)
		}
		return &dto.SubscriptionCancelResponse{Status: status, Already: true}, nil
	}

	s.logger.Info(logger.ModuleSubscription, "Subscription pending cancellation", map[string]interface{}{
		"subscription_id": sub.Id.String(),
	})
	publishBestEffort(ctx, s.publisher, s.logger, events.New(events.TypeSubscriptionPendingCancel,
		pendingCancellationEvent(user, sub, "cancel_request")))

	return &dto.SubscriptionCancelResponse{Status: string(entity.SubscriptionStatusPendingCancellation)}, nil
}
