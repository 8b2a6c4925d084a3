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
	"subscription-cancel-be/pkg/sanitize"

	"github.com/google/uuid"
)

const maxAnswerLength = 120

type ICancellationService interface {
	RecordCancellation(ctx context.Context, req dto.CreateCancellationRequest) (*dto.StatusResponse, error)
}

type cancellationService struct {
	uowFactory unitofwork.RepositoryFactory
	publisher  IPublisherService
	metrics    *metrics.Metrics
	logger     logger.ILogger
}

func NewCancellationService(
	uowFactory unitofwork.RepositoryFactory,
	publisher IPublisherService,
	m *metrics.Metrics,
	log logger.ILogger,
) ICancellationService {
	return &cancellationService{
		uowFactory: uowFactory,
		publisher:  publisher,
		metrics:    m,
		logger:     log,
	}
}

// RecordCancellation stores one cancellation and moves the user's latest
// subscription to pending_cancellation when it is still active. The insert
// and the status update are separate writes.
func (s *cancellationService) RecordCancellation(ctx context.Context, req dto.CreateCancellationRequest) (*dto.StatusResponse, error) {
	if s.uowFactory == nil {
		return nil, apperror.ErrNotConfigured
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.DownsellVariant = strings.TrimSpace(req.DownsellVariant)
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

	cancellation := &entity.Cancellation{
		ID:               uuid.New(),
		UserID:           user.Id,
		SubscriptionID:   sub.Id,
		DownsellVariant:  req.DownsellVariant,
		Reason:           sanitize.Reason(req.Reason),
		AcceptedDownsell: req.AcceptedDownsell,
		VisaType:         sanitize.VisaType(req.VisaType),
		VisaHelp:         req.VisaHelp,
		FoundJobWithMM:   req.FoundJobWithMM,
		ReviewFeedback:   sanitize.ReviewFeedback(req.ReviewFeedback),
		SurveyAnswers:    sanitizeAnswers(req.SurveyAnswers),
	}
	if err := uow.CancellationRepository().Create(ctx, cancellation); err != nil {
		s.metrics.GatewayError("insert_cancellation")
		return nil, apperror.Gateway("insert cancellation", err)
	}
	s.metrics.CancellationRecorded(cancellation.DownsellVariant, cancellation.AcceptedDownsell)

	s.logger.Info(logger.ModuleCancellation, "Cancellation recorded", map[string]interface{}{
		"cancellation_id":  cancellation.ID.String(),
		"subscription_id":  sub.Id.String(),
		"downsell_variant": cancellation.DownsellVariant,
	})

	publishBestEffort(ctx, s.publisher, s.logger, events.New(events.TypeCancellationRecorded, map[string]interface{}{
		"entity_type":       "cancellation",
		"entity_id":         cancellation.ID.String(),
		"user_id":           user.Id.String(),
		"subscription_id":   sub.Id.String(),
		"email":             user.Email,
		"downsell_variant":  cancellation.DownsellVariant,
		"reason":            derefString(cancellation.Reason),
		"accepted_downsell": cancellation.AcceptedDownsell,
		"monthly_price":     sub.MonthlyPriceDollars(),
	}))

	if sub.Status == entity.SubscriptionStatusActive {
		updated, err := markPendingCancellation(ctx, uow, s.metrics, sub)
		if err != nil {
			return nil, err
		}
		if updated {
			publishBestEffort(ctx, s.publisher, s.logger, events.New(events.TypeSubscriptionPendingCancel,
				pendingCancellationEvent(user, sub, "cancellation")))
		}
	}

	return &dto.StatusResponse{Status: "ok"}, nil
}

// sanitizeAnswers keeps survey labels short and on one line.
func sanitizeAnswers(answers map[string]string) map[string]string {
	if len(answers) == 0 {
		return nil
	}
	out := make(map[string]string, len(answers))
	for k, v := range answers {
		key := strings.TrimSpace(k)
		if key == "" {
			continue
		}
		v := v
		if clean := sanitize.Text(&v, sanitize.Options{MaxLength: maxAnswerLength}); clean != nil {
			out[key] = *clean
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
