package service

import (
	"context"
	"errors"

	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/internal/pkg/apperror"
	"subscription-cancel-be/internal/pkg/logger"
	"subscription-cancel-be/internal/pkg/metrics"
	"subscription-cancel-be/internal/pkg/serverutils"
	"subscription-cancel-be/internal/repository/contract"
	"subscription-cancel-be/pkg/events"
	"subscription-cancel-be/pkg/experiment"
	"subscription-cancel-be/pkg/sanitize"
	"subscription-cancel-be/pkg/wizard"

	"github.com/google/uuid"
)

const msgSessionNotFound = "session not found"

type IWizardService interface {
	Start(ctx context.Context, req dto.StartWizardRequest) (*dto.WizardSessionResponse, error)
	Get(ctx context.Context, id string) (*dto.WizardSessionResponse, error)
	Apply(ctx context.Context, id string, req dto.WizardEventRequest) (*dto.WizardSessionResponse, error)
}

type wizardService struct {
	sessions      contract.WizardSessionRepository
	assigner      *experiment.Assigner
	cancellations ICancellationService
	publisher     IPublisherService
	metrics       *metrics.Metrics
	logger        logger.ILogger
	locks         *keyedMutex
}

func NewWizardService(
	sessions contract.WizardSessionRepository,
	assigner *experiment.Assigner,
	cancellations ICancellationService,
	publisher IPublisherService,
	m *metrics.Metrics,
	log logger.ILogger,
) IWizardService {
	return &wizardService{
		sessions:      sessions,
		assigner:      assigner,
		cancellations: cancellations,
		publisher:     publisher,
		metrics:       m,
		logger:        log,
		locks:         newKeyedMutex(),
	}
}

// Start opens a session for email. The bucket is computed here and never
// taken from the client.
func (s *wizardService) Start(ctx context.Context, req dto.StartWizardRequest) (*dto.WizardSessionResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	email, ok := sanitize.Email(req.Email)
	if !ok {
		return nil, apperror.Validation("invalid email")
	}

	bucket, err := s.assigner.Assign(email)
	s.metrics.BucketAssigned(bucket.String(), err != nil)
	if err != nil {
		s.logger.Warn(logger.ModuleWizard, "Bucket digest failed, using default", map[string]interface{}{
			"error":  err.Error(),
			"bucket": bucket.String(),
		})
	}

	session := wizard.NewSession(uuid.NewString(), email, bucket)
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperror.Gateway("save wizard session", err)
	}
	s.metrics.WizardStarted()

	return dto.NewWizardSessionResponse(session, nil), nil
}

func (s *wizardService) Get(ctx context.Context, id string) (*dto.WizardSessionResponse, error) {
	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return dto.NewWizardSessionResponse(session, nil), nil
}

// Apply runs one event against the stored session. Landing on a recording
// step finalizes in the same call; a failed write is reported in the
// response and never fails the request.
func (s *wizardService) Apply(ctx context.Context, id string, req dto.WizardEventRequest) (*dto.WizardSessionResponse, error) {
	if err := serverutils.ValidateRequest(req); err != nil {
		return nil, err
	}
	event, err := req.ToEvent()
	if err != nil {
		return nil, apperror.Validation(err.Error())
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	session, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	from := session.Step
	if err := session.Apply(event); err != nil {
		s.metrics.WizardTransition(event.Name(), "rejected")
		return nil, transitionError(err)
	}
	s.metrics.WizardTransition(event.Name(), "ok")

	s.logger.Debug(logger.ModuleWizard, "Wizard transition", map[string]interface{}{
		"session_id": session.ID,
		"event":      event.Name(),
		"from":       from.String(),
		"to":         session.Step.String(),
	})

	var result *wizard.FinalizeResult
	if session.Step.WritesCancellation() && !session.Persisted {
		r, err := s.finalize(ctx, session)
		if err != nil {
			return nil, err
		}
		result = &r
	}
	if session.Step == wizard.StepOfferAccepted && from != wizard.StepOfferAccepted {
		publishBestEffort(ctx, s.publisher, s.logger, events.New(events.TypeDownsellAccepted, map[string]interface{}{
			"entity_type": "wizard_session",
			"entity_id":   session.ID,
			"email":       session.Email,
			"bucket":      session.Bucket.String(),
		}))
	}

	if session.Closed {
		if err := s.sessions.Delete(ctx, session.ID); err != nil {
			return nil, apperror.Gateway("delete wizard session", err)
		}
	} else if err := s.sessions.Save(ctx, session); err != nil {
		return nil, apperror.Gateway("save wizard session", err)
	}

	return dto.NewWizardSessionResponse(session, result), nil
}

// finalize writes the cancellation only if this call wins the store's claim.
// The keyed mutex serializes one process; the claim covers instances sharing
// a redis store. A lost claim means another instance already wrote.
func (s *wizardService) finalize(ctx context.Context, session *wizard.Session) (wizard.FinalizeResult, error) {
	claimed, err := s.sessions.ClaimFinalize(ctx, session.ID)
	if err != nil {
		return wizard.FinalizeResult{}, apperror.Gateway("claim wizard finalize", err)
	}
	if !claimed {
		// Finalize sees the flag and reports the write as skipped.
		session.Persisted = true
		s.logger.Info(logger.ModuleWizard, "Finalize already claimed", map[string]interface{}{"session_id": session.ID})
	}

	r := session.Finalize(ctx, s.submitter())
	s.reportFinalize(ctx, session, r)
	return r, nil
}

func (s *wizardService) load(ctx context.Context, id string) (*wizard.Session, error) {
	session, err := s.sessions.Get(ctx, id)
	if err != nil {
		return nil, apperror.Gateway("load wizard session", err)
	}
	if session == nil {
		return nil, apperror.NotFound(msgSessionNotFound)
	}
	return session, nil
}

// submitter records the wizard's cancellation through the same path as
// POST /cancellations.
func (s *wizardService) submitter() wizard.Submitter {
	if s.cancellations == nil {
		return nil
	}
	return wizard.SubmitterFunc(func(ctx context.Context, sub wizard.Submission) error {
		_, err := s.cancellations.RecordCancellation(ctx, dto.NewCancellationRequest(sub))
		return err
	})
}

func (s *wizardService) reportFinalize(ctx context.Context, session *wizard.Session, r wizard.FinalizeResult) {
	s.metrics.WizardFinalized(string(r.Status), string(r.Branch))
	if r.Status != wizard.FinalizeFailed {
		return
	}

	s.logger.Error(logger.ModuleWizard, "Cancellation write failed", map[string]interface{}{
		"session_id": session.ID,
		"branch":     string(r.Branch),
		"error":      r.Err.Error(),
	})
	publishBestEffort(ctx, s.publisher, s.logger, events.New(events.TypeWizardFinalizeFailed, map[string]interface{}{
		"entity_type": "wizard_session",
		"entity_id":   session.ID,
		"email":       session.Email,
		"branch":      string(r.Branch),
		"error":       r.Err.Error(),
	}))
}

func transitionError(err error) error {
	var verr *wizard.ValidationError
	switch {
	case errors.As(err, &verr):
		return apperror.Validation(verr.Message)
	case errors.Is(err, wizard.ErrClosed):
		return apperror.Conflict(err.Error(), err)
	case errors.Is(err, wizard.ErrInvalidTransition):
		return apperror.Conflict(err.Error(), err)
	}
	return err
}
