package main

import (
	"context"
	"errors"

	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/pkg/client"
	"subscription-cancel-be/pkg/experiment"
	"subscription-cancel-be/pkg/wizard"

	"github.com/google/uuid"
)

// stepper advances one wizard session. The remote stepper keeps the session
// on the server; the local one runs the state machine in process and only
// posts the final cancellation record.
type stepper interface {
	Start(ctx context.Context, email string) (*dto.WizardSessionResponse, error)
	Apply(ctx context.Context, ev dto.WizardEventRequest) (*dto.WizardSessionResponse, error)
}

type remoteStepper struct {
	client *client.Client
	id     string
}

func newRemoteStepper(c *client.Client) *remoteStepper {
	return &remoteStepper{client: c}
}

func (r *remoteStepper) Start(ctx context.Context, email string) (*dto.WizardSessionResponse, error) {
	res, err := r.client.StartWizard(ctx, email)
	if err != nil {
		return nil, err
	}
	r.id = res.ID
	return res, nil
}

func (r *remoteStepper) Apply(ctx context.Context, ev dto.WizardEventRequest) (*dto.WizardSessionResponse, error) {
	if r.id == "" {
		return nil, errors.New("wizard not started")
	}
	return r.client.ApplyWizardEvent(ctx, r.id, ev)
}

type localStepper struct {
	assigner  *experiment.Assigner
	submitter wizard.Submitter
	session   *wizard.Session
}

func newLocalStepper(assigner *experiment.Assigner, submitter wizard.Submitter) *localStepper {
	return &localStepper{assigner: assigner, submitter: submitter}
}

func (l *localStepper) Start(_ context.Context, email string) (*dto.WizardSessionResponse, error) {
	bucket, err := l.assigner.Assign(email)
	if err != nil {
		bucket = experiment.DefaultBucket
	}
	l.session = wizard.NewSession(uuid.NewString(), email, bucket)
	return dto.NewWizardSessionResponse(l.session, nil), nil
}

func (l *localStepper) Apply(ctx context.Context, req dto.WizardEventRequest) (*dto.WizardSessionResponse, error) {
	if l.session == nil {
		return nil, errors.New("wizard not started")
	}
	ev, err := req.ToEvent()
	if err != nil {
		return nil, err
	}
	if err := l.session.Apply(ev); err != nil {
		return nil, err
	}

	var result *wizard.FinalizeResult
	if l.session.Step.WritesCancellation() && !l.session.Persisted {
		r := l.session.Finalize(ctx, l.submitter)
		result = &r
	}
	return dto.NewWizardSessionResponse(l.session, result), nil
}
