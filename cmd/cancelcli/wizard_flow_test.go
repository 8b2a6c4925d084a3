package main

import (
	"context"
	"errors"
	"testing"

	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/pkg/experiment"
	"subscription-cancel-be/pkg/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedPrompter replays events in order and records the steps it saw.
type scriptedPrompter struct {
	events []dto.WizardEventRequest
	steps  []string
}

func (p *scriptedPrompter) Event(res *dto.WizardSessionResponse) (dto.WizardEventRequest, error) {
	p.steps = append(p.steps, res.Step)
	if len(p.events) == 0 {
		return dto.WizardEventRequest{}, errAborted
	}
	ev := p.events[0]
	p.events = p.events[1:]
	return ev, nil
}

type recordingSubmitter struct {
	subs []wizard.Submission
	err  error
}

func (r *recordingSubmitter) Submit(_ context.Context, sub wizard.Submission) error {
	r.subs = append(r.subs, sub)
	return r.err
}

func boolPtr(b bool) *bool { return &b }

func zeroAnswers() map[string]string {
	return map[string]string{
		wizard.QuestionRolesApplied:         "0",
		wizard.QuestionCompaniesEmailed:     "0",
		wizard.QuestionCompaniesInterviewed: "0",
	}
}

func TestDriveWizardStillLookingPrice(t *testing.T) {
	sub := &recordingSubmitter{}
	st := newLocalStepper(experiment.NewAssigner("mm_downsell_test_salt"), sub)
	p := &scriptedPrompter{events: []dto.WizardEventRequest{
		{Type: "answer_found_job", Found: boolPtr(false)},
		{Type: "decline_offer"},
		{Type: "submit_declined_survey", Answers: zeroAnswers()},
		{Type: "select_reason", Category: "price"},
		{Type: "complete_cancellation", Detail: ""},
		{Type: "complete_cancellation", Detail: "12"},
	}}

	require.NoError(t, driveWizard(context.Background(), st, p, "user3@example.com"))

	assert.Equal(t, []string{
		"initial", "downsellOffer", "offerDeclinedSurvey", "offerDeclinedReason",
		"offerDeclinedReason", "offerDeclinedReason",
	}, p.steps)

	require.Len(t, sub.subs, 1)
	assert.Equal(t, experiment.BucketB, sub.subs[0].Bucket)
	require.NotNil(t, sub.subs[0].Reason)
	assert.Equal(t, "Too expensive: 12", *sub.subs[0].Reason)
	assert.False(t, sub.subs[0].AcceptedDownsell)
}

func TestDriveWizardAcceptOfferDoesNotSubmit(t *testing.T) {
	sub := &recordingSubmitter{}
	st := newLocalStepper(experiment.NewAssigner("mm_downsell_test_salt"), sub)
	p := &scriptedPrompter{events: []dto.WizardEventRequest{
		{Type: "answer_found_job", Found: boolPtr(false)},
		{Type: "accept_offer"},
	}}

	require.NoError(t, driveWizard(context.Background(), st, p, "user3@example.com"))
	assert.Empty(t, sub.subs)
	assert.Equal(t, wizard.StepOfferAccepted, st.session.Step)
	assert.True(t, st.session.AcceptedDownsell)
}

func TestDriveWizardAbortCloses(t *testing.T) {
	sub := &recordingSubmitter{}
	st := newLocalStepper(experiment.NewAssigner(""), sub)
	p := &scriptedPrompter{}

	require.NoError(t, driveWizard(context.Background(), st, p, "user1@example.com"))
	assert.True(t, st.session.Closed)
	assert.Empty(t, sub.subs)
}

func TestLocalStepperReportsFinalizeFailure(t *testing.T) {
	sub := &recordingSubmitter{err: errors.New("connection refused")}
	st := newLocalStepper(experiment.NewAssigner("mm_downsell_test_salt"), sub)

	_, err := st.Start(context.Background(), "user3@example.com")
	require.NoError(t, err)

	steps := []dto.WizardEventRequest{
		{Type: "answer_found_job", Found: boolPtr(true)},
		{Type: "submit_found_job_survey", Answers: map[string]string{
			wizard.QuestionFoundWithUs:          "Yes",
			wizard.QuestionRolesApplied:         "0",
			wizard.QuestionCompaniesEmailed:     "0",
			wizard.QuestionCompaniesInterviewed: "0",
		}},
		{Type: "submit_review", Text: "More interview prep would have helped a lot."},
	}
	for _, ev := range steps {
		_, err := st.Apply(context.Background(), ev)
		require.NoError(t, err)
	}

	res, err := st.Apply(context.Background(), dto.WizardEventRequest{
		Type: "submit_visa", HasCompanyLawyer: boolPtr(false), VisaType: "H-1B",
	})
	require.NoError(t, err)
	assert.Equal(t, "visaHelpOffered", res.Step)
	require.NotNil(t, res.Finalize)
	assert.Equal(t, "failed", res.Finalize.Status)
	assert.Equal(t, "connection refused", res.Finalize.Error)
	assert.True(t, res.Persisted)
	require.Len(t, sub.subs, 1)
}

func TestLocalStepperRejectsBeforeStart(t *testing.T) {
	st := newLocalStepper(experiment.NewAssigner(""), &recordingSubmitter{})
	_, err := st.Apply(context.Background(), dto.WizardEventRequest{Type: "back"})
	assert.Error(t, err)
}

func TestNav(t *testing.T) {
	ev, ok := nav(actionBack)
	assert.True(t, ok)
	assert.Equal(t, "back", ev.Type)

	ev, ok = nav(actionAccept)
	assert.True(t, ok)
	assert.Equal(t, "accept_offer", ev.Type)

	_, ok = nav(actionContinue)
	assert.False(t, ok)
}

func TestDiscountedPrice(t *testing.T) {
	price := 2500
	assert.Equal(t, "$15.00", discountedPrice(&price))
	assert.Equal(t, "", discountedPrice(nil))
}
