package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/internal/entity"
	"subscription-cancel-be/internal/pkg/apperror"
	"subscription-cancel-be/internal/pkg/logger"
	"subscription-cancel-be/internal/repository/contract"
	"subscription-cancel-be/internal/repository/memory"
	"subscription-cancel-be/pkg/events"
	"subscription-cancel-be/pkg/experiment"
	"subscription-cancel-be/pkg/wizard"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Under this salt user3@example.com lands in bucket B; under the default
// salt it lands in A.
const bucketBSalt = "mm_downsell_test_salt"

type wizardFixture struct {
	store *fakeStore
	pub   *recordingPublisher
	svc   IWizardService
}

func newWizardFixture(salt string) *wizardFixture {
	store := newFakeStore()
	pub := &recordingPublisher{}
	log := logger.NewNopLogger()
	cancellations := NewCancellationService(fakeFactory{store}, pub, nil, log)
	svc := NewWizardService(memory.NewSessionRepository(time.Hour), experiment.NewAssigner(salt), cancellations, pub, nil, log)
	return &wizardFixture{store: store, pub: pub, svc: svc}
}

func (f *wizardFixture) apply(t *testing.T, id string, reqs ...dto.WizardEventRequest) *dto.WizardSessionResponse {
	t.Helper()
	var res *dto.WizardSessionResponse
	for _, req := range reqs {
		var err error
		res, err = f.svc.Apply(context.Background(), id, req)
		require.NoError(t, err, req.Type)
	}
	return res
}

var declinedSurvey = map[string]string{
	wizard.QuestionRolesApplied:         "0",
	wizard.QuestionCompaniesEmailed:     "0",
	wizard.QuestionCompaniesInterviewed: "0",
}

func foundJob(found bool) dto.WizardEventRequest {
	return dto.WizardEventRequest{Type: "answer_found_job", Found: &found}
}

func TestWizardStillLookingScenario(t *testing.T) {
	f := newWizardFixture(bucketBSalt)
	_, sub := f.store.addUser("user3@example.com", 2500, entity.SubscriptionStatusActive)

	started, err := f.svc.Start(context.Background(), dto.StartWizardRequest{Email: "User3@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "B", started.Bucket)
	assert.Equal(t, "initial", started.Step)
	assert.Equal(t, "user3@example.com", started.Email)

	res := f.apply(t, started.ID, foundJob(false))
	assert.Equal(t, "downsellOffer", res.Step)

	res = f.apply(t, started.ID,
		dto.WizardEventRequest{Type: "decline_offer"},
		dto.WizardEventRequest{Type: "submit_declined_survey", Answers: declinedSurvey},
		dto.WizardEventRequest{Type: "select_reason", Category: "price"},
	)
	assert.Equal(t, "offerDeclinedReason", res.Step)
	assert.Nil(t, res.Finalize)

	res = f.apply(t, started.ID, dto.WizardEventRequest{Type: "complete_cancellation", Detail: "12"})
	assert.Equal(t, "cancellationComplete", res.Step)
	assert.True(t, res.Terminal)
	assert.True(t, res.Persisted)
	require.NotNil(t, res.Finalize)
	assert.Equal(t, "submitted", res.Finalize.Status)
	assert.Equal(t, "still_looking", res.Finalize.Branch)

	recorded := f.store.recorded()
	require.Len(t, recorded, 1)
	assert.Equal(t, "Too expensive: 12", *recorded[0].Reason)
	assert.Equal(t, "B", recorded[0].DownsellVariant)
	assert.False(t, recorded[0].AcceptedDownsell)
	assert.Equal(t, entity.SubscriptionStatusPendingCancellation, f.store.subscription(sub.Id).Status)
}

func TestWizardBucketASkipsDownsell(t *testing.T) {
	f := newWizardFixture("")
	started, err := f.svc.Start(context.Background(), dto.StartWizardRequest{Email: "user3@example.com"})
	require.NoError(t, err)
	require.Equal(t, "A", started.Bucket)

	res := f.apply(t, started.ID, foundJob(false))
	assert.Equal(t, "offerDeclinedSurvey", res.Step)

	_, err = f.svc.Apply(context.Background(), started.ID, dto.WizardEventRequest{Type: "decline_offer"})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))
}

func TestWizardFoundJobBranchRecordsVisa(t *testing.T) {
	f := newWizardFixture(bucketBSalt)
	f.store.addUser("user1@example.com", 2500, entity.SubscriptionStatusActive)
	started, err := f.svc.Start(context.Background(), dto.StartWizardRequest{Email: "user1@example.com"})
	require.NoError(t, err)

	noLawyer := false
	res := f.apply(t, started.ID,
		foundJob(true),
		dto.WizardEventRequest{Type: "submit_found_job_survey", Answers: map[string]string{
			wizard.QuestionFoundWithUs:          "Yes",
			wizard.QuestionRolesApplied:         "1 – 5",
			wizard.QuestionCompaniesEmailed:     "1–5",
			wizard.QuestionCompaniesInterviewed: "1–2",
		}},
		dto.WizardEventRequest{Type: "submit_review", Text: strings.Repeat("great ", 5)},
		dto.WizardEventRequest{Type: "submit_visa", HasCompanyLawyer: &noLawyer, VisaType: "H-1B"},
	)
	assert.Equal(t, "visaHelpOffered", res.Step)
	require.NotNil(t, res.Finalize)
	assert.Equal(t, "submitted", res.Finalize.Status)

	c := f.store.recorded()[0]
	assert.Equal(t, wizard.FoundJobReason, *c.Reason)
	assert.Equal(t, "H-1B", *c.VisaType)
	assert.True(t, *c.VisaHelp)
	assert.True(t, *c.FoundJobWithMM)
	assert.Equal(t, "great great great great great", *c.ReviewFeedback)
	assert.Equal(t, "Yes", c.SurveyAnswers[wizard.QuestionFoundWithUs])
}

func TestWizardAcceptOfferNeverWrites(t *testing.T) {
	f := newWizardFixture(bucketBSalt)
	f.store.addUser("user3@example.com", 2500, entity.SubscriptionStatusActive)
	started, err := f.svc.Start(context.Background(), dto.StartWizardRequest{Email: "user3@example.com"})
	require.NoError(t, err)

	res := f.apply(t, started.ID, foundJob(false), dto.WizardEventRequest{Type: "accept_offer"})
	assert.Equal(t, "offerAccepted", res.Step)
	assert.True(t, res.AcceptedDownsell)
	assert.Nil(t, res.Finalize)
	assert.Empty(t, f.store.recorded())
	assert.Equal(t, []string{events.TypeDownsellAccepted}, f.pub.types())
}

func TestWizardFinalizeFailureDoesNotFailRequest(t *testing.T) {
	f := newWizardFixture(bucketBSalt)
	// No user rows: the write fails with "user not found".
	started, err := f.svc.Start(context.Background(), dto.StartWizardRequest{Email: "user3@example.com"})
	require.NoError(t, err)

	res := f.apply(t, started.ID,
		foundJob(false),
		dto.WizardEventRequest{Type: "decline_offer"},
		dto.WizardEventRequest{Type: "submit_declined_survey", Answers: declinedSurvey},
		dto.WizardEventRequest{Type: "select_reason", Category: "helpful"},
		dto.WizardEventRequest{Type: "complete_cancellation", Detail: strings.Repeat("x", 25)},
	)
	assert.Equal(t, "cancellationComplete", res.Step)
	require.NotNil(t, res.Finalize)
	assert.Equal(t, "failed", res.Finalize.Status)
	assert.Equal(t, "user not found", res.Finalize.Error)
	assert.Contains(t, f.pub.types(), events.TypeWizardFinalizeFailed)

	// The stored session keeps the guard so nothing retries.
	got, err := f.svc.Get(context.Background(), started.ID)
	require.NoError(t, err)
	assert.True(t, got.Persisted)
	assert.Equal(t, "cancellationComplete", got.Step)
}

func TestWizardErrors(t *testing.T) {
	f := newWizardFixture(bucketBSalt)
	ctx := context.Background()

	_, err := f.svc.Start(ctx, dto.StartWizardRequest{})
	assert.Equal(t, "email required", apperror.Message(err))

	_, err = f.svc.Start(ctx, dto.StartWizardRequest{Email: "not-an-email"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.svc.Get(ctx, "missing")
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	_, err = f.svc.Apply(ctx, "missing", dto.WizardEventRequest{Type: "back"})
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))

	started, err := f.svc.Start(ctx, dto.StartWizardRequest{Email: "user3@example.com"})
	require.NoError(t, err)

	_, err = f.svc.Apply(ctx, started.ID, dto.WizardEventRequest{Type: "teleport"})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	_, err = f.svc.Apply(ctx, started.ID, dto.WizardEventRequest{Type: "back"})
	assert.Equal(t, apperror.KindConflict, apperror.KindOf(err))

	f.apply(t, started.ID, foundJob(false), dto.WizardEventRequest{Type: "decline_offer"})
	_, err = f.svc.Apply(ctx, started.ID, dto.WizardEventRequest{Type: "submit_declined_survey", Answers: map[string]string{"rolesApplied": "0"}})
	assert.Equal(t, apperror.KindValidation, apperror.KindOf(err))

	got, err := f.svc.Get(ctx, started.ID)
	require.NoError(t, err)
	assert.Equal(t, "offerDeclinedSurvey", got.Step)
}

func TestWizardBackAndClose(t *testing.T) {
	f := newWizardFixture(bucketBSalt)
	ctx := context.Background()
	started, err := f.svc.Start(ctx, dto.StartWizardRequest{Email: "user3@example.com"})
	require.NoError(t, err)

	res := f.apply(t, started.ID, foundJob(false), dto.WizardEventRequest{Type: "decline_offer"})
	assert.True(t, res.CanGoBack)

	res = f.apply(t, started.ID, dto.WizardEventRequest{Type: "back"})
	assert.Equal(t, "downsellOffer", res.Step)

	res = f.apply(t, started.ID, dto.WizardEventRequest{Type: "close"})
	assert.True(t, res.Closed)

	_, err = f.svc.Get(ctx, started.ID)
	assert.Equal(t, apperror.KindNotFound, apperror.KindOf(err))
	assert.Empty(t, f.store.recorded())
}

func TestWizardConcurrentCompletionWritesOnce(t *testing.T) {
	f := newWizardFixture(bucketBSalt)
	f.store.addUser("user3@example.com", 2500, entity.SubscriptionStatusActive)
	started, err := f.svc.Start(context.Background(), dto.StartWizardRequest{Email: "user3@example.com"})
	require.NoError(t, err)
	f.apply(t, started.ID,
		foundJob(false),
		dto.WizardEventRequest{Type: "decline_offer"},
		dto.WizardEventRequest{Type: "submit_declined_survey", Answers: declinedSurvey},
		dto.WizardEventRequest{Type: "select_reason", Category: "price"},
	)

	var wg sync.WaitGroup
	results := make(chan error, 5)
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Apply(context.Background(), started.ID, dto.WizardEventRequest{Type: "complete_cancellation", Detail: "10"})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var ok, conflicts int
	for err := range results {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, wizard.ErrInvalidTransition):
			conflicts++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 4, conflicts)
	assert.Len(t, f.store.recorded(), 1)
}

// gatedSessions holds every Get until both callers have loaded, so two
// instances see the same pre-terminal session.
type gatedSessions struct {
	contract.WizardSessionRepository
	loaded sync.WaitGroup
}

func (g *gatedSessions) Get(ctx context.Context, id string) (*wizard.Session, error) {
	session, err := g.WizardSessionRepository.Get(ctx, id)
	g.loaded.Done()
	g.loaded.Wait()
	return session, err
}

func TestWizardCompletionOnTwoInstancesWritesOnce(t *testing.T) {
	f := newWizardFixture(bucketBSalt)
	f.store.addUser("user3@example.com", 2500, entity.SubscriptionStatusActive)
	log := logger.NewNopLogger()
	shared := memory.NewSessionRepository(time.Hour)

	setup := NewWizardService(shared, experiment.NewAssigner(bucketBSalt), nil, f.pub, nil, log)
	started, err := setup.Start(context.Background(), dto.StartWizardRequest{Email: "user3@example.com"})
	require.NoError(t, err)
	for _, req := range []dto.WizardEventRequest{
		foundJob(false),
		{Type: "decline_offer"},
		{Type: "submit_declined_survey", Answers: declinedSurvey},
		{Type: "select_reason", Category: "price"},
	} {
		_, err := setup.Apply(context.Background(), started.ID, req)
		require.NoError(t, err)
	}

	gate := &gatedSessions{WizardSessionRepository: shared}
	gate.loaded.Add(2)
	cancellations := NewCancellationService(fakeFactory{f.store}, f.pub, nil, log)

	responses := make(chan *dto.WizardSessionResponse, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		// separate services have separate in-process locks
		instance := NewWizardService(gate, experiment.NewAssigner(bucketBSalt), cancellations, f.pub, nil, log)
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := instance.Apply(context.Background(), started.ID, dto.WizardEventRequest{Type: "complete_cancellation", Detail: "10"})
			assert.NoError(t, err)
			responses <- res
		}()
	}
	wg.Wait()
	close(responses)

	var statuses []string
	for res := range responses {
		require.NotNil(t, res)
		require.NotNil(t, res.Finalize)
		assert.True(t, res.Persisted)
		statuses = append(statuses, res.Finalize.Status)
	}
	assert.ElementsMatch(t, []string{"submitted", "skipped"}, statuses)
	assert.Len(t, f.store.recorded(), 1)
}
