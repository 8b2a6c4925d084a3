package wizard

import (
	"errors"
	"testing"

	"subscription-cancel-be/pkg/experiment"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var declinedAnswers = map[string]string{
	QuestionRolesApplied:         "1 – 5",
	QuestionCompaniesEmailed:     "0",
	QuestionCompaniesInterviewed: "0",
}

var foundJobAnswers = map[string]string{
	QuestionFoundWithUs:          "Yes",
	QuestionRolesApplied:         "6 – 20",
	QuestionCompaniesEmailed:     "6–20",
	QuestionCompaniesInterviewed: "3–5",
}

func boolPtr(b bool) *bool { return &b }

func mustApply(t *testing.T, s *Session, events ...Event) {
	t.Helper()
	for _, ev := range events {
		require.NoError(t, s.Apply(ev), "event %s on step %s", ev.Name(), s.Step)
	}
}

func visited(s *Session, step Step) bool {
	if s.Step == step {
		return true
	}
	for _, h := range s.History {
		if h == step {
			return true
		}
	}
	return false
}

func TestNewSession(t *testing.T) {
	s := NewSession("abc", "  User3@Example.com ", experiment.BucketB)
	assert.Equal(t, StepInitial, s.Step)
	assert.Equal(t, "user3@example.com", s.Email)
	assert.Equal(t, experiment.BucketB, s.Bucket)
	assert.False(t, s.Persisted)
	assert.Empty(t, s.History)

	s = NewSession("abc", "user@example.com", experiment.Bucket("Z"))
	assert.Equal(t, experiment.DefaultBucket, s.Bucket)
}

func TestStillLookingBucketB(t *testing.T) {
	s := NewSession("s1", "user3@example.com", experiment.BucketB)

	mustApply(t, s,
		AnswerFoundJob{Found: false},
	)
	assert.Equal(t, StepDownsellOffer, s.Step)

	mustApply(t, s,
		DeclineOffer{},
		SubmitDeclinedSurvey{Answers: declinedAnswers},
		SelectReason{Category: ReasonPrice},
		CompleteCancellation{Detail: "12"},
	)
	assert.Equal(t, StepCancellationComplete, s.Step)
	require.NotNil(t, s.FreeTextReason)
	assert.Equal(t, "Too expensive: 12", *s.FreeTextReason)
	assert.False(t, s.AcceptedDownsell)
}

func TestBucketANeverVisitsDownsell(t *testing.T) {
	s := NewSession("s1", "user3@example.com", experiment.BucketA)

	mustApply(t, s, AnswerFoundJob{Found: false})
	assert.Equal(t, StepOfferDeclinedSurvey, s.Step)

	mustApply(t, s,
		SubmitDeclinedSurvey{Answers: declinedAnswers},
		SelectReason{Category: ReasonOther},
		CompleteCancellation{Detail: "I no longer need this service at all"},
	)
	assert.Equal(t, StepCancellationComplete, s.Step)
	assert.False(t, visited(s, StepDownsellOffer))
}

func TestDeclineOfferRejectedInBucketA(t *testing.T) {
	s := NewSession("s1", "a@example.com", experiment.BucketA)
	mustApply(t, s, AnswerFoundJob{Found: false})

	err := s.Apply(DeclineOffer{})
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, StepOfferDeclinedSurvey, s.Step)
}

func TestAcceptOffer(t *testing.T) {
	tests := []struct {
		name  string
		setup []Event
	}{
		{"from downsell", []Event{AnswerFoundJob{Found: false}}},
		{"from declined survey", []Event{AnswerFoundJob{Found: false}, DeclineOffer{}}},
		{"from reason", []Event{AnswerFoundJob{Found: false}, DeclineOffer{}, SubmitDeclinedSurvey{Answers: declinedAnswers}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewSession("s1", "b@example.com", experiment.BucketB)
			mustApply(t, s, tt.setup...)
			mustApply(t, s, AcceptOffer{})

			assert.Equal(t, StepOfferAccepted, s.Step)
			assert.True(t, s.AcceptedDownsell)
			assert.True(t, s.Step.IsTerminal())
			assert.False(t, s.Step.WritesCancellation())
		})
	}
}

func TestFoundJobBranch(t *testing.T) {
	t.Run("with lawyer", func(t *testing.T) {
		s := NewSession("s1", "c@example.com", experiment.BucketA)
		mustApply(t, s,
			AnswerFoundJob{Found: true},
			SubmitFoundJobSurvey{Answers: foundJobAnswers},
			SubmitReview{Text: "The job alerts were genuinely useful to me"},
			SubmitVisa{HasCompanyLawyer: boolPtr(true), VisaType: "H-1B"},
		)
		assert.Equal(t, StepVisaNoHelpNeeded, s.Step)
		assert.Equal(t, "H-1B", s.VisaDetails.VisaType)
	})

	t.Run("without lawyer", func(t *testing.T) {
		s := NewSession("s1", "c@example.com", experiment.BucketB)
		mustApply(t, s,
			AnswerFoundJob{Found: true},
			SubmitFoundJobSurvey{Answers: foundJobAnswers},
			SubmitReview{Text: "The job alerts were genuinely useful to me"},
			SubmitVisa{HasCompanyLawyer: boolPtr(false), VisaType: "O-1"},
		)
		assert.Equal(t, StepVisaHelpOffered, s.Step)
		assert.False(t, visited(s, StepDownsellOffer))
	})
}

func TestValidation(t *testing.T) {
	t.Run("incomplete found job survey", func(t *testing.T) {
		s := NewSession("s1", "d@example.com", experiment.BucketA)
		mustApply(t, s, AnswerFoundJob{Found: true})

		err := s.Apply(SubmitFoundJobSurvey{Answers: map[string]string{QuestionFoundWithUs: "Yes"}})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, StepFoundJobSurvey, s.Step)
	})

	t.Run("short review", func(t *testing.T) {
		s := NewSession("s1", "d@example.com", experiment.BucketA)
		mustApply(t, s, AnswerFoundJob{Found: true}, SubmitFoundJobSurvey{Answers: foundJobAnswers})

		err := s.Apply(SubmitReview{Text: "too short"})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, StepFoundJobReview, s.Step)
	})

	t.Run("visa question unanswered", func(t *testing.T) {
		s := NewSession("s1", "d@example.com", experiment.BucketA)
		mustApply(t, s,
			AnswerFoundJob{Found: true},
			SubmitFoundJobSurvey{Answers: foundJobAnswers},
			SubmitReview{Text: "The job alerts were genuinely useful to me"},
		)
		assert.Error(t, s.Apply(SubmitVisa{VisaType: "H-1B"}))
		assert.Error(t, s.Apply(SubmitVisa{HasCompanyLawyer: boolPtr(true), VisaType: "  "}))
		assert.Equal(t, StepVisaQuestion, s.Step)
	})

	t.Run("complete without reason", func(t *testing.T) {
		s := NewSession("s1", "d@example.com", experiment.BucketA)
		mustApply(t, s, AnswerFoundJob{Found: false}, SubmitDeclinedSurvey{Answers: declinedAnswers})

		err := s.Apply(CompleteCancellation{Detail: "10"})
		var verr *ValidationError
		require.True(t, errors.As(err, &verr))
		assert.Equal(t, "category", verr.Field)
	})

	t.Run("unknown reason", func(t *testing.T) {
		s := NewSession("s1", "d@example.com", experiment.BucketA)
		mustApply(t, s, AnswerFoundJob{Found: false}, SubmitDeclinedSurvey{Answers: declinedAnswers})

		assert.Error(t, s.Apply(SelectReason{Category: "bored"}))
		assert.Empty(t, s.SelectedReason)
	})
}

func TestReasonDetailThresholds(t *testing.T) {
	tests := []struct {
		category ReasonCategory
		detail   string
		ok       bool
	}{
		{ReasonPrice, "", false},
		{ReasonPrice, "   ", false},
		{ReasonPrice, "ten", false},
		{ReasonPrice, "10", true},
		{ReasonPrice, "$12.50", true},
		{ReasonHelpful, "123456789012345678901234", false},
		{ReasonHelpful, "1234567890123456789012345", true},
		{ReasonRelevance, "  123456789012345678901234  ", false},
		{ReasonNotMove, "I decided to stay where I am for now", true},
		{ReasonOther, "", false},
	}

	for _, tt := range tests {
		t.Run(string(tt.category)+"/"+tt.detail, func(t *testing.T) {
			s := NewSession("s1", "e@example.com", experiment.BucketA)
			mustApply(t, s,
				AnswerFoundJob{Found: false},
				SubmitDeclinedSurvey{Answers: declinedAnswers},
				SelectReason{Category: tt.category},
			)

			err := s.Apply(CompleteCancellation{Detail: tt.detail})
			if tt.ok {
				assert.NoError(t, err)
				assert.Equal(t, StepCancellationComplete, s.Step)
			} else {
				assert.Error(t, err)
				assert.Equal(t, StepOfferDeclinedReason, s.Step)
			}
		})
	}
}

func TestBack(t *testing.T) {
	t.Run("returns to origin", func(t *testing.T) {
		s := NewSession("s1", "f@example.com", experiment.BucketB)
		mustApply(t, s, AnswerFoundJob{Found: false}, DeclineOffer{})
		require.Equal(t, StepOfferDeclinedSurvey, s.Step)

		mustApply(t, s, Back{})
		assert.Equal(t, StepDownsellOffer, s.Step)
		mustApply(t, s, Back{})
		assert.Equal(t, StepInitial, s.Step)
	})

	t.Run("bucket A survey goes back to initial", func(t *testing.T) {
		s := NewSession("s1", "f@example.com", experiment.BucketA)
		mustApply(t, s, AnswerFoundJob{Found: false}, Back{})
		assert.Equal(t, StepInitial, s.Step)
	})

	t.Run("clears selected reason first", func(t *testing.T) {
		s := NewSession("s1", "f@example.com", experiment.BucketA)
		mustApply(t, s,
			AnswerFoundJob{Found: false},
			SubmitDeclinedSurvey{Answers: declinedAnswers},
			SelectReason{Category: ReasonHelpful},
		)

		mustApply(t, s, Back{})
		assert.Equal(t, StepOfferDeclinedReason, s.Step)
		assert.Empty(t, s.SelectedReason)

		mustApply(t, s, Back{})
		assert.Equal(t, StepOfferDeclinedSurvey, s.Step)
	})

	t.Run("not allowed on initial or terminal", func(t *testing.T) {
		s := NewSession("s1", "f@example.com", experiment.BucketB)
		assert.ErrorIs(t, s.Apply(Back{}), ErrInvalidTransition)

		mustApply(t, s, AnswerFoundJob{Found: false}, AcceptOffer{})
		assert.ErrorIs(t, s.Apply(Back{}), ErrInvalidTransition)
		assert.Equal(t, StepOfferAccepted, s.Step)
	})
}

func TestClose(t *testing.T) {
	s := NewSession("s1", "g@example.com", experiment.BucketA)
	mustApply(t, s, AnswerFoundJob{Found: true}, Close{})

	assert.True(t, s.Closed)
	assert.ErrorIs(t, s.Apply(SubmitFoundJobSurvey{Answers: foundJobAnswers}), ErrClosed)
	assert.Equal(t, StepFoundJobSurvey, s.Step)
}

func TestInvalidTransitions(t *testing.T) {
	s := NewSession("s1", "h@example.com", experiment.BucketB)

	err := s.Apply(SubmitReview{Text: "The job alerts were genuinely useful to me"})
	var terr *TransitionError
	require.True(t, errors.As(err, &terr))
	assert.Equal(t, StepInitial, terr.From)
	assert.Equal(t, "submit_review", terr.Event)

	mustApply(t, s, AnswerFoundJob{Found: false}, AcceptOffer{})
	for _, ev := range []Event{AcceptOffer{}, DeclineOffer{}, AnswerFoundJob{Found: true}} {
		assert.ErrorIs(t, s.Apply(ev), ErrInvalidTransition)
	}
}

func TestHistoryOnlyHoldsReachableSteps(t *testing.T) {
	s := NewSession("s1", "i@example.com", experiment.BucketB)
	mustApply(t, s,
		AnswerFoundJob{Found: false},
		DeclineOffer{},
		SubmitDeclinedSurvey{Answers: declinedAnswers},
	)

	path := append(append([]Step{}, s.History...), s.Step)
	for i := 1; i < len(path); i++ {
		assert.True(t, path[i-1].CanAdvanceTo(path[i]), "%s -> %s", path[i-1], path[i])
	}
}

func TestCloneIsIndependent(t *testing.T) {
	s := NewSession("s1", "j@example.com", experiment.BucketA)
	mustApply(t, s,
		AnswerFoundJob{Found: false},
		SubmitDeclinedSurvey{Answers: declinedAnswers},
		SelectReason{Category: ReasonPrice},
		CompleteCancellation{Detail: "10"},
	)

	c := s.Clone()
	c.SurveyAnswers[QuestionRolesApplied] = "20+"
	*c.FreeTextReason = "changed"
	c.History[0] = StepVisaQuestion

	assert.Equal(t, "1 – 5", s.SurveyAnswers[QuestionRolesApplied])
	assert.Equal(t, "Too expensive: 10", *s.FreeTextReason)
	assert.Equal(t, StepInitial, s.History[0])
}
