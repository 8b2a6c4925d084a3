package wizard

import (
	"context"

	"subscription-cancel-be/pkg/experiment"
)

// FoundJobReason is recorded as the reason on the found-job branch.
const FoundJobReason = "Found a job"

// Submission is the cancellation record handed to a Submitter.
type Submission struct {
	Email            string
	Bucket           experiment.Bucket
	Branch           Branch
	Reason           *string
	AcceptedDownsell bool
	VisaType         *string
	VisaHelp         *bool
	FoundJobWithUs   *bool
	ReviewFeedback   *string
	SurveyAnswers    map[string]string
}

func (b Branch) surveyKeys() []string {
	switch b {
	case BranchFoundJob:
		return FoundJobSurveyKeys
	case BranchStillLooking:
		return DeclinedSurveyKeys
	}
	return nil
}

// Submitter performs the durable cancellation write.
type Submitter interface {
	Submit(ctx context.Context, sub Submission) error
}

// SubmitterFunc adapts a function to Submitter.
type SubmitterFunc func(ctx context.Context, sub Submission) error

func (f SubmitterFunc) Submit(ctx context.Context, sub Submission) error {
	return f(ctx, sub)
}

type FinalizeStatus string

const (
	FinalizeSubmitted   FinalizeStatus = "submitted"
	FinalizeFailed      FinalizeStatus = "failed"
	FinalizeSkipped     FinalizeStatus = "skipped"
	FinalizeNotRequired FinalizeStatus = "not_required"
)

// FinalizeResult tells the caller what happened to the terminal write. A
// failed write does not move the session off its confirmation step; the
// caller decides whether to retry, queue or only log it.
type FinalizeResult struct {
	Status FinalizeStatus
	Branch Branch
	Err    error
}

// Submission builds the record for the current step. The second return is
// false when the step does not record a cancellation.
func (s *Session) Submission() (Submission, bool) {
	if !s.Step.WritesCancellation() {
		return Submission{}, false
	}

	sub := Submission{
		Email:            s.Email,
		Bucket:           s.Bucket,
		Branch:           s.Step.Branch(),
		AcceptedDownsell: s.AcceptedDownsell,
	}
	// Only the survey of the branch taken is recorded. Answers left over from
	// a branch the user backed out of stay behind.
	for _, k := range sub.Branch.surveyKeys() {
		if v, ok := s.SurveyAnswers[k]; ok {
			if sub.SurveyAnswers == nil {
				sub.SurveyAnswers = map[string]string{}
			}
			sub.SurveyAnswers[k] = v
		}
	}

	switch sub.Branch {
	case BranchFoundJob:
		reason := FoundJobReason
		sub.Reason = &reason
		if s.ReviewText != "" {
			review := s.ReviewText
			sub.ReviewFeedback = &review
		}
		if s.VisaDetails != nil {
			visaType := s.VisaDetails.VisaType
			needsHelp := !s.VisaDetails.HasCompanyLawyer
			sub.VisaType = &visaType
			sub.VisaHelp = &needsHelp
		}
		if answer, ok := s.SurveyAnswers[QuestionFoundWithUs]; ok {
			withUs := answer == "Yes"
			sub.FoundJobWithUs = &withUs
		}
	case BranchStillLooking:
		if s.FreeTextReason != nil {
			reason := *s.FreeTextReason
			sub.Reason = &reason
		}
	}
	return sub, true
}

// Finalize performs the terminal write at most once per session. The
// persisted flag is set before the submitter runs, so a failed attempt is not
// repeated by later calls.
func (s *Session) Finalize(ctx context.Context, submitter Submitter) FinalizeResult {
	sub, ok := s.Submission()
	if !ok {
		return FinalizeResult{Status: FinalizeNotRequired}
	}
	if s.Persisted {
		return FinalizeResult{Status: FinalizeSkipped, Branch: sub.Branch}
	}
	s.Persisted = true

	if submitter == nil {
		return FinalizeResult{Status: FinalizeFailed, Branch: sub.Branch, Err: ErrNoSubmitter}
	}
	if err := submitter.Submit(ctx, sub); err != nil {
		return FinalizeResult{Status: FinalizeFailed, Branch: sub.Branch, Err: err}
	}
	return FinalizeResult{Status: FinalizeSubmitted, Branch: sub.Branch}
}
