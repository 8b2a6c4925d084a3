// Package wizard is the cancellation flow state machine. A Session holds one
// user's progress; Apply moves it between steps and Finalize performs the
// single cancellation write once a recording step is reached.
package wizard

import (
	"strings"
	"time"

	"subscription-cancel-be/pkg/experiment"
)

type VisaDetails struct {
	HasCompanyLawyer bool   `json:"has_company_lawyer"`
	VisaType         string `json:"visa_type"`
}

type Session struct {
	ID     string            `json:"id"`
	Email  string            `json:"email"`
	Step   Step              `json:"step"`
	Bucket experiment.Bucket `json:"bucket"`

	FoundJob         bool              `json:"found_job"`
	SurveyAnswers    map[string]string `json:"survey_answers,omitempty"`
	ReviewText       string            `json:"review_text,omitempty"`
	SelectedReason   ReasonCategory    `json:"selected_reason,omitempty"`
	FreeTextReason   *string           `json:"free_text_reason,omitempty"`
	VisaDetails      *VisaDetails      `json:"visa_details,omitempty"`
	AcceptedDownsell bool              `json:"accepted_downsell"`
	Persisted        bool              `json:"persisted"`
	Closed           bool              `json:"closed"`
	History          []Step            `json:"history,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// NewSession starts a session on the initial step. The bucket is fixed for
// the lifetime of the session.
func NewSession(id, email string, bucket experiment.Bucket) *Session {
	if _, ok := experiment.ParseBucket(string(bucket)); !ok {
		bucket = experiment.DefaultBucket
	}
	now := time.Now()
	return &Session{
		ID:            id,
		Email:         strings.ToLower(strings.TrimSpace(email)),
		Step:          StepInitial,
		Bucket:        bucket,
		SurveyAnswers: map[string]string{},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Apply feeds ev to the machine. On error the session is unchanged.
func (s *Session) Apply(ev Event) error {
	if s.Closed {
		return ErrClosed
	}

	var err error
	switch e := ev.(type) {
	case Close:
		s.Closed = true
	case Back:
		err = s.back()
	default:
		err = s.forward(e)
	}
	if err == nil {
		s.UpdatedAt = time.Now()
	}
	return err
}

func (s *Session) forward(ev Event) error {
	switch s.Step {
	case StepInitial:
		if e, ok := ev.(AnswerFoundJob); ok {
			s.FoundJob = e.Found
			switch {
			case e.Found:
				return s.advance(StepFoundJobSurvey)
			case s.Bucket == experiment.BucketB:
				return s.advance(StepDownsellOffer)
			default:
				// Variant A has no standalone downsell screen; the discount
				// is offered on the survey screen instead.
				return s.advance(StepOfferDeclinedSurvey)
			}
		}

	case StepFoundJobSurvey:
		if e, ok := ev.(SubmitFoundJobSurvey); ok {
			answers, err := collectAnswers(e.Answers, FoundJobSurveyKeys)
			if err != nil {
				return err
			}
			s.mergeAnswers(answers)
			return s.advance(StepFoundJobReview)
		}

	case StepFoundJobReview:
		if e, ok := ev.(SubmitReview); ok {
			text := strings.TrimSpace(e.Text)
			if len([]rune(text)) < MinFeedbackChars {
				return &ValidationError{Field: "review", Message: "please enter at least 25 characters"}
			}
			s.ReviewText = text
			return s.advance(StepVisaQuestion)
		}

	case StepVisaQuestion:
		if e, ok := ev.(SubmitVisa); ok {
			if e.HasCompanyLawyer == nil {
				return &ValidationError{Field: "has_company_lawyer", Message: "please choose yes or no"}
			}
			visaType := strings.TrimSpace(e.VisaType)
			if visaType == "" {
				return &ValidationError{Field: "visa_type", Message: "please enter your visa type"}
			}
			s.VisaDetails = &VisaDetails{HasCompanyLawyer: *e.HasCompanyLawyer, VisaType: visaType}
			if *e.HasCompanyLawyer {
				return s.advance(StepVisaNoHelpNeeded)
			}
			return s.advance(StepVisaHelpOffered)
		}

	case StepDownsellOffer:
		switch ev.(type) {
		case AcceptOffer:
			return s.accept()
		case DeclineOffer:
			return s.advance(StepOfferDeclinedSurvey)
		}

	case StepOfferDeclinedSurvey:
		switch e := ev.(type) {
		case AcceptOffer:
			return s.accept()
		case SubmitDeclinedSurvey:
			answers, err := collectAnswers(e.Answers, DeclinedSurveyKeys)
			if err != nil {
				return err
			}
			s.mergeAnswers(answers)
			return s.advance(StepOfferDeclinedReason)
		}

	case StepOfferDeclinedReason:
		switch e := ev.(type) {
		case AcceptOffer:
			return s.accept()
		case SelectReason:
			if !e.Category.Valid() {
				return &ValidationError{Field: "category", Message: "unknown reason"}
			}
			s.SelectedReason = e.Category
			return nil
		case CompleteCancellation:
			if s.SelectedReason == "" {
				return &ValidationError{Field: "category", Message: "please select a reason to continue"}
			}
			if err := s.SelectedReason.ValidateDetail(e.Detail); err != nil {
				return err
			}
			reason := s.SelectedReason.ReasonText(e.Detail)
			s.FreeTextReason = &reason
			return s.advance(StepCancellationComplete)
		}
	}

	return &TransitionError{From: s.Step, Event: ev.Name()}
}

func (s *Session) accept() error {
	if err := s.advance(StepOfferAccepted); err != nil {
		return err
	}
	s.AcceptedDownsell = true
	return nil
}

func (s *Session) advance(to Step) error {
	if !s.Step.CanAdvanceTo(to) {
		return &TransitionError{From: s.Step, Event: "advance to " + string(to)}
	}
	s.History = append(s.History, s.Step)
	s.Step = to
	return nil
}

// CanGoBack reports whether a Back event would be accepted.
func (s *Session) CanGoBack() bool {
	return !s.Closed && s.Step != StepInitial && !s.Step.IsTerminal() && len(s.History) > 0
}

// back returns to the step the session actually came from. On the reason
// screen a selected reason is cleared first.
func (s *Session) back() error {
	if !s.CanGoBack() {
		return &TransitionError{From: s.Step, Event: Back{}.Name()}
	}
	if s.Step == StepOfferDeclinedReason && s.SelectedReason != "" {
		s.SelectedReason = ""
		return nil
	}
	last := len(s.History) - 1
	s.Step = s.History[last]
	s.History = s.History[:last]
	return nil
}

func (s *Session) mergeAnswers(answers map[string]string) {
	if s.SurveyAnswers == nil {
		s.SurveyAnswers = map[string]string{}
	}
	for k, v := range answers {
		s.SurveyAnswers[k] = v
	}
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	c := *s
	if s.SurveyAnswers != nil {
		c.SurveyAnswers = make(map[string]string, len(s.SurveyAnswers))
		for k, v := range s.SurveyAnswers {
			c.SurveyAnswers[k] = v
		}
	}
	if s.FreeTextReason != nil {
		reason := *s.FreeTextReason
		c.FreeTextReason = &reason
	}
	if s.VisaDetails != nil {
		visa := *s.VisaDetails
		c.VisaDetails = &visa
	}
	c.History = append([]Step(nil), s.History...)
	return &c
}
