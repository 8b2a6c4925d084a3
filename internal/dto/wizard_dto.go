package dto

import (
	"fmt"

	"subscription-cancel-be/pkg/wizard"
)

type StartWizardRequest struct {
	Email string `json:"email" validate:"required" errmsg:"email required"`
}

// WizardEventRequest is one wizard action. Type selects the event; the other
// fields are read only by the events that use them.
type WizardEventRequest struct {
	Type             string            `json:"type" validate:"required" errmsg:"type required"`
	Found            *bool             `json:"found,omitempty"`
	Answers          map[string]string `json:"answers,omitempty"`
	Text             string            `json:"text,omitempty"`
	HasCompanyLawyer *bool             `json:"has_company_lawyer,omitempty"`
	VisaType         string            `json:"visa_type,omitempty"`
	Category         string            `json:"category,omitempty"`
	Detail           string            `json:"detail,omitempty"`
}

// ToEvent decodes the request into a wizard event.
func (r WizardEventRequest) ToEvent() (wizard.Event, error) {
	switch r.Type {
	case wizard.AnswerFoundJob{}.Name():
		if r.Found == nil {
			return nil, fmt.Errorf("found required")
		}
		return wizard.AnswerFoundJob{Found: *r.Found}, nil
	case wizard.SubmitFoundJobSurvey{}.Name():
		return wizard.SubmitFoundJobSurvey{Answers: r.Answers}, nil
	case wizard.SubmitReview{}.Name():
		return wizard.SubmitReview{Text: r.Text}, nil
	case wizard.SubmitVisa{}.Name():
		return wizard.SubmitVisa{HasCompanyLawyer: r.HasCompanyLawyer, VisaType: r.VisaType}, nil
	case wizard.AcceptOffer{}.Name():
		return wizard.AcceptOffer{}, nil
	case wizard.DeclineOffer{}.Name():
		return wizard.DeclineOffer{}, nil
	case wizard.SubmitDeclinedSurvey{}.Name():
		return wizard.SubmitDeclinedSurvey{Answers: r.Answers}, nil
	case wizard.SelectReason{}.Name():
		return wizard.SelectReason{Category: wizard.ReasonCategory(r.Category)}, nil
	case wizard.CompleteCancellation{}.Name():
		return wizard.CompleteCancellation{Detail: r.Detail}, nil
	case wizard.Back{}.Name():
		return wizard.Back{}, nil
	case wizard.Close{}.Name():
		return wizard.Close{}, nil
	}
	return nil, fmt.Errorf("unknown event type %q", r.Type)
}

type FinalizeResponse struct {
	Status string `json:"status"`
	Branch string `json:"branch,omitempty"`
	Error  string `json:"error,omitempty"`
}

type WizardSessionResponse struct {
	ID               string              `json:"id"`
	Email            string              `json:"email"`
	Step             string              `json:"step"`
	Bucket           string              `json:"bucket"`
	FoundJob         bool                `json:"found_job"`
	SurveyAnswers    map[string]string   `json:"survey_answers,omitempty"`
	SelectedReason   string              `json:"selected_reason,omitempty"`
	FreeTextReason   *string             `json:"free_text_reason,omitempty"`
	VisaDetails      *wizard.VisaDetails `json:"visa_details,omitempty"`
	AcceptedDownsell bool                `json:"accepted_downsell"`
	Persisted        bool                `json:"persisted"`
	Closed           bool                `json:"closed"`
	Terminal         bool                `json:"terminal"`
	CanGoBack        bool                `json:"can_go_back"`
	NextSteps        []string            `json:"next_steps"`
	Finalize         *FinalizeResponse   `json:"finalize,omitempty"`
}

// NewWizardSessionResponse renders a session for the API.
func NewWizardSessionResponse(s *wizard.Session, result *wizard.FinalizeResult) *WizardSessionResponse {
	res := &WizardSessionResponse{
		ID:               s.ID,
		Email:            s.Email,
		Step:             s.Step.String(),
		Bucket:           string(s.Bucket),
		FoundJob:         s.FoundJob,
		SurveyAnswers:    s.SurveyAnswers,
		SelectedReason:   string(s.SelectedReason),
		FreeTextReason:   s.FreeTextReason,
		VisaDetails:      s.VisaDetails,
		AcceptedDownsell: s.AcceptedDownsell,
		Persisted:        s.Persisted,
		Closed:           s.Closed,
		Terminal:         s.Step.IsTerminal(),
		CanGoBack:        s.CanGoBack(),
		NextSteps:        make([]string, 0, len(s.Step.Next())),
	}
	for _, next := range s.Step.Next() {
		res.NextSteps = append(res.NextSteps, next.String())
	}
	if result != nil && result.Status != wizard.FinalizeNotRequired {
		res.Finalize = &FinalizeResponse{Status: string(result.Status), Branch: string(result.Branch)}
		if result.Err != nil {
			res.Finalize.Error = result.Err.Error()
		}
	}
	return res
}

// NewCancellationRequest converts a finished wizard session's submission
// into the POST /cancellations body.
func NewCancellationRequest(sub wizard.Submission) CreateCancellationRequest {
	return CreateCancellationRequest{
		Email:            sub.Email,
		DownsellVariant:  sub.Bucket.String(),
		Reason:           sub.Reason,
		AcceptedDownsell: sub.AcceptedDownsell,
		VisaType:         sub.VisaType,
		VisaHelp:         sub.VisaHelp,
		FoundJobWithMM:   sub.FoundJobWithUs,
		ReviewFeedback:   sub.ReviewFeedback,
		SurveyAnswers:    sub.SurveyAnswers,
	}
}
