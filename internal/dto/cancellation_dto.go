package dto

// CreateCancellationRequest is the body of POST /cancellations. Pointer
// fields are optional and stay nil when absent.
type CreateCancellationRequest struct {
	Email            string            `json:"email" validate:"required" errmsg:"email required"`
	DownsellVariant  string            `json:"downsell_variant" validate:"bucket" errmsg:"invalid downsell_variant"`
	Reason           *string           `json:"reason,omitempty"`
	AcceptedDownsell bool              `json:"accepted_downsell"`
	VisaType         *string           `json:"visa_type,omitempty"`
	VisaHelp         *bool             `json:"visa_help,omitempty"`
	FoundJobWithMM   *bool             `json:"found_job_with_mm,omitempty"`
	ReviewFeedback   *string           `json:"review_feedback,omitempty"`
	SurveyAnswers    map[string]string `json:"survey_answers,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}
