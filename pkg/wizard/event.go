package wizard

// Event is a user action fed to Session.Apply. The set is closed: only the
// types in this file implement it.
type Event interface {
	Name() string
	isEvent()
}

// AnswerFoundJob answers "Have you found a job yet?" on the first screen.
type AnswerFoundJob struct {
	Found bool
}

// SubmitFoundJobSurvey carries the four found-job survey answers.
type SubmitFoundJobSurvey struct {
	Answers map[string]string
}

// SubmitReview carries the free-text feedback shown after the found-job survey.
type SubmitReview struct {
	Text string
}

// SubmitVisa answers the visa question. HasCompanyLawyer is nil until chosen.
type SubmitVisa struct {
	HasCompanyLawyer *bool
	VisaType         string
}

// AcceptOffer takes the discount, from the downsell screen or either
// declined-offer screen.
type AcceptOffer struct{}

// DeclineOffer turns down the standalone downsell screen.
type DeclineOffer struct{}

// SubmitDeclinedSurvey carries the three quantitative answers.
type SubmitDeclinedSurvey struct {
	Answers map[string]string
}

// SelectReason picks a reason category without leaving the reason screen.
type SelectReason struct {
	Category ReasonCategory
}

// CompleteCancellation submits the detail for the selected reason.
type CompleteCancellation struct {
	Detail string
}

type Back struct{}

type Close struct{}

func (AnswerFoundJob) Name() string       { return "answer_found_job" }
func (SubmitFoundJobSurvey) Name() string { return "submit_found_job_survey" }
func (SubmitReview) Name() string         { return "submit_review" }
func (SubmitVisa) Name() string           { return "submit_visa" }
func (AcceptOffer) Name() string          { return "accept_offer" }
func (DeclineOffer) Name() string         { return "decline_offer" }
func (SubmitDeclinedSurvey) Name() string { return "submit_declined_survey" }
func (SelectReason) Name() string         { return "select_reason" }
func (CompleteCancellation) Name() string { return "complete_cancellation" }
func (Back) Name() string                 { return "back" }
func (Close) Name() string                { return "close" }

func (AnswerFoundJob) isEvent()       {}
func (SubmitFoundJobSurvey) isEvent() {}
func (SubmitReview) isEvent()         {}
func (SubmitVisa) isEvent()           {}
func (AcceptOffer) isEvent()          {}
func (DeclineOffer) isEvent()         {}
func (SubmitDeclinedSurvey) isEvent() {}
func (SelectReason) isEvent()         {}
func (CompleteCancellation) isEvent() {}
func (Back) isEvent()                 {}
func (Close) isEvent()                {}
