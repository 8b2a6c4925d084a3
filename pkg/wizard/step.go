package wizard

import "fmt"

// Step is one screen of the cancellation wizard.
type Step string

const (
	StepInitial              Step = "initial"
	StepFoundJobSurvey       Step = "foundJobSurvey"
	StepFoundJobReview       Step = "foundJobReview"
	StepVisaQuestion         Step = "visaQuestion"
	StepVisaHelpOffered      Step = "visaHelpOffered"
	StepVisaNoHelpNeeded     Step = "visaNoHelpNeeded"
	StepDownsellOffer        Step = "downsellOffer"
	StepOfferAccepted        Step = "offerAccepted"
	StepOfferDeclinedSurvey  Step = "offerDeclinedSurvey"
	StepOfferDeclinedReason  Step = "offerDeclinedReason"
	StepCancellationComplete Step = "cancellationComplete"
)

// AllSteps lists every step in declaration order.
var AllSteps = []Step{
	StepInitial,
	StepFoundJobSurvey,
	StepFoundJobReview,
	StepVisaQuestion,
	StepVisaHelpOffered,
	StepVisaNoHelpNeeded,
	StepDownsellOffer,
	StepOfferAccepted,
	StepOfferDeclinedSurvey,
	StepOfferDeclinedReason,
	StepCancellationComplete,
}

// forward lists the steps reachable from each step by a user action other
// than back or close. Terminal steps have no entries.
var forward = map[Step][]Step{
	StepInitial:              {StepFoundJobSurvey, StepDownsellOffer, StepOfferDeclinedSurvey},
	StepFoundJobSurvey:       {StepFoundJobReview},
	StepFoundJobReview:       {StepVisaQuestion},
	StepVisaQuestion:         {StepVisaHelpOffered, StepVisaNoHelpNeeded},
	StepVisaHelpOffered:      nil,
	StepVisaNoHelpNeeded:     nil,
	StepDownsellOffer:        {StepOfferAccepted, StepOfferDeclinedSurvey},
	StepOfferAccepted:        nil,
	StepOfferDeclinedSurvey:  {StepOfferDeclinedReason, StepOfferAccepted},
	StepOfferDeclinedReason:  {StepCancellationComplete, StepOfferAccepted},
	StepCancellationComplete: nil,
}

func ParseStep(s string) (Step, bool) {
	st := Step(s)
	_, ok := forward[st]
	return st, ok
}

// UnmarshalText rejects unknown step names, so a stored session written by
// an incompatible build fails to load instead of sitting on a dead step.
func (s *Step) UnmarshalText(text []byte) error {
	st, ok := ParseStep(string(text))
	if !ok {
		return fmt.Errorf("unknown wizard step %q", text)
	}
	*s = st
	return nil
}

func (s Step) String() string {
	return string(s)
}

// Next returns the steps s may advance to.
func (s Step) Next() []Step {
	return forward[s]
}

func (s Step) CanAdvanceTo(to Step) bool {
	for _, n := range forward[s] {
		if n == to {
			return true
		}
	}
	return false
}

func (s Step) IsTerminal() bool {
	switch s {
	case StepVisaHelpOffered, StepVisaNoHelpNeeded, StepOfferAccepted, StepCancellationComplete:
		return true
	}
	return false
}

// WritesCancellation reports whether entering s records a cancellation.
// Accepting the discount is terminal but keeps the subscription active.
func (s Step) WritesCancellation() bool {
	switch s {
	case StepVisaHelpOffered, StepVisaNoHelpNeeded, StepCancellationComplete:
		return true
	}
	return false
}

// Branch tags a recorded cancellation with the path that produced it.
type Branch string

const (
	BranchNone         Branch = ""
	BranchFoundJob     Branch = "found_job"
	BranchStillLooking Branch = "still_looking"
)

func (s Step) Branch() Branch {
	switch s {
	case StepVisaHelpOffered, StepVisaNoHelpNeeded:
		return BranchFoundJob
	case StepCancellationComplete:
		return BranchStillLooking
	}
	return BranchNone
}
