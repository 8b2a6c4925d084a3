package wizard

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Survey question keys. The found-job survey uses all four, the declined
// survey uses the last three.
const (
	QuestionFoundWithUs          = "mmFound"
	QuestionRolesApplied         = "rolesApplied"
	QuestionCompaniesEmailed     = "companiesEmailed"
	QuestionCompaniesInterviewed = "companiesInterviewed"
)

var (
	FoundJobSurveyKeys = []string{
		QuestionFoundWithUs,
		QuestionRolesApplied,
		QuestionCompaniesEmailed,
		QuestionCompaniesInterviewed,
	}
	DeclinedSurveyKeys = []string{
		QuestionRolesApplied,
		QuestionCompaniesEmailed,
		QuestionCompaniesInterviewed,
	}
)

// Options offered for each question.
var SurveyOptions = map[string][]string{
	QuestionFoundWithUs:          {"Yes", "No"},
	QuestionRolesApplied:         {"0", "1 – 5", "6 – 20", "20+"},
	QuestionCompaniesEmailed:     {"0", "1–5", "6–20", "20+"},
	QuestionCompaniesInterviewed: {"0", "1–2", "3–5", "5+"},
}

// MinFeedbackChars applies to the review text and every non-price reason detail.
const MinFeedbackChars = 25

// ReasonCategory is a "why are you cancelling" option.
type ReasonCategory string

const (
	ReasonPrice     ReasonCategory = "price"
	ReasonHelpful   ReasonCategory = "helpful"
	ReasonRelevance ReasonCategory = "relevance"
	ReasonNotMove   ReasonCategory = "notMove"
	ReasonOther     ReasonCategory = "other"
)

var ReasonCategories = []ReasonCategory{ReasonPrice, ReasonHelpful, ReasonRelevance, ReasonNotMove, ReasonOther}

var reasonLabels = map[ReasonCategory]string{
	ReasonPrice:     "Too expensive",
	ReasonHelpful:   "Platform not helpful",
	ReasonRelevance: "Not enough relevant jobs",
	ReasonNotMove:   "Decided not to move",
	ReasonOther:     "Other",
}

var reasonPrompts = map[ReasonCategory]string{
	ReasonPrice:     "What would be the maximum you would be willing to pay?",
	ReasonHelpful:   "What can we change to make the platform more helpful?",
	ReasonRelevance: "In which way can we make the jobs more relevant?",
	ReasonNotMove:   "What changed for you to decide not to move?",
	ReasonOther:     "What would have helped you the most?",
}

func (c ReasonCategory) Valid() bool {
	_, ok := reasonLabels[c]
	return ok
}

func (c ReasonCategory) Label() string {
	return reasonLabels[c]
}

func (c ReasonCategory) Prompt() string {
	return reasonPrompts[c]
}

// ValidateDetail checks the detail field required by the category.
func (c ReasonCategory) ValidateDetail(detail string) error {
	d := strings.TrimSpace(detail)
	if c == ReasonPrice {
		if d == "" {
			return &ValidationError{Field: "detail", Message: "please enter an amount"}
		}
		if _, err := strconv.ParseFloat(strings.TrimPrefix(d, "$"), 64); err != nil {
			return &ValidationError{Field: "detail", Message: "amount must be a number"}
		}
		return nil
	}
	if utf8.RuneCountInString(d) < MinFeedbackChars {
		return &ValidationError{
			Field:   "detail",
			Message: fmt.Sprintf("please enter at least %d characters so we can understand your feedback", MinFeedbackChars),
		}
	}
	return nil
}

// ReasonText is the persisted form of a completed reason, e.g. "Too expensive: 12".
func (c ReasonCategory) ReasonText(detail string) string {
	d := strings.TrimSpace(detail)
	if d == "" {
		return c.Label()
	}
	return c.Label() + ": " + d
}

func collectAnswers(answers map[string]string, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		v := strings.TrimSpace(answers[k])
		if v == "" {
			return nil, &ValidationError{Field: k, Message: "please answer every question"}
		}
		out[k] = v
	}
	return out, nil
}
