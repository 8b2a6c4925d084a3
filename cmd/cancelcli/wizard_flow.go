package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"subscription-cancel-be/internal/dto"
	"subscription-cancel-be/pkg/wizard"

	"github.com/charmbracelet/huh"
)

// Action values shared by the step prompts.
const (
	actionContinue = "continue"
	actionBack     = "back"
	actionAccept   = "accept"
)

// prompter asks the user for the next event on the current step.
type prompter interface {
	Event(res *dto.WizardSessionResponse) (dto.WizardEventRequest, error)
}

// errAborted is returned by a prompter when the user quits the form.
var errAborted = errors.New("aborted")

// driveWizard loops until the session reaches a terminal step or is closed.
// Rejected events leave the session where it was, so the step is re-asked.
func driveWizard(ctx context.Context, st stepper, p prompter, email string) error {
	res, err := st.Start(ctx, email)
	if err != nil {
		return err
	}
	fmt.Println(styles.Muted.Render("Session " + res.ID + ", variant " + res.Bucket))

	for !res.Terminal && !res.Closed {
		ev, err := p.Event(res)
		if errors.Is(err, errAborted) {
			ev = dto.WizardEventRequest{Type: wizard.Close{}.Name()}
		} else if err != nil {
			return err
		}

		next, err := st.Apply(ctx, ev)
		if err != nil {
			printError(err)
			continue
		}
		res = next
	}

	fmt.Println(renderOutcome(res))
	return nil
}

func renderOutcome(res *dto.WizardSessionResponse) string {
	if res.Closed {
		return styles.Muted.Render("Closed. Your subscription was not changed.")
	}

	var b strings.Builder
	switch wizard.Step(res.Step) {
	case wizard.StepOfferAccepted:
		b.WriteString(styles.Title.Render("Great choice!") + "\nYour discount applies from your next billing date.")
	case wizard.StepVisaHelpOffered:
		b.WriteString(styles.Title.Render("Your cancellation is done") + "\nWe will connect you with an immigration lawyer to help with your visa.")
	case wizard.StepVisaNoHelpNeeded:
		b.WriteString(styles.Title.Render("All done, your cancellation is confirmed") + "\nGood luck with your new role!")
	case wizard.StepCancellationComplete:
		b.WriteString(styles.Title.Render("Sorry to see you go") + "\nYou keep access until the end of your billing period.")
	default:
		b.WriteString(res.Step)
	}
	if res.Finalize != nil && res.Finalize.Status == string(wizard.FinalizeFailed) {
		b.WriteString("\n" + styles.Warning.Render("We could not save your cancellation: "+res.Finalize.Error))
	}
	return styles.Box.Render(b.String())
}

type huhPrompter struct {
	monthlyPrice *int
}

func (p huhPrompter) Event(res *dto.WizardSessionResponse) (dto.WizardEventRequest, error) {
	ev, err := p.event(res)
	if errors.Is(err, huh.ErrUserAborted) {
		return ev, errAborted
	}
	return ev, err
}

func (p huhPrompter) event(res *dto.WizardSessionResponse) (dto.WizardEventRequest, error) {
	step, ok := wizard.ParseStep(res.Step)
	if !ok {
		return dto.WizardEventRequest{}, fmt.Errorf("server returned unknown step %q", res.Step)
	}
	switch step {
	case wizard.StepInitial:
		found := false
		err := huh.NewConfirm().
			Title("Have you found a job yet?").
			Affirmative("Yes, I've found a job").
			Negative("Not yet, I'm still looking").
			Value(&found).
			Run()
		return dto.WizardEventRequest{Type: wizard.AnswerFoundJob{}.Name(), Found: &found}, err

	case wizard.StepFoundJobSurvey:
		return p.survey(res, wizard.FoundJobSurveyKeys, wizard.SubmitFoundJobSurvey{}.Name(), false)

	case wizard.StepFoundJobReview:
		action, text := actionContinue, ""
		fields := []huh.Field{
			huh.NewText().
				Title("What's one thing you wish we could've helped you with?").
				Description(fmt.Sprintf("At least %d characters.", wizard.MinFeedbackChars)).
				Value(&text),
		}
		fields = append(fields, p.actionField(res, false, &action))
		if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
			return dto.WizardEventRequest{}, err
		}
		if ev, ok := nav(action); ok {
			return ev, nil
		}
		return dto.WizardEventRequest{Type: wizard.SubmitReview{}.Name(), Text: text}, nil

	case wizard.StepVisaQuestion:
		action, lawyer, visaType := actionContinue, false, ""
		fields := []huh.Field{
			huh.NewConfirm().Title("Is your company providing an immigration lawyer to help with your visa?").Value(&lawyer),
			huh.NewInput().Title("Which visa would you like to apply for?").Value(&visaType),
		}
		fields = append(fields, p.actionField(res, false, &action))
		if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
			return dto.WizardEventRequest{}, err
		}
		if ev, ok := nav(action); ok {
			return ev, nil
		}
		return dto.WizardEventRequest{Type: wizard.SubmitVisa{}.Name(), HasCompanyLawyer: &lawyer, VisaType: visaType}, nil

	case wizard.StepDownsellOffer:
		title := "We built this to help you land a job. Here's $10 off until you find one."
		if price := discountedPrice(p.monthlyPrice); price != "" {
			title += " That's " + price + "/month."
		}
		choice := actionAccept
		options := []huh.Option[string]{
			huh.NewOption("Get $10 off", actionAccept),
			huh.NewOption("No thanks", actionContinue),
		}
		if res.CanGoBack {
			options = append(options, huh.NewOption("Back", actionBack))
		}
		if err := huh.NewSelect[string]().Title(title).Options(options...).Value(&choice).Run(); err != nil {
			return dto.WizardEventRequest{}, err
		}
		if ev, ok := nav(choice); ok {
			return ev, nil
		}
		return dto.WizardEventRequest{Type: wizard.DeclineOffer{}.Name()}, nil

	case wizard.StepOfferDeclinedSurvey:
		return p.survey(res, wizard.DeclinedSurveyKeys, wizard.SubmitDeclinedSurvey{}.Name(), true)

	case wizard.StepOfferDeclinedReason:
		if res.SelectedReason == "" {
			return p.reason(res)
		}
		return p.reasonDetail(res)
	}
	return dto.WizardEventRequest{}, fmt.Errorf("no prompt for step %q", res.Step)
}

func (p huhPrompter) survey(res *dto.WizardSessionResponse, keys []string, eventType string, offerDiscount bool) (dto.WizardEventRequest, error) {
	answers := make(map[string]*string, len(keys))
	fields := make([]huh.Field, 0, len(keys)+1)
	for _, key := range keys {
		v := res.SurveyAnswers[key]
		answers[key] = &v
		options := huh.NewOptions(wizard.SurveyOptions[key]...)
		fields = append(fields, huh.NewSelect[string]().Title(surveyTitles[key]).Options(options...).Value(answers[key]))
	}

	action := actionContinue
	fields = append(fields, p.actionField(res, offerDiscount, &action))
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return dto.WizardEventRequest{}, err
	}
	if ev, ok := nav(action); ok {
		return ev, nil
	}

	out := make(map[string]string, len(keys))
	for k, v := range answers {
		out[k] = *v
	}
	return dto.WizardEventRequest{Type: eventType, Answers: out}, nil
}

func (p huhPrompter) reason(res *dto.WizardSessionResponse) (dto.WizardEventRequest, error) {
	choice := ""
	options := make([]huh.Option[string], 0, len(wizard.ReasonCategories)+2)
	for _, c := range wizard.ReasonCategories {
		options = append(options, huh.NewOption(c.Label(), string(c)))
	}
	options = append(options, huh.NewOption("Get $10 off instead", actionAccept))
	if res.CanGoBack {
		options = append(options, huh.NewOption("Back", actionBack))
	}

	err := huh.NewSelect[string]().Title("What's the main reason for cancelling?").Options(options...).Value(&choice).Run()
	if err != nil {
		return dto.WizardEventRequest{}, err
	}
	if ev, ok := nav(choice); ok {
		return ev, nil
	}
	return dto.WizardEventRequest{Type: wizard.SelectReason{}.Name(), Category: choice}, nil
}

func (p huhPrompter) reasonDetail(res *dto.WizardSessionResponse) (dto.WizardEventRequest, error) {
	category := wizard.ReasonCategory(res.SelectedReason)
	action, detail := actionContinue, ""

	var input huh.Field
	if category == wizard.ReasonPrice {
		input = huh.NewInput().Title(category.Prompt()).Prompt("$ ").Value(&detail)
	} else {
		input = huh.NewText().
			Title(category.Prompt()).
			Description(fmt.Sprintf("At least %d characters.", wizard.MinFeedbackChars)).
			Value(&detail)
	}
	fields := []huh.Field{input, p.actionField(res, true, &action)}
	if err := huh.NewForm(huh.NewGroup(fields...)).Run(); err != nil {
		return dto.WizardEventRequest{}, err
	}
	if ev, ok := nav(action); ok {
		return ev, nil
	}
	return dto.WizardEventRequest{Type: wizard.CompleteCancellation{}.Name(), Detail: detail}, nil
}

// actionField is the trailing "what next" select on multi-field screens.
func (p huhPrompter) actionField(res *dto.WizardSessionResponse, offerDiscount bool, action *string) huh.Field {
	options := []huh.Option[string]{huh.NewOption("Continue", actionContinue)}
	if offerDiscount {
		options = append(options, huh.NewOption("Get $10 off instead", actionAccept))
	}
	if res.CanGoBack {
		options = append(options, huh.NewOption("Back", actionBack))
	}
	return huh.NewSelect[string]().Title("Next").Options(options...).Value(action)
}

// nav maps the navigation actions to their events.
func nav(action string) (dto.WizardEventRequest, bool) {
	switch action {
	case actionBack:
		return dto.WizardEventRequest{Type: wizard.Back{}.Name()}, true
	case actionAccept:
		return dto.WizardEventRequest{Type: wizard.AcceptOffer{}.Name()}, true
	}
	return dto.WizardEventRequest{}, false
}

var surveyTitles = map[string]string{
	wizard.QuestionFoundWithUs:          "Did you find this job with us?",
	wizard.QuestionRolesApplied:         "How many roles did you apply for?",
	wizard.QuestionCompaniesEmailed:     "How many companies did you email directly?",
	wizard.QuestionCompaniesInterviewed: "How many different companies did you interview with?",
}
