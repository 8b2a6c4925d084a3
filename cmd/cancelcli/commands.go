package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"subscription-cancel-be/pkg/client"
	"subscription-cancel-be/pkg/events"
	"subscription-cancel-be/pkg/experiment"
	natsbus "subscription-cancel-be/pkg/nats"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

var (
	emailFlag   string
	baseURLFlag string
	localFlag   bool
	saltFlag    string
	natsURLFlag string
	eventType   string

	rootCmd = &cobra.Command{
		Use:           "cancelcli",
		Short:         "Terminal client for the subscription cancellation flow",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	usersCmd = &cobra.Command{
		Use:   "users",
		Short: "List the users known to the server",
		RunE:  runUsers,
	}

	useCmd = &cobra.Command{
		Use:   "use [email]",
		Short: "Select the identity used by the other commands",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runUse,
	}

	statusCmd = &cobra.Command{
		Use:   "status",
		Short: "Show the subscription status and monthly price",
		RunE:  runStatus,
	}

	requestCancelCmd = &cobra.Command{
		Use:   "request-cancel",
		Short: "Move the subscription to pending cancellation without the wizard",
		RunE:  runRequestCancel,
	}

	wizardCmd = &cobra.Command{
		Use:   "wizard",
		Short: "Walk through the cancellation wizard",
		RunE:  runWizard,
	}

	eventsCmd = &cobra.Command{
		Use:   "events",
		Short: "Tail cancellation events from NATS JetStream",
		RunE:  runEvents,
	}
)

func init() {
	rootCmd.PersistentFlags().StringVar(&emailFlag, "email", "", "identity to act as (defaults to the saved identity)")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "API base URL (default "+client.DefaultBaseURL+")")

	wizardCmd.Flags().BoolVar(&localFlag, "local", false, "run the wizard locally and only POST the final record")
	wizardCmd.Flags().StringVar(&saltFlag, "salt", experiment.DefaultSalt, "bucketing salt for --local")

	eventsCmd.Flags().StringVar(&natsURLFlag, "nats-url", "nats://localhost:4222", "NATS server URL")
	eventsCmd.Flags().StringVar(&eventType, "type", "", "only show events of this type, e.g. "+events.TypeCancellationRecorded)

	rootCmd.AddCommand(usersCmd, useCmd, statusCmd, requestCancelCmd, wizardCmd, eventsCmd)
}

func newClient() (*client.Client, Identity) {
	id := resolveIdentity(identityPath(), emailFlag, baseURLFlag)
	return client.New(id.BaseURL), id
}

// requireEmail fails commands that act on a user when none is selected.
func requireEmail(id Identity) error {
	if id.Email == "" {
		return errors.New("no identity selected: run `cancelcli use` or pass --email")
	}
	return nil
}

func runUsers(cmd *cobra.Command, _ []string) error {
	c, id := newClient()
	users, err := c.ListUsers(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Println(styles.Title.Render("Users"))
	for _, u := range users {
		marker := "  "
		if u == id.Email {
			marker = styles.Highlight.Render("> ")
		}
		fmt.Println(marker + u)
	}
	return nil
}

func runUse(cmd *cobra.Command, args []string) error {
	c, id := newClient()

	email := ""
	if len(args) == 1 {
		email = args[0]
	} else {
		users, err := c.ListUsers(cmd.Context())
		if err != nil {
			return err
		}
		if len(users) == 0 {
			return errors.New("the server has no users; run the seed command first")
		}
		options := make([]huh.Option[string], 0, len(users))
		for _, u := range users {
			options = append(options, huh.NewOption(u, u))
		}
		email = id.Email
		if err := huh.NewSelect[string]().Title("Act as").Options(options...).Value(&email).Run(); err != nil {
			return err
		}
	}

	id.Email = email
	if err := saveIdentity(identityPath(), id); err != nil {
		return err
	}
	printSuccess("Now acting as " + id.Email)
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	c, id := newClient()
	if err := requireEmail(id); err != nil {
		return err
	}
	res, err := c.SubscriptionStatus(cmd.Context(), id.Email)
	if err != nil {
		return err
	}
	fmt.Println(renderStatus(id.Email, res))
	return nil
}

func runRequestCancel(cmd *cobra.Command, _ []string) error {
	c, id := newClient()
	if err := requireEmail(id); err != nil {
		return err
	}
	res, err := c.RequestCancel(cmd.Context(), id.Email)
	if err != nil {
		return err
	}
	if res.Already {
		printWarning("Subscription is already " + res.Status)
		return nil
	}
	printSuccess("Subscription is now " + res.Status)
	return nil
}

func runWizard(cmd *cobra.Command, _ []string) error {
	c, id := newClient()
	if err := requireEmail(id); err != nil {
		return err
	}

	var monthlyPrice *int
	if status, err := c.SubscriptionStatus(cmd.Context(), id.Email); err == nil {
		monthlyPrice = status.MonthlyPrice
	}

	var st stepper = newRemoteStepper(c)
	if localFlag {
		st = newLocalStepper(experiment.NewAssigner(saltFlag), client.NewSubmitter(c))
	}
	return driveWizard(cmd.Context(), st, huhPrompter{monthlyPrice: monthlyPrice}, id.Email)
}

func runEvents(cmd *cobra.Command, _ []string) error {
	sub, err := natsbus.NewSubscriber(natsURLFlag)
	if err != nil {
		return err
	}
	defer sub.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	filter := ""
	if eventType != "" {
		filter = natsbus.Subject(eventType)
	}
	err = sub.Subscribe(ctx, filter, "", func(_ context.Context, e events.BaseEvent) error {
		fmt.Println(renderEvent(e))
		return nil
	})
	if err != nil {
		return err
	}

	printMuted("Waiting for events, Ctrl+C to stop...")
	<-ctx.Done()
	return nil
}
