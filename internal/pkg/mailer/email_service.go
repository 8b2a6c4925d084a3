package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"

	"subscription-cancel-be/internal/pkg/logger"

	"gopkg.in/gomail.v2"
)

var ErrMailerDisabled = errors.New("mailer disabled: SMTP_HOST not set")

// CancellationNotice is the content of the confirmation mail.
type CancellationNotice struct {
	Reason           string
	AcceptedDownsell bool
	MonthlyPrice     string
}

type IEmailService interface {
	SendCancellationNotice(toEmail string, notice CancellationNotice) error
	SendDownsellAccepted(toEmail string) error
}

// Dialer is the part of gomail.Dialer the service needs.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

type emailService struct {
	dialer      Dialer
	senderEmail string
	senderName  string
	logger      logger.ILogger
}

func NewEmailService(host string, port int, username, password, senderName string, log logger.ILogger) IEmailService {
	var d Dialer
	if host != "" {
		d = gomail.NewDialer(host, port, username, password)
	}
	return NewEmailServiceWithDialer(d, username, senderName, log)
}

func NewEmailServiceWithDialer(d Dialer, senderEmail, senderName string, log logger.ILogger) IEmailService {
	return &emailService{
		dialer:      d,
		senderEmail: senderEmail,
		senderName:  senderName,
		logger:      log,
	}
}

var cancellationTemplate = template.Must(template.New("cancellation").Parse(`
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Your cancellation request was received</h2>
			<p>Your subscription{{if .MonthlyPrice}} ({{.MonthlyPrice}}/month){{end}} is now pending cancellation.</p>
			{{if .Reason}}<p>Reason you gave us: <em>{{.Reason}}</em></p>{{end}}
			<p>You keep access until the end of your current billing period.</p>
			<p>If this was a mistake, reply to this email and we will sort it out.</p>
		</div>
`))

func (s *emailService) SendCancellationNotice(toEmail string, notice CancellationNotice) error {
	var body bytes.Buffer
	if err := cancellationTemplate.Execute(&body, notice); err != nil {
		return fmt.Errorf("failed to render cancellation notice: %w", err)
	}
	return s.send(toEmail, "Your subscription cancellation", body.String())
}

func (s *emailService) SendDownsellAccepted(toEmail string) error {
	body := `
		<div style="font-family: Arial, sans-serif; padding: 20px; color: #333;">
			<h2>Thanks for staying!</h2>
			<p>Your discount is applied from your next billing date.</p>
		</div>
	`
	return s.send(toEmail, "Your discount is confirmed", body)
}

func (s *emailService) send(toEmail, subject, htmlBody string) error {
	if s.dialer == nil {
		return ErrMailerDisabled
	}

	m := gomail.NewMessage()
	m.SetAddressHeader("From", s.senderEmail, s.senderName)
	m.SetHeader("To", toEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := s.dialer.DialAndSend(m); err != nil {
		s.logger.Error(logger.ModuleMailer, "Failed to send mail", map[string]interface{}{
			"to":      toEmail,
			"subject": subject,
			"error":   err.Error(),
		})
		return err
	}

	s.logger.Info(logger.ModuleMailer, "Mail sent", map[string]interface{}{"to": toEmail, "subject": subject})
	return nil
}
