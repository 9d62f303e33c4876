// Package notify tells a subscriber about the items of a run.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
	"tcgwatch/internal/catalog"
	"tcgwatch/internal/components/assert"
	"tcgwatch/internal/components/chrono"
	"tcgwatch/internal/components/telemetry"

	"github.com/jordan-wright/email"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

const (
	report_email_config = "email.config"
	report_email_send   = "email.send"
)

var tracer = otel.Tracer("tcgwatch.notify")

// API is implemented by every notification sink.
type API interface {
	// Notify delivers a summary of `items`, it does nothing for an empty list.
	Notify(ctx context.Context, items []catalog.ValidatedItem) error
}

type SmtpConfig struct {
	Sender    string `json:"sender" yaml:"sender"`
	Recipient string `json:"recipient" yaml:"recipient"`
	Password  string `json:"password" yaml:"password"`
	Server    string `json:"smtp_server" yaml:"smtp_server"`
	Port      int    `json:"smtp_port" yaml:"smtp_port"`
}

func (c SmtpConfig) withDefaults() SmtpConfig {
	if c.Server == "" {
		c.Server = "smtp.gmail.com"
	}
	if c.Port == 0 {
		c.Port = 587
	}
	return c
}

var ErrNotConfigured = errors.New("email configuration incomplete")

// Validate returns ErrNotConfigured when sender, recipient or password is missing.
func (c SmtpConfig) Validate() error {
	var missing []string
	if c.Sender == "" {
		missing = append(missing, "sender")
	}
	if c.Recipient == "" {
		missing = append(missing, "recipient")
	}
	if c.Password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrNotConfigured, strings.Join(missing, ", "))
	}
	return nil
}

// SendFunc delivers a composed email, it exists so tests do not need an smtp server.
type SendFunc = func(mail *email.Email, addr string, auth smtp.Auth) error

func sendSmtp(mail *email.Email, addr string, auth smtp.Auth) error {
	err := mail.Send(addr, auth)
	if err != nil && strings.Contains(err.Error(), "server doesn't support AUTH") {
		return mail.Send(addr, nil)
	}
	return err
}

type Email struct {
	config SmtpConfig
	send   SendFunc
	time   chrono.TimeAPI
	tel    telemetry.API
}

// NewEmail creates an email notifier, a nil send uses smtp.
func NewEmail(config SmtpConfig, send SendFunc, time chrono.TimeAPI, tel telemetry.API) Email {
	assert.NotNil(time)
	assert.NotNil(tel)
	if send == nil {
		send = sendSmtp
	}
	return Email{
		config: config.withDefaults(),
		send:   send,
		time:   time,
		tel:    telemetry.NewScopedAPI("notify", tel),
	}
}

// Compose renders the subject and body of the alert.
func Compose(items []catalog.ValidatedItem, now chrono.TimeAPI) (string, string) {
	subject := fmt.Sprintf("Pokemon TCG Alert: %d Items Found at Retail Price!", len(items))

	var body strings.Builder
	body.WriteString("The following Pokemon TCG items were found in stock at retail prices:\n\n")
	for _, item := range items {
		fmt.Fprintf(
			&body,
			"• %s - $%s at %s\n  Link: %s\n\n",
			item.Name,
			item.Price.StringFixed(2),
			item.Retailer.StoreName(),
			item.URL,
		)
	}
	fmt.Fprintf(&body, "\nTimestamp: %s", now.Now().Format("2006-01-02 15:04:05"))
	return subject, body.String()
}

// Notify skips incomplete configuration with a broken report instead of an
// error, a missing email setup must not fail a run.
func (e Email) Notify(ctx context.Context, items []catalog.ValidatedItem) error {
	if len(items) == 0 {
		return nil
	}
	err := e.config.Validate()
	if err != nil {
		e.tel.ReportBroken(report_email_config, err)
		return nil
	}

	_, span := tracer.Start(ctx, "Notify")
	defer span.End()

	subject, body := Compose(items, e.time)
	mail := email.NewEmail()
	mail.From = e.config.Sender
	mail.To = []string{e.config.Recipient}
	mail.Subject = subject
	mail.Text = []byte(body)

	err = e.send(
		mail,
		fmt.Sprintf("%s:%d", e.config.Server, e.config.Port),
		smtp.PlainAuth("", e.config.Sender, e.config.Password, e.config.Server),
	)
	if err != nil {
		e.tel.ReportBroken(report_email_send, err, e.config.Recipient)
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to send email")
		return fmt.Errorf("send email: %w", err)
	}

	e.tel.ReportDebug("email notification sent", len(items), e.config.Recipient)
	return nil
}
