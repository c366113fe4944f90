package email

import (
	"context"
	"fmt"

	"gopkg.in/gomail.v2"
)

// Dialer is satisfied by *gomail.Dialer.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// SMTPSender delivers through an authenticated SMTP relay (Gmail in production).
type SMTPSender struct {
	dialer Dialer
	from   string
}

type SMTPOptions struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func NewSMTPSender(opts SMTPOptions) *SMTPSender {
	return &SMTPSender{
		dialer: gomail.NewDialer(opts.Host, opts.Port, opts.Username, opts.Password),
		from:   opts.From,
	}
}

// NewSMTPSenderWithDialer is used when the dialer is provided by the caller.
func NewSMTPSenderWithDialer(dialer Dialer, from string) *SMTPSender {
	return &SMTPSender{dialer: dialer, from: from}
}

func (s *SMTPSender) Provider() string { return "smtp" }

func (s *SMTPSender) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Body)

	// gomail takes no context, so the deadline is enforced around the call.
	// An abandoned send finishes in the background and its result is dropped.
	done := make(chan error, 1)
	go func() { done <- s.dialer.DialAndSend(m) }()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("failed to send email via gomail: %w", err)
		}
		return nil
	case <-ctx.Done():
		return fmt.Errorf("smtp send to %s abandoned: %w", msg.To, ctx.Err())
	}
}
