package email

import (
	"context"
)

// PlainTextSender is satisfied by *aws.SESClient.
type PlainTextSender interface {
	SendPlainText(ctx context.Context, from, to, subject, body string) (string, error)
}

type SESSender struct {
	client PlainTextSender
	from   string
}

func NewSESSender(client PlainTextSender, from string) *SESSender {
	return &SESSender{client: client, from: from}
}

func (s *SESSender) Provider() string { return "ses" }

func (s *SESSender) Send(ctx context.Context, msg Message) error {
	_, err := s.client.SendPlainText(ctx, s.from, msg.To, msg.Subject, msg.Body)
	return err
}
