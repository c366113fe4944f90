// Package email sends the service's transactional mail and operational alerts.
package email

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
)

// Message is a plain-text email to a single recipient.
type Message struct {
	To      string
	Subject string
	Body    string
}

func (m Message) Validate() error {
	if strings.TrimSpace(m.To) == "" {
		return fmt.Errorf("recipient is required")
	}
	if _, err := mail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("invalid recipient %q: %w", m.To, err)
	}
	if m.Subject == "" {
		return fmt.Errorf("subject is required")
	}
	return nil
}

// Sender delivers a message through one provider.
type Sender interface {
	Send(ctx context.Context, msg Message) error
	Provider() string
}

// Address formats a display name and address as "Name" <address>.
func Address(name, address string) string {
	if name == "" {
		return address
	}
	return (&mail.Address{Name: name, Address: address}).String()
}
