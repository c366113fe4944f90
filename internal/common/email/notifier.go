package email

import (
	"context"
	"fmt"
	"time"

	"biaw-integrations/internal/common/aws"
	"biaw-integrations/internal/common/config"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/metrics"
)

// AlertPublisher is satisfied by *aws.SNSClient.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, subject, message string) (string, error)
}

// Notifier sends transactional mail and operational alerts.
type Notifier struct {
	sender  Sender
	alerts  AlertPublisher
	logger  logger.Logger
	timeout time.Duration
}

type NotifierOptions struct {
	Sender  Sender
	Alerts  AlertPublisher // optional
	Logger  logger.Logger
	Timeout time.Duration
}

func NewNotifier(opts NotifierOptions) *Notifier {
	if opts.Logger == nil {
		opts.Logger = logger.NewNoOpLogger()
	}
	return &Notifier{
		sender:  opts.Sender,
		alerts:  opts.Alerts,
		logger:  opts.Logger,
		timeout: opts.Timeout,
	}
}

// Deliver sends msg and returns any failure to the caller.
func (n *Notifier) Deliver(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	if n.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, n.timeout)
		defer cancel()
	}

	err := n.sender.Send(ctx, msg)
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	metrics.EmailsSent.WithLabelValues(n.sender.Provider(), outcome).Inc()

	if err != nil {
		return fmt.Errorf("send %q to %s: %w", msg.Subject, msg.To, err)
	}
	n.logger.Info("Email sent", map[string]interface{}{
		"to":       msg.To,
		"subject":  msg.Subject,
		"provider": n.sender.Provider(),
	})
	return nil
}

// Notify sends msg and logs a failure instead of returning it.
// It reports whether the message went out.
func (n *Notifier) Notify(ctx context.Context, msg Message) bool {
	if err := n.Deliver(ctx, msg); err != nil {
		logger.FromContext(ctx, n.logger).Error("Failed to send email", map[string]interface{}{
			"to":      msg.To,
			"subject": msg.Subject,
			"error":   err,
		})
		return false
	}
	return true
}

// Alert raises an operational alert. Without a publisher it is only logged.
func (n *Notifier) Alert(ctx context.Context, subject, body string) {
	log := logger.FromContext(ctx, n.logger)
	log.Warn("Operational alert", map[string]interface{}{
		"subject": subject,
		"body":    body,
	})
	if n.alerts == nil {
		return
	}
	if _, err := n.alerts.PublishAlert(ctx, subject, body); err != nil {
		log.Error("Failed to publish alert", map[string]interface{}{
			"subject": subject,
			"error":   err,
		})
	}
}

// NewSenderFromConfig builds the sender selected by email.provider.
func NewSenderFromConfig(ctx context.Context, cfg config.EmailConfig) (Sender, error) {
	from := Address(cfg.FromName, cfg.Sender())

	switch cfg.Provider {
	case "", "smtp":
		return NewSMTPSender(SMTPOptions{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     from,
		}), nil
	case "ses":
		client, err := aws.NewSESClient(ctx, cfg.SES.Region)
		if err != nil {
			return nil, err
		}
		return NewSESSender(client, from), nil
	case "sendgrid":
		return NewSendGridSender(cfg.SendGrid.APIKey, cfg.FromName, cfg.Sender()), nil
	default:
		return nil, fmt.Errorf("email provider %q is not supported", cfg.Provider)
	}
}

// NewAlertPublisherFromConfig returns nil when alerts are disabled.
func NewAlertPublisherFromConfig(ctx context.Context, cfg config.AlertsConfig) (AlertPublisher, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	client, err := aws.NewSNSClient(ctx, cfg.Region, cfg.TopicARN)
	if err != nil {
		return nil, err
	}
	return client, nil
}
