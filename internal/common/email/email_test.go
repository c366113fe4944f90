package email

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/sendgrid/rest"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"biaw-integrations/internal/common/config"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/models"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockSender) Provider() string { return "mock" }

type MockAlerts struct {
	mock.Mock
}

func (m *MockAlerts) PublishAlert(ctx context.Context, subject, message string) (string, error) {
	args := m.Called(ctx, subject, message)
	return args.String(0), args.Error(1)
}

type MockDialer struct {
	mock.Mock
}

func (m *MockDialer) DialAndSend(msgs ...*gomail.Message) error {
	args := m.Called(msgs)
	return args.Error(0)
}

type MockSendGrid struct {
	mock.Mock
}

func (m *MockSendGrid) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*rest.Response, error) {
	args := m.Called(ctx, email)
	resp, _ := args.Get(0).(*rest.Response)
	return resp, args.Error(1)
}

type MockPlainText struct {
	mock.Mock
}

func (m *MockPlainText) SendPlainText(ctx context.Context, from, to, subject, body string) (string, error) {
	args := m.Called(ctx, from, to, subject, body)
	return args.String(0), args.Error(1)
}

func createTestNotifier(t *testing.T, sender Sender, alerts AlertPublisher) *Notifier {
	return NewNotifier(NotifierOptions{
		Sender:  sender,
		Alerts:  alerts,
		Logger:  logger.NewTestLogger(t),
		Timeout: time.Second,
	})
}

func TestNotifier_Deliver(t *testing.T) {
	sender := new(MockSender)
	msg := Message{To: "jane@example.org", Subject: "Hello", Body: "Hi"}
	sender.On("Send", mock.Anything, msg).Return(nil).Once()

	n := createTestNotifier(t, sender, nil)
	require.NoError(t, n.Deliver(context.Background(), msg))
	sender.AssertExpectations(t)
}

func TestNotifier_DeliverRejectsInvalidMessage(t *testing.T) {
	sender := new(MockSender)
	n := createTestNotifier(t, sender, nil)

	err := n.Deliver(context.Background(), Message{To: "not-an-address", Subject: "x"})
	require.Error(t, err)

	err = n.Deliver(context.Background(), Message{To: "", Subject: "x"})
	require.Error(t, err)

	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
}

func TestNotifier_NotifySwallowsFailure(t *testing.T) {
	sender := new(MockSender)
	sender.On("Send", mock.Anything, mock.Anything).Return(errors.New("535 auth failed"))

	n := createTestNotifier(t, sender, nil)
	sent := n.Notify(context.Background(), Message{To: "jane@example.org", Subject: "Hello"})

	assert.False(t, sent)
	sender.AssertExpectations(t)
}

func TestNotifier_Alert(t *testing.T) {
	alerts := new(MockAlerts)
	alerts.On("PublishAlert", mock.Anything, "Reconciliation gave up", "sub_1").Return("msg-1", nil).Once()

	n := createTestNotifier(t, new(MockSender), alerts)
	n.Alert(context.Background(), "Reconciliation gave up", "sub_1")

	alerts.AssertExpectations(t)
}

func TestNotifier_AlertWithoutPublisher(t *testing.T) {
	n := createTestNotifier(t, new(MockSender), nil)
	assert.NotPanics(t, func() {
		n.Alert(context.Background(), "subject", "body")
	})
}

func TestSMTPSender_Send(t *testing.T) {
	dialer := new(MockDialer)
	dialer.On("DialAndSend", mock.MatchedBy(func(msgs []*gomail.Message) bool {
		if len(msgs) != 1 {
			return false
		}
		m := msgs[0]
		return m.GetHeader("To")[0] == "jane@example.org" &&
			m.GetHeader("Subject")[0] == "Hello" &&
			strings.Contains(m.GetHeader("From")[0], "support@example.org")
	})).Return(nil).Once()

	s := NewSMTPSenderWithDialer(dialer, Address("BIAW Support", "support@example.org"))
	require.NoError(t, s.Send(context.Background(), Message{To: "jane@example.org", Subject: "Hello", Body: "Hi"}))
	dialer.AssertExpectations(t)
}

func TestSMTPSender_SendError(t *testing.T) {
	dialer := new(MockDialer)
	dialer.On("DialAndSend", mock.Anything).Return(errors.New("connection refused"))

	s := NewSMTPSenderWithDialer(dialer, "support@example.org")
	err := s.Send(context.Background(), Message{To: "jane@example.org", Subject: "Hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestSMTPSender_HonorsDeadline(t *testing.T) {
	dialer := new(MockDialer)
	dialer.On("DialAndSend", mock.Anything).After(time.Second).Return(nil)

	n := NewNotifier(NotifierOptions{
		Sender:  NewSMTPSenderWithDialer(dialer, "support@example.org"),
		Logger:  logger.NewTestLogger(t),
		Timeout: 50 * time.Millisecond,
	})

	start := time.Now()
	err := n.Deliver(context.Background(), Message{To: "jane@example.org", Subject: "Hello", Body: "Hi"})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestSMTPSender_CancelledBeforeSend(t *testing.T) {
	dialer := new(MockDialer)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := NewSMTPSenderWithDialer(dialer, "support@example.org")
	err := s.Send(ctx, Message{To: "jane@example.org", Subject: "Hello"})

	assert.ErrorIs(t, err, context.Canceled)
	dialer.AssertNotCalled(t, "DialAndSend", mock.Anything)
}

func TestSendGridSender_Send(t *testing.T) {
	tests := []struct {
		name    string
		resp    *rest.Response
		err     error
		wantErr bool
	}{
		{"accepted", &rest.Response{StatusCode: 202}, nil, false},
		{"rejected", &rest.Response{StatusCode: 401, Body: "unauthorized"}, nil, true},
		{"transport", nil, errors.New("timeout"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := new(MockSendGrid)
			client.On("SendWithContext", mock.Anything, mock.AnythingOfType("*mail.SGMailV3")).Return(tt.resp, tt.err)

			s := NewSendGridSenderWithClient(client, "BIAW Support", "support@example.org")
			err := s.Send(context.Background(), Message{To: "jane@example.org", Subject: "Hello", Body: "Hi"})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSESSender_Send(t *testing.T) {
	client := new(MockPlainText)
	client.On("SendPlainText", mock.Anything, "support@example.org", "jane@example.org", "Hello", "Hi").Return("ses-1", nil)

	s := NewSESSender(client, "support@example.org")
	require.NoError(t, s.Send(context.Background(), Message{To: "jane@example.org", Subject: "Hello", Body: "Hi"}))
	assert.Equal(t, "ses", s.Provider())
}

func TestTemplates(t *testing.T) {
	applicant := Applicant{Email: "jane@example.org", FirstName: "Jane", LastName: "Doe", BusinessName: "Doe Builders"}

	msg, err := ApplicationReceived(applicant)
	require.NoError(t, err)
	assert.Equal(t, "Builder Application Received - BIAW", msg.Subject)
	assert.Contains(t, msg.Body, "Dear Jane Doe,")
	assert.Contains(t, msg.Body, "Business Name: Doe Builders")

	msg, err = CertificationStatus(models.StatusCertified, applicant)
	require.NoError(t, err)
	assert.Equal(t, "Congratulations! Your Builder Application is Certified", msg.Subject)
	assert.Equal(t, "jane@example.org", msg.To)

	msg, err = CertificationStatus(models.StatusUnderProcess, applicant)
	require.NoError(t, err)
	assert.Equal(t, "Your Builder Application is Under Review", msg.Subject)

	_, err = CertificationStatus(models.StatusSubmitted, applicant)
	assert.Error(t, err)
	assert.False(t, HasStatusTemplate(models.StatusSubmitted))

	msg, err = PaymentConfirmation(Subscription{Email: "jane@example.org", Name: "Jane", AmountCents: 1250, StartDate: "2024-01-01", EndDate: "2025-01-01"})
	require.NoError(t, err)
	assert.Contains(t, msg.Body, "Amount: $12.50")

	msg, err = SubscriptionActivated(Subscription{Email: "jane@example.org", Name: "Jane", StartDate: "2024-01-01", EndDate: "2025-01-01"})
	require.NoError(t, err)
	assert.Equal(t, "Subscription Activated - BIAW", msg.Subject)
	assert.Contains(t, msg.Body, "End Date: 2025-01-01")
}

func TestNewSenderFromConfig(t *testing.T) {
	cfg := config.EmailConfig{Provider: "smtp", FromName: "BIAW Support"}
	cfg.SMTP.Host = "smtp.gmail.com"
	cfg.SMTP.Port = 587
	cfg.SMTP.Username = "support@example.org"

	sender, err := NewSenderFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "smtp", sender.Provider())

	cfg.Provider = "sendgrid"
	sender, err = NewSenderFromConfig(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, "sendgrid", sender.Provider())

	cfg.Provider = "pigeon"
	_, err = NewSenderFromConfig(context.Background(), cfg)
	assert.Error(t, err)
}

func TestAddress(t *testing.T) {
	assert.Equal(t, `"BIAW Support" <support@example.org>`, Address("BIAW Support", "support@example.org"))
	assert.Equal(t, "support@example.org", Address("", "support@example.org"))
}
