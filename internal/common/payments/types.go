package payments

import "time"

// Event types the webhook acts on.
const (
	EventInvoicePaymentSucceeded  = "invoice.payment_succeeded"
	EventCheckoutSessionCompleted = "checkout.session.completed"
)

const (
	ModeSubscription = "subscription"
	ModePayment      = "payment"
)

// Event is a verified webhook event with its payload decoded for the types we handle.
type Event struct {
	ID      string
	Type    string
	Invoice *Invoice
	Session *CheckoutSession
}

type Invoice struct {
	ID             string
	SubscriptionID string
	CustomerID     string
	CustomerName   string
	CustomerEmail  string
	AmountPaid     int64 // cents
	PeriodStart    time.Time
	PeriodEnd      time.Time
	PriceIDs       []string
}

// HasPrice reports whether any line item is billed at priceID.
func (i *Invoice) HasPrice(priceID string) bool {
	if i == nil {
		return false
	}
	for _, id := range i.PriceIDs {
		if id == priceID {
			return true
		}
	}
	return false
}

type CheckoutSession struct {
	ID                string
	URL               string
	Status            string
	ClientReferenceID string
	SubscriptionID    string
	PaymentIntentID   string
	CustomerEmail     string
	CustomerName      string
	AmountTotal       int64 // cents
	Created           time.Time
	Metadata          map[string]string
}

type Subscription struct {
	ID                 string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	LatestInvoiceID    string
}

// IsIncompleteExpired reports a subscription whose first payment never completed.
func (s *Subscription) IsIncompleteExpired() bool {
	return s != nil && s.Status == "incomplete_expired"
}

type LineItem struct {
	PriceID  string
	Quantity int64
}

// CheckoutRequest describes a hosted checkout session to create.
type CheckoutRequest struct {
	Mode                string
	LineItems           []LineItem
	SuccessURL          string
	CancelURL           string
	ClientReferenceID   string
	AllowPromotionCodes *bool
	PaymentMethodTypes  []string
	Metadata            map[string]string
}
