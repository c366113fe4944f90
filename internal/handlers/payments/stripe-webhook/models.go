// internal/handlers/payments/stripe-webhook/models.go
package stripewebhook

// Output is the acknowledgement returned to Stripe.
type Output struct {
	Message  string `json:"message"`
	Received bool   `json:"received"`
	// Outcome is what the handler did with the event; it is not part of the body.
	Outcome string `json:"-"`
}

// Reconciliation outcomes, used as metric labels.
const (
	outcomeProcessed = "processed"
	outcomeDuplicate = "duplicate"
	outcomeDeferred  = "deferred"
	outcomeExhausted = "exhausted"
	outcomeIgnored   = "ignored"
	outcomeFailed    = "failed"
)

const (
	unknownName  = "Unknown"
	signedMember = "SignedMemberName"
)

// Product subscriptions table columns.
const (
	colMember         = "Member"
	colTotalAmount    = "Total Amount"
	colSubscriptionID = "Subscription ID"
	colName           = "Name"
	colEmail          = "Email"
	colStartDate      = "Start date"
	colEndDate        = "End date"
)

// Membership payment history columns.
const (
	colMemberID          = "Member ID"
	colPaymentStatus     = "Payment Status"
	colTotalAmountPaid   = "Total Amount Paid"
	colSubscriptionStart = "Subscription Start Date"
	colSubscriptionEnd   = "Subscription End Date"
	colAutoDeduction     = "Auto Dedection"
)
