// internal/handlers/payments/stripe-webhook/config.go
package stripewebhook

import (
	"biaw-integrations/internal/common/config"
	"biaw-integrations/internal/common/retry"
)

type Config struct {
	ProductPriceID string

	ApplicationsTable  string
	PaymentsTable      string
	SubscriptionsTable string

	MembershipCollectionID string
	ProductCollectionID    string

	// Reconciliation bounds how long checkout-completed waits for invoice-paid.
	Reconciliation retry.Policy
	MaxBodyBytes   int64
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		ProductPriceID:         cfg.Stripe.ProductOneTimePriceID,
		ApplicationsTable:      cfg.Airtable.Membership.ApplicationsTable,
		PaymentsTable:          cfg.Airtable.Membership.PaymentsTable,
		SubscriptionsTable:     cfg.Airtable.Product.SubscriptionsTable,
		MembershipCollectionID: cfg.Webflow.MembershipCollectionID,
		ProductCollectionID:    cfg.Webflow.ProductCollectionID,
		Reconciliation:         retry.PolicyFromConfig(cfg.Reconciliation),
		MaxBodyBytes:           cfg.Server.MaxBodyBytes,
	}
}
