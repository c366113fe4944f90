// internal/handlers/payments/update-autopay/config.go
package updateautopay

import (
	"biaw-integrations/internal/common/config"
	"biaw-integrations/internal/models"
)

// ProductLine names the table and CMS fields one autopay flow writes.
// The two lines use different column names and CMS collections.
type ProductLine struct {
	Name string

	Table              string
	MemberColumn       string
	SubscriptionColumn string
	AutopayColumn      string
	ActiveValue        string
	InactiveValue      string

	CollectionID     string
	CMSAutopayField  string
	CMSActiveValue   string
	CMSInactiveValue string

	// TolerateGatewayErrors logs Stripe failures instead of aborting.
	TolerateGatewayErrors bool
	// SkipExpired leaves incomplete_expired subscriptions alone.
	SkipExpired bool

	SuccessMessage string
	FailureMessage string
}

type Config struct {
	Line         ProductLine
	MaxBodyBytes int64
}

func LoadMembershipConfig(cfg *config.Config) *Config {
	return &Config{
		Line: ProductLine{
			Name:               "membership",
			Table:              cfg.Airtable.Membership.PaymentsTable,
			MemberColumn:       "Member ID",
			SubscriptionColumn: "Subscription ID",
			AutopayColumn:      "Auto Dedection",
			ActiveValue:        models.AutopayActive,
			InactiveValue:      models.AutopayInactive,
			CollectionID:       cfg.Webflow.MembershipCollectionID,
			CMSAutopayField:    "auto-deduction-status",
			CMSActiveValue:     models.AutopayActive,
			CMSInactiveValue:   models.CMSAutopayInactive,
			SuccessMessage:     "Autopay status updated successfully",
			FailureMessage:     "Failed to update autopay status",
		},
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}
}

func LoadProductConfig(cfg *config.Config) *Config {
	return &Config{
		Line: ProductLine{
			Name:                  "product",
			Table:                 cfg.Airtable.Product.SubscriptionsTable,
			MemberColumn:          "Member",
			SubscriptionColumn:    "Subscription ID",
			AutopayColumn:         "Subscription autopayment status",
			ActiveValue:           models.AutopayActive,
			InactiveValue:         models.AutopayInactive,
			CollectionID:          cfg.Webflow.ProductCollectionID,
			CMSAutopayField:       "subscription-status",
			CMSActiveValue:        models.AutopayActive,
			CMSInactiveValue:      models.CMSAutopayInactive,
			TolerateGatewayErrors: true,
			SkipExpired:           true,
			SuccessMessage:        "Product subscription status updated successfully",
			FailureMessage:        "Failed to update product subscription status",
		},
		MaxBodyBytes: cfg.Server.MaxBodyBytes,
	}
}

func (l ProductLine) autopayValue(disabled bool) string {
	if disabled {
		return l.InactiveValue
	}
	return l.ActiveValue
}

func (l ProductLine) cmsAutopayValue(disabled bool) string {
	if disabled {
		return l.CMSInactiveValue
	}
	return l.CMSActiveValue
}
