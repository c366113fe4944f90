// internal/handlers/payments/create-checkout/config.go
package createcheckout

import "biaw-integrations/internal/common/config"

type Config struct {
	MemberPriceID           string
	NonMemberPriceID        string
	ProductOneTimePriceID   string
	ProductRecurringPriceID string
	SuccessURL              string
	CancelURL               string
	MaxBodyBytes            int64
}

func LoadConfig(cfg *config.Config) *Config {
	return &Config{
		MemberPriceID:           cfg.Stripe.MemberPriceID,
		NonMemberPriceID:        cfg.Stripe.NonMemberPriceID,
		ProductOneTimePriceID:   cfg.Stripe.ProductOneTimePriceID,
		ProductRecurringPriceID: cfg.Stripe.ProductRecurringPriceID,
		SuccessURL:              cfg.Stripe.SuccessURL,
		CancelURL:               cfg.Stripe.CancelURL,
		MaxBodyBytes:            cfg.Server.MaxBodyBytes,
	}
}
