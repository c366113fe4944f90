// internal/handlers/payments/update-autopay/models.go
package updateautopay

import "biaw-integrations/internal/models"

type Input struct {
	AutopayDisabled bool              `json:"autopayDisabled"`
	MemberID        models.FlexString `json:"memberId"`
}

type Output struct {
	Message         string `json:"message"`
	MemberID        string `json:"memberId"`
	AutopayDisabled bool   `json:"autopayDisabled"`
	// RecordUpdated and ItemUpdated are false when no row or item matched.
	RecordUpdated         bool `json:"recordUpdated"`
	ItemUpdated           bool `json:"itemUpdated"`
	SubscriptionCancelled bool `json:"subscriptionCancelled"`
}
