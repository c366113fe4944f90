// internal/handlers/payments/stripe-webhook/invoice.go
package stripewebhook

import (
	"context"
	"fmt"

	"biaw-integrations/internal/common/airtable"
	"biaw-integrations/internal/common/email"
	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/common/format"
	"biaw-integrations/internal/common/idempotency"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/payments"
	"biaw-integrations/internal/common/webflow"
	"biaw-integrations/internal/models"
)

// isProductInvoice reports whether inv bills the product setup price.
func (h *Handler) isProductInvoice(inv *payments.Invoice) bool {
	return inv.HasPrice(h.config.ProductPriceID)
}

// reconcileInvoice records a paid product subscription once. Invoices for
// other prices are ignored.
func (h *Handler) reconcileInvoice(ctx context.Context, inv *payments.Invoice) (string, error) {
	log := logger.FromContext(ctx, h.logger).WithFields(map[string]interface{}{
		"invoiceId":      inv.ID,
		"subscriptionId": inv.SubscriptionID,
	})

	if !h.isProductInvoice(inv) {
		log.Debug("Invoice has no product line item", nil)
		return outcomeIgnored, nil
	}
	if inv.SubscriptionID == "" {
		log.Warn("Product invoice carries no subscription id", nil)
		recordOutcome("invoice", outcomeIgnored)
		return outcomeIgnored, nil
	}

	key := idempotency.SubscriptionKey(inv.SubscriptionID)
	claimed, err := h.store.Claim(ctx, key)
	if err != nil {
		// The table lookup below still guards against duplicates.
		log.Warn("Reconciliation store unavailable", map[string]interface{}{"error": err.Error()})
		claimed = true
	}
	if !claimed {
		log.Info("Subscription already reconciled", nil)
		recordOutcome("invoice", outcomeDuplicate)
		return outcomeDuplicate, nil
	}

	existing, err := h.products.FindRecord(ctx, h.config.SubscriptionsTable, airtable.Eq(colSubscriptionID, inv.SubscriptionID))
	if err != nil {
		h.release(ctx, key)
		return "", apperrors.NewExternalServiceError("Airtable", "find subscription record", err)
	}
	if existing != nil {
		log.Info("Record already exists for subscription", map[string]interface{}{"recordId": existing.ID})
		recordOutcome("invoice", outcomeDuplicate)
		return outcomeDuplicate, nil
	}

	memberID := h.resolveMember(ctx, inv)
	start := inv.PeriodStart
	if start.IsZero() {
		start = h.now()
	}
	end := format.AddYear(start)

	record, err := h.products.CreateRecord(ctx, h.config.SubscriptionsTable, airtable.Fields{
		colMember:         memberID,
		colTotalAmount:    format.Dollars(inv.AmountPaid),
		colSubscriptionID: inv.SubscriptionID,
		colName:           inv.CustomerName,
		colEmail:          inv.CustomerEmail,
		colStartDate:      format.ISO(start),
		colEndDate:        format.ISO(end),
	})
	if err != nil {
		h.release(ctx, key)
		return "", apperrors.NewExternalServiceError("Airtable", "create subscription record", err)
	}
	log.Info("Created subscription record", map[string]interface{}{"recordId": record.ID, "memberId": memberID})

	if _, err := h.cms.CreateItem(ctx, h.config.ProductCollectionID, webflow.FieldData{
		"member-id":                  memberID,
		"subscription-status":        models.AutopayActive,
		"subscription-starting-date": format.Date(start),
		"subscription-end-date":      format.Date(end),
		"name":                       inv.CustomerName,
		"slug":                       format.Slug(inv.CustomerName),
	}, true); err != nil {
		log.Error("Failed to create product CMS item", map[string]interface{}{"error": err.Error(), "memberId": memberID})
		h.mailer.Alert(ctx, "Product subscription not mirrored to Webflow",
			fmt.Sprintf("Subscription %s for member %s was recorded in Airtable but the Webflow item could not be created: %v",
				inv.SubscriptionID, memberID, err))
	}

	if inv.CustomerEmail != "" {
		msg, err := email.SubscriptionActivated(email.Subscription{
			Email:     inv.CustomerEmail,
			Name:      inv.CustomerName,
			StartDate: format.Date(start),
			EndDate:   format.Date(end),
		})
		if err != nil {
			log.Error("Failed to render subscription email", map[string]interface{}{"error": err.Error()})
		} else {
			h.mailer.Notify(ctx, msg)
		}
	}

	recordOutcome("invoice", outcomeProcessed)
	return outcomeProcessed, nil
}

// resolveMember prefers the checkout session's client reference and falls
// back to the Stripe customer id.
func (h *Handler) resolveMember(ctx context.Context, inv *payments.Invoice) string {
	ref, err := h.gateway.ClientReferenceForSubscription(ctx, inv.SubscriptionID)
	if err != nil {
		logger.FromContext(ctx, h.logger).Warn("Failed to look up checkout session for subscription", map[string]interface{}{
			"subscriptionId": inv.SubscriptionID,
			"error":          err.Error(),
		})
	}
	if ref != "" {
		return ref
	}
	return inv.CustomerID
}

func (h *Handler) release(ctx context.Context, key string) {
	if err := h.store.Release(ctx, key); err != nil {
		logger.FromContext(ctx, h.logger).Warn("Failed to release reconciliation claim", map[string]interface{}{
			"key":   key,
			"error": err.Error(),
		})
	}
}
