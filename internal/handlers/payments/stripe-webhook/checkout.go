// internal/handlers/payments/stripe-webhook/checkout.go
package stripewebhook

import (
	"context"
	"fmt"
	"time"

	"biaw-integrations/internal/common/airtable"
	"biaw-integrations/internal/common/email"
	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/common/format"
	"biaw-integrations/internal/common/idempotency"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/payments"
	"biaw-integrations/internal/common/retry"
	"biaw-integrations/internal/common/webflow"
	"biaw-integrations/internal/models"
)

// completeCheckout handles checkout.session.completed. Product checkouts are
// left to the invoice-paid path when it gets there first; everything else is
// a membership payment.
func (h *Handler) completeCheckout(ctx context.Context, sess *payments.CheckoutSession) (string, error) {
	log := logger.FromContext(ctx, h.logger).WithFields(map[string]interface{}{
		"sessionId":      sess.ID,
		"subscriptionId": sess.SubscriptionID,
		"memberId":       sess.ClientReferenceID,
	})
	ctx = logger.IntoContext(ctx, log)

	var sub *payments.Subscription
	if sess.SubscriptionID != "" {
		var inv *payments.Invoice
		var err error
		sub, inv, err = h.latestInvoice(ctx, sess.SubscriptionID)
		if err != nil {
			log.Warn("Failed to load latest invoice, treating as membership checkout", map[string]interface{}{"error": err.Error()})
		} else if h.isProductInvoice(inv) {
			return h.awaitInvoice(ctx, inv)
		}
	}

	return h.recordMembershipPayment(ctx, sess, sub)
}

func (h *Handler) latestInvoice(ctx context.Context, subscriptionID string) (*payments.Subscription, *payments.Invoice, error) {
	sub, err := h.gateway.GetSubscription(ctx, subscriptionID)
	if err != nil {
		return nil, nil, err
	}
	if sub.LatestInvoiceID == "" {
		return sub, nil, fmt.Errorf("subscription %s has no invoice", subscriptionID)
	}
	inv, err := h.gateway.GetInvoice(ctx, sub.LatestInvoiceID)
	if err != nil {
		return sub, nil, err
	}
	return sub, inv, nil
}

// awaitInvoice polls for the invoice-paid path to finish. When it never does,
// the invoice is reconciled here under the same idempotency guard.
func (h *Handler) awaitInvoice(ctx context.Context, inv *payments.Invoice) (string, error) {
	log := logger.FromContext(ctx, h.logger)
	key := idempotency.SubscriptionKey(inv.SubscriptionID)

	found, waited, err := retry.Poll(ctx, h.config.Reconciliation, func(ctx context.Context, attempt int) (bool, error) {
		return h.reconciled(ctx, key, inv.SubscriptionID)
	})
	if err != nil {
		h.obs.RecordReconciliationWait(ctx, waited, outcomeFailed)
		recordOutcome("checkout", outcomeFailed)
		return "", apperrors.NewExternalServiceError("Airtable", "check subscription record", err)
	}
	if found {
		log.Info("Product checkout already reconciled by invoice", map[string]interface{}{"waited": waited.String()})
		h.obs.RecordReconciliationWait(ctx, waited, "found")
		recordOutcome("checkout", outcomeDeferred)
		return outcomeDeferred, nil
	}

	log.Warn("Invoice event not reconciled in time, reconciling from checkout", map[string]interface{}{
		"waited":   waited.String(),
		"attempts": h.config.Reconciliation.MaxAttempts,
	})
	h.obs.RecordReconciliationWait(ctx, waited, outcomeExhausted)
	recordOutcome("checkout", outcomeExhausted)
	h.mailer.Alert(ctx, "Stripe invoice event not reconciled",
		fmt.Sprintf("checkout.session.completed for subscription %s waited %s without a matching invoice.payment_succeeded; reconciling from the checkout event.",
			inv.SubscriptionID, waited.Round(time.Millisecond)))

	return h.reconcileInvoice(ctx, inv)
}

// reconciled checks the fast Redis mark first and the table second.
func (h *Handler) reconciled(ctx context.Context, key, subscriptionID string) (bool, error) {
	marked, err := h.store.Exists(ctx, key)
	if err != nil {
		logger.FromContext(ctx, h.logger).Warn("Reconciliation store unavailable", map[string]interface{}{"error": err.Error()})
	}
	if marked {
		return true, nil
	}
	record, err := h.products.FindRecord(ctx, h.config.SubscriptionsTable, airtable.Eq(colSubscriptionID, subscriptionID))
	if err != nil {
		return false, err
	}
	return record != nil, nil
}

// recordMembershipPayment marks the application paid, appends payment
// history, confirms by email and publishes the member's CMS item.
func (h *Handler) recordMembershipPayment(ctx context.Context, sess *payments.CheckoutSession, sub *payments.Subscription) (string, error) {
	log := logger.FromContext(ctx, h.logger)
	memberID := sess.ClientReferenceID

	application, err := h.markApplicationPaid(ctx, memberID)
	if err != nil {
		return "", err
	}

	name := sess.CustomerName
	if name == "" {
		name = sess.Metadata[signedMember]
	}
	if name == "" {
		name = unknownName
	}
	amount := format.AmountPaid(sess.AmountTotal)

	start := h.now()
	var end time.Time
	if sess.SubscriptionID != "" {
		if !sess.Created.IsZero() {
			start = sess.Created
		}
		if sub == nil {
			if sub, err = h.gateway.GetSubscription(ctx, sess.SubscriptionID); err != nil {
				return "", apperrors.NewExternalServiceError("Stripe", "get subscription", err)
			}
		}
		end = sub.CurrentPeriodEnd
	}

	var endISO interface{}
	if !end.IsZero() {
		endISO = format.ISO(end)
	}

	payment, err := h.membership.CreateRecord(ctx, h.config.PaymentsTable, airtable.Fields{
		colName:              name,
		colTotalAmountPaid:   amount,
		colSubscriptionStart: format.ISO(start),
		colSubscriptionEnd:   endISO,
		colPaymentStatus:     models.PaymentStatusPaid,
		colSubscriptionID:    sess.SubscriptionID,
		colMemberID:          memberID,
		colAutoDeduction:     models.AutopayActive,
	})
	if err != nil {
		return "", apperrors.NewExternalServiceError("Airtable", "create payment record", err)
	}
	log.Info("Created payment record", map[string]interface{}{"recordId": payment.ID, "name": name})

	to := sess.CustomerEmail
	if to == "" {
		to = application.String(colEmail)
	}
	if to == "" {
		log.Warn("No email address available to send payment confirmation", nil)
	} else {
		endDate := ""
		if !end.IsZero() {
			endDate = format.Date(end)
		}
		msg, err := email.PaymentConfirmation(email.Subscription{
			Email:       to,
			Name:        name,
			AmountCents: sess.AmountTotal,
			StartDate:   format.Date(start),
			EndDate:     endDate,
		})
		if err != nil {
			log.Error("Failed to render payment confirmation", map[string]interface{}{"error": err.Error()})
		} else {
			h.mailer.Notify(ctx, msg)
		}
	}

	item, err := h.cms.CreateItem(ctx, h.config.MembershipCollectionID, webflow.FieldData{
		"name":                  name,
		"member-id":             memberID,
		"auto-deduction-status": models.AutopayActive,
		"end-date":              endISO,
		"start-date":            format.ISO(start),
		"total-amount":          amount,
		"certification-status":  string(models.StatusSubmitted),
		"slug":                  format.Slug(name + "-" + memberID),
	}, true)
	if err != nil {
		log.Error("Failed to create membership CMS item", map[string]interface{}{"error": err.Error()})
		h.mailer.Alert(ctx, "Membership payment not mirrored to Webflow",
			fmt.Sprintf("Payment for member %s (%s) was recorded in Airtable but the Webflow item could not be created: %v",
				memberID, name, err))
	} else {
		log.Info("Created membership CMS item", map[string]interface{}{"itemId": item.ID})
	}

	recordOutcome("checkout", outcomeProcessed)
	return outcomeProcessed, nil
}

// markApplicationPaid returns the application row, or nil when the member has none.
func (h *Handler) markApplicationPaid(ctx context.Context, memberID string) (*airtable.Record, error) {
	log := logger.FromContext(ctx, h.logger)
	if memberID == "" {
		log.Warn("Checkout session has no client reference, skipping application update", nil)
		return nil, nil
	}

	record, err := h.membership.FindRecord(ctx, h.config.ApplicationsTable, airtable.Eq(colMemberID, memberID))
	if err != nil {
		return nil, apperrors.NewExternalServiceError("Airtable", "find application", err)
	}
	if record == nil {
		log.Warn("No application record found for member", nil)
		return nil, nil
	}

	if _, err := h.membership.UpdateRecord(ctx, h.config.ApplicationsTable, record.ID, airtable.Fields{
		colPaymentStatus: models.PaymentStatusPaid,
	}); err != nil {
		return nil, apperrors.NewExternalServiceError("Airtable", "update payment status", err)
	}
	log.Info("Application marked paid", map[string]interface{}{"recordId": record.ID})
	return record, nil
}
