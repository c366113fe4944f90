// internal/handlers/payments/update-autopay/handler.go
package updateautopay

import (
	"context"
	"net/http"
	"strings"

	"biaw-integrations/internal/common/airtable"
	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/payments"
	"biaw-integrations/internal/common/respond"
	"biaw-integrations/internal/common/webflow"
)

const (
	MembershipRoute = "/api/autopay"
	ProductRoute    = "/api/product-autopay/update-status"
)

type RecordStore interface {
	FindRecord(ctx context.Context, table, formula string) (*airtable.Record, error)
	UpdateRecord(ctx context.Context, table, id string, fields airtable.Fields) (*airtable.Record, error)
}

type CMS interface {
	FindItem(ctx context.Context, collectionID, field, value string) (*webflow.Item, error)
	UpdateItem(ctx context.Context, collectionID, itemID string, fields webflow.FieldData, live bool) (*webflow.Item, error)
}

type Gateway interface {
	GetSubscription(ctx context.Context, id string) (*payments.Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, id string) error
}

// Handler toggles autopay for one product line in Stripe, Airtable and Webflow.
type Handler struct {
	config  *Config
	line    ProductLine
	records RecordStore
	cms     CMS
	gateway Gateway
	logger  logger.Logger
	errors  *apperrors.ErrorHandler
}

type HandlerOptions struct {
	Config  *Config
	Records RecordStore
	CMS     CMS
	Gateway Gateway
	Logger  logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger.WithFields(map[string]interface{}{
		"handler": "update-autopay",
		"line":    opts.Config.Line.Name,
	})
	return &Handler{
		config:  opts.Config,
		line:    opts.Config.Line,
		records: opts.Records,
		cms:     opts.CMS,
		gateway: opts.Gateway,
		logger:  log,
		errors:  apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var input Input
	if err := respond.Decode(w, r, h.config.MaxBodyBytes, &input); err != nil {
		respond.Error(w, h.errors, h.line.FailureMessage, err)
		return
	}

	output, err := h.Execute(r.Context(), input)
	if err != nil {
		respond.Error(w, h.errors, h.line.FailureMessage, err)
		return
	}
	respond.JSON(w, http.StatusOK, output)
}

// Execute cancels renewal when disabling, then writes the autopay flag to
// the table row and the CMS item. A missing row or item is only logged.
func (h *Handler) Execute(ctx context.Context, input Input) (*Output, error) {
	memberID := strings.TrimSpace(input.MemberID.String())
	if memberID == "" {
		return nil, apperrors.NewValidationError("Member ID is required")
	}
	log := logger.FromContext(ctx, h.logger).WithFields(map[string]interface{}{
		"memberId":        memberID,
		"autopayDisabled": input.AutopayDisabled,
	})

	out := &Output{
		Message:         h.line.SuccessMessage,
		MemberID:        memberID,
		AutopayDisabled: input.AutopayDisabled,
	}

	record, err := h.records.FindRecord(ctx, h.line.Table, airtable.Eq(h.line.MemberColumn, memberID))
	if err != nil {
		return nil, apperrors.NewExternalServiceError("Airtable", "find autopay record", err)
	}
	if record == nil {
		log.Warn("No Airtable record found for member", nil)
	} else {
		subscriptionID := record.String(h.line.SubscriptionColumn)
		if input.AutopayDisabled && subscriptionID != "" {
			cancelled, err := h.stopRenewal(ctx, log, subscriptionID)
			if err != nil {
				return nil, err
			}
			out.SubscriptionCancelled = cancelled
		}

		if _, err := h.records.UpdateRecord(ctx, h.line.Table, record.ID, airtable.Fields{
			h.line.AutopayColumn: h.line.autopayValue(input.AutopayDisabled),
		}); err != nil {
			return nil, apperrors.NewExternalServiceError("Airtable", "update autopay status", err)
		}
		out.RecordUpdated = true
		log.Info("Airtable autopay status updated", map[string]interface{}{"recordId": record.ID})
	}

	item, err := h.cms.FindItem(ctx, h.line.CollectionID, "member-id", memberID)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("Webflow", "find autopay item", err)
	}
	if item == nil {
		log.Warn("No Webflow item found for member", nil)
		return out, nil
	}

	if _, err := h.cms.UpdateItem(ctx, h.line.CollectionID, item.ID, webflow.FieldData{
		h.line.CMSAutopayField: h.line.cmsAutopayValue(input.AutopayDisabled),
	}, true); err != nil {
		return nil, apperrors.NewExternalServiceError("Webflow", "update autopay status", err)
	}
	out.ItemUpdated = true
	log.Info("Webflow autopay status updated", map[string]interface{}{"itemId": item.ID})

	return out, nil
}

// stopRenewal sets cancel-at-period-end. It reports whether Stripe was told to
// cancel; errors are swallowed when the line tolerates them.
func (h *Handler) stopRenewal(ctx context.Context, log logger.Logger, subscriptionID string) (bool, error) {
	log = log.WithFields(map[string]interface{}{"subscriptionId": subscriptionID})

	fail := func(op string, err error) (bool, error) {
		if h.line.TolerateGatewayErrors {
			log.Error("Stripe subscription update failed, continuing", map[string]interface{}{"operation": op, "error": err.Error()})
			return false, nil
		}
		return false, apperrors.NewExternalServiceError("Stripe", op, err)
	}

	if h.line.SkipExpired {
		sub, err := h.gateway.GetSubscription(ctx, subscriptionID)
		if err != nil {
			return fail("get subscription", err)
		}
		if sub.IsIncompleteExpired() {
			log.Info("Subscription already expired, skipping Stripe update", nil)
			return false, nil
		}
	}

	if err := h.gateway.CancelAtPeriodEnd(ctx, subscriptionID); err != nil {
		return fail("cancel subscription at period end", err)
	}
	log.Info("Stripe subscription marked for cancellation at period end", nil)
	return true, nil
}
