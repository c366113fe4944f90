// internal/handlers/payments/create-checkout/handler.go
package createcheckout

import (
	"context"
	"net/http"
	"strings"

	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/payments"
	"biaw-integrations/internal/common/respond"
)

const (
	MembershipRoute = "/api/stripe/create-checkout"
	ProductRoute    = "/api/product/checkout"
)

const msgFailed = "Failed to create checkout session"

type Gateway interface {
	CreateCheckoutSession(ctx context.Context, req *payments.CheckoutRequest) (*payments.CheckoutSession, error)
}

// Handler opens hosted checkout sessions for the membership and product lines.
type Handler struct {
	config  *Config
	gateway Gateway
	logger  logger.Logger
	errors  *apperrors.ErrorHandler
}

type HandlerOptions struct {
	Config  *Config
	Gateway Gateway
	Logger  logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger.WithFields(map[string]interface{}{"handler": "create-checkout"})
	return &Handler{
		config:  opts.Config,
		gateway: opts.Gateway,
		logger:  log,
		errors:  apperrors.NewErrorHandler(log),
	}
}

func (h *Handler) HandleMembership(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.Membership)
}

func (h *Handler) HandleProduct(w http.ResponseWriter, r *http.Request) {
	h.serve(w, r, h.Product)
}

func (h *Handler) serve(w http.ResponseWriter, r *http.Request, execute func(context.Context, *Input) (*Output, error)) {
	var input Input
	if err := respond.Decode(w, r, h.config.MaxBodyBytes, &input); err != nil {
		respond.Error(w, h.errors, msgFailed, err)
		return
	}
	output, err := execute(r.Context(), &input)
	if err != nil {
		respond.Error(w, h.errors, msgFailed, err)
		return
	}
	respond.JSON(w, http.StatusOK, output)
}

// Membership charges the member or non-member certification price.
func (h *Handler) Membership(ctx context.Context, input *Input) (*Output, error) {
	price := h.config.NonMemberPriceID
	if input.IsMember {
		price = h.config.MemberPriceID
	}
	noPromotions := false

	req := &payments.CheckoutRequest{
		Mode:                payments.ModeSubscription,
		LineItems:           []payments.LineItem{{PriceID: price, Quantity: 1}},
		SuccessURL:          h.config.SuccessURL,
		CancelURL:           h.config.CancelURL,
		ClientReferenceID:   strings.TrimSpace(input.MemberID),
		AllowPromotionCodes: &noPromotions,
		Metadata:            input.metadata(),
	}
	return h.create(ctx, "membership", req)
}

// Product bills the one-time setup price together with the yearly subscription.
func (h *Handler) Product(ctx context.Context, input *Input) (*Output, error) {
	req := &payments.CheckoutRequest{
		Mode: payments.ModeSubscription,
		LineItems: []payments.LineItem{
			{PriceID: h.config.ProductOneTimePriceID, Quantity: 1},
			{PriceID: h.config.ProductRecurringPriceID, Quantity: 1},
		},
		SuccessURL:         h.config.SuccessURL,
		CancelURL:          h.config.CancelURL,
		ClientReferenceID:  strings.TrimSpace(input.MemberID),
		PaymentMethodTypes: []string{"card"},
		Metadata:           input.metadata(),
	}
	return h.create(ctx, "product", req)
}

func (h *Handler) create(ctx context.Context, line string, req *payments.CheckoutRequest) (*Output, error) {
	log := logger.FromContext(ctx, h.logger)

	session, err := h.gateway.CreateCheckoutSession(ctx, req)
	if err != nil {
		return nil, apperrors.NewExternalServiceError("Stripe", "create checkout session", err)
	}

	log.Info("Created checkout session", map[string]interface{}{
		"line":      line,
		"sessionId": session.ID,
		"memberId":  req.Metadata["memberId"],
	})
	return &Output{
		Message:   "Checkout session created",
		SessionID: session.ID,
		URL:       session.URL,
	}, nil
}
