// internal/handlers/payments/stripe-webhook/handler.go
package stripewebhook

import (
	"context"
	stderrors "errors"
	"io"
	"net/http"
	"time"

	"biaw-integrations/internal/common/airtable"
	"biaw-integrations/internal/common/email"
	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/common/idempotency"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/metrics"
	"biaw-integrations/internal/common/observability"
	"biaw-integrations/internal/common/payments"
	"biaw-integrations/internal/common/respond"
	"biaw-integrations/internal/common/webflow"
)

const Route = "/api/stripe/webhook"

const (
	SignatureHeader = "stripe-signature"
	msgFailed       = "Webhook handler error"
)

type Gateway interface {
	ConstructEvent(payload []byte, signature string) (*payments.Event, error)
	GetSubscription(ctx context.Context, id string) (*payments.Subscription, error)
	GetInvoice(ctx context.Context, id string) (*payments.Invoice, error)
	ClientReferenceForSubscription(ctx context.Context, subscriptionID string) (string, error)
}

type RecordStore interface {
	FindRecord(ctx context.Context, table, formula string) (*airtable.Record, error)
	CreateRecord(ctx context.Context, table string, fields airtable.Fields) (*airtable.Record, error)
	UpdateRecord(ctx context.Context, table, id string, fields airtable.Fields) (*airtable.Record, error)
}

type CMS interface {
	CreateItem(ctx context.Context, collectionID string, fields webflow.FieldData, live bool) (*webflow.Item, error)
}

type Mailer interface {
	Notify(ctx context.Context, msg email.Message) bool
	Alert(ctx context.Context, subject, body string)
}

// Handler verifies Stripe deliveries and mirrors paid subscriptions into
// Airtable, Webflow and email.
type Handler struct {
	config     *Config
	gateway    Gateway
	membership RecordStore
	products   RecordStore
	cms        CMS
	mailer     Mailer
	store      idempotency.Store
	obs        *observability.Observability
	logger     logger.Logger
	errors     *apperrors.ErrorHandler
	now        func() time.Time
}

type HandlerOptions struct {
	Config  *Config
	Gateway Gateway
	// Membership is the base holding applications and payment history.
	Membership RecordStore
	// Products is the base holding product subscriptions.
	Products      RecordStore
	CMS           CMS
	Mailer        Mailer
	Store         idempotency.Store
	Observability *observability.Observability
	Logger        logger.Logger
}

func NewHandler(opts HandlerOptions) *Handler {
	log := opts.Logger.WithFields(map[string]interface{}{"route": Route})
	store := opts.Store
	if store == nil {
		store = idempotency.NopStore{}
	}
	return &Handler{
		config:     opts.Config,
		gateway:    opts.Gateway,
		membership: opts.Membership,
		products:   opts.Products,
		cms:        opts.CMS,
		mailer:     opts.Mailer,
		store:      store,
		obs:        opts.Observability,
		logger:     log,
		errors:     apperrors.NewErrorHandler(log),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Handle reads the raw body, which signature verification needs unmodified.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	body := r.Body
	if h.config.MaxBodyBytes > 0 {
		body = http.MaxBytesReader(w, r.Body, h.config.MaxBodyBytes)
	}
	payload, err := io.ReadAll(body)
	if err != nil {
		respond.Error(w, h.errors, msgFailed, apperrors.NewValidationError("Unable to read webhook body: "+err.Error()))
		return
	}

	output, err := h.Execute(r.Context(), payload, r.Header.Get(SignatureHeader))
	if err != nil {
		respond.Error(w, h.errors, msgFailed, err)
		return
	}
	respond.JSON(w, http.StatusOK, output)
}

// Execute verifies the payload and dispatches on the event type. Nothing
// downstream is called unless the signature checks out.
func (h *Handler) Execute(ctx context.Context, payload []byte, signature string) (*Output, error) {
	log := logger.FromContext(ctx, h.logger)

	if signature == "" {
		return nil, apperrors.NewSignatureInvalidError(stderrors.New("missing " + SignatureHeader + " header"))
	}
	event, err := h.gateway.ConstructEvent(payload, signature)
	if err != nil {
		log.Warn("Webhook signature verification failed", map[string]interface{}{"error": err.Error()})
		return nil, apperrors.NewSignatureInvalidError(err)
	}

	log = log.WithFields(map[string]interface{}{"eventId": event.ID, "eventType": event.Type})
	ctx = logger.IntoContext(ctx, log)
	start := time.Now()

	outcome, err := h.dispatch(ctx, event)
	if err != nil {
		outcome = outcomeFailed
	}
	h.obs.RecordEvent(ctx, "stripe", event.Type, outcome, time.Since(start))
	if err != nil {
		return nil, err
	}

	log.Info("Webhook processed", map[string]interface{}{"outcome": outcome})
	return &Output{Message: "Received", Received: true, Outcome: outcome}, nil
}

func (h *Handler) dispatch(ctx context.Context, event *payments.Event) (string, error) {
	switch event.Type {
	case payments.EventInvoicePaymentSucceeded:
		if event.Invoice == nil {
			return outcomeIgnored, nil
		}
		return h.reconcileInvoice(ctx, event.Invoice)
	case payments.EventCheckoutSessionCompleted:
		if event.Session == nil {
			return outcomeIgnored, nil
		}
		return h.completeCheckout(ctx, event.Session)
	default:
		return outcomeIgnored, nil
	}
}

func recordOutcome(event, outcome string) {
	metrics.ReconciliationOutcomes.WithLabelValues(event, outcome).Inc()
}
