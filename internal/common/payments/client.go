// Package payments wraps the Stripe API behind domain types.
package payments

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"biaw-integrations/internal/common/metrics"

	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/client"
	"github.com/stripe/stripe-go/v74/webhook"
)

type Client struct {
	api           *client.API
	webhookSecret string
}

type ClientOptions struct {
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
	// BackendURL overrides the API host, for tests against a fake server.
	BackendURL string
}

func NewClient(opts ClientOptions) *Client {
	httpClient := &http.Client{Timeout: opts.Timeout}

	backendConfig := func() *stripe.BackendConfig {
		cfg := &stripe.BackendConfig{
			HTTPClient:        httpClient,
			MaxNetworkRetries: stripe.Int64(0),
		}
		if opts.BackendURL != "" {
			cfg.URL = stripe.String(opts.BackendURL)
		}
		return cfg
	}

	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendConfig()),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendConfig()),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendConfig()),
	}

	return &Client{
		api:           client.New(opts.SecretKey, backends),
		webhookSecret: opts.WebhookSecret,
	}
}

// GatewayError carries a failed Stripe call with its API error payload.
type GatewayError struct {
	Operation string
	Err       error
}

func (e *GatewayError) Error() string {
	return fmt.Sprintf("failed to %s on stripe: %v", e.Operation, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

// UpstreamBody returns the Stripe error object as JSON when available.
func (e *GatewayError) UpstreamBody() []byte {
	if stripeErr, ok := e.Err.(*stripe.Error); ok {
		body, err := json.Marshal(stripeErr)
		if err == nil {
			return body
		}
	}
	return nil
}

func observe(operation string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	metrics.UpstreamRequestsTotal.WithLabelValues("stripe", operation, outcome).Inc()
	metrics.UpstreamRequestDuration.WithLabelValues("stripe", operation).Observe(time.Since(start).Seconds())
}

// ConstructEvent verifies the stripe-signature header and decodes the payload.
func (c *Client) ConstructEvent(payload []byte, signature string) (*Event, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, err
	}
	return decodeEvent(event)
}

func decodeEvent(event stripe.Event) (*Event, error) {
	out := &Event{ID: event.ID, Type: string(event.Type)}
	if event.Data == nil {
		return out, nil
	}

	switch out.Type {
	case EventInvoicePaymentSucceeded:
		var inv stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("failed to decode invoice: %w", err)
		}
		out.Invoice = toInvoice(&inv)
	case EventCheckoutSessionCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return nil, fmt.Errorf("failed to decode checkout session: %w", err)
		}
		out.Session = toCheckoutSession(&sess)
	}
	return out, nil
}

func (c *Client) CreateCheckoutSession(ctx context.Context, req *CheckoutRequest) (*CheckoutSession, error) {
	start := time.Now()

	params := &stripe.CheckoutSessionParams{
		Mode:       stripe.String(req.Mode),
		SuccessURL: stripe.String(req.SuccessURL),
		CancelURL:  stripe.String(req.CancelURL),
	}
	params.Context = ctx
	for _, item := range req.LineItems {
		params.LineItems = append(params.LineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(item.PriceID),
			Quantity: stripe.Int64(item.Quantity),
		})
	}
	if req.ClientReferenceID != "" {
		params.ClientReferenceID = stripe.String(req.ClientReferenceID)
	}
	if req.AllowPromotionCodes != nil {
		params.AllowPromotionCodes = stripe.Bool(*req.AllowPromotionCodes)
	}
	if len(req.PaymentMethodTypes) > 0 {
		params.PaymentMethodTypes = stripe.StringSlice(req.PaymentMethodTypes)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	sess, err := c.api.CheckoutSessions.New(params)
	observe("create checkout session", start, err)
	if err != nil {
		return nil, &GatewayError{Operation: "create checkout session", Err: err}
	}
	return toCheckoutSession(sess), nil
}

func (c *Client) GetSubscription(ctx context.Context, id string) (*Subscription, error) {
	start := time.Now()

	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := c.api.Subscriptions.Get(id, params)
	observe("get subscription", start, err)
	if err != nil {
		return nil, &GatewayError{Operation: "get subscription", Err: err}
	}
	return toSubscription(sub), nil
}

// CancelAtPeriodEnd stops renewal without ending the current period.
func (c *Client) CancelAtPeriodEnd(ctx context.Context, id string) error {
	start := time.Now()

	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(true)}
	params.Context = ctx

	_, err := c.api.Subscriptions.Update(id, params)
	observe("cancel subscription at period end", start, err)
	if err != nil {
		return &GatewayError{Operation: "cancel subscription at period end", Err: err}
	}
	return nil
}

func (c *Client) GetInvoice(ctx context.Context, id string) (*Invoice, error) {
	start := time.Now()

	params := &stripe.InvoiceParams{}
	params.Context = ctx

	inv, err := c.api.Invoices.Get(id, params)
	observe("get invoice", start, err)
	if err != nil {
		return nil, &GatewayError{Operation: "get invoice", Err: err}
	}
	return toInvoice(inv), nil
}

// ClientReferenceForSubscription returns the client_reference_id of the checkout
// session that created the subscription, or "" when there is none.
func (c *Client) ClientReferenceForSubscription(ctx context.Context, subscriptionID string) (string, error) {
	start := time.Now()

	params := &stripe.CheckoutSessionListParams{Subscription: stripe.String(subscriptionID)}
	params.Context = ctx
	params.Limit = stripe.Int64(1)

	iter := c.api.CheckoutSessions.List(params)
	ref := ""
	if iter.Next() {
		ref = iter.CheckoutSession().ClientReferenceID
	}
	err := iter.Err()
	observe("list checkout sessions", start, err)
	if err != nil {
		return "", &GatewayError{Operation: "list checkout sessions", Err: err}
	}
	return ref, nil
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func toInvoice(inv *stripe.Invoice) *Invoice {
	out := &Invoice{
		ID:            inv.ID,
		CustomerName:  inv.CustomerName,
		CustomerEmail: inv.CustomerEmail,
		AmountPaid:    inv.AmountPaid,
		PeriodStart:   unixTime(inv.PeriodStart),
		PeriodEnd:     unixTime(inv.PeriodEnd),
	}
	if inv.Subscription != nil {
		out.SubscriptionID = inv.Subscription.ID
	}
	if inv.Customer != nil {
		out.CustomerID = inv.Customer.ID
	}
	if inv.Lines != nil {
		for _, line := range inv.Lines.Data {
			if line != nil && line.Price != nil {
				out.PriceIDs = append(out.PriceIDs, line.Price.ID)
			}
		}
	}
	return out
}

func toCheckoutSession(sess *stripe.CheckoutSession) *CheckoutSession {
	out := &CheckoutSession{
		ID:                sess.ID,
		URL:               sess.URL,
		Status:            string(sess.Status),
		ClientReferenceID: sess.ClientReferenceID,
		CustomerEmail:     sess.CustomerEmail,
		AmountTotal:       sess.AmountTotal,
		Created:           unixTime(sess.Created),
		Metadata:          sess.Metadata,
	}
	if sess.Subscription != nil {
		out.SubscriptionID = sess.Subscription.ID
	}
	if sess.PaymentIntent != nil {
		out.PaymentIntentID = sess.PaymentIntent.ID
	}
	if sess.CustomerDetails != nil {
		out.CustomerName = sess.CustomerDetails.Name
		if out.CustomerEmail == "" {
			out.CustomerEmail = sess.CustomerDetails.Email
		}
	}
	return out
}

func toSubscription(sub *stripe.Subscription) *Subscription {
	out := &Subscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
	}
	if sub.LatestInvoice != nil {
		out.LatestInvoiceID = sub.LatestInvoice.ID
	}
	return out
}
