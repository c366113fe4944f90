package server

import (
	"context"
	"net/http"

	"biaw-integrations/internal/common/airtable"
	"biaw-integrations/internal/common/config"
	"biaw-integrations/internal/common/email"
	"biaw-integrations/internal/common/idempotency"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/observability"
	"biaw-integrations/internal/common/payments"
	"biaw-integrations/internal/common/webflow"
	certificationstatus "biaw-integrations/internal/handlers/application/certification-status"
	mailstatus "biaw-integrations/internal/handlers/application/mail-status"
	submitapplication "biaw-integrations/internal/handlers/application/submit-application"
	syncminutes "biaw-integrations/internal/handlers/board-meetings/sync-minutes"
	createcheckout "biaw-integrations/internal/handlers/payments/create-checkout"
	stripewebhook "biaw-integrations/internal/handlers/payments/stripe-webhook"
	updateautopay "biaw-integrations/internal/handlers/payments/update-autopay"
)

// RecordStore is the full table client surface the handlers share.
type RecordStore interface {
	FindRecord(ctx context.Context, table, formula string) (*airtable.Record, error)
	CreateRecord(ctx context.Context, table string, fields airtable.Fields) (*airtable.Record, error)
	CreateRecords(ctx context.Context, table string, rows []airtable.Fields) ([]airtable.Record, error)
	UpdateRecord(ctx context.Context, table, id string, fields airtable.Fields) (*airtable.Record, error)
}

type CMS interface {
	FindItem(ctx context.Context, collectionID, field, value string) (*webflow.Item, error)
	CreateItem(ctx context.Context, collectionID string, fields webflow.FieldData, live bool) (*webflow.Item, error)
	UpdateItem(ctx context.Context, collectionID, itemID string, fields webflow.FieldData, live bool) (*webflow.Item, error)
	GetCollection(ctx context.Context, collectionID string) (*webflow.Collection, error)
}

type Gateway interface {
	ConstructEvent(payload []byte, signature string) (*payments.Event, error)
	CreateCheckoutSession(ctx context.Context, req *payments.CheckoutRequest) (*payments.CheckoutSession, error)
	GetSubscription(ctx context.Context, id string) (*payments.Subscription, error)
	CancelAtPeriodEnd(ctx context.Context, id string) error
	GetInvoice(ctx context.Context, id string) (*payments.Invoice, error)
	ClientReferenceForSubscription(ctx context.Context, subscriptionID string) (string, error)
}

type Mailer interface {
	Deliver(ctx context.Context, msg email.Message) error
	Notify(ctx context.Context, msg email.Message) bool
	Alert(ctx context.Context, subject, body string)
}

// Dependencies are the external clients behind every route. Each Airtable
// base has its own credentials, hence one RecordStore per base.
type Dependencies struct {
	Membership    RecordStore
	Products      RecordStore
	BoardMeetings RecordStore
	CMS           CMS
	Gateway       Gateway
	Mailer        Mailer
	Store         idempotency.Store
	Observability *observability.Observability
}

// BuildRoutes wires every integration handler to its path.
func BuildRoutes(cfg *config.Config, deps Dependencies, log logger.Logger) []Route {
	submit := submitapplication.NewHandler(submitapplication.HandlerOptions{
		Config:  submitapplication.LoadConfig(cfg),
		Records: deps.Membership,
		Mailer:  deps.Mailer,
		Logger:  log,
	})
	mail := mailstatus.NewHandler(mailstatus.HandlerOptions{
		Config:  mailstatus.LoadConfig(cfg),
		Records: deps.Membership,
		CMS:     deps.CMS,
		Mailer:  deps.Mailer,
		Logger:  log,
	})
	certification := certificationstatus.NewHandler(certificationstatus.HandlerOptions{
		Config: certificationstatus.LoadConfig(cfg),
		CMS:    deps.CMS,
		Logger: log,
	})
	checkout := createcheckout.NewHandler(createcheckout.HandlerOptions{
		Config:  createcheckout.LoadConfig(cfg),
		Gateway: deps.Gateway,
		Logger:  log,
	})
	webhook := stripewebhook.NewHandler(stripewebhook.HandlerOptions{
		Config:        stripewebhook.LoadConfig(cfg),
		Gateway:       deps.Gateway,
		Membership:    deps.Membership,
		Products:      deps.Products,
		CMS:           deps.CMS,
		Mailer:        deps.Mailer,
		Store:         deps.Store,
		Observability: deps.Observability,
		Logger:        log,
	})
	membershipAutopay := updateautopay.NewHandler(updateautopay.HandlerOptions{
		Config:  updateautopay.LoadMembershipConfig(cfg),
		Records: deps.Membership,
		CMS:     deps.CMS,
		Gateway: deps.Gateway,
		Logger:  log,
	})
	productAutopay := updateautopay.NewHandler(updateautopay.HandlerOptions{
		Config:  updateautopay.LoadProductConfig(cfg),
		Records: deps.Products,
		CMS:     deps.CMS,
		Gateway: deps.Gateway,
		Logger:  log,
	})
	minutes := syncminutes.NewHandler(syncminutes.HandlerOptions{
		Config:  syncminutes.LoadConfig(cfg),
		CMS:     deps.CMS,
		Records: deps.BoardMeetings,
		Logger:  log,
	})

	return []Route{
		{http.MethodPost, submitapplication.Route, submit.Handle},
		{http.MethodPost, createcheckout.MembershipRoute, checkout.HandleMembership},
		{http.MethodPost, stripewebhook.Route, webhook.Handle},
		{http.MethodPost, certificationstatus.ConfirmRoute, certification.HandleConfirm},
		{http.MethodPost, mailstatus.Route, mail.Handle},
		{http.MethodPost, updateautopay.MembershipRoute, membershipAutopay.Handle},
		{http.MethodPost, createcheckout.ProductRoute, checkout.HandleProduct},
		{http.MethodPost, updateautopay.ProductRoute, productAutopay.Handle},
		{http.MethodPost, syncminutes.CreateRoute, minutes.HandleCreate},
		{http.MethodPost, syncminutes.UpdateRoute, minutes.HandleUpdate},
		{http.MethodPost, certificationstatus.UpdateRoute, certification.HandleUpdate},
	}
}
