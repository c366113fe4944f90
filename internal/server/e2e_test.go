package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"biaw-integrations/internal/common/airtable"
	"biaw-integrations/internal/common/config"
	"biaw-integrations/internal/common/idempotency"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/observability"
	"biaw-integrations/internal/common/payments"
	"biaw-integrations/internal/common/webflow"
	"biaw-integrations/internal/testutil"
)

type testEnv struct {
	handler    http.Handler
	membership *testutil.MockRecordStore
	products   *testutil.MockRecordStore
	minutes    *testutil.MockRecordStore
	cms        *testutil.MockCMS
	gateway    *testutil.MockGateway
	mailer     *testutil.MockMailer
}

func createTestAppConfig() *config.Config {
	cfg := &config.Config{
		Server: *createTestServerConfig(),
		Reconciliation: config.ReconciliationConfig{
			MaxAttempts:  2,
			InitialDelay: 1,
			MaxDelay:     5,
		},
	}
	cfg.Stripe.ProductOneTimePriceID = "price_product"
	cfg.Airtable.Membership.ApplicationsTable = "Applications"
	cfg.Airtable.Membership.ReferencesTable = "References"
	cfg.Airtable.Membership.PaymentsTable = "Payments"
	cfg.Airtable.Product.SubscriptionsTable = "Subscriptions"
	cfg.Airtable.BoardMeetings.MinutesTable = "Minutes"
	cfg.Webflow.MembershipCollectionID = "col-members"
	cfg.Webflow.ProductCollectionID = "col-products"
	cfg.Webflow.MinutesCollectionID = "col-minutes"
	cfg.Webflow.BoardMeetingsCollectionID = "col-meetings"
	return cfg
}

func createTestEnv(t *testing.T) *testEnv {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	env := &testEnv{
		membership: new(testutil.MockRecordStore),
		products:   new(testutil.MockRecordStore),
		minutes:    new(testutil.MockRecordStore),
		cms:        new(testutil.MockCMS),
		gateway:    new(testutil.MockGateway),
		mailer:     new(testutil.MockMailer),
	}

	cfg := createTestAppConfig()
	log := logger.NewTestLogger(t)
	routes := BuildRoutes(cfg, Dependencies{
		Membership:    env.membership,
		Products:      env.products,
		BoardMeetings: env.minutes,
		CMS:           env.cms,
		Gateway:       env.gateway,
		Mailer:        env.mailer,
		Store:         idempotency.NewRedisStore(client, time.Hour),
		Observability: observability.NewNoop(),
	}, log)

	env.handler = New(Options{Config: &cfg.Server, ServiceName: "biaw-integrations", Routes: routes, Logger: log}).Handler()
	return env
}

func (e *testEnv) post(t *testing.T, path string, body []byte, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", testOrigin)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

func TestBuildRoutes_RegistersEveryEndpoint(t *testing.T) {
	routes := BuildRoutes(createTestAppConfig(), Dependencies{}, logger.NewNoOpLogger())

	paths := make([]string, 0, len(routes))
	for _, rt := range routes {
		assert.Equal(t, http.MethodPost, rt.Method)
		paths = append(paths, rt.Path)
	}
	assert.ElementsMatch(t, []string{
		"/api/submit-data",
		"/api/stripe/create-checkout",
		"/api/stripe/webhook",
		"/api/stripe/confirm-subscription",
		"/api/email/status",
		"/api/autopay",
		"/api/product/checkout",
		"/api/product-autopay/update-status",
		"/api/airtable/webhook",
		"/api/airtable/airtable-update-webhook",
		"/api/webflow/update-certification",
	}, paths)
}

func TestE2E_SubmitApplication(t *testing.T) {
	env := createTestEnv(t)

	env.membership.On("FindRecord", mock.Anything, "Applications", `AND({Member ID} = 'M123', {Status} != 'Submitted')`).
		Return(nil, nil).Once()
	env.membership.On("CreateRecord", mock.Anything, "Applications", mock.Anything).
		Return(&airtable.Record{ID: "recMain"}, nil).Once()
	env.mailer.On("Notify", mock.Anything, testutil.MessageTo("jane@example.org", "Builder Application Received - BIAW")).
		Return(true).Once()

	body, _ := json.Marshal(map[string]string{
		"Builder-First-Name":    "Jane",
		"Builder-Last-Name":     "Doe",
		"Builder-Business-Name": "Doe Builders",
		"Builder-Email-Address": "jane@example.org",
		"msMemId":               "M123",
	})
	rec := env.post(t, "/api/submit-data", body, nil)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "recMain", resp["mainRecordId"])
	assert.Equal(t, true, resp["emailSent"])
	env.membership.AssertNotCalled(t, "CreateRecords", mock.Anything, mock.Anything, mock.Anything)
	env.mailer.AssertExpectations(t)
}

func TestE2E_SubmitApplication_MissingNames(t *testing.T) {
	env := createTestEnv(t)

	rec := env.post(t, "/api/submit-data", []byte(`{"Builder-First-Name":"Jane"}`), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "First Name, Last Name, and Email (Business Name) are required.", resp["message"])
	env.membership.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything, mock.Anything)
}

func TestE2E_CheckoutAfterInvoiceCreatesOnce(t *testing.T) {
	env := createTestEnv(t)
	invoice := &payments.Invoice{
		ID:             "in_1",
		SubscriptionID: "sub_1",
		CustomerName:   "Jane Builder",
		CustomerEmail:  "jane@example.org",
		AmountPaid:     12550,
		PeriodStart:    time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:      time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		PriceIDs:       []string{"price_product"},
	}
	session := &payments.CheckoutSession{ID: "cs_1", ClientReferenceID: "M123", SubscriptionID: "sub_1"}

	env.gateway.On("ConstructEvent", []byte(`invoice`), "sig").
		Return(&payments.Event{ID: "evt_1", Type: payments.EventInvoicePaymentSucceeded, Invoice: invoice}, nil).Once()
	env.gateway.On("ConstructEvent", []byte(`checkout`), "sig").
		Return(&payments.Event{ID: "evt_2", Type: payments.EventCheckoutSessionCompleted, Session: session}, nil).Once()
	env.gateway.On("ClientReferenceForSubscription", mock.Anything, "sub_1").Return("M123", nil).Once()
	env.gateway.On("GetSubscription", mock.Anything, "sub_1").
		Return(&payments.Subscription{ID: "sub_1", LatestInvoiceID: "in_1"}, nil).Once()
	env.gateway.On("GetInvoice", mock.Anything, "in_1").Return(invoice, nil).Once()
	env.products.On("FindRecord", mock.Anything, "Subscriptions", airtable.Eq("Subscription ID", "sub_1")).
		Return(nil, nil).Once()
	env.products.On("CreateRecord", mock.Anything, "Subscriptions", mock.Anything).
		Return(&airtable.Record{ID: "recSub1"}, nil).Once()
	env.cms.On("CreateItem", mock.Anything, "col-products", mock.Anything, true).
		Return(&webflow.Item{ID: "item-1"}, nil).Once()
	env.mailer.On("Notify", mock.Anything, mock.Anything).Return(true).Once()

	headers := map[string]string{"stripe-signature": "sig"}
	first := env.post(t, "/api/stripe/webhook", []byte(`invoice`), headers)
	second := env.post(t, "/api/stripe/webhook", []byte(`checkout`), headers)

	assert.Equal(t, http.StatusOK, first.Code, first.Body.String())
	assert.Equal(t, http.StatusOK, second.Code, second.Body.String())
	assert.JSONEq(t, `{"message":"Received","received":true}`, second.Body.String())
	env.products.AssertNumberOfCalls(t, "CreateRecord", 1)
	env.cms.AssertNumberOfCalls(t, "CreateItem", 1)
	env.mailer.AssertNumberOfCalls(t, "Notify", 1)
	env.membership.AssertNotCalled(t, "CreateRecord", mock.Anything, mock.Anything, mock.Anything)
	env.gateway.AssertExpectations(t)
}

func TestE2E_WebhookBadSignature(t *testing.T) {
	env := createTestEnv(t)

	rec := env.post(t, "/api/stripe/webhook", []byte(`{}`), nil)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp["message"], "Webhook Error")
	env.gateway.AssertNotCalled(t, "ConstructEvent", mock.Anything, mock.Anything)
}

func TestE2E_ConfirmSubscriptionMemberNotFound(t *testing.T) {
	env := createTestEnv(t)

	env.cms.On("FindItem", mock.Anything, "col-members", "member-id", "M404").Return(nil, nil).Once()

	rec := env.post(t, "/api/stripe/confirm-subscription", []byte(`{"fields":{"Member ID":"M404"}}`), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "No Webflow item found with matching Member ID", resp["message"])
}

func TestE2E_UnknownRoute(t *testing.T) {
	env := createTestEnv(t)

	rec := env.post(t, "/api/nope", []byte(`{}`), nil)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
