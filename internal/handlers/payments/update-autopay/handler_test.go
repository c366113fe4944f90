// internal/handlers/payments/update-autopay/handler_test.go
package updateautopay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"biaw-integrations/internal/common/airtable"
	"biaw-integrations/internal/common/config"
	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/payments"
	"biaw-integrations/internal/common/webflow"
	"biaw-integrations/internal/testutil"
)

func createTestAppConfig() *config.Config {
	cfg := &config.Config{}
	cfg.Airtable.Membership.PaymentsTable = "Payments"
	cfg.Airtable.Product.SubscriptionsTable = "Subscriptions"
	cfg.Webflow.MembershipCollectionID = "col-members"
	cfg.Webflow.ProductCollectionID = "col-products"
	cfg.Server.MaxBodyBytes = 1 << 20
	return cfg
}

type testDeps struct {
	records *testutil.MockRecordStore
	cms     *testutil.MockCMS
	gateway *testutil.MockGateway
}

func createTestHandler(t *testing.T, cfg *Config) (*Handler, *testDeps) {
	deps := &testDeps{
		records: new(testutil.MockRecordStore),
		cms:     new(testutil.MockCMS),
		gateway: new(testutil.MockGateway),
	}
	h := NewHandler(HandlerOptions{
		Config:  cfg,
		Records: deps.records,
		CMS:     deps.cms,
		Gateway: deps.gateway,
		Logger:  logger.NewTestLogger(t),
	})
	return h, deps
}

func membershipHandler(t *testing.T) (*Handler, *testDeps) {
	return createTestHandler(t, LoadMembershipConfig(createTestAppConfig()))
}

func productHandler(t *testing.T) (*Handler, *testDeps) {
	return createTestHandler(t, LoadProductConfig(createTestAppConfig()))
}

func row(subscriptionID string) *airtable.Record {
	fields := airtable.Fields{}
	if subscriptionID != "" {
		fields["Subscription ID"] = subscriptionID
	}
	return &airtable.Record{ID: "recRow1", Fields: fields}
}

// ==========================================
// Membership line
// ==========================================

func TestHandler_Membership_DisableCancelsBeforeUpdating(t *testing.T) {
	h, deps := membershipHandler(t)

	var calls []string
	deps.records.On("FindRecord", mock.Anything, "Payments", airtable.Eq("Member ID", "M123")).Return(row("sub_1"), nil).Once()
	deps.gateway.On("CancelAtPeriodEnd", mock.Anything, "sub_1").
		Run(func(mock.Arguments) { calls = append(calls, "cancel") }).Return(nil).Once()
	deps.records.On("UpdateRecord", mock.Anything, "Payments", "recRow1", airtable.Fields{"Auto Dedection": "Inactive"}).
		Run(func(mock.Arguments) { calls = append(calls, "table") }).Return(row("sub_1"), nil).Once()
	deps.cms.On("FindItem", mock.Anything, "col-members", "member-id", "M123").Return(&webflow.Item{ID: "item1"}, nil).Once()
	deps.cms.On("UpdateItem", mock.Anything, "col-members", "item1", webflow.FieldData{"auto-deduction-status": "In-active"}, true).
		Run(func(mock.Arguments) { calls = append(calls, "cms") }).Return(&webflow.Item{ID: "item1"}, nil).Once()

	out, err := h.Execute(context.Background(), Input{AutopayDisabled: true, MemberID: "M123"})

	require.NoError(t, err)
	assert.Equal(t, []string{"cancel", "table", "cms"}, calls)
	assert.Equal(t, "Autopay status updated successfully", out.Message)
	assert.True(t, out.AutopayDisabled)
	assert.True(t, out.SubscriptionCancelled)
	assert.True(t, out.RecordUpdated)
	assert.True(t, out.ItemUpdated)
	deps.gateway.AssertNotCalled(t, "GetSubscription", mock.Anything, mock.Anything)
}

func TestHandler_Membership_NoSubscriptionSkipsGateway(t *testing.T) {
	h, deps := membershipHandler(t)

	deps.records.On("FindRecord", mock.Anything, "Payments", mock.Anything).Return(row(""), nil).Once()
	deps.records.On("UpdateRecord", mock.Anything, "Payments", "recRow1", airtable.Fields{"Auto Dedection": "Inactive"}).Return(row(""), nil).Once()
	deps.cms.On("FindItem", mock.Anything, "col-members", "member-id", "M123").Return(&webflow.Item{ID: "item1"}, nil).Once()
	deps.cms.On("UpdateItem", mock.Anything, "col-members", "item1", mock.Anything, true).Return(&webflow.Item{ID: "item1"}, nil).Once()

	_, err := h.Execute(context.Background(), Input{AutopayDisabled: true, MemberID: "M123"})

	require.NoError(t, err)
	deps.gateway.AssertNotCalled(t, "CancelAtPeriodEnd", mock.Anything, mock.Anything)
}

func TestHandler_Membership_EnableWritesActive(t *testing.T) {
	h, deps := membershipHandler(t)

	deps.records.On("FindRecord", mock.Anything, "Payments", mock.Anything).Return(row("sub_1"), nil).Once()
	deps.records.On("UpdateRecord", mock.Anything, "Payments", "recRow1", airtable.Fields{"Auto Dedection": "Active"}).Return(row("sub_1"), nil).Once()
	deps.cms.On("FindItem", mock.Anything, "col-members", "member-id", "M123").Return(&webflow.Item{ID: "item1"}, nil).Once()
	deps.cms.On("UpdateItem", mock.Anything, "col-members", "item1", webflow.FieldData{"auto-deduction-status": "Active"}, true).
		Return(&webflow.Item{ID: "item1"}, nil).Once()

	_, err := h.Execute(context.Background(), Input{AutopayDisabled: false, MemberID: "M123"})

	require.NoError(t, err)
	deps.gateway.AssertNotCalled(t, "CancelAtPeriodEnd", mock.Anything, mock.Anything)
	deps.records.AssertExpectations(t)
	deps.cms.AssertExpectations(t)
}

func TestHandler_Membership_GatewayErrorAborts(t *testing.T) {
	h, deps := membershipHandler(t)

	deps.records.On("FindRecord", mock.Anything, "Payments", mock.Anything).Return(row("sub_1"), nil).Once()
	deps.gateway.On("CancelAtPeriodEnd", mock.Anything, "sub_1").Return(errors.New("No such subscription")).Once()

	_, err := h.Execute(context.Background(), Input{AutopayDisabled: true, MemberID: "M123"})

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(err))
	deps.records.AssertNotCalled(t, "UpdateRecord", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	deps.cms.AssertNotCalled(t, "FindItem", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandler_Membership_MissingRowAndItemOnlyWarn(t *testing.T) {
	h, deps := membershipHandler(t)

	deps.records.On("FindRecord", mock.Anything, "Payments", mock.Anything).Return(nil, nil).Once()
	deps.cms.On("FindItem", mock.Anything, "col-members", "member-id", "M404").Return(nil, nil).Once()

	out, err := h.Execute(context.Background(), Input{AutopayDisabled: true, MemberID: "M404"})

	require.NoError(t, err)
	assert.False(t, out.RecordUpdated)
	assert.False(t, out.ItemUpdated)
}

func TestHandler_Membership_CMSFailureSurfaces(t *testing.T) {
	h, deps := membershipHandler(t)

	deps.records.On("FindRecord", mock.Anything, "Payments", mock.Anything).Return(row(""), nil).Once()
	deps.records.On("UpdateRecord", mock.Anything, "Payments", "recRow1", mock.Anything).Return(row(""), nil).Once()
	deps.cms.On("FindItem", mock.Anything, "col-members", "member-id", "M123").Return(nil, errors.New("rate limited")).Once()

	_, err := h.Execute(context.Background(), Input{MemberID: "M123"})

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(err))
	deps.records.AssertExpectations(t)
}

func TestHandler_MissingMemberID(t *testing.T) {
	h, deps := membershipHandler(t)

	_, err := h.Execute(context.Background(), Input{AutopayDisabled: true, MemberID: "  "})

	require.Error(t, err)
	assert.Equal(t, http.StatusBadRequest, apperrors.HTTPStatus(err))
	deps.records.AssertNotCalled(t, "FindRecord", mock.Anything, mock.Anything, mock.Anything)
}

// ==========================================
// Product line
// ==========================================

func TestHandler_Product_DisableCancels(t *testing.T) {
	h, deps := productHandler(t)

	deps.records.On("FindRecord", mock.Anything, "Subscriptions", airtable.Eq("Member", "M123")).Return(row("sub_p"), nil).Once()
	deps.gateway.On("GetSubscription", mock.Anything, "sub_p").Return(&payments.Subscription{ID: "sub_p", Status: "active"}, nil).Once()
	deps.gateway.On("CancelAtPeriodEnd", mock.Anything, "sub_p").Return(nil).Once()
	deps.records.On("UpdateRecord", mock.Anything, "Subscriptions", "recRow1",
		airtable.Fields{"Subscription autopayment status": "Inactive"}).Return(row("sub_p"), nil).Once()
	deps.cms.On("FindItem", mock.Anything, "col-products", "member-id", "M123").Return(&webflow.Item{ID: "item-p"}, nil).Once()
	deps.cms.On("UpdateItem", mock.Anything, "col-products", "item-p", webflow.FieldData{"subscription-status": "In-active"}, true).
		Return(&webflow.Item{ID: "item-p"}, nil).Once()

	out, err := h.Execute(context.Background(), Input{AutopayDisabled: true, MemberID: "M123"})

	require.NoError(t, err)
	assert.Equal(t, "Product subscription status updated successfully", out.Message)
	assert.True(t, out.SubscriptionCancelled)
	deps.gateway.AssertExpectations(t)
	deps.cms.AssertExpectations(t)
}

func TestHandler_Product_ExpiredSubscriptionSkipsCancel(t *testing.T) {
	h, deps := productHandler(t)

	deps.records.On("FindRecord", mock.Anything, "Subscriptions", mock.Anything).Return(row("sub_p"), nil).Once()
	deps.gateway.On("GetSubscription", mock.Anything, "sub_p").Return(&payments.Subscription{ID: "sub_p", Status: "incomplete_expired"}, nil).Once()
	deps.records.On("UpdateRecord", mock.Anything, "Subscriptions", "recRow1", mock.Anything).Return(row("sub_p"), nil).Once()
	deps.cms.On("FindItem", mock.Anything, "col-products", "member-id", "M123").Return(nil, nil).Once()

	out, err := h.Execute(context.Background(), Input{AutopayDisabled: true, MemberID: "M123"})

	require.NoError(t, err)
	assert.False(t, out.SubscriptionCancelled)
	assert.True(t, out.RecordUpdated)
	deps.gateway.AssertNotCalled(t, "CancelAtPeriodEnd", mock.Anything, mock.Anything)
}

func TestHandler_Product_GatewayErrorTolerated(t *testing.T) {
	h, deps := productHandler(t)

	deps.records.On("FindRecord", mock.Anything, "Subscriptions", mock.Anything).Return(row("sub_p"), nil).Once()
	deps.gateway.On("GetSubscription", mock.Anything, "sub_p").Return(nil, errors.New("resource_missing")).Once()
	deps.records.On("UpdateRecord", mock.Anything, "Subscriptions", "recRow1", mock.Anything).Return(row("sub_p"), nil).Once()
	deps.cms.On("FindItem", mock.Anything, "col-products", "member-id", "M123").Return(&webflow.Item{ID: "item-p"}, nil).Once()
	deps.cms.On("UpdateItem", mock.Anything, "col-products", "item-p", mock.Anything, true).Return(&webflow.Item{ID: "item-p"}, nil).Once()

	out, err := h.Execute(context.Background(), Input{AutopayDisabled: true, MemberID: "M123"})

	require.NoError(t, err)
	assert.False(t, out.SubscriptionCancelled)
	assert.True(t, out.ItemUpdated)
}

// ==========================================
// HTTP adapter
// ==========================================

func TestHandler_Handle_FailureMessage(t *testing.T) {
	h, deps := productHandler(t)

	deps.records.On("FindRecord", mock.Anything, "Subscriptions", mock.Anything).Return(nil, errors.New("NOT_AUTHORIZED")).Once()

	req := httptest.NewRequest(http.MethodPost, ProductRoute, bytes.NewReader([]byte(`{"memberId":"M123","autopayDisabled":true}`)))
	rec := httptest.NewRecorder()

	h.Handle(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to update product subscription status", resp["message"])
}

func TestHandler_Handle_MissingMemberID(t *testing.T) {
	h, _ := membershipHandler(t)

	req := httptest.NewRequest(http.MethodPost, MembershipRoute, bytes.NewReader([]byte(`{"autopayDisabled":true}`)))
	rec := httptest.NewRecorder()

	h.Handle(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Member ID is required", resp["message"])
}
