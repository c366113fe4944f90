// internal/handlers/payments/create-checkout/handler_test.go
package createcheckout

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

	apperrors "biaw-integrations/internal/common/errors"
	"biaw-integrations/internal/common/logger"
	"biaw-integrations/internal/common/payments"
	"biaw-integrations/internal/testutil"
)

func createTestConfig() *Config {
	return &Config{
		MemberPriceID:           "price_member",
		NonMemberPriceID:        "price_non_member",
		ProductOneTimePriceID:   "price_once",
		ProductRecurringPriceID: "price_yearly",
		SuccessURL:              "https://biaw-stage-api.webflow.io/thank-you",
		CancelURL:               "https://biaw-stage-api.webflow.io/payment-declined",
		MaxBodyBytes:            1 << 20,
	}
}

func createTestHandler(t *testing.T) (*Handler, *testutil.MockGateway) {
	gateway := new(testutil.MockGateway)
	h := NewHandler(HandlerOptions{
		Config:  createTestConfig(),
		Gateway: gateway,
		Logger:  logger.NewTestLogger(t),
	})
	return h, gateway
}

func session() *payments.CheckoutSession {
	return &payments.CheckoutSession{ID: "cs_1", URL: "https://checkout.stripe.com/c/cs_1"}
}

// ==========================================
// Membership
// ==========================================

func TestHandler_Membership_PriceSelection(t *testing.T) {
	tests := []struct {
		name      string
		input     Input
		wantPrice string
		wantRef   string
		wantMeta  map[string]string
	}{
		{
			name:      "member",
			input:     Input{MemberID: "M123", IsMember: true},
			wantPrice: "price_member",
			wantRef:   "M123",
			wantMeta:  map[string]string{"isMember": "true", "memberId": "M123"},
		},
		{
			name:      "anonymous non-member",
			input:     Input{},
			wantPrice: "price_non_member",
			wantRef:   "",
			wantMeta:  map[string]string{"isMember": "false", "memberId": "non-member"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, gateway := createTestHandler(t)

			var got *payments.CheckoutRequest
			gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).
				Run(func(args mock.Arguments) { got = args.Get(1).(*payments.CheckoutRequest) }).
				Return(session(), nil).Once()

			out, err := h.Membership(context.Background(), &tt.input)

			require.NoError(t, err)
			assert.Equal(t, "https://checkout.stripe.com/c/cs_1", out.URL)
			require.NotNil(t, got)
			assert.Equal(t, payments.ModeSubscription, got.Mode)
			assert.Equal(t, []payments.LineItem{{PriceID: tt.wantPrice, Quantity: 1}}, got.LineItems)
			assert.Equal(t, tt.wantRef, got.ClientReferenceID)
			assert.Equal(t, tt.wantMeta, got.Metadata)
			require.NotNil(t, got.AllowPromotionCodes)
			assert.False(t, *got.AllowPromotionCodes)
		})
	}
}

func TestHandler_Membership_GatewayFailure(t *testing.T) {
	h, gateway := createTestHandler(t)

	gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errors.New("card_declined")).Once()

	_, err := h.Membership(context.Background(), &Input{MemberID: "M1"})

	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, apperrors.HTTPStatus(err))
}

// ==========================================
// Product
// ==========================================

func TestHandler_Product_BothPrices(t *testing.T) {
	h, gateway := createTestHandler(t)

	gateway.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req *payments.CheckoutRequest) bool {
		return len(req.LineItems) == 2 &&
			req.LineItems[0].PriceID == "price_once" &&
			req.LineItems[1].PriceID == "price_yearly" &&
			assert.ObjectsAreEqual([]string{"card"}, req.PaymentMethodTypes) &&
			req.ClientReferenceID == "" &&
			req.AllowPromotionCodes == nil
	})).Return(session(), nil).Once()

	out, err := h.Product(context.Background(), &Input{MemberID: "   "})

	require.NoError(t, err)
	assert.Equal(t, "cs_1", out.SessionID)
	gateway.AssertExpectations(t)
}

func TestHandler_HandleProduct_Failure(t *testing.T) {
	h, gateway := createTestHandler(t)

	gateway.On("CreateCheckoutSession", mock.Anything, mock.Anything).Return(nil, errors.New("no such price")).Once()

	req := httptest.NewRequest(http.MethodPost, ProductRoute, bytes.NewReader([]byte(`{"memberId":"M1","isMember":"true"}`)))
	rec := httptest.NewRecorder()

	h.HandleProduct(rec, req)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "Failed to create checkout session", resp["message"])
	assert.NotEmpty(t, resp["error"])
}

func TestHandler_HandleMembership_OK(t *testing.T) {
	h, gateway := createTestHandler(t)

	gateway.On("CreateCheckoutSession", mock.Anything, mock.MatchedBy(func(req *payments.CheckoutRequest) bool {
		return req.LineItems[0].PriceID == "price_member"
	})).Return(session(), nil).Once()

	req := httptest.NewRequest(http.MethodPost, MembershipRoute, bytes.NewReader([]byte(`{"memberId":"M1","isMember":true}`)))
	rec := httptest.NewRecorder()

	h.HandleMembership(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "https://checkout.stripe.com/c/cs_1", resp["url"])
}

func TestFlexBool(t *testing.T) {
	tests := []struct {
		raw  string
		want bool
	}{
		{`true`, true},
		{`false`, false},
		{`"true"`, true},
		{`"false"`, false},
		{`1`, true},
		{`null`, false},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var b FlexBool
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &b))
			assert.Equal(t, tt.want, bool(b))
		})
	}
}
