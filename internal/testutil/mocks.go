// Package testutil holds testify mocks shared by the handler tests.
package testutil

import (
	"context"

	"github.com/stretchr/testify/mock"

	"biaw-integrations/internal/common/airtable"
	"biaw-integrations/internal/common/email"
	"biaw-integrations/internal/common/payments"
	"biaw-integrations/internal/common/webflow"
)

// MockRecordStore mocks the Airtable client.
type MockRecordStore struct {
	mock.Mock
}

func (m *MockRecordStore) FindRecord(ctx context.Context, table, formula string) (*airtable.Record, error) {
	args := m.Called(ctx, table, formula)
	record, _ := args.Get(0).(*airtable.Record)
	return record, args.Error(1)
}

func (m *MockRecordStore) CreateRecord(ctx context.Context, table string, fields airtable.Fields) (*airtable.Record, error) {
	args := m.Called(ctx, table, fields)
	record, _ := args.Get(0).(*airtable.Record)
	return record, args.Error(1)
}

func (m *MockRecordStore) CreateRecords(ctx context.Context, table string, rows []airtable.Fields) ([]airtable.Record, error) {
	args := m.Called(ctx, table, rows)
	records, _ := args.Get(0).([]airtable.Record)
	return records, args.Error(1)
}

func (m *MockRecordStore) UpdateRecord(ctx context.Context, table, id string, fields airtable.Fields) (*airtable.Record, error) {
	args := m.Called(ctx, table, id, fields)
	record, _ := args.Get(0).(*airtable.Record)
	return record, args.Error(1)
}

// MockCMS mocks the Webflow client.
type MockCMS struct {
	mock.Mock
}

func (m *MockCMS) ListItems(ctx context.Context, collectionID string) ([]webflow.Item, error) {
	args := m.Called(ctx, collectionID)
	items, _ := args.Get(0).([]webflow.Item)
	return items, args.Error(1)
}

func (m *MockCMS) FindItem(ctx context.Context, collectionID, field, value string) (*webflow.Item, error) {
	args := m.Called(ctx, collectionID, field, value)
	item, _ := args.Get(0).(*webflow.Item)
	return item, args.Error(1)
}

func (m *MockCMS) CreateItem(ctx context.Context, collectionID string, fields webflow.FieldData, live bool) (*webflow.Item, error) {
	args := m.Called(ctx, collectionID, fields, live)
	item, _ := args.Get(0).(*webflow.Item)
	return item, args.Error(1)
}

func (m *MockCMS) UpdateItem(ctx context.Context, collectionID, itemID string, fields webflow.FieldData, live bool) (*webflow.Item, error) {
	args := m.Called(ctx, collectionID, itemID, fields, live)
	item, _ := args.Get(0).(*webflow.Item)
	return item, args.Error(1)
}

func (m *MockCMS) GetCollection(ctx context.Context, collectionID string) (*webflow.Collection, error) {
	args := m.Called(ctx, collectionID)
	collection, _ := args.Get(0).(*webflow.Collection)
	return collection, args.Error(1)
}

// MockGateway mocks the Stripe client.
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) ConstructEvent(payload []byte, signature string) (*payments.Event, error) {
	args := m.Called(payload, signature)
	event, _ := args.Get(0).(*payments.Event)
	return event, args.Error(1)
}

func (m *MockGateway) CreateCheckoutSession(ctx context.Context, req *payments.CheckoutRequest) (*payments.CheckoutSession, error) {
	args := m.Called(ctx, req)
	session, _ := args.Get(0).(*payments.CheckoutSession)
	return session, args.Error(1)
}

func (m *MockGateway) GetSubscription(ctx context.Context, id string) (*payments.Subscription, error) {
	args := m.Called(ctx, id)
	sub, _ := args.Get(0).(*payments.Subscription)
	return sub, args.Error(1)
}

func (m *MockGateway) CancelAtPeriodEnd(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGateway) GetInvoice(ctx context.Context, id string) (*payments.Invoice, error) {
	args := m.Called(ctx, id)
	inv, _ := args.Get(0).(*payments.Invoice)
	return inv, args.Error(1)
}

func (m *MockGateway) ClientReferenceForSubscription(ctx context.Context, subscriptionID string) (string, error) {
	args := m.Called(ctx, subscriptionID)
	return args.String(0), args.Error(1)
}

// MockMailer mocks the email notifier.
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) Deliver(ctx context.Context, msg email.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockMailer) Notify(ctx context.Context, msg email.Message) bool {
	args := m.Called(ctx, msg)
	return args.Bool(0)
}

func (m *MockMailer) Alert(ctx context.Context, subject, body string) {
	m.Called(ctx, subject, body)
}

// MessageTo matches an email.Message by recipient and subject.
func MessageTo(to, subject string) interface{} {
	return mock.MatchedBy(func(msg email.Message) bool {
		return msg.To == to && msg.Subject == subject
	})
}
