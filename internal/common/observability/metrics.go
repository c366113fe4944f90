package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability records webhook event metrics through an OpenTelemetry meter
// exported on the Prometheus registry.
type Observability struct {
	meterProvider  *metric.MeterProvider
	meter          otelmetric.Meter
	eventCounter   otelmetric.Int64Counter
	eventDuration  otelmetric.Float64Histogram
	reconcileWaits otelmetric.Float64Histogram
}

// New builds the meter. A failed exporter yields an Observability that records nothing.
func New(serviceName string) (*Observability, error) {
	exporter, err := prometheus.New()
	if err != nil {
		return NewNoop(), err
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	eventCounter, _ := meter.Int64Counter(
		"webhook.events",
		otelmetric.WithDescription("Number of webhook events processed"),
	)

	eventDuration, _ := meter.Float64Histogram(
		"webhook.duration",
		otelmetric.WithDescription("Webhook event processing duration"),
		otelmetric.WithUnit("ms"),
	)

	reconcileWaits, _ := meter.Float64Histogram(
		"reconciliation.wait",
		otelmetric.WithDescription("Time checkout-completed spent waiting for the invoice-paid path"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider:  provider,
		meter:          meter,
		eventCounter:   eventCounter,
		eventDuration:  eventDuration,
		reconcileWaits: reconcileWaits,
	}, nil
}

// NewNoop returns an Observability whose recorders are no-ops.
func NewNoop() *Observability {
	return &Observability{}
}

func (o *Observability) RecordEvent(ctx context.Context, source, eventType, outcome string, duration time.Duration) {
	if o == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("source", source),
		attribute.String("type", eventType),
		attribute.String("outcome", outcome),
	)
	if o.eventCounter != nil {
		o.eventCounter.Add(ctx, 1, attrs)
	}
	if o.eventDuration != nil {
		o.eventDuration.Record(ctx, float64(duration.Milliseconds()), attrs)
	}
}

func (o *Observability) RecordReconciliationWait(ctx context.Context, waited time.Duration, outcome string) {
	if o == nil || o.reconcileWaits == nil {
		return
	}
	o.reconcileWaits.Record(ctx, float64(waited.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("outcome", outcome),
	))
}

func (o *Observability) Shutdown() {
	if o != nil && o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
