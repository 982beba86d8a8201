package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/zatekoja/Radiologyorderplatformdesign/backend"

// Metrics holds all application metrics
type Metrics struct {
	OrderTransitions metric.Int64Counter
	CreditDebits     metric.Int64Counter
	CreditRejections metric.Int64Counter
	WebhookEvents    metric.Int64Counter
}

// Setup initializes OpenTelemetry
func Setup(ctx context.Context, serviceName, serviceVersion, endpoint string) (func(context.Context) error, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace exporter
	traceExporter, err := otlptracegrpc.New(ctx,
		otlptracegrpc.WithEndpoint(endpoint),
		otlptracegrpc.WithInsecure(),
	)
	if err != nil {
		return nil, err
	}

	// Set up trace provider
	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(traceExporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	shutdown := func(ctx context.Context) error {
		return tracerProvider.Shutdown(ctx)
	}

	return shutdown, nil
}

// InitMetrics initializes application metrics
func InitMetrics() (*Metrics, error) {
	meter := otel.Meter(instrumentationName)

	orderTransitions, err := meter.Int64Counter(
		"orders.transition.count",
		metric.WithDescription("Number of order status transitions"),
	)
	if err != nil {
		return nil, err
	}

	creditDebits, err := meter.Int64Counter(
		"credits.debit.count",
		metric.WithDescription("Number of successful credit debits"),
	)
	if err != nil {
		return nil, err
	}

	creditRejections, err := meter.Int64Counter(
		"credits.rejection.count",
		metric.WithDescription("Number of debits rejected for insufficient credit"),
	)
	if err != nil {
		return nil, err
	}

	webhookEvents, err := meter.Int64Counter(
		"billing.webhook.count",
		metric.WithDescription("Number of billing webhook events processed"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		OrderTransitions: orderTransitions,
		CreditDebits:     creditDebits,
		CreditRejections: creditRejections,
		WebhookEvents:    webhookEvents,
	}, nil
}

// StartSpan starts a new trace span
func StartSpan(ctx context.Context, spanName string) (context.Context, trace.Span) {
	tracer := otel.Tracer(instrumentationName)
	return tracer.Start(ctx, spanName)
}

// RecordError records an error in the current span
func RecordError(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
	}
}

// SetSpanAttributes sets attributes on a span
func SetSpanAttributes(span trace.Span, attrs ...attribute.KeyValue) {
	span.SetAttributes(attrs...)
}
