// Package observability wires OpenTelemetry tracing and metrics for the
// webhook dispatch pipeline.
package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "dingrobot"

// Config controls telemetry behavior. The zero value disables everything.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	TracingEnabled bool
	SampleRate     float64
	Enabled        bool
}

// Telemetry records spans and metrics for webhook deliveries.
type Telemetry struct {
	config        *Config
	tracer        trace.Tracer
	meter         metric.Meter
	traceProvider *sdktrace.TracerProvider

	messagesSent   metric.Int64Counter
	messagesFailed metric.Int64Counter
	retryAttempts  metric.Int64Counter
	sendDuration   metric.Float64Histogram
}

// New creates a Telemetry instance. When cfg is nil or disabled, a no-op
// instance backed by the global (by default no-op) providers is returned.
func New(cfg *Config) (*Telemetry, error) {
	if cfg == nil {
		cfg = &Config{
			ServiceName:    "dingrobot",
			ServiceVersion: "0.1.0",
			Environment:    "development",
			OTLPEndpoint:   "localhost:4318",
			TracingEnabled: true,
			SampleRate:     1.0,
			Enabled:        false,
		}
	}

	t := &Telemetry{
		config: cfg,
		tracer: otel.Tracer(instrumentationName),
		meter:  otel.Meter(instrumentationName),
	}

	if !cfg.Enabled {
		return t, nil
	}

	if cfg.TracingEnabled {
		if err := t.initTracing(); err != nil {
			return nil, fmt.Errorf("init tracing: %w", err)
		}
	}
	if err := t.initMetrics(); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	return t, nil
}

// initTracing sets up the OTLP HTTP exporter and installs the trace provider.
func (t *Telemetry) initTracing() error {
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceName(t.config.ServiceName),
			semconv.ServiceVersion(t.config.ServiceVersion),
			semconv.DeploymentEnvironment(t.config.Environment),
		),
	)
	if err != nil {
		return fmt.Errorf("create resource: %w", err)
	}

	exporter, err := otlptrace.New(context.Background(),
		otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(t.config.OTLPEndpoint),
		),
	)
	if err != nil {
		return fmt.Errorf("create exporter: %w", err)
	}

	t.traceProvider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.TraceIDRatioBased(t.config.SampleRate)),
	)

	otel.SetTracerProvider(t.traceProvider)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	t.tracer = otel.Tracer(instrumentationName,
		trace.WithSchemaURL(semconv.SchemaURL),
	)

	return nil
}

// initMetrics creates the delivery instruments on the global meter.
func (t *Telemetry) initMetrics() error {
	var err error

	t.messagesSent, err = t.meter.Int64Counter(
		"dingrobot_messages_sent_total",
		metric.WithDescription("Total number of webhook messages delivered"),
	)
	if err != nil {
		return fmt.Errorf("create messages_sent counter: %w", err)
	}

	t.messagesFailed, err = t.meter.Int64Counter(
		"dingrobot_messages_failed_total",
		metric.WithDescription("Total number of webhook messages that failed"),
	)
	if err != nil {
		return fmt.Errorf("create messages_failed counter: %w", err)
	}

	t.retryAttempts, err = t.meter.Int64Counter(
		"dingrobot_retry_attempts_total",
		metric.WithDescription("Total number of delivery retry attempts"),
	)
	if err != nil {
		return fmt.Errorf("create retry_attempts counter: %w", err)
	}

	t.sendDuration, err = t.meter.Float64Histogram(
		"dingrobot_send_duration_seconds",
		metric.WithDescription("Duration of webhook send operations"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return fmt.Errorf("create send_duration histogram: %w", err)
	}

	return nil
}

// StartSend opens a span covering one full send call including retries.
func (t *Telemetry) StartSend(ctx context.Context, msgType string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "dingrobot.send",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attribute.String("dingtalk.msgtype", msgType)),
	)
}

// RecordSend records the outcome of one send call and closes its span.
func (t *Telemetry) RecordSend(ctx context.Context, span trace.Span, msgType string, duration time.Duration, err error) {
	attrs := metric.WithAttributes(attribute.String("msgtype", msgType))
	if err != nil {
		if t.messagesFailed != nil {
			t.messagesFailed.Add(ctx, 1, attrs)
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		if t.messagesSent != nil {
			t.messagesSent.Add(ctx, 1, attrs)
		}
		span.SetStatus(codes.Ok, "")
	}
	if t.sendDuration != nil {
		t.sendDuration.Record(ctx, duration.Seconds(), attrs)
	}
	span.End()
}

// RecordRetry records one retry attempt inside a send call.
func (t *Telemetry) RecordRetry(ctx context.Context, attempt int) {
	if t.retryAttempts != nil {
		t.retryAttempts.Add(ctx, 1)
	}
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.AddEvent("retry", trace.WithAttributes(attribute.Int("attempt", attempt)))
	}
}

// Shutdown flushes and stops the trace provider.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	if t.traceProvider == nil {
		return nil
	}
	return t.traceProvider.Shutdown(ctx)
}
