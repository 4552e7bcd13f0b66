package instrumentation

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
)

// ScopeName is the instrumentation scope used for meters and tracers.
const ScopeName = "github.com/viant/mcpconnect"

// Outcome values recorded on attempt and callback counters.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeDenied  = "denied"
	OutcomeTimeout = "timeout"
)

// Metrics holds the metric instruments used by the negotiator and the authorization broker.
type Metrics struct {
	NegotiationAttempts  metric.Int64Counter
	NegotiationDuration  metric.Float64Histogram
	AuthorizationStarted metric.Int64Counter
	CallbackProcessed    metric.Int64Counter
}

// New creates metric instruments from the supplied provider. A nil provider uses the global one.
func New(provider metric.MeterProvider) (*Metrics, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(ScopeName)
	m := &Metrics{}
	var err error
	m.NegotiationAttempts, err = meter.Int64Counter(
		"mcp.negotiation.attempts",
		metric.WithDescription("Number of transport connection attempts"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create negotiation.attempts counter: %w", err)
	}
	m.NegotiationDuration, err = meter.Float64Histogram(
		"mcp.negotiation.duration",
		metric.WithDescription("Transport connection attempt duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create negotiation.duration histogram: %w", err)
	}
	m.AuthorizationStarted, err = meter.Int64Counter(
		"oauth.authorization.started",
		metric.WithDescription("Number of interactive authorization flows started"),
		metric.WithUnit("{flow}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create authorization.started counter: %w", err)
	}
	m.CallbackProcessed, err = meter.Int64Counter(
		"oauth.callback.processed",
		metric.WithDescription("Number of authorization redirects processed by the local listener"),
		metric.WithUnit("{callback}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create callback.processed counter: %w", err)
	}
	return m, nil
}

// Default returns instruments bound to the global meter provider, or no-op instruments
// when they cannot be created.
func Default() *Metrics {
	m, err := New(nil)
	if err != nil {
		m, _ = New(noop.NewMeterProvider())
	}
	return m
}

// Tracer returns the package tracer from the global tracer provider.
func Tracer() trace.Tracer {
	return otel.Tracer(ScopeName)
}

// RecordAttempt records a single transport connection attempt.
func (m *Metrics) RecordAttempt(ctx context.Context, transport, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("transport", transport),
		attribute.String("outcome", outcome),
	)
	m.NegotiationAttempts.Add(ctx, 1, attrs)
	m.NegotiationDuration.Record(ctx, float64(elapsed.Microseconds())/1000.0, attrs)
}

// RecordAuthorizationStarted records the start of an interactive authorization.
func (m *Metrics) RecordAuthorizationStarted(ctx context.Context) {
	if m == nil {
		return
	}
	m.AuthorizationStarted.Add(ctx, 1)
}

// RecordCallback records how an authorization redirect was resolved.
func (m *Metrics) RecordCallback(ctx context.Context, outcome string) {
	if m == nil {
		return
	}
	m.CallbackProcessed.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
