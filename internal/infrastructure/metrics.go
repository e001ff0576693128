package infrastructure

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// Remote exchange actions
const (
	ActionActivation = "activation"
	ActionSubmission = "submission"
)

// ExchangeMetrics counts remote exchange outcomes and their latency
type ExchangeMetrics struct {
	Requests        metric.Int64Counter
	RequestDuration metric.Float64Histogram
	InFlight        metric.Int64UpDownCounter
}

// NewExchangeMetrics creates the remote exchange instruments on meter
func NewExchangeMetrics(meter metric.Meter) (*ExchangeMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(MeterName)
	}

	requests, err := meter.Int64Counter(
		"taskgate_remote_requests_total",
		metric.WithDescription("Total number of remote exchange requests by action and outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote requests counter: %w", err)
	}

	duration, err := meter.Float64Histogram(
		"taskgate_remote_request_duration_seconds",
		metric.WithDescription("Remote exchange request duration in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote duration histogram: %w", err)
	}

	inFlight, err := meter.Int64UpDownCounter(
		"taskgate_remote_requests_in_flight",
		metric.WithDescription("Number of remote exchange requests awaiting a response"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create in-flight counter: %w", err)
	}

	return &ExchangeMetrics{
		Requests:        requests,
		RequestDuration: duration,
		InFlight:        inFlight,
	}, nil
}

// Begin marks a request of action as in flight and returns the function that records its outcome
func (m *ExchangeMetrics) Begin(ctx context.Context, action string) func(outcome string) {
	if m == nil {
		return func(string) {}
	}

	start := time.Now()
	actionAttr := attribute.String("action", action)
	m.InFlight.Add(ctx, 1, metric.WithAttributes(actionAttr))

	return func(outcome string) {
		m.InFlight.Add(ctx, -1, metric.WithAttributes(actionAttr))
		attrs := metric.WithAttributes(actionAttr, attribute.String("outcome", outcome))
		m.Requests.Add(ctx, 1, attrs)
		m.RequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	}
}
