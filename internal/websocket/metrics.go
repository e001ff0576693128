package websocket

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// hubMetrics holds the websocket instruments
type hubMetrics struct {
	connectionsTotal   metric.Int64Counter
	connectionsActive  metric.Int64UpDownCounter
	connectionDuration metric.Float64Histogram
	messagesSent       metric.Int64Counter
	droppedMessages    metric.Int64Counter
}

func newHubMetrics(meter metric.Meter) (*hubMetrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter("taskgate.websocket")
	}

	connectionsTotal, err := meter.Int64Counter(
		"taskgate_websocket_connections_total",
		metric.WithDescription("Total number of WebSocket connections"),
	)
	if err != nil {
		return nil, fmt.Errorf("connections counter: %w", err)
	}

	connectionsActive, err := meter.Int64UpDownCounter(
		"taskgate_websocket_connections_active",
		metric.WithDescription("Number of active WebSocket connections"),
	)
	if err != nil {
		return nil, fmt.Errorf("active connections counter: %w", err)
	}

	connectionDuration, err := meter.Float64Histogram(
		"taskgate_websocket_connection_duration_seconds",
		metric.WithDescription("Duration of WebSocket connections"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("connection duration histogram: %w", err)
	}

	messagesSent, err := meter.Int64Counter(
		"taskgate_websocket_messages_sent_total",
		metric.WithDescription("Total number of messages queued to WebSocket clients"),
	)
	if err != nil {
		return nil, fmt.Errorf("messages counter: %w", err)
	}

	droppedMessages, err := meter.Int64Counter(
		"taskgate_websocket_dropped_messages_total",
		metric.WithDescription("Messages dropped because a client buffer was full or a newer message superseded them"),
	)
	if err != nil {
		return nil, fmt.Errorf("dropped messages counter: %w", err)
	}

	return &hubMetrics{
		connectionsTotal:   connectionsTotal,
		connectionsActive:  connectionsActive,
		connectionDuration: connectionDuration,
		messagesSent:       messagesSent,
		droppedMessages:    droppedMessages,
	}, nil
}

func (m *hubMetrics) connected(ctx context.Context) {
	m.connectionsTotal.Add(ctx, 1)
	m.connectionsActive.Add(ctx, 1)
}

func (m *hubMetrics) disconnected(ctx context.Context, d time.Duration, reason string) {
	m.connectionsActive.Add(ctx, -1)
	m.connectionDuration.Record(ctx, d.Seconds(), metric.WithAttributes(attribute.String("reason", reason)))
}

func (m *hubMetrics) sent(ctx context.Context, n int) {
	m.messagesSent.Add(ctx, int64(n))
}

func (m *hubMetrics) dropped(ctx context.Context, where string) {
	m.droppedMessages.Add(ctx, 1, metric.WithAttributes(attribute.String("buffer", where)))
}
