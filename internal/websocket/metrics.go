package websocket

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"

	"salespulse/internal/infrastructure"
)

// Metrics are the OpenTelemetry instruments recorded by the hub
type Metrics struct {
	connections        metric.Int64Counter
	activeConnections  metric.Int64UpDownCounter
	connectionDuration metric.Float64Histogram
	messagesSent       metric.Int64Counter
	messagesDropped    metric.Int64Counter
}

// NewMetrics registers the hub instruments on meter. A nil meter yields
// no-op instruments.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	if meter == nil {
		meter = noop.NewMeterProvider().Meter(infrastructure.MeterName)
	}

	connections, err := meter.Int64Counter(
		"websocket_connections_total",
		metric.WithDescription("Total number of websocket connections"),
	)
	if err != nil {
		return nil, err
	}

	active, err := meter.Int64UpDownCounter(
		"websocket_connections_active",
		metric.WithDescription("Currently connected websocket clients"),
	)
	if err != nil {
		return nil, err
	}

	duration, err := meter.Float64Histogram(
		"websocket_connection_duration_seconds",
		metric.WithDescription("Websocket connection lifetime in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	sent, err := meter.Int64Counter(
		"websocket_messages_sent_total",
		metric.WithDescription("Messages delivered to client send queues"),
	)
	if err != nil {
		return nil, err
	}

	dropped, err := meter.Int64Counter(
		"websocket_messages_dropped_total",
		metric.WithDescription("Messages dropped because a queue was full"),
	)
	if err != nil {
		return nil, err
	}

	return &Metrics{
		connections:        connections,
		activeConnections:  active,
		connectionDuration: duration,
		messagesSent:       sent,
		messagesDropped:    dropped,
	}, nil
}

func (m *Metrics) recordConnect(ctx context.Context) {
	if m == nil {
		return
	}
	m.connections.Add(ctx, 1)
	m.activeConnections.Add(ctx, 1)
}

func (m *Metrics) recordDisconnect(ctx context.Context, lifetime time.Duration) {
	if m == nil {
		return
	}
	m.activeConnections.Add(ctx, -1)
	m.connectionDuration.Record(ctx, lifetime.Seconds())
}

func (m *Metrics) recordSent(ctx context.Context, eventType string, n int) {
	if m == nil || n == 0 {
		return
	}
	m.messagesSent.Add(ctx, int64(n), metric.WithAttributes(attribute.String("type", eventType)))
}

func (m *Metrics) recordDropped(ctx context.Context, reason string) {
	if m == nil {
		return
	}
	m.messagesDropped.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
