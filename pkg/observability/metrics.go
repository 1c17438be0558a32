package observability

import (
	"context"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
)

var (
	notifyOnce    sync.Once
	notifyCounter metric.Int64Counter
)

// Notification outcomes recorded by RecordNotification.
const (
	NotificationSent    = "sent"
	NotificationFailed  = "failed"
	NotificationSkipped = "skipped"
)

// RecordNotification counts one outbound notification attempt under
// notifications_sent_total{kind,result}. The counter is created lazily
// against the global meter provider.
func RecordNotification(ctx context.Context, kind, result string) {
	notifyOnce.Do(func() {
		notifyCounter, _ = otel.Meter(tracerName).Int64Counter(
			"notifications_sent_total",
			metric.WithDescription("Outbound notifications by kind and result"),
			metric.WithUnit("{notification}"),
		)
	})
	if notifyCounter == nil {
		return
	}
	notifyCounter.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("result", result),
	))
}

// StartSpan starts an internal span on the package tracer.
func StartSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, trace.WithAttributes(attrs...))
}
