package resilience

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/civicair/civicair/internal/provider/resilience"

// providerMetrics records the outcome of outbound provider calls. Shared by
// all clients; instruments are distinguished by the provider.name attribute.
type providerMetrics struct {
	requestDuration metric.Float64Histogram
	requestTotal    metric.Int64Counter
}

var (
	metricsOnce   sync.Once
	sharedMetrics *providerMetrics
)

// getProviderMetrics lazily creates the shared instruments. Instrument
// creation errors leave the field nil and recording becomes a no-op.
func getProviderMetrics() *providerMetrics {
	metricsOnce.Do(func() {
		meter := otel.Meter(meterName)

		requestDuration, err := meter.Float64Histogram(
			"provider.request.duration",
			metric.WithDescription("Duration of provider requests in seconds"),
			metric.WithUnit("s"),
		)
		if err != nil {
			return
		}

		requestTotal, err := meter.Int64Counter(
			"provider.request.total",
			metric.WithDescription("Total number of provider requests"),
			metric.WithUnit("{request}"),
		)
		if err != nil {
			return
		}

		sharedMetrics = &providerMetrics{
			requestDuration: requestDuration,
			requestTotal:    requestTotal,
		}
	})
	return sharedMetrics
}

// recordRequest records one provider call's duration and outcome.
func (m *providerMetrics) recordRequest(provider string, duration time.Duration, err error) {
	if m == nil {
		return
	}

	attrs := []attribute.KeyValue{
		attribute.String("provider.name", provider),
	}
	if err != nil {
		attrs = append(attrs, attribute.Bool("error", true))
	}

	// Background context so a cancelled request still gets counted.
	ctx := context.Background()
	m.requestDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(attrs...))
	m.requestTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
}
