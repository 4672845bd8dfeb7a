package calculator

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Metric instruments, initialized once via InitMetrics().
var (
	opsCounter   metric.Int64Counter
	opsHistogram metric.Float64Histogram
	errorCounter metric.Int64Counter
	keysCounter  metric.Int64Counter
	resultGauge  metric.Float64Gauge
)

// sessionsActive is scraped from /metrics.
var sessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "countonme",
	Name:      "sessions_active",
	Help:      "Number of live calculator keypad sessions.",
})

// InitMetrics registers custom OTel metric instruments for the calculator domain.
// Call this once at startup (after the meter provider is installed).
func InitMetrics() error {
	meter := otel.Meter("calculator")

	var err error

	opsCounter, err = meter.Int64Counter("calculator.operations.total",
		metric.WithDescription("Total number of calculator operations performed"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return fmt.Errorf("creating ops counter: %w", err)
	}

	opsHistogram, err = meter.Float64Histogram("calculator.operation.duration",
		metric.WithDescription("Duration of calculator operations in milliseconds"),
		metric.WithUnit("ms"),
		metric.WithExplicitBucketBoundaries(0.01, 0.05, 0.1, 0.5, 1, 5, 10),
	)
	if err != nil {
		return fmt.Errorf("creating ops histogram: %w", err)
	}

	errorCounter, err = meter.Int64Counter("calculator.errors.total",
		metric.WithDescription("Total number of rejected calculator inputs and failed requests"),
		metric.WithUnit("{error}"),
	)
	if err != nil {
		return fmt.Errorf("creating error counter: %w", err)
	}

	keysCounter, err = meter.Int64Counter("calculator.keys.total",
		metric.WithDescription("Total number of keys replayed by the evaluate endpoint"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return fmt.Errorf("creating keys counter: %w", err)
	}

	resultGauge, err = meter.Float64Gauge("calculator.last_result",
		metric.WithDescription("The result of the last calculated expression"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return fmt.Errorf("creating result gauge: %w", err)
	}

	return nil
}
