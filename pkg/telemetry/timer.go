package telemetry

import (
	"context"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Timer is a function to record a duration. Calling it starts the timer,
// calling the returned function will record the duration in seconds.
func Timer(
	ctx context.Context,
	clk clock.Clock,
	durationRecorder metric.Float64Histogram,
	attrs ...attribute.KeyValue,
) func() time.Duration {
	start := clk.Now()
	return func() time.Duration {
		dur := clk.Since(start)
		durationRecorder.Record(ctx, dur.Seconds(), metric.WithAttributes(attrs...))
		return dur
	}
}
