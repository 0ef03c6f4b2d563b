package telemetry

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/bacalhau-project/governor"

// Attribute keys shared by governor instruments.
const (
	AttrResourceType = attribute.Key("resource_type")
	AttrProvider     = attribute.Key("provider")
	AttrCode         = attribute.Key("code")
	AttrRule         = attribute.Key("rule")
	AttrLevel        = attribute.Key("level")
)

// Instruments holds the instruments recorded by the governor components.
type Instruments struct {
	AllocationsGranted  *Counter
	AllocationsRejected *Counter
	AllocationsReleased *Counter
	RuleFailures        *Counter
	Recommendations     *Counter
	ThrottleDecisions   *Counter
	AllocateDuration    metric.Float64Histogram
	SampleDuration      metric.Float64Histogram

	meter metric.Meter
}

// NewInstruments creates the governor instruments on the given meter provider.
// A nil provider uses the global one.
func NewInstruments(mp metric.MeterProvider) (*Instruments, error) {
	if mp == nil {
		mp = otel.GetMeterProvider()
	}
	meter := mp.Meter(meterName)
	i := &Instruments{meter: meter}

	var err error
	counters := []struct {
		target      **Counter
		name        string
		description string
	}{
		{&i.AllocationsGranted, "governor_allocations_granted_total", "Number of granted allocations"},
		{&i.AllocationsRejected, "governor_allocations_rejected_total", "Number of rejected allocations"},
		{&i.AllocationsReleased, "governor_allocations_released_total", "Number of released allocations"},
		{&i.RuleFailures, "governor_rule_failures_total", "Number of optimization rules that failed and were skipped"},
		{&i.Recommendations, "governor_recommendations_total", "Number of produced optimization recommendations"},
		{&i.ThrottleDecisions, "governor_throttle_decisions_total", "Number of throttling decisions"},
	}
	for _, c := range counters {
		if *c.target, err = NewCounter(meter, c.name, c.description); err != nil {
			return nil, err
		}
	}

	if i.AllocateDuration, err = meter.Float64Histogram("governor_allocate_duration_seconds",
		metric.WithDescription("Latency of allocation requests"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	if i.SampleDuration, err = meter.Float64Histogram("governor_sample_duration_seconds",
		metric.WithDescription("Latency of host resource sampling"), metric.WithUnit("s")); err != nil {
		return nil, err
	}
	return i, nil
}

// Meter returns the meter the instruments were created on, so components can
// register observable instruments alongside.
func (i *Instruments) Meter() metric.Meter {
	return i.meter
}
