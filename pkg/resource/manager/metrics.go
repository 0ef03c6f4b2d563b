package manager

import (
	"context"

	"go.opentelemetry.io/otel/metric"

	"github.com/bacalhau-project/governor/pkg/models"
	"github.com/bacalhau-project/governor/pkg/telemetry"
)

// registerGauges exposes the ledger totals and the utilization observed by
// the last monitoring tick as observable gauges.
func (m *Manager) registerGauges() error {
	meter := m.instruments.Meter()
	_, err := meter.Int64ObservableGauge("governor_resource_allocated",
		metric.WithDescription("Amount currently allocated per resource type"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			totals, _ := m.ledger.snapshot()
			for _, t := range models.AllResourceTypes() {
				o.Observe(totals[t], metric.WithAttributes(telemetry.AttrResourceType.String(t.String())))
			}
			return nil
		}))
	if err != nil {
		return err
	}
	_, err = meter.Float64ObservableGauge("governor_resource_utilization_percent",
		metric.WithDescription("Utilization per resource type observed by the last monitoring tick"),
		metric.WithUnit("%"),
		metric.WithFloat64Callback(func(_ context.Context, o metric.Float64Observer) error {
			m.monitoring.mu.Lock()
			defer m.monitoring.mu.Unlock()
			for t, metrics := range m.monitoring.metrics {
				o.Observe(metrics.CurrentUtilization, metric.WithAttributes(telemetry.AttrResourceType.String(t.String())))
			}
			return nil
		}))
	return err
}
