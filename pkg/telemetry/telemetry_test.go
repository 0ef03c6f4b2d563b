//go:build unit || !integration

package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type TelemetryTestSuite struct {
	suite.Suite
	reader      *sdkmetric.ManualReader
	instruments *Instruments
}

func TestTelemetryTestSuite(t *testing.T) {
	suite.Run(t, new(TelemetryTestSuite))
}

func (s *TelemetryTestSuite) SetupTest() {
	s.reader = sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(s.reader))
	var err error
	s.instruments, err = NewInstruments(mp)
	s.Require().NoError(err)
}

func (s *TelemetryTestSuite) collect() map[string]metricdata.Metrics {
	var rm metricdata.ResourceMetrics
	s.Require().NoError(s.reader.Collect(context.Background(), &rm))
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func (s *TelemetryTestSuite) TestCounter() {
	ctx := context.Background()
	s.instruments.AllocationsGranted.Inc(ctx, AttrResourceType.String("CPU"))
	s.instruments.AllocationsGranted.Add(ctx, 2, AttrResourceType.String("CPU"))

	metrics := s.collect()
	granted, ok := metrics["governor_allocations_granted_total"]
	s.Require().True(ok)
	sum, ok := granted.Data.(metricdata.Sum[int64])
	s.Require().True(ok)
	s.Require().Len(sum.DataPoints, 1)
	s.Equal(int64(3), sum.DataPoints[0].Value)
}

func (s *TelemetryTestSuite) TestTimer() {
	clk := clock.NewMock()
	stop := Timer(context.Background(), clk, s.instruments.AllocateDuration)
	clk.Add(250 * time.Millisecond)
	s.Equal(250*time.Millisecond, stop())

	metrics := s.collect()
	hist, ok := metrics["governor_allocate_duration_seconds"].Data.(metricdata.Histogram[float64])
	s.Require().True(ok)
	s.Require().Len(hist.DataPoints, 1)
	s.Equal(uint64(1), hist.DataPoints[0].Count)
	s.InDelta(0.25, hist.DataPoints[0].Sum, 1e-9)
}

func (s *TelemetryTestSuite) TestDetachedContext() {
	type key struct{}
	parent, cancel := context.WithCancel(context.WithValue(context.Background(), key{}, "v"))
	cancel()

	detached := NewDetachedContext(parent)
	s.NoError(detached.Err())
	s.Nil(detached.Done())
	s.Equal("v", detached.Value(key{}))
}

func (s *TelemetryTestSuite) TestPrometheusSetup() {
	p, err := SetupPrometheus("v0.0.0-test")
	s.Require().NoError(err)
	s.NotNil(p.Handler())
	s.NoError(p.Cleanup(context.Background()))
}
