//go:build unit || !integration

package optimizer

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacalhau-project/governor/pkg/models"
	testresource "github.com/bacalhau-project/governor/pkg/test/resource"
)

func TestCalculateThrottling(t *testing.T) {
	testCases := []struct {
		name    string
		cpu     float64
		memory  float64
		level   models.ThrottlingLevel
		delay   time.Duration
		enabled bool
	}{
		{name: "high cpu", cpu: 95, memory: 10, level: models.ThrottlingHigh, delay: 5 * time.Second, enabled: true},
		{name: "memory overrides", cpu: 50, memory: 90, level: models.ThrottlingHigh, delay: 10 * time.Second, enabled: true},
		{name: "memory overrides high cpu", cpu: 95, memory: 90, level: models.ThrottlingHigh, delay: 10 * time.Second, enabled: true},
		{name: "medium cpu", cpu: 80, memory: 10, level: models.ThrottlingMedium, delay: 2 * time.Second, enabled: true},
		{name: "low cpu", cpu: 65, memory: 10, level: models.ThrottlingLow, delay: time.Second, enabled: true},
		{name: "idle", cpu: 10, memory: 10, level: models.ThrottlingNone},
		{name: "thresholds are exclusive", cpu: 90, memory: 85, level: models.ThrottlingMedium, delay: 2 * time.Second, enabled: true},
		{name: "exactly low", cpu: 60, memory: 10, level: models.ThrottlingNone},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			o, err := New(Params{Source: testresource.StaticUsage(tc.cpu, tc.memory)})
			require.NoError(t, err)
			result := o.CalculateThrottling(context.Background(), models.ThrottlingRequest{RequesterID: "r"})
			assert.Equal(t, tc.level, result.Level)
			assert.Equal(t, tc.delay, result.RecommendedDelay)
			assert.Equal(t, tc.enabled, result.ShouldThrottle)
			if tc.enabled {
				assert.NotEmpty(t, result.Reason)
			}
		})
	}
}

func TestCustomThrottlingPolicy(t *testing.T) {
	policy := DefaultThrottlingPolicy()
	policy.CPULowPercent = 20
	policy.LowDelay = 100 * time.Millisecond

	o, err := New(Params{Source: testresource.StaticUsage(30, 10), Throttling: policy})
	require.NoError(t, err)
	result := o.CalculateThrottling(context.Background(), models.ThrottlingRequest{})
	assert.Equal(t, models.ThrottlingLow, result.Level)
	assert.Equal(t, 100*time.Millisecond, result.RecommendedDelay)
}
