//go:build unit || !integration

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacalhau-project/governor/pkg/config/types"
	"github.com/bacalhau-project/governor/pkg/models"
)

func defaultLimits() models.ResourceLimits {
	return models.ResourceLimits{
		models.ResourceTypeCPU:    models.NewResourceLimit(400),
		models.ResourceTypeMemory: models.NewResourceLimit(1000),
	}
}

func TestResolveLimitsNoOverrides(t *testing.T) {
	out, err := ResolveLimits(defaultLimits(), nil)
	require.NoError(t, err)
	assert.Equal(t, defaultLimits(), out)
}

func TestResolveLimitsMaximumOnly(t *testing.T) {
	out, err := ResolveLimits(defaultLimits(), map[string]types.Limit{
		"cpu": {Maximum: "8"},
	})
	require.NoError(t, err)
	cpu := out[models.ResourceTypeCPU]
	assert.Equal(t, int64(800), cpu.Maximum)
	assert.Equal(t, int64(640), cpu.SoftLimit)
	assert.Equal(t, int64(760), cpu.HardLimit)
	assert.Equal(t, models.DefaultAllocationTimeout, cpu.Policy.Timeout)
	assert.Equal(t, defaultLimits()[models.ResourceTypeMemory], out[models.ResourceTypeMemory])
}

func TestResolveLimitsPercentAndPolicy(t *testing.T) {
	out, err := ResolveLimits(defaultLimits(), map[string]types.Limit{
		"Memory": {
			SoftLimit:     "50%",
			HardLimit:     "900",
			MaxPerRequest: "100",
			Timeout:       types.Duration(time.Second),
		},
	})
	require.NoError(t, err)
	mem := out[models.ResourceTypeMemory]
	assert.Equal(t, int64(1000), mem.Maximum)
	assert.Equal(t, int64(500), mem.SoftLimit)
	assert.Equal(t, int64(900), mem.HardLimit)
	assert.Equal(t, int64(100), mem.Policy.MaxPerRequest)
	assert.Equal(t, time.Second, mem.Policy.Timeout)
}

func TestResolveLimitsNewType(t *testing.T) {
	out, err := ResolveLimits(defaultLimits(), map[string]types.Limit{
		"gpu": {Maximum: "4", SoftLimit: "3", HardLimit: "4"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ResourceLimit{Maximum: 4, SoftLimit: 3, HardLimit: 4}, out[models.ResourceTypeGPU])
}

func TestResolveLimitsRejectsInvalid(t *testing.T) {
	_, err := ResolveLimits(defaultLimits(), map[string]types.Limit{"tpu": {Maximum: "1"}})
	require.Error(t, err)

	_, err = ResolveLimits(defaultLimits(), map[string]types.Limit{"cpu": {SoftLimit: "390", HardLimit: "300"}})
	require.Error(t, err)

	_, err = ResolveLimits(defaultLimits(), map[string]types.Limit{"memory": {Maximum: "lots"}})
	require.Error(t, err)
}
