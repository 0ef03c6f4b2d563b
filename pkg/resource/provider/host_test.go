//go:build unit || !integration

package provider

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacalhau-project/governor/pkg/config/types"
	"github.com/bacalhau-project/governor/pkg/models"
)

func fixedProbe(capacity map[models.ResourceType]int64, err *error) CapacityProbe {
	return func(context.Context) (map[models.ResourceType]int64, error) {
		if err != nil && *err != nil {
			return nil, *err
		}
		return capacity, nil
	}
}

func TestHostProviderOffersShare(t *testing.T) {
	ctx := context.Background()
	host, err := NewHostProvider(ctx, HostParams{
		ID: "host",
		Probe: fixedProbe(map[models.ResourceType]int64{
			models.ResourceTypeCPU:    400,
			models.ResourceTypeMemory: 1000,
		}, nil),
	})
	require.NoError(t, err)

	avail, err := host.GetAvailability(ctx)
	require.NoError(t, err)
	assert.True(t, avail.Healthy)
	assert.Equal(t, int64(320), avail.AvailableFor(models.ResourceTypeCPU))
	assert.Equal(t, int64(800), avail.AvailableFor(models.ResourceTypeMemory))

	resp, err := host.Allocate(ctx, models.AllocationRequest{Type: models.ResourceTypeCPU, Amount: 120})
	require.NoError(t, err)
	require.True(t, resp.Successful)

	avail, err = host.GetAvailability(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(200), avail.AvailableFor(models.ResourceTypeCPU))
	require.NoError(t, host.Release(ctx, resp.AllocationID))
}

func TestHostProviderProbeFailureMarksUnhealthy(t *testing.T) {
	ctx := context.Background()
	var probeErr error
	host, err := NewHostProvider(ctx, HostParams{
		ID:             "host",
		OfferedPercent: 50,
		Probe:          fixedProbe(map[models.ResourceType]int64{models.ResourceTypeCPU: 200}, &probeErr),
	})
	require.NoError(t, err)

	probeErr = errors.New("no /proc")
	avail, err := host.GetAvailability(ctx)
	require.NoError(t, err)
	assert.False(t, avail.Healthy)

	probeErr = nil
	avail, err = host.GetAvailability(ctx)
	require.NoError(t, err)
	assert.True(t, avail.Healthy)
	assert.Equal(t, int64(100), avail.AvailableFor(models.ResourceTypeCPU))
}

func TestHostProviderInvalidPercent(t *testing.T) {
	_, err := NewHostProvider(context.Background(), HostParams{ID: "host", OfferedPercent: 101})
	assert.Error(t, err)
}

func TestPhysicalCapacity(t *testing.T) {
	capacity, err := PhysicalCapacity(t.TempDir())(context.Background())
	require.NoError(t, err)
	assert.Greater(t, capacity[models.ResourceTypeCPU], int64(0))
	assert.Greater(t, capacity[models.ResourceTypeMemory], int64(0))
	assert.Contains(t, capacity, models.ResourceTypeStorage)

	_, err = PhysicalCapacity(filepath.Join(t.TempDir(), "missing"))(context.Background())
	assert.Error(t, err)
}

func TestFromConfig(t *testing.T) {
	providers, err := FromConfig(context.Background(), types.Providers{
		Pools: []types.PoolProvider{
			{ID: "gpu", Capacity: map[string]string{"gpu": "2"}},
			{ID: "net", Capacity: map[string]string{"Network": "10MB"}, AllowPartial: true},
		},
	}, nil)
	require.NoError(t, err)
	require.Len(t, providers, 2)
	assert.Equal(t, "gpu", providers[0].ID())
	assert.Equal(t, []models.ResourceType{models.ResourceTypeNetwork}, providers[1].SupportedResourceTypes())

	avail, err := providers[1].GetAvailability(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(10<<20), avail.AvailableFor(models.ResourceTypeNetwork))

	_, err = FromConfig(context.Background(), types.Providers{
		Pools: []types.PoolProvider{{ID: "bad", Capacity: map[string]string{"tpu": "1"}}},
	}, nil)
	assert.Error(t, err)
}
