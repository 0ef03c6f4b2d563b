//go:build unit || !integration

package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUtilization(t *testing.T) {
	assert.Equal(t, float64(0), Utilization(0, 0))
	assert.Equal(t, float64(50), Utilization(50, 50))
	assert.Equal(t, float64(100), Utilization(10, 0))
	assert.InDelta(t, 33.33, Utilization(1, 2), 0.01)
}

func TestNewResourceUsageHasEveryType(t *testing.T) {
	u := NewResourceUsage(time.Now())
	for _, rt := range AllResourceTypes() {
		_, ok := u.Allocated[rt]
		assert.True(t, ok, rt.String())
		_, ok = u.Available[rt]
		assert.True(t, ok, rt.String())
	}
	assert.NotNil(t, u.ActiveAllocations)
}

func TestSystemUsageConversion(t *testing.T) {
	ts := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	s := SystemResourceUsage{
		CPUPercent: 42.5,
		Memory:     MemoryInfo{Used: 600, Available: 400, Total: 1000},
		Disk:       DiskInfo{Path: "/", Used: 90, Available: 10, Total: 100},
		Timestamp:  ts,
	}
	u := s.ToResourceUsage()
	assert.Equal(t, ts, u.Timestamp)
	assert.Equal(t, int64(4250), u.Allocated[ResourceTypeCPU])
	assert.Equal(t, int64(5750), u.Available[ResourceTypeCPU])
	assert.InDelta(t, 42.5, u.Utilization[ResourceTypeCPU], 0.001)
	assert.InDelta(t, 60, u.Utilization[ResourceTypeMemory], 0.001)
	assert.InDelta(t, 90, u.Utilization[ResourceTypeStorage], 0.001)
	assert.Equal(t, float64(0), u.Utilization[ResourceTypeGPU])
}

func TestSystemUsageConversionClampsCPU(t *testing.T) {
	u := SystemResourceUsage{CPUPercent: 100}.ToResourceUsage()
	assert.Equal(t, int64(0), u.Available[ResourceTypeCPU])
	assert.InDelta(t, 100, u.Utilization[ResourceTypeCPU], 0.001)
}

func TestParseResourceType(t *testing.T) {
	rt, err := ParseResourceType("memory")
	require.NoError(t, err)
	assert.Equal(t, ResourceTypeMemory, rt)

	rt, err = ParseResourceType(" aimodel ")
	require.NoError(t, err)
	assert.Equal(t, ResourceTypeAIModel, rt)

	_, err = ParseResourceType("tpu")
	assert.Error(t, err)
}

func TestResourceTypeAsMapKey(t *testing.T) {
	in := map[ResourceType]int64{ResourceTypeGPU: 2}
	b, err := json.Marshal(in)
	require.NoError(t, err)
	assert.JSONEq(t, `{"GPU":2}`, string(b))

	var out map[ResourceType]int64
	require.NoError(t, json.Unmarshal([]byte(`{"gpu":3}`), &out))
	assert.Equal(t, int64(3), out[ResourceTypeGPU])

	assert.Error(t, json.Unmarshal([]byte(`{"tpu":3}`), &out))
}

func TestAllocationRequestValidate(t *testing.T) {
	assert.NoError(t, AllocationRequest{Type: ResourceTypeCPU, Amount: 1}.Validate())
	assert.Error(t, AllocationRequest{Type: ResourceTypeCPU, Amount: 0}.Validate())
	assert.Error(t, AllocationRequest{Type: "TPU", Amount: 1}.Validate())
	assert.Error(t, AllocationRequest{Type: ResourceTypeCPU, Amount: 1, Duration: -time.Second}.Validate())
}

func TestAllocationIsExpired(t *testing.T) {
	now := time.Now()
	past := now.Add(-time.Minute)
	future := now.Add(time.Minute)

	assert.False(t, ResourceAllocation{}.IsExpired(now))
	assert.True(t, ResourceAllocation{ExpiresAt: &past}.IsExpired(now))
	assert.True(t, ResourceAllocation{ExpiresAt: &now}.IsExpired(now))
	assert.False(t, ResourceAllocation{ExpiresAt: &future}.IsExpired(now))
}

func TestHealthWorst(t *testing.T) {
	assert.Equal(t, HealthDegraded, HealthHealthy.Worst(HealthDegraded))
	assert.Equal(t, HealthUnhealthy, HealthUnhealthy.Worst(HealthDegraded))
	assert.Equal(t, "Unhealthy", HealthUnhealthy.String())
}

func TestSortRecommendations(t *testing.T) {
	recs := []OptimizationRecommendation{
		{Message: "c", Priority: 3},
		{Message: "a1", Priority: 1},
		{Message: "b", Priority: 2},
		{Message: "a2", Priority: 1},
	}
	SortRecommendations(recs)
	assert.Equal(t, []string{"a1", "a2", "b", "c"}, []string{recs[0].Message, recs[1].Message, recs[2].Message, recs[3].Message})
}
