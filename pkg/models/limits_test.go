//go:build unit || !integration

package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResourceLimit(t *testing.T) {
	l := NewResourceLimit(1000)
	assert.Equal(t, int64(1000), l.Maximum)
	assert.Equal(t, int64(800), l.SoftLimit)
	assert.Equal(t, int64(950), l.HardLimit)
	assert.Equal(t, DefaultAllocationTimeout, l.Policy.Timeout)
	require.NoError(t, l.Validate())
}

func TestNewResourceLimitSingleSlot(t *testing.T) {
	l := NewResourceLimit(1)
	assert.Equal(t, int64(1), l.SoftLimit)
	assert.Equal(t, int64(1), l.HardLimit)
	require.NoError(t, l.Validate())
}

func TestResourceLimitValidate(t *testing.T) {
	testCases := []struct {
		name    string
		limit   ResourceLimit
		wantErr bool
	}{
		{name: "valid", limit: ResourceLimit{Maximum: 10, SoftLimit: 5, HardLimit: 10}},
		{name: "soft equals hard equals max", limit: ResourceLimit{Maximum: 10, SoftLimit: 10, HardLimit: 10}},
		{name: "zero soft", limit: ResourceLimit{Maximum: 10, SoftLimit: 0, HardLimit: 10}, wantErr: true},
		{name: "soft above hard", limit: ResourceLimit{Maximum: 10, SoftLimit: 9, HardLimit: 8}, wantErr: true},
		{name: "hard above max", limit: ResourceLimit{Maximum: 10, SoftLimit: 5, HardLimit: 11}, wantErr: true},
		{
			name: "min above max per request",
			limit: ResourceLimit{Maximum: 10, SoftLimit: 5, HardLimit: 10,
				Policy: AllocationPolicy{MinPerRequest: 5, MaxPerRequest: 2}},
			wantErr: true,
		},
		{
			name: "negative timeout",
			limit: ResourceLimit{Maximum: 10, SoftLimit: 5, HardLimit: 10,
				Policy: AllocationPolicy{Timeout: -time.Second}},
			wantErr: true,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.limit.Validate()
			if tc.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestEffectiveHardLimit(t *testing.T) {
	l := ResourceLimit{Maximum: 1000, SoftLimit: 800, HardLimit: 900}
	assert.Equal(t, int64(900), l.EffectiveHardLimit())

	l.Policy.OverAllocationPercent = 10
	assert.Equal(t, int64(900), l.EffectiveHardLimit(), "percentage ignored unless over allocation is allowed")

	l.Policy.AllowOverAllocation = true
	assert.Equal(t, int64(990), l.EffectiveHardLimit())
}

func TestResourceLimitsValidate(t *testing.T) {
	limits := ResourceLimits{
		ResourceTypeCPU:    NewResourceLimit(400),
		ResourceTypeMemory: {Maximum: 10, SoftLimit: 20, HardLimit: 5},
	}
	err := limits.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Memory")

	limits[ResourceType("Quantum")] = NewResourceLimit(1)
	delete(limits, ResourceTypeMemory)
	err = limits.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Quantum")
}
