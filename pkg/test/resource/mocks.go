// Package resource provides handler based test doubles for the governor's
// resource components.
package resource

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/bacalhau-project/governor/pkg/models"
	"github.com/bacalhau-project/governor/pkg/resource/provider"
)

// ProviderMock is a provider whose behaviour is defined by handlers.
// Without handlers it is healthy, reports nothing available and grants every request.
type ProviderMock struct {
	IDValue                string
	ResourceTypes          []models.ResourceType
	GetAvailabilityHandler func(ctx context.Context) (provider.Availability, error)
	AllocateHandler        func(ctx context.Context, request models.AllocationRequest) (provider.AllocateResponse, error)
	ReleaseHandler         func(ctx context.Context, allocationID string) error
}

func (m *ProviderMock) ID() string {
	return m.IDValue
}

func (m *ProviderMock) SupportedResourceTypes() []models.ResourceType {
	return m.ResourceTypes
}

func (m *ProviderMock) GetAvailability(ctx context.Context) (provider.Availability, error) {
	if m.GetAvailabilityHandler != nil {
		return m.GetAvailabilityHandler(ctx)
	}
	return provider.Availability{Healthy: true, Available: map[models.ResourceType]int64{}}, nil
}

func (m *ProviderMock) Allocate(ctx context.Context, request models.AllocationRequest) (provider.AllocateResponse, error) {
	if m.AllocateHandler != nil {
		return m.AllocateHandler(ctx, request)
	}
	return provider.AllocateResponse{
		Successful:   true,
		AllocationID: uuid.NewString(),
		Amount:       request.Amount,
	}, nil
}

func (m *ProviderMock) Release(ctx context.Context, allocationID string) error {
	if m.ReleaseHandler != nil {
		return m.ReleaseHandler(ctx, allocationID)
	}
	return nil
}

// compile time check if ProviderMock implements Provider
var _ provider.Provider = (*ProviderMock)(nil)

// UsageSourceMock serves host usage snapshots from a handler.
type UsageSourceMock struct {
	GetResourceUsageHandler func(ctx context.Context) models.SystemResourceUsage
}

func (m UsageSourceMock) GetResourceUsage(ctx context.Context) models.SystemResourceUsage {
	if m.GetResourceUsageHandler != nil {
		return m.GetResourceUsageHandler(ctx)
	}
	return models.SystemResourceUsage{}
}

// StaticUsage returns a usage source that always reports the given CPU and
// memory utilization percentages on a host with 1000 bytes of memory and disk.
func StaticUsage(cpuPercent, memoryPercent float64) UsageSourceMock {
	const total = 1000
	used := uint64(memoryPercent * total / 100)
	return UsageSourceMock{
		GetResourceUsageHandler: func(context.Context) models.SystemResourceUsage {
			return models.SystemResourceUsage{
				CPUPercent: cpuPercent,
				Memory:     models.MemoryInfo{Used: used, Available: total - used, Total: total},
				Disk:       models.DiskInfo{Path: "/", Used: 0, Available: total, Total: total},
				Timestamp:  time.Time{},
			}
		},
	}
}
