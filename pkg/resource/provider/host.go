package provider

import (
	"context"
	"fmt"
	"os"
	"runtime"

	"github.com/benbjohnson/clock"
	"github.com/pbnjay/memory"
	"github.com/ricochet2200/go-disk-usage/du"
	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/governor/pkg/lib/validate"
	"github.com/bacalhau-project/governor/pkg/models"
)

const DefaultOfferedPercent = 80

// CapacityProbe returns the physical capacity of the host per resource type.
type CapacityProbe func(ctx context.Context) (map[models.ResourceType]int64, error)

type HostParams struct {
	ID string
	// OfferedPercent is the share of the physical capacity offered for allocation.
	OfferedPercent int
	// DiskPath is the filesystem whose free space backs Storage. Empty means the working directory.
	DiskPath string
	// Probe overrides the physical capacity probe.
	Probe CapacityProbe
	Clock clock.Clock
}

// HostProvider offers a share of the physical CPU, memory and free disk of
// the host. CPU is counted in percentage points, 100 per core. Capacity is
// probed again on every availability query.
type HostProvider struct {
	pool           *PoolProvider
	offeredPercent int
	probe          CapacityProbe
}

func NewHostProvider(ctx context.Context, params HostParams) (*HostProvider, error) {
	if params.OfferedPercent == 0 {
		params.OfferedPercent = DefaultOfferedPercent
	}
	if err := validate.IsInRange(params.OfferedPercent, 1, 100,
		"offered percent must be between 1 and 100, got %d", params.OfferedPercent); err != nil {
		return nil, err
	}
	if params.Probe == nil {
		params.Probe = PhysicalCapacity(params.DiskPath)
	}

	total, err := params.Probe(ctx)
	if err != nil {
		return nil, fmt.Errorf("probing host capacity: %w", err)
	}
	pool, err := NewPoolProvider(PoolParams{
		ID:       params.ID,
		Capacity: offered(total, params.OfferedPercent),
		Clock:    params.Clock,
	})
	if err != nil {
		return nil, err
	}
	return &HostProvider{
		pool:           pool,
		offeredPercent: params.OfferedPercent,
		probe:          params.Probe,
	}, nil
}

func (h *HostProvider) ID() string {
	return h.pool.ID()
}

func (h *HostProvider) SupportedResourceTypes() []models.ResourceType {
	return h.pool.SupportedResourceTypes()
}

// GetAvailability refreshes the offered capacity from the probe. A failing
// probe marks the provider unhealthy until the next successful probe.
func (h *HostProvider) GetAvailability(ctx context.Context) (Availability, error) {
	total, err := h.probe(ctx)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("provider", h.ID()).Msg("failed to probe host capacity")
		h.pool.SetHealthy(false)
	} else {
		for t, c := range offered(total, h.offeredPercent) {
			h.pool.SetCapacity(t, c)
		}
		h.pool.SetHealthy(true)
	}
	return h.pool.GetAvailability(ctx)
}

func (h *HostProvider) Allocate(ctx context.Context, request models.AllocationRequest) (AllocateResponse, error) {
	return h.pool.Allocate(ctx, request)
}

func (h *HostProvider) Release(ctx context.Context, allocationID string) error {
	return h.pool.Release(ctx, allocationID)
}

func offered(total map[models.ResourceType]int64, pct int) map[models.ResourceType]int64 {
	out := make(map[models.ResourceType]int64, len(total))
	for t, v := range total {
		out[t] = v * int64(pct) / 100
	}
	return out
}

// PhysicalCapacity probes the host: CPU from the number of logical cores,
// memory from the total physical memory and storage from the free space of
// the filesystem containing diskPath.
func PhysicalCapacity(diskPath string) CapacityProbe {
	return func(ctx context.Context) (map[models.ResourceType]int64, error) {
		path := diskPath
		if path == "" {
			wd, err := os.Getwd()
			if err != nil {
				return nil, err
			}
			path = wd
		}
		diskSpace, err := getFreeDiskSpace(path)
		if err != nil {
			return nil, err
		}
		return map[models.ResourceType]int64{
			models.ResourceTypeCPU:     int64(runtime.NumCPU()) * models.CPUUnitsPerCore,
			models.ResourceTypeMemory:  int64(memory.TotalMemory()),
			models.ResourceTypeStorage: int64(diskSpace),
		}, nil
	}
}

// get free disk space for storage path
// returns bytes
func getFreeDiskSpace(path string) (uint64, error) {
	if _, err := os.Stat(path); err != nil {
		return 0, fmt.Errorf("getFreeDiskSpace: %w", err)
	}
	usage := du.NewDiskUsage(path)
	if usage == nil {
		return 0, fmt.Errorf("getFreeDiskSpace: unable to get disk space for path %s", path)
	}
	return usage.Free(), nil
}

// compile-time check that the provider implements the interface
var _ Provider = (*HostProvider)(nil)
