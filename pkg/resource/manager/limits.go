package manager

import (
	"runtime"

	"github.com/c2h5oh/datasize"
	"github.com/pbnjay/memory"

	"github.com/bacalhau-project/governor/pkg/models"
)

const (
	DefaultStorageMaximum = int64(100 * datasize.GB)
	DefaultNetworkMaximum = int64(100 * datasize.MB)
	DefaultSlotMaximum    = 1
)

// DefaultLimits derives the limit table from host capability probes: logical
// cores for CPU and physical memory for Memory, falling back to what the
// runtime obtained from the OS when physical memory is unknown. Storage,
// Network and the slot based types use fixed defaults.
func DefaultLimits() models.ResourceLimits {
	mem := int64(memory.TotalMemory())
	if mem <= 0 {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		mem = int64(stats.Sys)
	}
	return models.ResourceLimits{
		models.ResourceTypeCPU:     models.NewResourceLimit(int64(runtime.NumCPU()) * models.CPUUnitsPerCore),
		models.ResourceTypeMemory:  models.NewResourceLimit(mem),
		models.ResourceTypeGPU:     models.NewResourceLimit(DefaultSlotMaximum),
		models.ResourceTypeStorage: models.NewResourceLimit(DefaultStorageMaximum),
		models.ResourceTypeNetwork: models.NewResourceLimit(DefaultNetworkMaximum),
		models.ResourceTypeAIModel: models.NewResourceLimit(DefaultSlotMaximum),
	}
}
