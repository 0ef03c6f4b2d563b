// Package monitor samples live host load: CPU utilization, memory and disk.
//
// Every measurement prefers a native host counter and degrades to a coarser
// fallback when the counter is missing. GetResourceUsage never fails: parts
// that cannot be sampled are reported as zero and logged.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-multierror"
	"github.com/pbnjay/memory"
	"github.com/ricochet2200/go-disk-usage/du"
	"github.com/rs/zerolog/log"

	"github.com/bacalhau-project/governor/pkg/goverrors"
	"github.com/bacalhau-project/governor/pkg/lib/math"
	"github.com/bacalhau-project/governor/pkg/models"
	"github.com/bacalhau-project/governor/pkg/telemetry"
)

const (
	DefaultCPUSampleWindow = 100 * time.Millisecond
	DefaultHeapMultiplier  = 4

	errComponent = "ResourceMonitor"
)

// UsageSource produces host usage snapshots. It is implemented by Monitor,
// which samples on every call, and by Sampler, which serves a cached snapshot.
type UsageSource interface {
	GetResourceUsage(ctx context.Context) models.SystemResourceUsage
}

// CPUCounters returns cumulative busy and total CPU time of the host in any
// consistent unit, such as the jiffies reported by /proc/stat.
type CPUCounters func() (busy, total uint64, err error)

// ProcessCPUTime returns the cumulative CPU time consumed by this process.
type ProcessCPUTime func() (time.Duration, error)

// MemoryReader returns host memory usage.
type MemoryReader func() (models.MemoryInfo, error)

// DiskReader returns usage of the filesystem containing path.
type DiskReader func(path string) (models.DiskInfo, error)

// Params configures a Monitor. Zero values select the platform defaults.
type Params struct {
	Clock clock.Clock
	// DiskPath is the default path sampled by GetDiskInfo. Empty means the working directory.
	DiskPath string
	// CPUSampleWindow is the interval between the two readings of a CPU sample.
	CPUSampleWindow time.Duration
	// HeapMultiplier scales process heap usage into a host memory estimate
	// when no host memory counter is available.
	HeapMultiplier float64
	Instruments    *telemetry.Instruments

	// The sources below default to the native implementation of the platform.
	// A nil source that has no native implementation is skipped.
	CPUCounters    CPUCounters
	ProcessCPUTime ProcessCPUTime
	NativeMemory   MemoryReader
	HostMemory     MemoryReader
	HeapMemory     MemoryReader
	Disk           DiskReader
}

// Monitor samples host resource usage.
type Monitor struct {
	clock          clock.Clock
	diskPath       string
	window         time.Duration
	instruments    *telemetry.Instruments
	cpuCounters    CPUCounters
	processCPUTime ProcessCPUTime
	memoryReaders  []MemoryReader
	disk           DiskReader
}

func New(params Params) *Monitor {
	if params.Clock == nil {
		params.Clock = clock.New()
	}
	if params.CPUSampleWindow <= 0 {
		params.CPUSampleWindow = DefaultCPUSampleWindow
	}
	if params.HeapMultiplier < 1 {
		params.HeapMultiplier = DefaultHeapMultiplier
	}
	if params.CPUCounters == nil {
		params.CPUCounters = nativeCPUCounters
	}
	if params.ProcessCPUTime == nil {
		params.ProcessCPUTime = processCPUTime
	}
	if params.NativeMemory == nil {
		params.NativeMemory = nativeMemoryInfo
	}
	if params.HostMemory == nil {
		params.HostMemory = hostMemoryInfo
	}
	if params.HeapMemory == nil {
		params.HeapMemory = heapMemoryInfo(params.HeapMultiplier)
	}
	if params.Disk == nil {
		params.Disk = diskInfo
	}

	return &Monitor{
		clock:          params.Clock,
		diskPath:       params.DiskPath,
		window:         params.CPUSampleWindow,
		instruments:    params.Instruments,
		cpuCounters:    params.CPUCounters,
		processCPUTime: params.ProcessCPUTime,
		memoryReaders:  []MemoryReader{params.NativeMemory, params.HostMemory, params.HeapMemory},
		disk:           params.Disk,
	}
}

// GetCPUUsage returns host CPU utilization in percent over one sample window.
// When the host counters are unavailable the CPU time of this process over
// the window is used instead, which underestimates load caused by other
// processes.
func (m *Monitor) GetCPUUsage(ctx context.Context) (float64, error) {
	busy0, total0, err := m.cpuCounters()
	if err == nil {
		if err = m.wait(ctx); err != nil {
			return 0, err
		}
		busy1, total1, err := m.cpuCounters()
		if err == nil && total1 > total0 {
			return math.Clamp(float64(busy1-busy0)/float64(total1-total0)*100, 0, 100), nil
		}
		if err == nil {
			err = errors.New("cpu counters did not advance")
		}
		log.Ctx(ctx).Debug().Err(err).Msg("host cpu counters unusable, falling back to process cpu time")
	} else {
		log.Ctx(ctx).Trace().Err(err).Msg("host cpu counters unavailable, falling back to process cpu time")
	}

	cpu0, err := m.processCPUTime()
	if err != nil {
		return 0, goverrors.Wrap(err, "sampling cpu usage").
			WithCode(goverrors.SamplingUnavailable).
			WithComponent(errComponent)
	}
	wall0 := m.clock.Now()
	if err := m.wait(ctx); err != nil {
		return 0, err
	}
	cpu1, err := m.processCPUTime()
	if err != nil {
		return 0, goverrors.Wrap(err, "sampling cpu usage").
			WithCode(goverrors.SamplingUnavailable).
			WithComponent(errComponent)
	}
	wall := m.clock.Since(wall0)
	if wall <= 0 {
		return 0, nil
	}
	return math.Clamp(float64(cpu1-cpu0)/float64(wall)*100, 0, 100), nil
}

// GetMemoryInfo returns host memory usage from the first source that works:
// the native kernel counters, the physical memory probe, and finally an
// estimate derived from the runtime heap.
func (m *Monitor) GetMemoryInfo(ctx context.Context) (models.MemoryInfo, error) {
	var errs *multierror.Error
	for _, read := range m.memoryReaders {
		if err := ctx.Err(); err != nil {
			return models.MemoryInfo{}, err
		}
		info, err := read()
		if err == nil && info.Total > 0 {
			return info, nil
		}
		if err == nil {
			err = errors.New("memory source reported zero total")
		}
		errs = multierror.Append(errs, err)
	}
	return models.MemoryInfo{}, goverrors.Wrap(errs.ErrorOrNil(), "sampling memory").
		WithCode(goverrors.SamplingUnavailable).
		WithComponent(errComponent)
}

// GetDiskInfo returns usage of the filesystem containing path. An empty path
// uses the configured disk path, or the working directory.
func (m *Monitor) GetDiskInfo(ctx context.Context, path string) (models.DiskInfo, error) {
	if err := ctx.Err(); err != nil {
		return models.DiskInfo{}, err
	}
	if path == "" {
		path = m.diskPath
	}
	if path == "" {
		wd, err := os.Getwd()
		if err != nil {
			return models.DiskInfo{}, goverrors.Wrap(err, "resolving working directory").
				WithCode(goverrors.SamplingUnavailable).
				WithComponent(errComponent)
		}
		path = wd
	}
	info, err := m.disk(path)
	if err != nil {
		return models.DiskInfo{}, goverrors.Wrap(err, "sampling disk %s", path).
			WithCode(goverrors.SamplingUnavailable).
			WithComponent(errComponent)
	}
	return info, nil
}

// GetResourceUsage returns a composite snapshot. Parts that fail are zeroed
// and the failures are logged.
func (m *Monitor) GetResourceUsage(ctx context.Context) models.SystemResourceUsage {
	if m.instruments != nil {
		defer telemetry.Timer(ctx, m.clock, m.instruments.SampleDuration)()
	}

	var errs *multierror.Error
	usage := models.SystemResourceUsage{}

	cpu, err := m.GetCPUUsage(ctx)
	if err != nil {
		errs = multierror.Append(errs, fmt.Errorf("cpu: %w", err))
	}
	usage.CPUPercent = cpu

	if usage.Memory, err = m.GetMemoryInfo(ctx); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("memory: %w", err))
	}
	if usage.Disk, err = m.GetDiskInfo(ctx, ""); err != nil {
		errs = multierror.Append(errs, fmt.Errorf("disk: %w", err))
	}
	usage.Timestamp = m.clock.Now()

	if err := errs.ErrorOrNil(); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("code", goverrors.SamplingUnavailable.String()).
			Msg("some host resources could not be sampled")
	}
	return usage
}

func (m *Monitor) wait(ctx context.Context) error {
	timer := m.clock.Timer(m.window)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func hostMemoryInfo() (models.MemoryInfo, error) {
	total := memory.TotalMemory()
	if total == 0 {
		return models.MemoryInfo{}, errors.New("physical memory size unknown")
	}
	free := min(memory.FreeMemory(), total)
	return models.MemoryInfo{Used: total - free, Available: free, Total: total}, nil
}

// heapMemoryInfo estimates host memory from the runtime: the memory obtained
// from the OS scaled by multiplier is taken as the total.
func heapMemoryInfo(multiplier float64) MemoryReader {
	return func() (models.MemoryInfo, error) {
		var stats runtime.MemStats
		runtime.ReadMemStats(&stats)
		total := uint64(float64(stats.Sys) * multiplier)
		used := min(stats.HeapInuse, total)
		return models.MemoryInfo{Used: used, Available: total - used, Total: total}, nil
	}
}

func diskInfo(path string) (models.DiskInfo, error) {
	if _, err := os.Stat(path); err != nil {
		return models.DiskInfo{}, err
	}
	usage := du.NewDiskUsage(path)
	if usage == nil {
		return models.DiskInfo{}, fmt.Errorf("unable to get disk usage for path %s", path)
	}
	return models.DiskInfo{
		Path:      path,
		Used:      usage.Used(),
		Available: usage.Available(),
		Total:     usage.Size(),
	}, nil
}

// compile-time check that Monitor implements UsageSource
var _ UsageSource = (*Monitor)(nil)
