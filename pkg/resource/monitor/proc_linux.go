//go:build linux

package monitor

import (
	"errors"
	"fmt"
	"math"

	"github.com/prometheus/procfs"

	"github.com/bacalhau-project/governor/pkg/models"
)

// userHZ turns the seconds procfs reports back into kernel clock ticks.
const userHZ = 100

func nativeCPUCounters() (uint64, uint64, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return 0, 0, err
	}
	return cpuCounters(fs)
}

// cpuCounters reads the aggregate cpu line of stat. Idle and iowait count as
// idle time, everything else as busy time. Guest time is already part of user.
func cpuCounters(fs procfs.FS) (busy, total uint64, err error) {
	stat, err := fs.Stat()
	if err != nil {
		return 0, 0, fmt.Errorf("reading cpu stats: %w", err)
	}
	c := stat.CPUTotal
	idle := ticks(c.Idle) + ticks(c.Iowait)
	total = idle + ticks(c.User) + ticks(c.Nice) + ticks(c.System) +
		ticks(c.IRQ) + ticks(c.SoftIRQ) + ticks(c.Steal)
	if total == 0 {
		return 0, 0, errors.New("no aggregate cpu time reported")
	}
	return total - idle, total, nil
}

func ticks(seconds float64) uint64 {
	return uint64(math.Round(seconds * userHZ))
}

func nativeMemoryInfo() (models.MemoryInfo, error) {
	fs, err := procfs.NewDefaultFS()
	if err != nil {
		return models.MemoryInfo{}, err
	}
	return memoryInfo(fs)
}

// memoryInfo reads MemTotal and MemAvailable. Kernels without MemAvailable
// fall back to MemFree plus page cache.
func memoryInfo(fs procfs.FS) (models.MemoryInfo, error) {
	meminfo, err := fs.Meminfo()
	if err != nil {
		return models.MemoryInfo{}, fmt.Errorf("reading meminfo: %w", err)
	}
	total := kibibytes(meminfo.MemTotal)
	if total == 0 {
		return models.MemoryInfo{}, errors.New("MemTotal missing from meminfo")
	}
	var available uint64
	if meminfo.MemAvailable != nil {
		available = kibibytes(meminfo.MemAvailable)
	} else {
		available = kibibytes(meminfo.MemFree) + kibibytes(meminfo.Buffers) + kibibytes(meminfo.Cached)
	}
	available = min(available, total)
	return models.MemoryInfo{
		Used:      total - available,
		Available: available,
		Total:     total,
	}, nil
}

func kibibytes(v *uint64) uint64 {
	if v == nil {
		return 0
	}
	return *v * 1024 //nolint:gomnd
}
