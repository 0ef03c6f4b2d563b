package models

import (
	"maps"
	"time"
)

// ResourceUsage is a point in time view of allocated and available amounts per resource type.
// It is recomputed on every request and never cached.
type ResourceUsage struct {
	Allocated         map[ResourceType]int64   `json:"Allocated"`
	Available         map[ResourceType]int64   `json:"Available"`
	Utilization       map[ResourceType]float64 `json:"Utilization"`
	ActiveAllocations []ResourceAllocation     `json:"ActiveAllocations"`
	Timestamp         time.Time                `json:"Timestamp"`
}

// NewResourceUsage returns a usage with every resource type present and zeroed.
func NewResourceUsage(ts time.Time) ResourceUsage {
	u := ResourceUsage{
		Allocated:         make(map[ResourceType]int64, len(allResourceTypes)),
		Available:         make(map[ResourceType]int64, len(allResourceTypes)),
		Utilization:       make(map[ResourceType]float64, len(allResourceTypes)),
		ActiveAllocations: []ResourceAllocation{},
		Timestamp:         ts,
	}
	for _, t := range allResourceTypes {
		u.Allocated[t] = 0
		u.Available[t] = 0
		u.Utilization[t] = 0
	}
	return u
}

// Copy returns a deep copy of u.
func (u ResourceUsage) Copy() ResourceUsage {
	out := u
	out.Allocated = maps.Clone(u.Allocated)
	out.Available = maps.Clone(u.Available)
	out.Utilization = maps.Clone(u.Utilization)
	out.ActiveAllocations = CopyAllocations(u.ActiveAllocations)
	return out
}

// Set records allocated and available amounts for t and recomputes its utilization.
func (u *ResourceUsage) Set(t ResourceType, allocated, available int64) {
	u.Allocated[t] = allocated
	u.Available[t] = available
	u.Utilization[t] = Utilization(allocated, available)
}

// UtilizationOf returns the utilization percentage of t, 0 if unknown.
func (u ResourceUsage) UtilizationOf(t ResourceType) float64 {
	return u.Utilization[t]
}

// Utilization returns allocated / (allocated + available) * 100, or 0 when the total is 0.
func Utilization(allocated, available int64) float64 {
	total := allocated + available
	if total <= 0 {
		return 0
	}
	return float64(allocated) / float64(total) * 100
}

// MemoryInfo describes host memory in bytes.
type MemoryInfo struct {
	Used      uint64 `json:"Used"`
	Available uint64 `json:"Available"`
	Total     uint64 `json:"Total"`
}

// UtilizationPercent returns Used / Total * 100, or 0 when Total is 0.
func (m MemoryInfo) UtilizationPercent() float64 {
	if m.Total == 0 {
		return 0
	}
	return float64(m.Used) / float64(m.Total) * 100
}

// DiskInfo describes the filesystem containing Path, in bytes.
type DiskInfo struct {
	Path      string `json:"Path"`
	Used      uint64 `json:"Used"`
	Available uint64 `json:"Available"`
	Total     uint64 `json:"Total"`
}

// UtilizationPercent returns Used / Total * 100, or 0 when Total is 0.
func (d DiskInfo) UtilizationPercent() float64 {
	if d.Total == 0 {
		return 0
	}
	return float64(d.Used) / float64(d.Total) * 100
}

// SystemResourceUsage is a raw host sample taken by the monitor.
type SystemResourceUsage struct {
	CPUPercent float64    `json:"CPUPercent"`
	Memory     MemoryInfo `json:"Memory"`
	Disk       DiskInfo   `json:"Disk"`
	Timestamp  time.Time  `json:"Timestamp"`
}

// CPUUnitsPerPercent scales CPU percentages into the integer units shared with
// byte denominated types when a system sample is converted into a ResourceUsage.
// The conversion is lossy below 0.01 percent.
const CPUUnitsPerPercent = 100

// CPUUnitsPerCore is the amount of ResourceTypeCPU that represents one logical core.
const CPUUnitsPerCore = 100

// ToResourceUsage converts a host sample into the ResourceUsage shape.
// CPU is expressed in hundredths of a percent, Memory and Storage in bytes.
// Other resource types are left at zero.
func (s SystemResourceUsage) ToResourceUsage() ResourceUsage {
	u := NewResourceUsage(s.Timestamp)
	cpuUsed := int64(s.CPUPercent * CPUUnitsPerPercent)
	cpuFree := int64(100*CPUUnitsPerPercent) - cpuUsed
	if cpuFree < 0 {
		cpuFree = 0
	}
	u.Set(ResourceTypeCPU, cpuUsed, cpuFree)
	u.Set(ResourceTypeMemory, int64(s.Memory.Used), int64(s.Memory.Available))
	u.Set(ResourceTypeStorage, int64(s.Disk.Used), int64(s.Disk.Available))
	return u
}
