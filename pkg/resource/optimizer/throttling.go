package optimizer

import (
	"fmt"
	"time"

	"github.com/bacalhau-project/governor/pkg/models"
)

// ThrottlingPolicy is the throttling ladder. CPU thresholds are checked from
// high to low; memory pressure above MemoryPercent overrides the CPU level.
type ThrottlingPolicy struct {
	CPUHighPercent   float64
	CPUMediumPercent float64
	CPULowPercent    float64
	MemoryPercent    float64

	HighDelay   time.Duration
	MediumDelay time.Duration
	LowDelay    time.Duration
	MemoryDelay time.Duration
}

func DefaultThrottlingPolicy() ThrottlingPolicy {
	return ThrottlingPolicy{
		CPUHighPercent:   90,
		CPUMediumPercent: 75,
		CPULowPercent:    60,
		MemoryPercent:    85,
		HighDelay:        5 * time.Second,
		MediumDelay:      2 * time.Second,
		LowDelay:         time.Second,
		MemoryDelay:      10 * time.Second,
	}
}

// Evaluate maps a host sample onto the ladder.
func (p ThrottlingPolicy) Evaluate(usage models.SystemResourceUsage) models.ThrottlingResult {
	if memory := usage.Memory.UtilizationPercent(); memory > p.MemoryPercent {
		return models.ThrottlingResult{
			ShouldThrottle:   true,
			Level:            models.ThrottlingHigh,
			RecommendedDelay: p.MemoryDelay,
			Reason:           fmt.Sprintf("memory utilization %.1f%% above %.0f%%", memory, p.MemoryPercent),
		}
	}

	cpu := usage.CPUPercent
	var (
		level     models.ThrottlingLevel
		delay     time.Duration
		threshold float64
	)
	switch {
	case cpu > p.CPUHighPercent:
		level, delay, threshold = models.ThrottlingHigh, p.HighDelay, p.CPUHighPercent
	case cpu > p.CPUMediumPercent:
		level, delay, threshold = models.ThrottlingMedium, p.MediumDelay, p.CPUMediumPercent
	case cpu > p.CPULowPercent:
		level, delay, threshold = models.ThrottlingLow, p.LowDelay, p.CPULowPercent
	default:
		return models.ThrottlingResult{Level: models.ThrottlingNone}
	}
	return models.ThrottlingResult{
		ShouldThrottle:   true,
		Level:            level,
		RecommendedDelay: delay,
		Reason:           fmt.Sprintf("cpu utilization %.1f%% above %.0f%%", cpu, threshold),
	}
}
