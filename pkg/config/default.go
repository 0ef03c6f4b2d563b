package config

import (
	"time"

	"github.com/bacalhau-project/governor/pkg/config/types"
)

const (
	Minute = types.Duration(time.Minute)
	Second = types.Duration(time.Second)
	Milli  = types.Duration(time.Millisecond)
)

const (
	DefaultHostProviderID = "host"
	DefaultMetricsAddress = "127.0.0.1:2112"
)

// Default returns the default configuration of the governor.
func Default() types.Governor {
	return types.Governor{
		Logging: types.Logging{
			Mode:  "default",
			Level: "info",
		},
		Monitor: types.Monitor{
			SampleInterval:  30 * Second,
			CPUSampleWindow: 100 * Milli,
			HeapMultiplier:  4,
		},
		Manager: types.Manager{
			MonitoringInterval: 30 * Second,
			AlertTTL:           5 * Minute,
			ScaleUpPercent:     90,
			ScaleDownPercent:   20,
		},
		Optimizer: types.Optimizer{
			Interval:    30 * Second,
			HistorySize: 100,
			Throttling:  DefaultThrottling(),
		},
		Providers: types.Providers{
			Host: types.HostProvider{
				Enabled:        true,
				ID:             DefaultHostProviderID,
				OfferedPercent: 80,
			},
		},
		Metrics: types.Metrics{
			Enabled: false,
			Address: DefaultMetricsAddress,
		},
	}
}

// DefaultThrottling returns the default throttling ladder.
func DefaultThrottling() types.Throttling {
	return types.Throttling{
		CPUHighPercent:   90,
		CPUMediumPercent: 75,
		CPULowPercent:    60,
		MemoryPercent:    85,
		HighDelay:        5 * Second,
		MediumDelay:      2 * Second,
		LowDelay:         1 * Second,
		MemoryDelay:      10 * Second,
	}
}
