//go:build !linux

package monitor

import (
	"errors"

	"github.com/bacalhau-project/governor/pkg/models"
)

var errNoNativeCounters = errors.New("native host counters are not supported on this platform")

func nativeCPUCounters() (uint64, uint64, error) {
	return 0, 0, errNoNativeCounters
}

func nativeMemoryInfo() (models.MemoryInfo, error) {
	return models.MemoryInfo{}, errNoNativeCounters
}
