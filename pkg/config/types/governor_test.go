//go:build unit || !integration

package types_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bacalhau-project/governor/pkg/config"
	"github.com/bacalhau-project/governor/pkg/config/types"
)

func TestDefaultIsValid(t *testing.T) {
	assert.NoError(t, config.Default().Validate())
}

func TestDiskPathMustBeDirectory(t *testing.T) {
	cfg := config.Default()
	cfg.Monitor.DiskPath = t.TempDir()
	cfg.Providers.Host.DiskPath = cfg.Monitor.DiskPath
	assert.NoError(t, cfg.Validate())

	cfg.Monitor.DiskPath = filepath.Join(t.TempDir(), "missing")
	assert.ErrorContains(t, cfg.Validate(), "Monitor.DiskPath")
}

func TestProvidersRejectDuplicateIDs(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.Pools = []types.PoolProvider{
		{ID: "host", Capacity: map[string]string{"gpu": "1"}},
	}
	assert.ErrorContains(t, cfg.Validate(), "duplicate provider id")
}

func TestPoolRejectsUnknownType(t *testing.T) {
	cfg := config.Default()
	cfg.Providers.Pools = []types.PoolProvider{
		{ID: "tpus", Capacity: map[string]string{"tpu": "1"}},
	}
	assert.Error(t, cfg.Validate())
}

func TestThrottlingOrdering(t *testing.T) {
	cfg := config.Default()
	cfg.Optimizer.Throttling.CPUMediumPercent = 95
	assert.ErrorContains(t, cfg.Validate(), "CPUHighPercent")
}

func TestSampleIntervalLongerThanCPUWindow(t *testing.T) {
	cfg := config.Default()
	cfg.Monitor.CPUSampleWindow = cfg.Monitor.SampleInterval
	assert.ErrorContains(t, cfg.Validate(), "Monitor.SampleInterval")
}
