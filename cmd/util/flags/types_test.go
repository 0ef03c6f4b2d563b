//go:build unit || !integration

package flags

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacalhau-project/governor/cmd/util/output"
	"github.com/bacalhau-project/governor/pkg/logger"
	"github.com/bacalhau-project/governor/pkg/models"
)

func TestResourceTypeFlag(t *testing.T) {
	rt := models.ResourceTypeCPU
	flag := ResourceTypeFlag(&rt)
	assert.Equal(t, "CPU", flag.String())

	require.NoError(t, flag.Set("gpu"))
	assert.Equal(t, models.ResourceTypeGPU, rt)

	require.Error(t, flag.Set("tpu"))
	assert.Equal(t, models.ResourceTypeGPU, rt, "a failed parse keeps the previous value")
}

func TestOutputFormatFlag(t *testing.T) {
	format := output.TableFormat
	flag := OutputFormatFlag(&format)
	require.NoError(t, flag.Set("json"))
	assert.Equal(t, output.JSONFormat, format)
	assert.Error(t, flag.Set("xml"))
}

func TestLoggingFlag(t *testing.T) {
	mode := logger.LogModeDefault
	flag := LoggingFlag(&mode)
	require.NoError(t, flag.Set("JSON"))
	assert.Equal(t, logger.LogModeJSON, mode)
	assert.Equal(t, "logging-mode", flag.Type())
}
