//go:build unit || !integration

package types

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacalhau-project/governor/pkg/models"
)

func TestParseQuantity(t *testing.T) {
	tests := []struct {
		rt    models.ResourceType
		input string
		want  int64
	}{
		{rt: models.ResourceTypeCPU, input: "2", want: 200},
		{rt: models.ResourceTypeCPU, input: "500m", want: 50},
		{rt: models.ResourceTypeCPU, input: "0.25", want: 25},
		{rt: models.ResourceTypeMemory, input: "1kb", want: 1024},
		{rt: models.ResourceTypeMemory, input: "2Gi", want: 2 << 30},
		{rt: models.ResourceTypeStorage, input: "100 GB", want: 100 << 30},
		{rt: models.ResourceTypeNetwork, input: "100MB/s", want: 100 << 20},
		{rt: models.ResourceTypeGPU, input: "3", want: 3},
		{rt: models.ResourceTypeAIModel, input: "", want: 0},
	}
	for _, tt := range tests {
		t.Run(string(tt.rt)+"/"+tt.input, func(t *testing.T) {
			got, err := ParseQuantity(tt.rt, tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseQuantityErrors(t *testing.T) {
	_, err := ParseQuantity(models.ResourceTypeCPU, "two")
	assert.Error(t, err)
	_, err = ParseQuantity(models.ResourceTypeGPU, "1.5")
	assert.Error(t, err)
	_, err = ParseQuantity(models.ResourceTypeMemory, "12 parsecs")
	assert.Error(t, err)
}

func TestParseQuantityOrPercent(t *testing.T) {
	got, err := ParseQuantityOrPercent(models.ResourceTypeGPU, "75%", 8)
	require.NoError(t, err)
	assert.Equal(t, int64(6), got)

	got, err = ParseQuantityOrPercent(models.ResourceTypeGPU, "5", 8)
	require.NoError(t, err)
	assert.Equal(t, int64(5), got)

	_, err = ParseQuantityOrPercent(models.ResourceTypeGPU, "120%", 8)
	assert.Error(t, err)
}

func TestFormatQuantity(t *testing.T) {
	assert.Equal(t, "1500m", FormatQuantity(models.ResourceTypeCPU, 150))
	assert.Equal(t, "2", FormatQuantity(models.ResourceTypeGPU, 2))
	assert.Contains(t, FormatQuantity(models.ResourceTypeNetwork, 1024), "/s")
}

func TestDurationText(t *testing.T) {
	var d Duration
	require.NoError(t, d.UnmarshalText([]byte("1m30s")))
	assert.Equal(t, 90*time.Second, d.AsTimeDuration())

	b, err := d.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"1m30s"`, string(b))

	require.NoError(t, d.UnmarshalJSON([]byte(`1000`)))
	assert.Equal(t, time.Microsecond, d.AsTimeDuration())

	assert.Error(t, d.UnmarshalText([]byte("soon")))
}
