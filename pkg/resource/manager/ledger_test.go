//go:build unit || !integration

package manager

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bacalhau-project/governor/pkg/models"
)

func TestLedgerTotals(t *testing.T) {
	l := newLedger()
	now := time.Now()
	require.True(t, l.insert(models.ResourceAllocation{ID: "b", Type: models.ResourceTypeCPU, Amount: 30, AllocatedAt: now}))
	require.True(t, l.insert(models.ResourceAllocation{ID: "a", Type: models.ResourceTypeCPU, Amount: 20, AllocatedAt: now}))
	require.True(t, l.insert(models.ResourceAllocation{ID: "c", Type: models.ResourceTypeGPU, Amount: 1, AllocatedAt: now.Add(-time.Second)}))
	assert.False(t, l.insert(models.ResourceAllocation{ID: "a", Type: models.ResourceTypeCPU, Amount: 99}))

	assert.Equal(t, int64(50), l.total(models.ResourceTypeCPU))
	assert.Equal(t, 3, l.len())

	totals, list := l.snapshot()
	assert.Equal(t, int64(1), totals[models.ResourceTypeGPU])
	require.Len(t, list, 3)
	assert.Equal(t, []string{"c", "a", "b"}, []string{list[0].ID, list[1].ID, list[2].ID})

	removed, ok := l.remove("b")
	require.True(t, ok)
	assert.Equal(t, int64(30), removed.Amount)
	assert.Equal(t, int64(20), l.total(models.ResourceTypeCPU))

	_, ok = l.remove("b")
	assert.False(t, ok)
}
