//go:build unit || !integration

package math

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, Clamp(-3.5, 0, 100))
	assert.Equal(t, 100.0, Clamp(120.0, 0, 100))
	assert.Equal(t, 42.0, Clamp(42.0, 0, 100))
	assert.Equal(t, int64(7), Clamp(int64(7), 1, 10))
	assert.Equal(t, uint64(1), Clamp(uint64(0), 1, 10))
}
