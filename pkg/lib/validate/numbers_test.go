//go:build unit || !integration

package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumberChecks(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"interval above zero", IsGreaterThanZero(30*time.Second, "interval"), false},
		{"zero interval", IsGreaterThanZero(time.Duration(0), "interval"), true},
		{"negative amount", IsGreaterThanZero(int64(-1), "amount"), true},
		{"zero capacity allowed", IsGreaterOrEqualToZero(int64(0), "capacity"), false},
		{"negative capacity", IsGreaterOrEqualToZero(int64(-5), "capacity"), true},
		{"sample interval longer than window", IsGreaterThan(time.Second, 100*time.Millisecond, "window"), false},
		{"equal interval and window", IsGreaterThan(time.Second, time.Second, "window"), true},
		{"high threshold above medium", IsGreaterOrEqual(90.0, 75.0, "ladder"), false},
		{"equal thresholds", IsGreaterOrEqual(75.0, 75.0, "ladder"), false},
		{"inverted thresholds", IsGreaterOrEqual(60.0, 75.0, "ladder"), true},
		{"scale down below scale up", IsLessThan(20.0, 90.0, "scale"), false},
		{"scale down equal to scale up", IsLessThan(90.0, 90.0, "scale"), true},
		{"soft at hard", IsLessOrEqual(int64(950), int64(950), "soft"), false},
		{"soft above hard", IsLessOrEqual(int64(951), int64(950), "soft"), true},
		{"percent in range", IsInRange(80.0, 1, 100, "percent"), false},
		{"percent at upper bound", IsInRange(100.0, 1, 100, "percent"), false},
		{"percent below range", IsInRange(0.5, 1, 100, "percent"), true},
		{"percent above range", IsInRange(101, 1, 100, "percent"), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.wantErr {
				assert.Error(t, tt.err)
			} else {
				assert.NoError(t, tt.err)
			}
		})
	}
}

func TestNumberCheckMessage(t *testing.T) {
	err := IsLessOrEqual(int64(12), int64(8), "Manager.Limits.%s: soft limit %d above hard limit %d", "GPU", 12, 8)
	assert.EqualError(t, err, "Manager.Limits.GPU: soft limit 12 above hard limit 8")
}
