//go:build unit || !integration

package validate

import "testing"

// TestIsNotNil tests the NotNil function for various scenarios.
func TestIsNotNil(t *testing.T) {
	t.Run("NilValue", func(t *testing.T) {
		err := NotNil(nil, "value should not be nil")
		if err == nil {
			t.Errorf("NotNil failed: expected error for nil value")
		}
	})

	t.Run("NonNilValue", func(t *testing.T) {
		err := NotNil(42, "value should not be nil")
		if err != nil {
			t.Errorf("NotNil failed: unexpected error for non-nil value")
		}
	})

	t.Run("NilPointer", func(t *testing.T) {
		var nilPointer *int
		err := NotNil(nilPointer, "value should not be nil")
		if err == nil {
			t.Errorf("NotNil failed: expected error for nil pointer")
		}
	})

	t.Run("NonNilPointer", func(t *testing.T) {
		nonNilPointer := new(int)
		err := NotNil(nonNilPointer, "value should not be nil")
		if err != nil {
			t.Errorf("NotNil failed: unexpected error for non-nil pointer")
		}
	})
}

func TestNotBlank(t *testing.T) {
	if err := NotBlank("  ", "requester id is blank"); err == nil {
		t.Errorf("NotBlank failed: expected error for whitespace")
	}
	if err := NotBlank("job-1", "requester id is blank"); err != nil {
		t.Errorf("NotBlank failed: unexpected error for non blank value")
	}
}

func TestNotNilTypedNilMap(t *testing.T) {
	var m map[string]int
	if err := NotNil(m, "map should not be nil"); err == nil {
		t.Errorf("NotNil failed: expected error for nil map")
	}
}

func TestMessageFormatting(t *testing.T) {
	err := IsInRange(120.0, 0, 100, "cpu threshold %v out of range", 120.0)
	if err == nil || err.Error() != "cpu threshold 120 out of range" {
		t.Errorf("IsInRange failed: unexpected error %v", err)
	}
	if err := IsInRange(50, 0, 100, "out of range"); err != nil {
		t.Errorf("IsInRange failed: unexpected error %v", err)
	}
	if err := True(false, "flag must be set"); err == nil {
		t.Errorf("True failed: expected error")
	}
}
