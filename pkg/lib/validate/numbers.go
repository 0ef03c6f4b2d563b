package validate

import (
	"github.com/bacalhau-project/governor/pkg/lib/math"
)

// IsGreaterThanZero checks if the provided numeric value (of type T) is greater than zero.
// It returns an error if the value is not greater than zero, using the provided message and arguments.
// T is a generic type constrained to math.Number, allowing the function to work with various numeric types.
func IsGreaterThanZero[T math.Number](value T, msg string, args ...any) error {
	if value <= 0 {
		return createError(msg, args...)
	}
	return nil
}

// IsGreaterOrEqualToZero checks if the provided numeric value (of type T) is greater or equal to zero.
// It returns an error if the value is less than zero, using the provided message and arguments.
func IsGreaterOrEqualToZero[T math.Number](value T, msg string, args ...any) error {
	if value < 0 {
		return createError(msg, args...)
	}
	return nil
}

// IsGreaterThan checks that value is strictly greater than other.
func IsGreaterThan[T math.Number](value, other T, msg string, args ...any) error {
	if value <= other {
		return createError(msg, args...)
	}
	return nil
}

// IsGreaterOrEqual checks that value is greater than or equal to other.
func IsGreaterOrEqual[T math.Number](value, other T, msg string, args ...any) error {
	if value < other {
		return createError(msg, args...)
	}
	return nil
}

// IsLessThan checks that value is strictly less than other.
func IsLessThan[T math.Number](value, other T, msg string, args ...any) error {
	if value >= other {
		return createError(msg, args...)
	}
	return nil
}

// IsLessOrEqual checks that value is less than or equal to other.
func IsLessOrEqual[T math.Number](value, other T, msg string, args ...any) error {
	if value > other {
		return createError(msg, args...)
	}
	return nil
}

// IsInRange checks that value lies in the closed range [low, high].
func IsInRange[T math.Number](value, low, high T, msg string, args ...any) error {
	if value < low || value > high {
		return createError(msg, args...)
	}
	return nil
}
