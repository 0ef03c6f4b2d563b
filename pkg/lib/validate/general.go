// Package validate provides small helpers that return an error built from
// the given message when a condition does not hold. They compose with
// errors.Join to validate a whole struct in one expression.
package validate

import (
	"fmt"
	"reflect"
	"strings"
)

// NotNil checks that value is not nil, including typed nil pointers,
// maps, slices, channels, funcs and interfaces.
func NotNil(value any, msg string, args ...any) error {
	if value == nil {
		return createError(msg, args...)
	}
	v := reflect.ValueOf(value)
	switch v.Kind() {
	case reflect.Ptr, reflect.Map, reflect.Slice, reflect.Chan, reflect.Func, reflect.Interface:
		if v.IsNil() {
			return createError(msg, args...)
		}
	default:
	}
	return nil
}

// NotBlank checks that s contains something other than whitespace.
func NotBlank(s string, msg string, args ...any) error {
	if strings.TrimSpace(s) == "" {
		return createError(msg, args...)
	}
	return nil
}

// True checks that the condition holds.
func True(condition bool, msg string, args ...any) error {
	if !condition {
		return createError(msg, args...)
	}
	return nil
}

func createError(msg string, args ...any) error {
	if len(args) == 0 {
		return fmt.Errorf("%s", msg)
	}
	return fmt.Errorf(msg, args...)
}
