//go:build unit || !integration

package goverrors

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (s *ErrorTestSuite) TestNew() {
	err := New("test error")
	s.Equal("test error", err.Error())
	s.Equal(Unknown, err.Code())
	s.Empty(err.Hint())
	s.False(err.Retryable())
	s.Nil(err.Details())
	s.NotEmpty(err.StackTrace())
}

func (s *ErrorTestSuite) TestNewWithFormat() {
	err := New("limit %d exceeded for %s", 10, "CPU")
	s.Equal("limit 10 exceeded for CPU", err.Error())
}

func (s *ErrorTestSuite) TestBuilder() {
	err := New("no provider").
		WithCode(NoProviderAvailable).
		WithComponent("ResourceManager").
		WithHint("register a provider for %s", "GPU").
		WithDetail("resource", "GPU").
		WithRetryable()

	s.Equal(NoProviderAvailable, err.Code())
	s.Equal("ResourceManager", err.Component())
	s.Equal("register a provider for GPU", err.Hint())
	s.Equal(map[string]string{"resource": "GPU"}, err.Details())
	s.True(err.Retryable())
}

func (s *ErrorTestSuite) TestWrapPlainError() {
	original := errors.New("original error")
	wrapped := Wrap(original, "wrapped %s", "error")

	s.Equal("wrapped error: original error", wrapped.Error())
	s.Equal("wrapped error: original error", wrapped.ErrorWrapped())
	s.Equal(original, errors.Unwrap(wrapped))
	s.ErrorIs(wrapped, original)
}

func (s *ErrorTestSuite) TestWrapGovernorError() {
	original := New("original error").WithCode(LimitExceeded).WithComponent("ResourceManager")
	wrapped := Wrap(original, "wrapped error")

	s.Equal("original error", wrapped.Error())
	s.Equal("wrapped error: original error", wrapped.ErrorWrapped())
	s.Equal(LimitExceeded, wrapped.Code())
	s.Equal("ResourceManager", wrapped.Component())
	s.Equal(original.StackTrace(), wrapped.StackTrace())
}

func (s *ErrorTestSuite) TestWrapNil() {
	s.Nil(Wrap(nil, "nothing"))
}

func (s *ErrorTestSuite) TestWrapContextErrors() {
	s.Equal(Cancelled, Wrap(context.Canceled, "waiting").Code())
	s.Equal(Cancelled, Wrap(context.DeadlineExceeded, "waiting").Code())
}

func (s *ErrorTestSuite) TestIsErrorWithCode() {
	err := fmt.Errorf("outer: %w", New("inner").WithCode(NotFound))
	s.True(IsErrorWithCode(err, NotFound))
	s.False(IsErrorWithCode(err, BadRequest))
	s.False(IsErrorWithCode(errors.New("plain"), NotFound))
	s.Equal(NotFound, CodeOf(err))
	s.Equal(Unknown, CodeOf(errors.New("plain")))
}
