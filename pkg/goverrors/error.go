// Package goverrors provides the error type used across the governor.
// Errors carry a code, the component that raised them and an optional hint,
// and keep the chain of wrapped messages for logging.
package goverrors

import (
	"context"
	"errors"
	"fmt"

	pkgerrors "github.com/pkg/errors"
)

// Error is a governor error.
type Error interface {
	error
	// Code classifies the error.
	Code() ErrorCode
	// Component is the name of the component that raised the error.
	Component() string
	// Hint is an optional suggestion on how to resolve the error.
	Hint() string
	// Details holds optional structured context.
	Details() map[string]string
	// Retryable returns true if retrying the operation may succeed.
	Retryable() bool
	// ErrorWrapped returns the message including every wrapping layer.
	ErrorWrapped() string
	// StackTrace returns the stack trace captured when the error was created.
	StackTrace() string
	Unwrap() error

	WithCode(code ErrorCode) Error
	WithComponent(component string) Error
	WithHint(hint string, args ...any) Error
	WithDetails(details map[string]string) Error
	WithDetail(key, value string) Error
	WithRetryable() Error
}

type errorImpl struct {
	cause      error
	message    string
	wrappedMsg string
	code       ErrorCode
	component  string
	hint       string
	details    map[string]string
	retryable  bool
	stack      string
}

// New creates an Error with the given message. The message may contain format verbs.
func New(format string, args ...any) Error {
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}
	return &errorImpl{
		message:    msg,
		wrappedMsg: msg,
		code:       Unknown,
		stack:      captureStack(),
	}
}

// Wrap wraps err with a message. When err is already an Error its message,
// code, component and stack are preserved and only the wrapped message grows.
func Wrap(err error, format string, args ...any) Error {
	if err == nil {
		return nil
	}
	msg := format
	if len(args) > 0 {
		msg = fmt.Sprintf(format, args...)
	}

	var govErr Error
	if errors.As(err, &govErr) {
		return &errorImpl{
			cause:      err,
			message:    govErr.Error(),
			wrappedMsg: msg + ": " + govErr.ErrorWrapped(),
			code:       govErr.Code(),
			component:  govErr.Component(),
			hint:       govErr.Hint(),
			details:    govErr.Details(),
			retryable:  govErr.Retryable(),
			stack:      govErr.StackTrace(),
		}
	}

	full := msg + ": " + err.Error()
	code := Unknown
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		code = Cancelled
	}
	return &errorImpl{
		cause:      err,
		message:    full,
		wrappedMsg: full,
		code:       code,
		stack:      captureStack(),
	}
}

func (e *errorImpl) Error() string              { return e.message }
func (e *errorImpl) ErrorWrapped() string       { return e.wrappedMsg }
func (e *errorImpl) Code() ErrorCode            { return e.code }
func (e *errorImpl) Component() string          { return e.component }
func (e *errorImpl) Hint() string               { return e.hint }
func (e *errorImpl) Details() map[string]string { return e.details }
func (e *errorImpl) Retryable() bool            { return e.retryable }
func (e *errorImpl) StackTrace() string         { return e.stack }
func (e *errorImpl) Unwrap() error              { return e.cause }

func (e *errorImpl) WithCode(code ErrorCode) Error {
	e.code = code
	return e
}

func (e *errorImpl) WithComponent(component string) Error {
	e.component = component
	return e
}

func (e *errorImpl) WithHint(hint string, args ...any) Error {
	if len(args) > 0 {
		hint = fmt.Sprintf(hint, args...)
	}
	e.hint = hint
	return e
}

func (e *errorImpl) WithDetails(details map[string]string) Error {
	e.details = details
	return e
}

func (e *errorImpl) WithDetail(key, value string) Error {
	if e.details == nil {
		e.details = make(map[string]string)
	}
	e.details[key] = value
	return e
}

func (e *errorImpl) WithRetryable() Error {
	e.retryable = true
	return e
}

// IsErrorWithCode returns true if err, or any error it wraps, is an Error with the given code.
func IsErrorWithCode(err error, code ErrorCode) bool {
	var govErr Error
	if errors.As(err, &govErr) {
		return govErr.Code() == code
	}
	return false
}

// CodeOf returns the code of err, Unknown if err is not an Error.
func CodeOf(err error) ErrorCode {
	var govErr Error
	if errors.As(err, &govErr) {
		return govErr.Code()
	}
	return Unknown
}

type stackTracer interface {
	StackTrace() pkgerrors.StackTrace
}

var errStack = errors.New("stack")

func captureStack() string {
	st, ok := pkgerrors.WithStack(errStack).(stackTracer)
	if !ok {
		return ""
	}
	frames := st.StackTrace()
	// skip captureStack and its caller inside this package
	if len(frames) > 2 {
		frames = frames[2:]
	}
	return fmt.Sprintf("%+v", frames)
}

// compile-time check that errorImpl implements Error
var _ Error = (*errorImpl)(nil)
