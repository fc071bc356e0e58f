// Package parseerrors provides structured error handling for the chunked parse
// engine. Errors carry a category, a message, an optional cause, key-value
// details and the call stack captured where they were created.
//
// # Overview
//
// Two families of error types exist:
//   - Fatal types abort the whole parse job: ErrorTypeChunkRead,
//     ErrorTypeInternal, ErrorTypeConfig, ErrorTypeValidation and
//     ErrorTypeCanceled. They are returned from the job as a single terminal
//     error.
//   - Recoverable types never leave a worker: ErrorTypeMalformedNumeric,
//     ErrorTypeRowWidth and ErrorTypeUnterminatedQuote. They turn the
//     affected cell into NaN and are only counted and logged.
//
// # Basic Usage
//
//	if err != nil {
//	    return parseerrors.Wrap(err, parseerrors.ErrorTypeChunkRead, "failed to read chunk").
//	        WithDetail("chunk", idx).
//	        WithDetail("offset", off)
//	}
//
// # Thread Safety
//
// Error instances are not safe for concurrent modification. Call WithDetail
// before handing an error to another goroutine.
package parseerrors

import (
	"context"
	"errors"
	"runtime"

	stringpool "github.com/ajitpratap0/chunkframe/pkg/strings"
)

// ErrorType represents the category of an error.
type ErrorType string

const (
	// ErrorTypeChunkRead represents a chunk that could not be fetched from the byte source
	ErrorTypeChunkRead ErrorType = "chunk_read"
	// ErrorTypeMalformedNumeric represents a token that failed to parse in a numeric column
	ErrorTypeMalformedNumeric ErrorType = "malformed_numeric"
	// ErrorTypeRowWidth represents a row narrower than the frame
	ErrorTypeRowWidth ErrorType = "row_width"
	// ErrorTypeUnterminatedQuote represents a row that ended inside a quoted field
	ErrorTypeUnterminatedQuote ErrorType = "unterminated_quote"
	// ErrorTypeInternal represents a broken invariant inside the engine
	ErrorTypeInternal ErrorType = "internal"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeValidation represents input that cannot produce a valid frame
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeCanceled represents a job aborted by its context
	ErrorTypeCanceled ErrorType = "canceled"
)

// Error represents a structured error with context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Details map[string]interface{}
	Stack   []StackFrame
}

// StackFrame represents a single frame in the call stack.
type StackFrame struct {
	Function string // Fully qualified function name
	File     string // Source file path
	Line     int    // Line number in source file
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return stringpool.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return stringpool.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Cause
}

// WithDetail adds a key-value detail to the error. Calls can be chained.
func (e *Error) WithDetail(key string, value interface{}) *Error {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// New creates a new error with the given type and message, capturing the
// call stack at the point of creation.
func New(errType ErrorType, message string) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with additional context. If err is already a
// structured Error its stack is preserved. Returns nil if err is nil.
//
// Context cancellation is always reported as ErrorTypeCanceled so callers can
// tell an aborted job from a failed one.
func Wrap(err error, errType ErrorType, message string) *Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		errType = ErrorTypeCanceled
	}

	var existingErr *Error
	if errors.As(err, &existingErr) {
		return &Error{
			Type:    errType,
			Message: message,
			Cause:   err,
			Stack:   existingErr.Stack,
		}
	}

	return &Error{
		Type:    errType,
		Message: message,
		Cause:   err,
		Stack:   captureStack(2),
	}
}

// IsFatal reports whether an error of this type aborts the whole parse job.
func IsFatal(errType ErrorType) bool {
	switch errType {
	case ErrorTypeChunkRead, ErrorTypeInternal, ErrorTypeConfig, ErrorTypeValidation, ErrorTypeCanceled:
		return true
	case ErrorTypeMalformedNumeric, ErrorTypeRowWidth, ErrorTypeUnterminatedQuote:
		return false
	default:
		return true
	}
}

// IsType checks if the error, or any error it wraps, is of the given type.
func IsType(err error, errType ErrorType) bool {
	var e *Error
	for err != nil {
		if !errors.As(err, &e) {
			return false
		}
		if e.Type == errType {
			return true
		}
		err = e.Cause
	}
	return false
}

// TypeOf returns the type of the outermost structured error in the chain,
// or the empty string when err carries none.
func TypeOf(err error) ErrorType {
	var e *Error
	if !errors.As(err, &e) {
		return ""
	}
	return e.Type
}

// captureStack captures the current call stack up to maxFrames deep,
// skipping the specified number of frames from the top.
func captureStack(skip int) []StackFrame {
	const maxFrames = 32
	frames := make([]StackFrame, 0, maxFrames)

	for i := skip; i < maxFrames+skip; i++ {
		pc, file, line, ok := runtime.Caller(i)
		if !ok {
			break
		}

		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		frames = append(frames, StackFrame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}
