package errors

import (
	stderrors "errors"
	"fmt"
)

// AppError is the error type raised by seqkit itself.
type AppError struct {
	// Code is a machine-readable error code.
	Code ErrorCode `json:"code"`
	// Message is a human-readable error message.
	Message string `json:"message"`
	// Details contains additional context for the error.
	Details map[string]any `json:"details,omitempty"`
	// Cause is the underlying error that caused this error.
	Cause error `json:"-"`
}

// Sentinels for errors.Is comparisons. They match any AppError with the same code.
var (
	ErrMissingArgument = &AppError{Code: ErrCodeMissingArgument, Message: "missing argument"}
	ErrNoElements      = &AppError{Code: ErrCodeNoElements, Message: "sequence contains no elements"}
	ErrMoreThanOne     = &AppError{Code: ErrCodeMoreThanOne, Message: "sequence contains more than one element"}
	ErrOverflow        = &AppError{Code: ErrCodeOverflow, Message: "arithmetic overflow"}
	ErrUnavailable     = &AppError{Code: ErrCodeUnavailable, Message: "unavailable"}
)

// Error returns the string representation of the error.
func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// Is reports whether target is an AppError with the same code.
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithCause sets the underlying cause of the error and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetails merges the provided details into the error and returns the receiver.
func (e *AppError) WithDetails(details map[string]any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	for k, v := range details {
		e.Details[k] = v
	}
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates a new AppError.
func New(code ErrorCode, message string) *AppError {
	return &AppError{Code: code, Message: message}
}

// --- Constructors ---

// MissingArgument creates an AppError for a nil required argument.
func MissingArgument(name string) *AppError {
	return &AppError{
		Code: ErrCodeMissingArgument, Message: fmt.Sprintf("argument %q must not be nil", name),
		Details: map[string]any{"argument": name},
	}
}

// InvalidArgument creates an AppError for an unusable argument.
func InvalidArgument(name, reason string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidArgument, Message: fmt.Sprintf("argument %q is invalid: %s", name, reason),
		Details: map[string]any{"argument": name},
	}
}

// NoElements creates an AppError for an operator that required at least one element.
func NoElements(operator string) *AppError {
	return &AppError{
		Code: ErrCodeNoElements, Message: "sequence contains no elements",
		Details: map[string]any{"operator": operator},
	}
}

// MoreThanOne creates an AppError for an operator that required at most one element.
func MoreThanOne(operator string) *AppError {
	return &AppError{
		Code: ErrCodeMoreThanOne, Message: "sequence contains more than one element",
		Details: map[string]any{"operator": operator},
	}
}

// Overflow creates an AppError for a counter that ran past its range.
func Overflow(operator string) *AppError {
	return &AppError{
		Code: ErrCodeOverflow, Message: "element index overflowed",
		Details: map[string]any{"operator": operator},
	}
}

// SourceFailed creates an AppError for an I/O-backed source failure.
func SourceFailed(source string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeSourceFailed, Message: fmt.Sprintf("source %s failed", source),
		Details: map[string]any{"source": source}, Cause: cause,
	}
}

// Decode creates an AppError for an element that could not be decoded.
func Decode(source string, cause error) *AppError {
	return &AppError{
		Code: ErrCodeDecode, Message: fmt.Sprintf("could not decode element from %s", source),
		Details: map[string]any{"source": source}, Cause: cause,
	}
}

// Unavailable creates an AppError for a resource that refused work.
func Unavailable(resource, reason string) *AppError {
	return &AppError{
		Code: ErrCodeUnavailable, Message: fmt.Sprintf("%s unavailable: %s", resource, reason),
		Details: map[string]any{"resource": resource},
	}
}

// Internal creates an AppError for an unexpected failure.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: "an unexpected error occurred",
		Cause: cause,
	}
}

// IsAppError checks if an error is an AppError.
func IsAppError(err error) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr)
}

// AsAppError converts an error to an AppError if possible.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if stderrors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the code of the first AppError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return ""
}
