package errors

// ErrorCode represents a machine-readable error code.
type ErrorCode string

// Precondition errors, raised while a pipeline is being built.
const (
	// ErrCodeMissingArgument indicates a required source, selector or comparer was nil.
	ErrCodeMissingArgument ErrorCode = "MISSING_ARGUMENT"
	// ErrCodeInvalidArgument indicates an argument is present but unusable.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
)

// Enumeration errors, raised while a pipeline is being pulled.
const (
	// ErrCodeNoElements indicates a singleton operator found an empty sequence.
	ErrCodeNoElements ErrorCode = "NO_ELEMENTS"
	// ErrCodeMoreThanOne indicates a singleton operator found a second element.
	ErrCodeMoreThanOne ErrorCode = "MORE_THAN_ONE_ELEMENT"
	// ErrCodeOverflow indicates an element counter exceeded its range.
	ErrCodeOverflow ErrorCode = "OVERFLOW"
)

// Source errors
const (
	// ErrCodeSourceFailed indicates an I/O-backed source could not produce elements.
	ErrCodeSourceFailed ErrorCode = "SOURCE_FAILED"
	// ErrCodeDecode indicates a source element could not be decoded.
	ErrCodeDecode ErrorCode = "DECODE_FAILED"
	// ErrCodeUnavailable indicates a source was refused by a circuit breaker,
	// bulkhead or rate limiter.
	ErrCodeUnavailable ErrorCode = "UNAVAILABLE"
	// ErrCodeInternal indicates an unexpected internal failure.
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

var enumerationCodes = map[ErrorCode]bool{
	ErrCodeNoElements:  true,
	ErrCodeMoreThanOne: true,
	ErrCodeOverflow:    true,
}

// IsEnumerationCode reports whether the code is raised during enumeration
// rather than at pipeline construction or by a source.
func IsEnumerationCode(code ErrorCode) bool {
	return enumerationCodes[code]
}
