package collections

import "fmt"

// ErrorType categorizes a FilterError.
type ErrorType string

const (
	// ErrorTypeMissingParameter means a required piece of user input was
	// empty or whitespace-only.
	ErrorTypeMissingParameter ErrorType = "missing_parameter"
	// ErrorTypeIllegalParameter means user input was present but invalid
	// under the relevant grammar or schema.
	ErrorTypeIllegalParameter ErrorType = "illegal_parameter"
	// ErrorTypeValue signals programmer misuse of the API (an unsupported
	// column type reaching filter dispatch, a FilterSet constructed
	// without a view or collection where one is required, and so on).
	// It is never meant to be surfaced to an end user.
	ErrorTypeValue ErrorType = "value_error"
)

// FilterError is the single error type raised by this package.
type FilterError struct {
	Type    ErrorType
	Message string
	Field   string
	Cause   error
}

func (e *FilterError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("[%s] field %q: %s", e.Type, e.Field, e.Message)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *FilterError) Unwrap() error {
	return e.Cause
}

// WithField annotates the error with the field that produced it.
func (e *FilterError) WithField(field string) *FilterError {
	e.Field = field
	return e
}

// WithCause attaches an underlying cause.
func (e *FilterError) WithCause(cause error) *FilterError {
	e.Cause = cause
	return e
}

func newError(t ErrorType, format string, args ...any) *FilterError {
	return &FilterError{Type: t, Message: fmt.Sprintf(format, args...)}
}

// NewMissingParameterError builds a FilterError for missing/blank required
// user input.
func NewMissingParameterError(format string, args ...any) *FilterError {
	return newError(ErrorTypeMissingParameter, format, args...)
}

// NewIllegalParameterError builds a FilterError for user input that fails
// grammar or schema validation.
func NewIllegalParameterError(format string, args ...any) *FilterError {
	return newError(ErrorTypeIllegalParameter, format, args...)
}

// NewValueError builds a FilterError representing programmer misuse of the
// API. It is not intended to be shown to end users.
func NewValueError(format string, args ...any) *FilterError {
	return newError(ErrorTypeValue, format, args...)
}

// IsMissingParameter reports whether err is (or wraps) a missing-parameter
// FilterError.
func IsMissingParameter(err error) bool {
	return isErrorType(err, ErrorTypeMissingParameter)
}

// IsIllegalParameter reports whether err is (or wraps) an
// illegal-parameter FilterError.
func IsIllegalParameter(err error) bool {
	return isErrorType(err, ErrorTypeIllegalParameter)
}

// IsValueError reports whether err is (or wraps) a programmer-error
// FilterError.
func IsValueError(err error) bool {
	return isErrorType(err, ErrorTypeValue)
}

func isErrorType(err error, t ErrorType) bool {
	for err != nil {
		if fe, ok := err.(*FilterError); ok {
			return fe.Type == t
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

// wrapForField wraps err with a "Invalid filter for field <f>: ..." prefix,
// preserving the original FilterError's type when possible. This matches
// the propagation policy of wrapping inner errors with contextual prefixes
// identifying the field.
func wrapForField(field string, err error) error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*FilterError); ok {
		return &FilterError{
			Type:    fe.Type,
			Message: fmt.Sprintf("Invalid filter for field %s: %s", field, fe.Message),
			Field:   field,
			Cause:   err,
		}
	}
	return fmt.Errorf("invalid filter for field %s: %w", field, err)
}
