// Package errors defines the failure taxonomy shared by the cleaning pipeline.
//
// Only structurally fatal kinds are ever returned to callers. Recoverable kinds
// (CapabilityUnavailable, WeightColumnInvalid, EstimationFailure) are recorded in the
// audit log by the stage that hit them and surface as Conditions on the pipeline result.
package errors

import (
	stderrors "errors"
	"fmt"
)

// Kind classifies a pipeline failure.
type Kind string

const (
	KindUnsupportedFormat     Kind = "UNSUPPORTED_FORMAT"
	KindLoadFailure           Kind = "LOAD_FAILURE"
	KindInvalidMethod         Kind = "INVALID_METHOD"
	KindCapabilityUnavailable Kind = "CAPABILITY_UNAVAILABLE"
	KindWeightColumnInvalid   Kind = "WEIGHT_COLUMN_INVALID"
	KindEstimationFailure     Kind = "ESTIMATION_FAILURE"
	KindNoData                Kind = "NO_DATA"
	KindConfig                Kind = "CONFIG"
)

// Fatal reports whether a condition of this kind aborts the current call.
func (k Kind) Fatal() bool {
	switch k {
	case KindCapabilityUnavailable, KindWeightColumnInvalid, KindEstimationFailure:
		return false
	default:
		return true
	}
}

// Error is a classified pipeline error.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
	Context map[string]interface{}
}

// Error formats the kind and message, followed by the cause when there is one.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap allows errors.Is and errors.As to see the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error of the same kind, so the sentinels below work with errors.Is.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

// WithContext records a key/value detail on e and returns e for chaining.
func (e *Error) WithContext(key string, value interface{}) *Error {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// New creates a classified error.
func New(kind Kind, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}

// Newf creates a classified error with a formatted message and no cause.
func Newf(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Sentinels for errors.Is matching by kind.
var (
	ErrUnsupportedFormat = &Error{Kind: KindUnsupportedFormat}
	ErrLoadFailure       = &Error{Kind: KindLoadFailure}
	ErrInvalidMethod     = &Error{Kind: KindInvalidMethod}
	ErrNoData            = &Error{Kind: KindNoData}
	ErrConfig            = &Error{Kind: KindConfig}
)

// KindOf returns the kind of err, or "" when err is not a classified error.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// Condition is a recoverable event absorbed by a stage.
type Condition struct {
	Kind    Kind   `json:"kind"`
	Column  string `json:"column,omitempty"`
	Message string `json:"message"`
}
