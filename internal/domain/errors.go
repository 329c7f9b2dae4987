package domain

import (
	"errors"
	"fmt"
)

// ErrorKind categorizes a failed submission for user-visible reporting.
type ErrorKind string

const (
	// ErrorKindTransport means the remote call did not complete: network
	// failure, or a non-2xx status without a structured error body.
	ErrorKindTransport ErrorKind = "transport"

	// ErrorKindValidation means the remote call returned a structured error
	// body from which a message could be extracted.
	ErrorKindValidation ErrorKind = "validation"

	// ErrorKindSchema means a response body was present but matched neither
	// accepted payload shape.
	ErrorKindSchema ErrorKind = "schema"
)

// GenericTransportMessage is the user-visible message for failures with no
// extractable detail.
const GenericTransportMessage = "Connection error — is the AI service running?"

// GenericValidationMessage covers structured error bodies that yielded no
// usable detail, and schema mismatches.
const GenericValidationMessage = "The analysis service returned an unexpected response."

// ClassifiedError is the canonical error surfaced by the session controller.
// It carries a user-presentable message alongside the taxonomy kind.
type ClassifiedError struct {
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
	StatusCode int       `json:"-"`
}

// Error implements the error interface.
func (e *ClassifiedError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// WithStatus records the upstream HTTP status for logging.
func (e *ClassifiedError) WithStatus(code int) *ClassifiedError {
	e.StatusCode = code
	return e
}

// ErrTransport creates a transport-kind error. An empty message falls back
// to the generic connection message.
func ErrTransport(message string) *ClassifiedError {
	if message == "" {
		message = GenericTransportMessage
	}
	return &ClassifiedError{Kind: ErrorKindTransport, Message: message}
}

// ErrValidation creates a validation-kind error.
func ErrValidation(message string) *ClassifiedError {
	if message == "" {
		message = GenericValidationMessage
	}
	return &ClassifiedError{Kind: ErrorKindValidation, Message: message}
}

// ErrSchema creates a schema-kind error. Schema mismatches are reported to
// the user as validation failures with a generic message.
func ErrSchema(message string) *ClassifiedError {
	if message == "" {
		message = GenericValidationMessage
	}
	return &ClassifiedError{Kind: ErrorKindSchema, Message: message}
}

// Classify converts any error into a ClassifiedError. Errors that are not
// already classified are treated as transport failures with the generic
// connection message, so raw Go error text never reaches the user.
func Classify(err error) *ClassifiedError {
	var ce *ClassifiedError
	if errors.As(err, &ce) {
		return ce
	}
	return ErrTransport("")
}
