package update

import (
	"errors"
	"fmt"
	"net/http"
)

// Reasons a request fails validation. Match them with errors.Is.
var (
	ErrMalformedKey          = errors.New("malformed item key")
	ErrNoActions             = errors.New("no update actions")
	ErrInvalidFieldName      = errors.New("invalid field name")
	ErrFieldNotPermitted     = errors.New("field not permitted")
	ErrDuplicateField        = errors.New("duplicate field")
	ErrMissingMandatoryField = errors.New("missing mandatory field")
	ErrInvalidFieldType      = errors.New("invalid field type")
)

// ValidationError reports a malformed or policy-violating Request.
type ValidationError struct {
	// Code is the HTTP status the error maps to.
	Code int

	Message string
	Detail  string
	Reason  error
}

func (e *ValidationError) Error() string {
	if e.Detail == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Detail)
}

func (e *ValidationError) Unwrap() error { return e.Reason }

func invalid(reason error, message, detailFormat string, args ...any) *ValidationError {
	return &ValidationError{
		Code:    http.StatusBadRequest,
		Message: message,
		Detail:  fmt.Sprintf(detailFormat, args...),
		Reason:  reason,
	}
}
