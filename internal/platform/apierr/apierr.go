package apierr

import (
	"errors"
	"fmt"
	"net/http"
)

const (
	CodeValidation         = "validation_error"
	CodeNotFound           = "not_found"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnauthorized       = "unauthorized"
	CodeTooManyAttempts    = "too_many_attempts"
	CodePayloadTooLarge    = "payload_too_large"
	CodeInternal           = "internal_error"
)

// FieldError is one violated constraint, keyed by the wire field name.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Error is what services hand back to the HTTP layer. Message is safe to show
// to callers; Err carries the underlying cause for logs only.
type Error struct {
	Status  int
	Code    string
	Message string
	Fields  []FieldError
	Err     error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	switch {
	case e.Err != nil && e.Message != "":
		return e.Message + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	case e.Message != "":
		return e.Message
	case e.Code != "":
		return e.Code
	case e.Status != 0:
		return fmt.Sprintf("api error (%d)", e.Status)
	}
	return "api error"
}

func (e *Error) Unwrap() error { return e.Err }

// PublicMessage is the text callers are allowed to see.
func (e *Error) PublicMessage() string {
	if e == nil {
		return ""
	}
	if e.Message != "" {
		return e.Message
	}
	if e.Status >= http.StatusInternalServerError {
		return "Error interno del servidor"
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Code
}

func New(status int, code string, err error) *Error {
	return &Error{Status: status, Code: code, Err: err}
}

func Validation(fields []FieldError) *Error {
	return &Error{
		Status:  http.StatusUnprocessableEntity,
		Code:    CodeValidation,
		Message: "Error de validación",
		Fields:  fields,
	}
}

// Field is shorthand for a single-field validation failure.
func Field(field, message string) *Error {
	return Validation([]FieldError{{Field: field, Message: message}})
}

func NotFound(message string) *Error {
	return &Error{Status: http.StatusNotFound, Code: CodeNotFound, Message: message}
}

func InvalidCredentials() *Error {
	return &Error{Status: http.StatusUnauthorized, Code: CodeInvalidCredentials, Message: "Credenciales incorrectas"}
}

func Unauthorized(err error) *Error {
	return &Error{
		Status:  http.StatusUnauthorized,
		Code:    CodeUnauthorized,
		Message: "No se pudieron validar las credenciales",
		Err:     err,
	}
}

func Conflict(code, message string) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Message: message}
}

func TooManyRequests(message string) *Error {
	return &Error{Status: http.StatusTooManyRequests, Code: CodeTooManyAttempts, Message: message}
}

// PayloadTooLarge reports a request body that overran the configured cap.
func PayloadTooLarge(err error) *Error {
	return &Error{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    CodePayloadTooLarge,
		Message: "La solicitud supera el tamaño máximo permitido",
		Err:     err,
	}
}

func Unavailable(code, message string) *Error {
	return &Error{Status: http.StatusServiceUnavailable, Code: code, Message: message}
}

func BadRequest(code string, err error) *Error {
	return &Error{Status: http.StatusBadRequest, Code: code, Err: err}
}

// Storage wraps a persistence or I/O failure. The cause never reaches the caller.
func Storage(err error) *Error {
	return &Error{Status: http.StatusInternalServerError, Code: CodeInternal, Err: err}
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var ae *Error
	if errors.As(err, &ae) && ae != nil {
		return ae, true
	}
	return nil, false
}

// Is reports whether err carries an *Error with the given code.
func Is(err error, code string) bool {
	ae, ok := As(err)
	return ok && ae.Code == code
}
