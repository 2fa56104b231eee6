// Package errors provides structured request errors with HTTP status mapping.
package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/spacesedan/sentireport/internal/analysis"
	"github.com/spacesedan/sentireport/internal/ingest"
)

// ErrorType is the category of an error, used for metrics and responses.
type ErrorType string

const (
	TypeValidation ErrorType = "validation"
	TypeNotFound   ErrorType = "not_found"
	TypeTooLarge   ErrorType = "too_large"
	TypeRateLimit  ErrorType = "rate_limited"
	TypeInternal   ErrorType = "internal"
	TypeExternal   ErrorType = "external"
)

type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeTooLarge:
		return http.StatusRequestEntityTooLarge
	case TypeRateLimit:
		return http.StatusTooManyRequests
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{Type: t, Message: message, Cause: cause, Context: make(map[string]any)}
}

func ValidationError(message string) *Error { return newError(TypeValidation, message, nil) }

func NotFoundError(message string) *Error { return newError(TypeNotFound, message, nil) }

func RateLimitError(message string) *Error { return newError(TypeRateLimit, message, nil) }

func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

func ExternalError(message string, cause error) *Error {
	return newError(TypeExternal, message, cause)
}

// WithContext adds a context field to the error (chainable).
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// FromDomain maps pipeline and ingest errors to structured errors carrying
// the message shown to the uploader. Unknown errors become internal errors.
func FromDomain(err error) *Error {
	if err == nil {
		return nil
	}

	var (
		structured *Error
		missing    *analysis.MissingInputError
		schema     *analysis.SchemaError
		noMatch    *analysis.NoMatchError
		processing *analysis.ProcessingError
		httpErr    *echo.HTTPError
	)
	message := analysis.UserMessage(err)

	switch {
	case errors.As(err, &structured):
		return structured
	case errors.As(err, &httpErr):
		return WrapHTTPError(httpErr)
	case errors.As(err, &missing):
		return ValidationError(message).WithContext("field", missing.Field)
	case errors.As(err, &schema):
		e := ValidationError(message)
		if schema.Column != "" && schema.Reason == "" {
			e.WithContext("column", schema.Column)
		}
		return e
	case errors.Is(err, ingest.ErrTooLarge):
		return newError(TypeTooLarge, "The uploaded file is too large.", err)
	case errors.As(err, &noMatch):
		return NotFoundError(message).WithContext("entity", noMatch.Entity)
	case errors.Is(err, analysis.ErrEmptyInput):
		return NotFoundError(message)
	case errors.As(err, &processing):
		return &Error{Type: TypeInternal, Message: message, Cause: err, Context: map[string]any{"stage": processing.Stage}}
	default:
		return InternalError("internal server error", err)
	}
}

// AsStructuredError converts any error into a structured Error.
func AsStructuredError(err error) *Error {
	return FromDomain(err)
}
