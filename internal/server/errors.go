package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/joshdurbin/stryd-dashboard/internal/config"
	"github.com/joshdurbin/stryd-dashboard/internal/dashboard"
	"github.com/joshdurbin/stryd-dashboard/internal/db"
	"github.com/joshdurbin/stryd-dashboard/internal/llm"
)

// ErrorCode classifies tool and API errors for structured error handling
type ErrorCode string

const (
	// ErrInvalidInput indicates invalid or malformed input parameters
	ErrInvalidInput ErrorCode = "INVALID_INPUT"
	// ErrNotFound indicates the requested resource was not found
	ErrNotFound ErrorCode = "NOT_FOUND"
	// ErrDatabaseError indicates a database operation failed
	ErrDatabaseError ErrorCode = "DATABASE_ERROR"
	// ErrInternalError indicates an unexpected internal error
	ErrInternalError ErrorCode = "INTERNAL_ERROR"
	// ErrUpstreamUnreachable indicates the language model server is not running
	ErrUpstreamUnreachable ErrorCode = "UPSTREAM_UNREACHABLE"
	// ErrModelNotFound indicates the requested model must be pulled first
	ErrModelNotFound ErrorCode = "MODEL_NOT_FOUND"
)

// ToolError represents a structured tool error with code, message, and optional details
type ToolError struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
}

// Error implements the error interface
func (e *ToolError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// HTTPStatus maps the error code to a response status.
func (e *ToolError) HTTPStatus() int {
	switch e.Code {
	case ErrInvalidInput:
		return http.StatusBadRequest
	case ErrNotFound, ErrModelNotFound:
		return http.StatusNotFound
	case ErrUpstreamUnreachable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewInvalidInputError creates an error for invalid input parameters
func NewInvalidInputError(msg string) *ToolError {
	return &ToolError{Code: ErrInvalidInput, Message: msg}
}

// NewInvalidInputErrorWithDetails creates an error for invalid input with additional details
func NewInvalidInputErrorWithDetails(msg, details string) *ToolError {
	return &ToolError{Code: ErrInvalidInput, Message: msg, Details: details}
}

// NewNotFoundErrorWithID creates an error for a missing resource with its identifier
func NewNotFoundErrorWithID(resource string, id interface{}) *ToolError {
	return &ToolError{
		Code:    ErrNotFound,
		Message: fmt.Sprintf("%s not found", resource),
		Details: fmt.Sprintf("id=%v", id),
	}
}

// NewDatabaseErrorWithContext creates a database error with additional context
func NewDatabaseErrorWithContext(operation string, err error) *ToolError {
	return &ToolError{
		Code:    ErrDatabaseError,
		Message: fmt.Sprintf("Database %s failed", operation),
		Details: err.Error(),
	}
}

// NewInternalErrorWithCause creates an internal error wrapping another error
func NewInternalErrorWithCause(msg string, err error) *ToolError {
	return &ToolError{
		Code:    ErrInternalError,
		Message: msg,
		Details: err.Error(),
	}
}

// Classify converts an error from the dashboard, store or model relay into a
// ToolError. operation names what was being attempted.
func Classify(operation string, err error) *ToolError {
	var te *ToolError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &te):
		return te
	case errors.Is(err, dashboard.ErrInvalidFilter),
		errors.Is(err, config.ErrInvalidPreferences),
		errors.Is(err, llm.ErrNoMessages),
		errors.Is(err, llm.ErrUnknownModel):
		return NewInvalidInputErrorWithDetails("Invalid "+operation+" request", err.Error())
	case errors.Is(err, dashboard.ErrNotFound):
		return &ToolError{Code: ErrNotFound, Message: "Activity not found", Details: err.Error()}
	case errors.Is(err, dashboard.ErrStorage), errors.Is(err, db.ErrUnavailable):
		return NewDatabaseErrorWithContext(operation, err)
	case errors.Is(err, llm.ErrUnreachable), errors.Is(err, llm.ErrNoRemoteModel):
		return &ToolError{Code: ErrUpstreamUnreachable, Message: "Language model server unreachable", Details: err.Error()}
	case errors.Is(err, llm.ErrModelNotFound):
		return &ToolError{Code: ErrModelNotFound, Message: "Model not installed", Details: err.Error()}
	}
	return NewInternalErrorWithCause(operation+" failed", err)
}
