// internal/common/errors/errors.go

// Package errors provides standardized error handling for the notification pipeline.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfigurationInvalid ErrorCode = "CONFIGURATION_INVALID"

	ErrCodeTemplateNotFound ErrorCode = "TEMPLATE_NOT_FOUND"
	ErrCodeTemplateInactive ErrorCode = "TEMPLATE_INACTIVE"

	ErrCodeMissingContextVariable ErrorCode = "MISSING_CONTEXT_VARIABLE"
	ErrCodeRenderFailed           ErrorCode = "RENDER_FAILED"

	ErrCodeNotificationCreateFailed ErrorCode = "NOTIFICATION_CREATE_FAILED"
	ErrCodeNotificationNotFound     ErrorCode = "NOTIFICATION_NOT_FOUND"
	ErrCodeRecipientNotFound        ErrorCode = "RECIPIENT_NOT_FOUND"
	ErrCodeDispatchFailed           ErrorCode = "DISPATCH_FAILED"

	ErrCodeSerializationFailed   ErrorCode = "SERIALIZATION_FAILED"
	ErrCodeDeserializationFailed ErrorCode = "DESERIALIZATION_FAILED"
	ErrCodeTaskDecodeFailed      ErrorCode = "TASK_DECODE_FAILED"
	ErrCodeTaskEnqueueFailed     ErrorCode = "TASK_ENQUEUE_FAILED"

	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeQueryExecutionFailed     ErrorCode = "QUERY_EXECUTION_FAILED"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// CodeOf returns the ErrorCode carried by err, or empty string for plain errors.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ""
}

// HasCode reports whether err carries the given code anywhere in its chain.
func HasCode(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// IsRetryable reports whether err should be redelivered by the task worker.
func IsRetryable(err error) bool {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Retryable
	}
	return false
}

// ==========================
// 2. Error Constructors
// ==========================

// NewConfigurationInvalidError creates a fatal configuration error.
func NewConfigurationInvalidError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfigurationInvalid,
		Message:   "Invalid pipeline configuration",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateNotFoundError creates a non-retryable template lookup error.
func NewTemplateNotFoundError(slug string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateNotFound,
		Message:   "Admin template not found",
		Details:   fmt.Sprintf("slug: %s", slug),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewTemplateInactiveError signals that an admin template exists but is deactivated.
func NewTemplateInactiveError(slug string) *StandardError {
	return &StandardError{
		Code:      ErrCodeTemplateInactive,
		Message:   "Admin template is deactivated",
		Details:   fmt.Sprintf("slug: %s", slug),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewMissingContextVariableError creates a non-retryable template authoring error.
func NewMissingContextVariableError(field, variable string) *StandardError {
	return &StandardError{
		Code:      ErrCodeMissingContextVariable,
		Message:   fmt.Sprintf("Cannot render field %q, variable %q is not defined in the context", field, variable),
		Details:   fmt.Sprintf("field: %s, variable: %s", field, variable),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRenderFailedError wraps a template engine failure.
func NewRenderFailedError(field string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeRenderFailed,
		Message:   "Template rendering failed",
		Details:   fmt.Sprintf("field: %s, error: %s", field, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotificationCreateFailedError creates a retryable persistence error.
func NewNotificationCreateFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationCreateFailed,
		Message:   "Notification creation failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewNotificationNotFoundError creates a non-retryable notification lookup error.
func NewNotificationNotFoundError(id string) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationNotFound,
		Message:   "Notification not found",
		Details:   fmt.Sprintf("id: %s", id),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewRecipientNotFoundError signals a recipient with no user record.
func NewRecipientNotFoundError(recipient string) *StandardError {
	return &StandardError{
		Code:      ErrCodeRecipientNotFound,
		Message:   "Recipient not found",
		Details:   fmt.Sprintf("recipient: %s", recipient),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDispatchFailedError wraps a dispatcher delivery failure. Never rolls anything back.
func NewDispatchFailedError(dispatcher string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDispatchFailed,
		Message:   "Notification dispatch failed",
		Details:   fmt.Sprintf("dispatcher: %s, error: %s", dispatcher, err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		Metadata:  map[string]interface{}{"dispatcher": dispatcher},
		cause:     err,
	}
}

// NewSerializationFailedError signals a payload value that cannot survive the
// serialize/deferred round-trip. Raised at send time, not at task execution.
func NewSerializationFailedError(key string, value interface{}) *StandardError {
	return &StandardError{
		Code:      ErrCodeSerializationFailed,
		Message:   "Signal payload value is not serializable",
		Details:   fmt.Sprintf("key: %s, type: %T", key, value),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

// NewDeserializationFailedError signals a payload that cannot be re-hydrated,
// e.g. an object reference whose target was deleted before the task ran.
func NewDeserializationFailedError(details string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDeserializationFailed,
		Message:   "Signal payload deserialization failed",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTaskDecodeFailedError signals a malformed task envelope pulled from the queue.
func NewTaskDecodeFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTaskDecodeFailed,
		Message:   "Task envelope decode failed",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewTaskEnqueueFailedError creates a retryable queue error.
func NewTaskEnqueueFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeTaskEnqueueFailed,
		Message:   "Task enqueue failed",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewDatabaseConnectionFailedError creates a retryable database connection error.
func NewDatabaseConnectionFailedError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeDatabaseConnectionFailed,
		Message:   "Database connection error",
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// NewQueryExecutionFailedError creates a retryable query execution error.
func NewQueryExecutionFailedError(query string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeQueryExecutionFailed,
		Message:   "Database query execution error",
		Details:   fmt.Sprintf("query: %s, error: %s", query, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}
