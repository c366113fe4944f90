// Package errors provides standardized error handling for the HTTP handlers
// and external clients.
package errors

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeValidationFailed        ErrorCode = "VALIDATION_FAILED"
	ErrCodeDuplicateApplication    ErrorCode = "DUPLICATE_APPLICATION"
	ErrCodeSignatureInvalid        ErrorCode = "SIGNATURE_INVALID"
	ErrCodeInvalidStatusTransition ErrorCode = "INVALID_STATUS_TRANSITION"

	ErrCodeResourceNotFound     ErrorCode = "RESOURCE_NOT_FOUND"
	ErrCodeBoardMeetingNotFound ErrorCode = "BOARD_MEETING_NOT_FOUND"

	ErrCodeExternalService        ErrorCode = "EXTERNAL_SERVICE_ERROR"
	ErrCodeNotificationSendFailed ErrorCode = "NOTIFICATION_SEND_FAILED"
	ErrCodeConfiguration          ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeInternal               ErrorCode = "INTERNAL_ERROR"
)

// ErrNotFound is wrapped by clients when a lookup matched nothing.
var ErrNotFound = stderrors.New("NOT_FOUND")

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Upstream  json.RawMessage        `json:"upstream,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// WithMetadata attaches a key to the error and returns it for chaining.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// WithMessage replaces the caller-facing message.
func (e *StandardError) WithMessage(message string) *StandardError {
	e.Message = message
	return e
}

// upstreamError is implemented by client errors that carry the raw response body.
type upstreamError interface {
	UpstreamBody() []byte
}

// ==========================
// 2. Error Constructors
// ==========================

func NewValidationError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeValidationFailed,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewDuplicateApplicationError(message, existingRecordID string) *StandardError {
	return (&StandardError{
		Code:      ErrCodeDuplicateApplication,
		Message:   message,
		Details:   fmt.Sprintf("existingRecordId: %s", existingRecordID),
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}).WithMetadata("existingRecordId", existingRecordID)
}

func NewSignatureInvalidError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeSignatureInvalid,
		Message:   fmt.Sprintf("Webhook Error: %s", err.Error()),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewInvalidStatusTransitionError(message string) *StandardError {
	return &StandardError{
		Code:      ErrCodeInvalidStatusTransition,
		Message:   message,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewResourceNotFoundError(service, details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeResourceNotFound,
		Message:   fmt.Sprintf("Resource not found in %s", service),
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     ErrNotFound,
	}
}

func NewBoardMeetingNotFoundError(name string) *StandardError {
	return &StandardError{
		Code:      ErrCodeBoardMeetingNotFound,
		Message:   fmt.Sprintf("Board meeting %q not found in Webflow", name),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     ErrNotFound,
	}
}

// NewExternalServiceError wraps a failed call to one of the SaaS backends.
// The upstream response body is kept when the cause exposes it.
func NewExternalServiceError(service, operation string, err error) *StandardError {
	stdErr := &StandardError{
		Code:      ErrCodeExternalService,
		Message:   fmt.Sprintf("External service '%s' error during %s", service, operation),
		Details:   err.Error(),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}

	var up upstreamError
	if stderrors.As(err, &up) {
		body := up.UpstreamBody()
		if json.Valid(body) {
			stdErr.Upstream = json.RawMessage(body)
		} else if len(body) > 0 {
			quoted, _ := json.Marshal(string(body))
			stdErr.Upstream = quoted
		}
	}
	return stdErr
}

func NewNotificationSendFailedError(notificationType string, err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeNotificationSendFailed,
		Message:   "Notification delivery failed",
		Details:   fmt.Sprintf("type: %s, error: %s", notificationType, err.Error()),
		Retryable: true,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

func NewConfigurationError(details string) *StandardError {
	return &StandardError{
		Code:      ErrCodeConfiguration,
		Message:   "Service is misconfigured",
		Details:   details,
		Retryable: false,
		Timestamp: time.Now().UTC(),
	}
}

func NewInternalError(err error) *StandardError {
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// ==========================
// 3. Classification
// ==========================

var httpStatusMapping = map[ErrorCode]int{
	ErrCodeValidationFailed:        http.StatusBadRequest,
	ErrCodeDuplicateApplication:    http.StatusBadRequest,
	ErrCodeSignatureInvalid:        http.StatusBadRequest,
	ErrCodeInvalidStatusTransition: http.StatusBadRequest,
	ErrCodeResourceNotFound:        http.StatusNotFound,
	ErrCodeBoardMeetingNotFound:    http.StatusInternalServerError,
	ErrCodeExternalService:         http.StatusInternalServerError,
	ErrCodeNotificationSendFailed:  http.StatusInternalServerError,
	ErrCodeConfiguration:           http.StatusInternalServerError,
	ErrCodeInternal:                http.StatusInternalServerError,
}

// Normalize ensures we always have a StandardError.
func Normalize(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return NewInternalError(err)
}

// HTTPStatus maps any error onto the response status the API reports.
func HTTPStatus(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if status, ok := httpStatusMapping[Normalize(err).Code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err represents an absent entity.
func IsNotFound(err error) bool {
	return stderrors.Is(err, ErrNotFound)
}

func IsCode(err error, code ErrorCode) bool {
	var stdErr *StandardError
	return stderrors.As(err, &stdErr) && stdErr.Code == code
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "SIGNATURE"):
		return "SECURITY"
	case strings.Contains(codeStr, "NOT_FOUND"):
		return "NOT_FOUND"
	case strings.Contains(codeStr, "EXTERNAL"):
		return "DOWNSTREAM"
	case strings.Contains(codeStr, "NOTIFICATION"):
		return "NOTIFICATION"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VALIDATION") || strings.Contains(codeStr, "DUPLICATE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
