package errors

import (
	"fmt"
	"time"
)

// ErrorCode classifies an application error for logging and HTTP mapping.
type ErrorCode string

const (
	ErrCodeInternal        ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation      ErrorCode = "VALIDATION_ERROR"
	ErrCodeNotFound        ErrorCode = "NOT_FOUND"
	ErrCodeConflict        ErrorCode = "CONFLICT"
	ErrCodeTooManyRequests ErrorCode = "TOO_MANY_REQUESTS"

	ErrCodeGiveawayNotFound ErrorCode = "GIVEAWAY_NOT_FOUND"
	ErrCodeGiveawayEnded    ErrorCode = "GIVEAWAY_ENDED"
	ErrCodeGiveawayFull     ErrorCode = "GIVEAWAY_FULL"
	ErrCodeAlreadyJoined    ErrorCode = "ALREADY_JOINED"
	ErrCodeNotJoined        ErrorCode = "NOT_JOINED"
	ErrCodeInvalidDuration  ErrorCode = "INVALID_DURATION"

	ErrCodeStorage    ErrorCode = "STORAGE_ERROR"
	ErrCodeDiscordAPI ErrorCode = "DISCORD_API_ERROR"
)

// AppError is a typed application error. Cause is never serialized, so
// internal detail stays out of user-facing responses.
type AppError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   map[string]interface{} `json:"details,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func (e *AppError) IsNotFound() bool {
	return e.Code == ErrCodeNotFound || e.Code == ErrCodeGiveawayNotFound
}

func (e *AppError) IsValidation() bool {
	return e.Code == ErrCodeValidation || e.Code == ErrCodeInvalidDuration
}

func (e *AppError) IsInternal() bool {
	return e.Code == ErrCodeInternal || e.Code == ErrCodeStorage || e.Code == ErrCodeDiscordAPI
}

func (e *AppError) WithDetail(key string, value interface{}) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:      code,
		Message:   message,
		Timestamp: time.Now(),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	appErr := New(code, message)
	appErr.Cause = err
	return appErr
}

func Wrapf(err error, code ErrorCode, format string, args ...interface{}) *AppError {
	return Wrap(err, code, fmt.Sprintf(format, args...))
}

func NewValidationError(field, reason string) *AppError {
	return New(ErrCodeValidation, fmt.Sprintf("Validation failed for field '%s': %s", field, reason)).
		WithDetail("field", field).
		WithDetail("reason", reason)
}

func NewNotFoundError(resource string, id interface{}) *AppError {
	return New(ErrCodeNotFound, fmt.Sprintf("%s not found", resource)).
		WithDetail("resource", resource).
		WithDetail("id", id)
}

func NewGiveawayNotFoundError(id interface{}) *AppError {
	return New(ErrCodeGiveawayNotFound, "Giveaway does not exist").
		WithDetail("giveaway_id", id)
}

func NewStorageError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeStorage, fmt.Sprintf("Storage operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func NewDiscordAPIError(operation string, err error) *AppError {
	return Wrap(err, ErrCodeDiscordAPI, fmt.Sprintf("Discord API operation failed: %s", operation)).
		WithDetail("operation", operation)
}

func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil {
		appErr, _ = err.(*AppError)
	}
	return appErr, appErr != nil
}
