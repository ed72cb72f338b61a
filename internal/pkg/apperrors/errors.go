package apperrors

import (
	"fmt"
	"net/http"
)

type ErrorType string

const (
	ErrConfig       ErrorType = "CONFIG_ERROR"
	ErrValidation   ErrorType = "VALIDATION_ERROR"
	ErrNetwork      ErrorType = "NETWORK_ERROR"
	ErrAuthFailed   ErrorType = "AUTH_FAILED"
	ErrNotSupported ErrorType = "NOT_SUPPORTED"
	ErrNotFound     ErrorType = "NOT_FOUND"
	ErrInternal     ErrorType = "INTERNAL_ERROR"
)

// AppError is the standard error struct for the application
type AppError struct {
	Type       ErrorType `json:"code"`
	Message    string    `json:"message"`
	Details    string    `json:"details,omitempty"`
	Suggestion string    `json:"suggestion,omitempty"`
	HTTPStatus int       `json:"-"`
	Cause      error     `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(errType ErrorType, msg string, cause error) *AppError {
	return &AppError{
		Type:       errType,
		Message:    msg,
		Cause:      cause,
		HTTPStatus: mapTypeToStatus(errType),
		Suggestion: mapTypeToSuggestion(errType),
	}
}

func Newf(errType ErrorType, format string, args ...interface{}) *AppError {
	return New(errType, fmt.Sprintf(format, args...), nil)
}

func NewValidation(msg string) *AppError {
	return New(ErrValidation, msg, nil)
}

func NewNetwork(msg string, cause error) *AppError {
	return New(ErrNetwork, msg, cause)
}

func NewConfig(msg string, cause error) *AppError {
	return New(ErrConfig, msg, cause)
}

func Wrap(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(ErrInternal, err.Error(), err)
}

func mapTypeToStatus(t ErrorType) int {
	switch t {
	case ErrValidation:
		return http.StatusBadRequest
	case ErrAuthFailed:
		return http.StatusUnauthorized
	case ErrNotFound:
		return http.StatusNotFound
	case ErrNotSupported:
		return http.StatusNotImplemented
	case ErrNetwork:
		return http.StatusBadGateway
	case ErrConfig:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func mapTypeToSuggestion(t ErrorType) string {
	switch t {
	case ErrValidation:
		return "Check the webhook payload fields."
	case ErrAuthFailed:
		return "Check the webhook key and source IP."
	case ErrNetwork:
		return "Exchange request failed; the order was not retried."
	case ErrConfig:
		return "Check exchange credentials configuration."
	default:
		return ""
	}
}
