package common

import "fmt"

// Stable error codes surfaced to API clients and event-handler results.
const (
	CodeValidation       = "validation_failed"
	CodeNotFound         = "not_found"
	CodeInvalidOperation = "invalid_operation"
	CodeConflict         = "conflict"
	CodeHandlerFailed    = "handler_failed"
	CodeInternal         = "internal_error"
)

type APIError struct {
	Status  int            `json:"-"`
	Code    string         `json:"code"`
	Message string         `json:"error"`
	Fields  map[string]any `json:"fields,omitempty"`
}

func (e APIError) Error() string {
	return e.Message
}

func Errf(status int, code string, format string, args ...any) APIError {
	return APIError{Status: status, Code: code, Message: fmt.Sprintf(format, args...)}
}

// NewAPIError creates an APIError with status, code, message, and optional fields
func NewAPIError(status int, code string, message string, fields map[string]any) APIError {
	return APIError{
		Status:  status,
		Code:    code,
		Message: message,
		Fields:  fields,
	}
}
