package types

import (
	"fmt"
	"net/http"
)

// ErrorType defines different types of errors
type ErrorType string

const (
	// ErrApiError represents upstream completion API errors
	ErrApiError ErrorType = "ApiError"

	// ErrServerError represents internal server errors
	ErrServerError ErrorType = "ServerError"

	// ErrToolError represents tool invocation errors
	ErrToolError ErrorType = "ToolError"

	// ErrClientGone represents a client that disconnected mid-stream
	ErrClientGone ErrorType = "ClientGone"

	ErrServerModel ErrorType = "ai_model_error"
)

const (
	ErrCodeModelServiceUnavailable = "chat-gateway.model_service_unavailable"
	ErrMsgModelServiceUnavailable  = "Unable to access the AI model service. Please try again later."

	ErrCodeInernalError = "chat-gateway.internal_error"
	ErrMsgInernalError  = "Internal Server Error. Please try again later."
)

type APIError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
	StatusCode int    `json:"statusCode,omitempty"`
	Type       string `json:"type,omitempty"`
}

func NewModelServiceUnavailableError() *APIError {
	return &APIError{
		Code:       ErrCodeModelServiceUnavailable,
		Message:    ErrMsgModelServiceUnavailable,
		Success:    false,
		StatusCode: http.StatusServiceUnavailable,
		Type:       string(ErrServerModel),
	}
}

func NewHTTPStatusError(statusCode int, message string) *APIError {
	return &APIError{
		Code:       fmt.Sprintf("%d", statusCode),
		Message:    message,
		Success:    false,
		StatusCode: statusCode,
		Type:       string(ErrServerModel),
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf(`{"code":"%s","message":"%s","success":%v}`, e.Code, e.Message, e.Success)
}
