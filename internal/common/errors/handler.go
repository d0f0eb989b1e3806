package errors

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Payload is the body written for a failed request.
type Payload struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type ErrorHandler struct {
	logger Logger
}

type Logger interface {
	Error(msg string, fields map[string]interface{})
}

func NewErrorHandler(logger Logger) *ErrorHandler {
	return &ErrorHandler{logger: logger}
}

// Respond logs err and writes its payload with the mapped status.
func (h *ErrorHandler) Respond(c echo.Context, err error) error {
	stdErr := h.Normalize(err)
	status := HTTPStatus(stdErr.Code)

	h.logError(c, stdErr, status)

	return c.JSON(status, Payload{
		Error: stdErr.Error(),
		Code:  string(stdErr.Code),
	})
}

// Normalize converts any error to a StandardError.
func (h *ErrorHandler) Normalize(err error) *StandardError {
	if stdErr, ok := AsStandard(err); ok {
		return stdErr
	}
	return &StandardError{
		Code:      ErrCodeInternal,
		Message:   "Unexpected error",
		Details:   err.Error(),
		Retryable: false,
		Timestamp: time.Now().UTC(),
		cause:     err,
	}
}

// HTTPStatus maps an error code to the response status. Configuration and
// store failures are server faults.
func HTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case ErrCodeStoreTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *ErrorHandler) logError(c echo.Context, stdErr *StandardError, status int) {
	h.logger.Error("request failed", map[string]interface{}{
		"method":        c.Request().Method,
		"path":          c.Path(),
		"status":        status,
		"errorCode":     string(stdErr.Code),
		"message":       stdErr.Message,
		"details":       stdErr.Details,
		"retryable":     stdErr.Retryable,
		"errorCategory": GetErrorCategory(stdErr.Code),
	})
}
