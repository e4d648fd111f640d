package serverutils

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Detail string `json:"detail"`
}

func ErrorResponse(message string) ErrorBody {
	return ErrorBody{Detail: message}
}

// HTTPError is returned by controllers to pick the status of an error response.
type HTTPError struct {
	Code    int
	Message string
	Err     error
}

func NewHTTPError(code int, message string, err error) *HTTPError {
	return &HTTPError{Code: code, Message: message, Err: err}
}

func (e *HTTPError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *HTTPError) Unwrap() error { return e.Err }

func BadRequest(message string, err error) *HTTPError {
	return NewHTTPError(fiber.StatusBadRequest, message, err)
}

// StatusOf resolves the status code and client message for err.
func StatusOf(err error) (int, string) {
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code, httpErr.Message
	}
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return fiberErr.Code, fiberErr.Message
	}
	return fiber.StatusInternalServerError, "Internal server error"
}
