// errors.go - Structured error handling for API and page responses
package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/brickify/web/internal/web"
)

// APIError represents a structured API error response
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error constructors for consistent error handling

// NewBadRequestError creates a 400 Bad Request error
func NewBadRequestError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusBadRequest,
		Code:    "BAD_REQUEST",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewValidationError creates a 400 validation error for a specific field
func NewValidationError(field string) *APIError {
	return &APIError{
		Status:  http.StatusBadRequest,
		Code:    "VALIDATION_ERROR",
		Message: fmt.Sprintf("validation failed for field: %s", field),
	}
}

// NewInvalidFileError creates a 422 error for a file the upload gate rejected
func NewInvalidFileError(message string) *APIError {
	return &APIError{
		Status:  http.StatusUnprocessableEntity,
		Code:    "INVALID_FILE",
		Message: message,
	}
}

// NewConflictError creates a 409 Conflict error
func NewConflictError(message string) *APIError {
	return &APIError{
		Status:  http.StatusConflict,
		Code:    "CONFLICT",
		Message: message,
	}
}

// NewUnauthorizedError creates a 401 Unauthorized error
func NewUnauthorizedError(message string) *APIError {
	return &APIError{
		Status:  http.StatusUnauthorized,
		Code:    "UNAUTHORIZED",
		Message: message,
	}
}

// NewBadGatewayError creates a 502 error for a failed backend call. The
// cause is not exposed to clients.
func NewBadGatewayError(message string) *APIError {
	return &APIError{
		Status:  http.StatusBadGateway,
		Code:    "BACKEND_ERROR",
		Message: message,
	}
}

// NewInternalError creates a 500 Internal Server Error
func NewInternalError(message string, cause error) *APIError {
	err := &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "INTERNAL_ERROR",
		Message: message,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewErrorHandler returns an echo.HTTPErrorHandler. Paths under /api/ get
// the JSON envelope; every other path gets the HTML error page.
// showDetails controls whether unexpected error text reaches the client.
func NewErrorHandler(log logrus.FieldLogger, showDetails bool) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		apiErr := toAPIError(err, showDetails)
		if apiErr.Status >= http.StatusInternalServerError {
			log.WithFields(logrus.Fields{
				"path":   c.Request().URL.Path,
				"status": apiErr.Status,
			}).WithError(err).Error("request failed")
		}

		if c.Request().Method == http.MethodHead {
			c.NoContent(apiErr.Status)
			return
		}

		if strings.HasPrefix(c.Request().URL.Path, "/api/") {
			c.JSON(apiErr.Status, apiErr)
			return
		}

		page := basePage(c, http.StatusText(apiErr.Status), "")
		page.Status = apiErr.Status
		page.Error = apiErr.Message
		if renderErr := c.Render(apiErr.Status, web.PageError, page); renderErr != nil {
			c.String(apiErr.Status, apiErr.Message)
		}
	}
}

func toAPIError(err error, showDetails bool) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return &APIError{
			Status:  he.Code,
			Code:    "HTTP_ERROR",
			Message: fmt.Sprintf("%v", he.Message),
		}
	}

	apiErr = &APIError{
		Status:  http.StatusInternalServerError,
		Code:    "UNKNOWN_ERROR",
		Message: "An unexpected error occurred",
	}
	if showDetails {
		apiErr.Details = err.Error()
	}
	return apiErr
}

// RespondWithError is a helper to respond with an APIError
func RespondWithError(c echo.Context, err *APIError) error {
	return c.JSON(err.Status, err)
}
