package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/jordanlanch/beautyos/pkg/ai/llm"
	"github.com/jordanlanch/beautyos/pkg/domain"
	"github.com/jordanlanch/beautyos/pkg/logger"
	"github.com/jordanlanch/beautyos/pkg/models"
	"github.com/labstack/echo/v4"
)

var log = logger.Default()

// SetLogger replaces the logger used for unexpected errors.
func SetLogger(l logger.Logger) {
	log = l
}

// ValidationError returns a generic validation error without exposing internal details
func ValidationError(c echo.Context, err error) error {
	log.Warn("validation error", "path", c.Request().URL.Path, "error", err)

	return c.JSON(http.StatusBadRequest, models.ErrorResponse{
		Error:   "validation_error",
		Message: "Invalid request data. Please check your input and try again.",
	})
}

// InternalError returns a generic internal server error
func InternalError(c echo.Context, err error) error {
	log.Error("internal error", "path", c.Request().URL.Path, "error", err)

	return c.JSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:   "internal_error",
		Message: "An internal error occurred. Please try again later.",
	})
}

// NotFoundError returns a generic not found error
func NotFoundError(c echo.Context, resource string) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{
		Error:   "not_found",
		Message: resource + " not found",
	})
}

// FromDomain writes the response matching err. Domain errors keep their
// message; anything unrecognized is logged and reported as internal.
func FromDomain(c echo.Context, err error) error {
	var malformed *llm.MalformedResponseError
	if stderrors.As(err, &malformed) {
		log.Error("malformed llm response", "path", c.Request().URL.Path, "error", err)
		return c.JSON(http.StatusBadGateway, models.ErrorResponse{
			Error:   "llm_malformed_response",
			Message: "The AI model returned an unusable response. Please try again.",
		})
	}

	var de *domain.DomainError
	if !stderrors.As(err, &de) {
		return InternalError(c, err)
	}

	status, code := statusFor(de.Code)
	if status == http.StatusInternalServerError {
		return InternalError(c, err)
	}
	return c.JSON(status, models.ErrorResponse{Error: code, Message: de.Message})
}

func statusFor(code string) (int, string) {
	switch code {
	case domain.ErrCodeNotFound:
		return http.StatusNotFound, "not_found"
	case domain.ErrCodeConflict:
		return http.StatusConflict, "conflict"
	case domain.ErrCodeInvalidState:
		return http.StatusConflict, "invalid_state"
	case domain.ErrCodeValidation:
		return http.StatusBadRequest, "validation_error"
	case domain.ErrCodeBadRequest:
		return http.StatusBadRequest, "bad_request"
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized, "unauthorized"
	case domain.ErrCodeForbidden:
		return http.StatusForbidden, "forbidden"
	case domain.ErrCodeNotConfigured:
		return http.StatusUnprocessableEntity, "not_configured"
	}
	return http.StatusInternalServerError, "internal_error"
}
