package http

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/teamforge/collabd/internal/apperrors"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Message string `json:"message"`
}

// errorHandler maps error kinds onto HTTP status codes. Conflicts
// (already a member, already waitlisted) answer 400 like the rest of
// the request-shape failures, so clients see one rejection status.
func errorHandler(logger *zap.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status := http.StatusInternalServerError
		msg := "internal server error"

		var httpErr *echo.HTTPError
		if errors.As(err, &httpErr) {
			status = httpErr.Code
			if m, ok := httpErr.Message.(string); ok {
				msg = m
			} else {
				msg = http.StatusText(status)
			}
		} else {
			switch apperrors.KindOf(err) {
			case apperrors.KindValidation, apperrors.KindConflict:
				status = http.StatusBadRequest
				msg = apperrors.MessageOf(err)
			case apperrors.KindUnauthorized:
				status = http.StatusUnauthorized
				msg = apperrors.MessageOf(err)
			case apperrors.KindForbidden:
				status = http.StatusForbidden
				msg = apperrors.MessageOf(err)
			case apperrors.KindNotFound:
				status = http.StatusNotFound
				msg = apperrors.MessageOf(err)
			default:
				logger.Error("unhandled request error",
					zap.String("uri", c.Request().RequestURI),
					zap.Error(err))
			}
		}

		if c.Request().Method == http.MethodHead {
			err = c.NoContent(status)
		} else {
			err = c.JSON(status, ErrorResponse{Message: msg})
		}
		if err != nil {
			logger.Warn("writing error response failed", zap.Error(err))
		}
	}
}
