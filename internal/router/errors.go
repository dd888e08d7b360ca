package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"techlam/internal/auth"
	apperrors "techlam/internal/errors"
)

// HTTPErrorHandler renders every error as an ErrorResponse, including the plain-string
// errors raised by echo itself (404 route, 405, body limit).
func HTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		status, body := errorBody(err)
		if status >= http.StatusInternalServerError {
			logger.ErrorContext(c.Request().Context(), "request failed",
				"method", c.Request().Method, "path", c.Path(), "error", err)
		}

		var writeErr error
		if c.Request().Method == http.MethodHead {
			writeErr = c.NoContent(status)
		} else {
			writeErr = c.JSON(status, body)
		}
		if writeErr != nil {
			logger.WarnContext(c.Request().Context(), "write error response", "error", writeErr)
		}
	}
}

func errorBody(err error) (int, apperrors.ErrorResponse) {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		mapped := apperrors.MapErrorToHTTP(err)
		return mapped.StatusCode, mapped.ToErrorResponse()
	}
	if he.Internal != nil {
		var inner *echo.HTTPError
		if errors.As(he.Internal, &inner) {
			he = inner
		}
	}

	switch msg := he.Message.(type) {
	case apperrors.ErrorResponse:
		return he.Code, msg
	case *apperrors.ErrorResponse:
		return he.Code, *msg
	case string:
		return he.Code, apperrors.ErrorResponse{Error: msg, Code: codeForStatus(he.Code)}
	default:
		return he.Code, apperrors.ErrorResponse{Error: fmt.Sprint(msg), Code: codeForStatus(he.Code)}
	}
}

func codeForStatus(status int) string {
	switch status {
	case http.StatusBadRequest:
		return apperrors.CodeValidation
	case http.StatusUnauthorized:
		return apperrors.CodeUnauthenticated
	case http.StatusForbidden:
		return apperrors.CodeForbidden
	case http.StatusNotFound:
		return "NOT_FOUND"
	case http.StatusMethodNotAllowed:
		return "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		return apperrors.CodeImageTooLarge
	case http.StatusTooManyRequests:
		return apperrors.CodeRateLimited
	case http.StatusNotImplemented:
		return apperrors.CodeNotImplemented
	default:
		return apperrors.CodeInternal
	}
}

func uuidFromClaims(claims *auth.Claims) (uuid.UUID, error) {
	return uuid.Parse(claims.UserID)
}
