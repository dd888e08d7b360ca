package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"techlam/internal/auth"
	apperrors "techlam/internal/errors"
)

// respondError turns a service error into an echo HTTP error carrying an ErrorResponse.
func respondError(err error) error {
	httpErr := apperrors.MapErrorToHTTP(err)
	return echo.NewHTTPError(httpErr.StatusCode, httpErr.ToErrorResponse())
}

func invalidBody() error {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: "invalid request body",
		Code:  apperrors.CodeValidation,
	})
}

func validationFailed(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, apperrors.ErrorResponse{
		Error: err.Error(),
		Code:  apperrors.CodeValidation,
	})
}

// sessionClaims returns the claims of the authenticated caller.
func sessionClaims(c echo.Context) (*auth.Claims, error) {
	claims, ok := auth.ClaimsFromToken(c.Get(auth.ContextKey))
	if !ok {
		return nil, apperrors.ErrUnauthenticated
	}
	return claims, nil
}

func currentUserID(c echo.Context) (uuid.UUID, error) {
	claims, err := sessionClaims(c)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return uuid.Nil, apperrors.ErrUnauthenticated
	}
	return id, nil
}

func parseID(c echo.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, apperrors.NewValidationError("id", "invalid id")
	}
	return id, nil
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}
