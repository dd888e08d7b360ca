package handler

import (
	"github.com/labstack/echo/v4"

	apperrors "techlam/internal/errors"
)

// UserHandler backs the admin user-management tab.
type UserHandler struct{}

// NewUserHandler creates a handler layer.
func NewUserHandler() *UserHandler {
	return &UserHandler{}
}

// ListUsers godoc
// @Summary List users (not available yet)
// @Description Roles are assigned with the seed tool until user management ships.
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Failure 403 {object} errors.ErrorResponse
// @Failure 501 {object} errors.ErrorResponse
// @Router /admin/users [get]
func (h *UserHandler) ListUsers(c echo.Context) error {
	return respondError(apperrors.ErrNotImplemented)
}
