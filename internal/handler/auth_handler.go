package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	apperrors "techlam/internal/errors"
	"techlam/internal/model"
	"techlam/internal/service"
)

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	authService service.AuthService
	users       service.UserService
	roles       service.RoleResolver
	logger      *slog.Logger
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(authService service.AuthService, users service.UserService, roles service.RoleResolver, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{authService: authService, users: users, roles: roles, logger: logger}
}

// CredentialsRequest is the body of sign-up and sign-in.
type CredentialsRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// RefreshRequest represents a token refresh request.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

// SignOutRequest represents a sign-out request. An empty token still succeeds.
type SignOutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// RoleResponse carries the caller's resolved role.
type RoleResponse struct {
	Role model.Role `json:"role"`
}

// VerifyResponse is returned after a successful email verification.
type VerifyResponse struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

// SignUp godoc
// @Summary Create an account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Email and password"
// @Success 200 {object} service.SignUpResult
// @Failure 400 {object} errors.ErrorResponse
// @Failure 409 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /auth/signup [post]
func (h *AuthHandler) SignUp(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(err)
	}

	result, err := h.authService.SignUp(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, result)
}

// SignIn godoc
// @Summary Sign in with email and password
// @Tags auth
// @Accept json
// @Produce json
// @Param request body CredentialsRequest true "Email and password"
// @Success 200 {object} service.Session
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /auth/signin [post]
func (h *AuthHandler) SignIn(c echo.Context) error {
	var req CredentialsRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(err)
	}

	session, err := h.authService.SignIn(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, session)
}

// SignOut godoc
// @Summary Sign out
// @Description Always succeeds so that clients can drop local state unconditionally.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body SignOutRequest false "Refresh token"
// @Success 200 {object} MessageResponse
// @Router /auth/signout [post]
func (h *AuthHandler) SignOut(c echo.Context) error {
	var req SignOutRequest
	_ = c.Bind(&req)

	if err := h.authService.SignOut(c.Request().Context(), req.RefreshToken); err != nil {
		h.logger.WarnContext(c.Request().Context(), "sign-out cleanup failed", "error", err)
	}
	return c.JSON(http.StatusOK, MessageResponse{Message: "signed out"})
}

// Refresh godoc
// @Summary Rotate the refresh token and issue a new access token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body RefreshRequest true "Refresh token"
// @Success 200 {object} service.Session
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/refresh [post]
func (h *AuthHandler) Refresh(c echo.Context) error {
	var req RefreshRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody()
	}
	if err := c.Validate(&req); err != nil {
		return validationFailed(err)
	}

	session, err := h.authService.Refresh(c.Request().Context(), req.RefreshToken)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, session)
}

// Verify godoc
// @Summary Confirm an email address
// @Tags auth
// @Produce json
// @Param token query string true "Verification token"
// @Success 200 {object} VerifyResponse
// @Failure 400 {object} errors.ErrorResponse
// @Router /auth/verify [get]
func (h *AuthHandler) Verify(c echo.Context) error {
	user, err := h.authService.VerifyEmail(c.Request().Context(), c.QueryParam("token"))
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, VerifyResponse{Message: "email verified", User: user})
}

// Me godoc
// @Summary Current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} model.User
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/me [get]
func (h *AuthHandler) Me(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(err)
	}
	user, err := h.users.GetUser(c.Request().Context(), userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return respondError(apperrors.ErrUnauthenticated)
		}
		return respondError(err)
	}
	return c.JSON(http.StatusOK, user)
}

// Role godoc
// @Summary Role of the current user
// @Description Resolved from user_roles on every call. Missing rows and lookup errors yield "none".
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} RoleResponse
// @Failure 401 {object} errors.ErrorResponse
// @Router /auth/role [get]
func (h *AuthHandler) Role(c echo.Context) error {
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, RoleResponse{Role: h.roles.Resolve(c.Request().Context(), userID)})
}
