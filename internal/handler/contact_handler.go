package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"techlam/internal/content"
	"techlam/internal/service"
)

// ContactHandler serves the contact info singleton.
type ContactHandler struct {
	contact service.ContactService
}

// NewContactHandler creates a new contact info handler.
func NewContactHandler(contact service.ContactService) *ContactHandler {
	return &ContactHandler{contact: contact}
}

// Get godoc
// @Summary Get contact info
// @Tags contact
// @Produce json
// @Success 200 {object} model.ContactInfo
// @Failure 404 {object} errors.ErrorResponse
// @Router /contact-info [get]
func (h *ContactHandler) Get(c echo.Context) error {
	info, err := h.contact.Get(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, info)
}

// Upsert godoc
// @Summary Create or replace contact info
// @Description Every field is overwritten; omitted fields become null.
// @Tags contact
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body content.ContactFields true "Contact fields"
// @Success 200 {object} model.ContactInfo
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /contact-info [put]
func (h *ContactHandler) Upsert(c echo.Context) error {
	var fields content.ContactFields
	if err := c.Bind(&fields); err != nil {
		return invalidBody()
	}
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(err)
	}

	info, err := h.contact.Upsert(c.Request().Context(), fields, userID)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, info)
}
