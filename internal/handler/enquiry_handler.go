package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"techlam/internal/content"
	"techlam/internal/service"
)

// EnquiryHandler handles the public contact form.
type EnquiryHandler struct {
	enquiries service.EnquiryService
}

// NewEnquiryHandler creates a new enquiry handler.
func NewEnquiryHandler(enquiries service.EnquiryService) *EnquiryHandler {
	return &EnquiryHandler{enquiries: enquiries}
}

// Submit godoc
// @Summary Send a message through the contact form
// @Tags enquiries
// @Accept json
// @Produce json
// @Param request body content.EnquiryFields true "Enquiry"
// @Success 201 {object} model.Enquiry
// @Failure 400 {object} errors.ErrorResponse
// @Failure 429 {object} errors.ErrorResponse
// @Router /enquiries [post]
func (h *EnquiryHandler) Submit(c echo.Context) error {
	var fields content.EnquiryFields
	if err := c.Bind(&fields); err != nil {
		return invalidBody()
	}
	enquiry, err := h.enquiries.Submit(c.Request().Context(), fields)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, enquiry)
}

// List godoc
// @Summary List recent enquiries
// @Tags enquiries
// @Produce json
// @Security BearerAuth
// @Param limit query int false "Maximum number of enquiries (default 100)"
// @Success 200 {array} model.Enquiry
// @Failure 403 {object} errors.ErrorResponse
// @Router /enquiries [get]
func (h *EnquiryHandler) List(c echo.Context) error {
	limit, _ := strconv.Atoi(c.QueryParam("limit"))
	enquiries, err := h.enquiries.List(c.Request().Context(), limit)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, enquiries)
}
