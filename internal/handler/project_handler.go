package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"techlam/internal/content"
	"techlam/internal/repository"
	"techlam/internal/service"
)

// ProjectHandler handles portfolio endpoints.
type ProjectHandler struct {
	projects service.ProjectService
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(projects service.ProjectService) *ProjectHandler {
	return &ProjectHandler{projects: projects}
}

// List godoc
// @Summary List projects
// @Description Ordered by display_order ascending, then by creation time.
// @Tags projects
// @Produce json
// @Param category query string false "Only this category"
// @Param featured query bool false "Only featured projects"
// @Success 200 {array} model.Project
// @Failure 400 {object} errors.ErrorResponse
// @Router /projects [get]
func (h *ProjectHandler) List(c echo.Context) error {
	var filter repository.ProjectFilter
	if category := c.QueryParam("category"); category != "" {
		filter.Category = &category
	}
	if featured := c.QueryParam("featured"); featured != "" {
		ok, err := strconv.ParseBool(featured)
		if err != nil {
			return validationFailed(err)
		}
		filter.FeaturedOnly = ok
	}

	projects, err := h.projects.List(c.Request().Context(), filter)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, projects)
}

// Categories godoc
// @Summary Distinct project categories
// @Tags projects
// @Produce json
// @Success 200 {array} string
// @Router /projects/categories [get]
func (h *ProjectHandler) Categories(c echo.Context) error {
	categories, err := h.projects.Categories(c.Request().Context())
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, categories)
}

// Get godoc
// @Summary Get a project
// @Tags projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} model.Project
// @Failure 400 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(err)
	}
	project, err := h.projects.Get(c.Request().Context(), id)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, project)
}

// Create godoc
// @Summary Create a project
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body content.ProjectFields true "Project fields"
// @Success 201 {object} model.Project
// @Failure 400 {object} errors.ErrorResponse
// @Failure 401 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Router /projects [post]
func (h *ProjectHandler) Create(c echo.Context) error {
	var fields content.ProjectFields
	if err := c.Bind(&fields); err != nil {
		return invalidBody()
	}
	userID, err := currentUserID(c)
	if err != nil {
		return respondError(err)
	}

	project, err := h.projects.Create(c.Request().Context(), fields, userID)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusCreated, project)
}

// Update godoc
// @Summary Replace a project's fields
// @Tags projects
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Param request body content.ProjectFields true "Project fields"
// @Success 200 {object} model.Project
// @Failure 400 {object} errors.ErrorResponse
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /projects/{id} [put]
func (h *ProjectHandler) Update(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(err)
	}
	var fields content.ProjectFields
	if err := c.Bind(&fields); err != nil {
		return invalidBody()
	}

	project, err := h.projects.Update(c.Request().Context(), id, fields)
	if err != nil {
		return respondError(err)
	}
	return c.JSON(http.StatusOK, project)
}

// Delete godoc
// @Summary Delete a project permanently
// @Tags projects
// @Security BearerAuth
// @Param id path string true "Project ID"
// @Success 204
// @Failure 403 {object} errors.ErrorResponse
// @Failure 404 {object} errors.ErrorResponse
// @Router /projects/{id} [delete]
func (h *ProjectHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return respondError(err)
	}
	if err := h.projects.Delete(c.Request().Context(), id); err != nil {
		return respondError(err)
	}
	return c.NoContent(http.StatusNoContent)
}
